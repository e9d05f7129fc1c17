package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonwraymond/vendora/config"
)

type appKey struct{}

func newRootCmd() *cobra.Command {
	var configPath string
	v := viper.New()

	root := &cobra.Command{
		Use:           "vendora",
		Short:         "Browse and shop the Vendora marketplace from a terminal.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context(), config.Options{Path: configPath, Viper: v})
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, appOptions{logOutput: logOutput(cmd)})
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a := appFrom(cmd); a != nil {
				return a.Close(context.WithoutCancel(cmd.Context()))
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ./vendora.yaml or $HOME/.vendora/vendora.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("store", "", "local store: memory, sqlite, redis or bigcache")
	flags.String("store-path", "", "SQLite store file")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("store.kind", flags.Lookup("store"))
	_ = v.BindPFlag("store.path", flags.Lookup("store-path"))

	root.AddCommand(
		newLoginCmd(),
		newRegisterCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newPasswordCmd(),
		newProductsCmd(),
		newCategoriesCmd(),
		newWishlistCmd(),
		newOrdersCmd(),
		newCartCmd(),
		newCacheCmd(),
		newServeCmd(),
	)
	return root
}

func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}

// logOutput keeps logs off stdout so command output stays pipeable.
func logOutput(cmd *cobra.Command) io.Writer {
	return cmd.ErrOrStderr()
}
