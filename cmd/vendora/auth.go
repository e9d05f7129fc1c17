package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/vendora/session"
)

func passwordFlag(cmd *cobra.Command, flagValue, prompt string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return readPassword(cmd.InOrStdin(), prompt)
}

func newLoginCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			pw, err := passwordFlag(cmd, password, "Password: ")
			if err != nil {
				return err
			}
			res, err := a.provider.Login(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", res.User.DisplayName(), res.User.EffectiveRole())
			return err
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var (
		password string
		info     session.RegistrationInfo
		address  string
	)
	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			pw, err := passwordFlag(cmd, password, "Choose a password: ")
			if err != nil {
				return err
			}
			info.City, info.State = session.ParseAddress(address)
			res, err := a.provider.Register(cmd.Context(), args[0], pw, info)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.ConfirmationRequired {
				_, err = fmt.Fprintln(out, "Check your email to confirm the account, then run `vendora login`.")
				return err
			}
			_, err = fmt.Fprintf(out, "Welcome, %s\n", res.User.DisplayName())
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&password, "password", "", "password (prompted when omitted)")
	f.StringVar(&info.FullName, "name", "", "full name")
	f.StringVar(&info.Role, "role", session.RoleCustomer, "customer or seller")
	f.StringVar(&address, "address", "", `"City, State"`)
	f.BoolVar(&info.CommissionAgreed, "agree-commission", false, "sellers: accept the 10% commission")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear cached data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ctx, _ := a.userContext(cmd.Context())
			a.provider.Logout(ctx)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return err
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			_, snap := a.userContext(cmd.Context())
			if !snap.SignedIn() {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return err
			}
			return writeUser(cmd.OutOrStdout(), snap.User)
		},
	}
}

func newPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Reset or change your password",
	}

	reset := &cobra.Command{
		Use:   "reset <email>",
		Short: "Email a password reset link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appFrom(cmd).provider.ResetPassword(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Reset link sent")
			return err
		},
	}

	var next string
	change := &cobra.Command{
		Use:   "change",
		Short: "Set a new password for the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ctx, _ := a.userContext(cmd.Context())
			pw, err := passwordFlag(cmd, next, "New password: ")
			if err != nil {
				return err
			}
			if err := a.provider.UpdatePassword(ctx, pw); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "Password updated")
			return err
		},
	}
	change.Flags().StringVar(&next, "password", "", "new password (prompted when omitted)")

	cmd.AddCommand(reset, change)
	return cmd
}
