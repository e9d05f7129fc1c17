package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear cached marketplace data",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "List cached entries with their age",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a := appFrom(cmd)
				entries := a.cache.Describe(cmd.Context())
				out := cmd.OutOrStdout()
				if _, err := fmt.Fprintf(out, "%d cached entries (%s store, prefix %q)\n",
					len(entries), a.cfg.Store.Kind, a.cache.Prefix()); err != nil {
					return err
				}
				if len(entries) == 0 {
					return nil
				}
				return writeCacheEntries(out, entries)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every cached entry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				n := appFrom(cmd).cache.ClearAll(cmd.Context())
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached entries\n", n)
				return err
			},
		},
	)
	return cmd
}
