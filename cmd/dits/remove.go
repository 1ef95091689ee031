package main

import (
	"fmt"
	"log/slog"

	"dits/internal/repo"

	"github.com/spf13/cobra"
)

func newRemoveCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <path>",
		Short: "Unstage a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, _ := cmd.Flags().GetString("repo")
			r, err := repo.Open(workDir, logger)
			if err != nil {
				return err
			}
			if err := r.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}
}
