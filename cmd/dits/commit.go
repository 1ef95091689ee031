package main

import (
	"fmt"
	"log/slog"

	"dits/internal/repo"

	"github.com/spf13/cobra"
)

func newCommitCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Snapshot the staged index",
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, _ := cmd.Flags().GetString("repo")
			message, _ := cmd.Flags().GetString("message")

			r, err := repo.Open(workDir, logger)
			if err != nil {
				return err
			}
			id, err := r.Commit(message)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id.String())
			return nil
		},
	}
	cmd.Flags().StringP("message", "m", "", "commit message")
	return cmd
}
