package main

import (
	"fmt"
	"log/slog"
	"time"

	"dits/internal/objid"
	"dits/internal/repo"
	"dits/internal/snapshot"

	"github.com/spf13/cobra"
)

func newLogCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show commit history, first-parent order",
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, _ := cmd.Flags().GetString("repo")
			limit, _ := cmd.Flags().GetInt("limit")

			r, err := repo.Open(workDir, logger)
			if err != nil {
				return err
			}
			start, err := r.Refs.ResolveHead()
			if err != nil {
				return err
			}
			return r.Log(start, limit, func(id objid.ID, c snapshot.Commit) error {
				t := time.Unix(c.Timestamp, 0).UTC().Format(time.RFC3339)
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s <%s>  %s\n", id, t, c.Author.Name, c.Author.Email, c.Message)
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", 0, "maximum commits to show (0 = unlimited)")
	return cmd
}
