package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dits/internal/repo"
	"dits/internal/stage"

	"github.com/spf13/cobra"
)

func newStatusCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show path state relative to the index and HEAD",
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, _ := cmd.Flags().GetString("repo")
			watch, _ := cmd.Flags().GetBool("watch")

			r, err := repo.Open(workDir, logger)
			if err != nil {
				return err
			}

			if !watch {
				entries, err := r.Status()
				if err != nil {
					return err
				}
				printStatus(cmd, entries)
				return nil
			}

			out := make(chan []stage.StatusEntry)
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go func() {
				for entries := range out {
					fmt.Fprintln(cmd.OutOrStdout(), "---")
					printStatus(cmd, entries)
				}
			}()
			return r.WatchStatus(ctx, 250*time.Millisecond, out)
		},
	}
	cmd.Flags().Bool("watch", false, "keep running, reprinting status as the working tree changes")
	return cmd
}

func printStatus(cmd *cobra.Command, entries []stage.StatusEntry) {
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", e.Status, e.Path)
	}
}
