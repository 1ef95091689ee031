package main

import (
	"context"
	"fmt"
	"log/slog"

	"dits/internal/repo"

	"github.com/spf13/cobra"
)

func newAddCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>...",
		Short: "Stage one or more files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, _ := cmd.Flags().GetString("repo")
			r, err := repo.Open(workDir, logger)
			if err != nil {
				return err
			}
			results, err := r.Add(context.Background(), args)
			if err != nil {
				return err
			}
			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %v\n", res.Path, res.Err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "staged %s\n", res.Path)
			}
			if failed > 0 {
				return fmt.Errorf("add: %d of %d paths failed", failed, len(results))
			}
			return nil
		},
	}
}
