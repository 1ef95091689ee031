package main

import (
	"fmt"
	"log/slog"

	"dits/internal/repo"

	"github.com/spf13/cobra"
)

func newStatsCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report deduplication statistics for HEAD (or --path for one file)",
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, _ := cmd.Flags().GetString("repo")
			path, _ := cmd.Flags().GetString("path")

			r, err := repo.Open(workDir, logger)
			if err != nil {
				return err
			}
			head, err := r.Refs.ResolveHead()
			if err != nil {
				return err
			}

			if path != "" {
				d, err := r.FileStats(head, path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: shared=%d unique=%d unique_bytes=%d\n", path, d.SharedChunks, d.UniqueChunks, d.UniquePhysBytes)
				return nil
			}

			d, err := r.Stats(head)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logical=%d physical=%d ratio=%.4f\n", d.LogicalBytes, d.PhysicalBytes, d.Ratio)
			return nil
		},
	}
	cmd.Flags().String("path", "", "report stats for a single tracked path instead of the whole repository")
	return cmd
}
