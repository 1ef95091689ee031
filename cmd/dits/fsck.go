package main

import (
	"fmt"
	"log/slog"

	"dits/internal/repo"

	"github.com/spf13/cobra"
)

func newFsckCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "fsck",
		Short: "Check object, manifest, tree, commit, and ref integrity",
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, _ := cmd.Flags().GetString("repo")
			r, err := repo.Open(workDir, logger)
			if err != nil {
				return err
			}
			errs := r.Fsck()
			for _, e := range errs {
				fmt.Fprintln(cmd.OutOrStdout(), e.Error())
			}
			if len(errs) > 0 {
				return fmt.Errorf("fsck: %d integrity violation(s) found", len(errs))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
