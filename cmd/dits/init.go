package main

import (
	"fmt"
	"log/slog"

	"dits/internal/repo"

	"github.com/spf13/cobra"
)

func newInitCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a new repository in the working directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, _ := cmd.Flags().GetString("repo")
			r, err := repo.Init(workDir, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized repository in %s\n", r.DotDir)
			return nil
		},
	}
}
