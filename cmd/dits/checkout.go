package main

import (
	"fmt"
	"log/slog"

	"dits/internal/objid"
	"dits/internal/repo"

	"github.com/spf13/cobra"
)

func newCheckoutCmd(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <commit|HEAD|refs/heads/<branch>>",
		Short: "Write a commit's tree into the working directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir, _ := cmd.Flags().GetString("repo")
			r, err := repo.Open(workDir, logger)
			if err != nil {
				return err
			}
			id, err := resolveCommitish(r, args[0])
			if err != nil {
				return err
			}
			if err := r.Checkout(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked out %s\n", id)
			return nil
		},
	}
}

// resolveCommitish accepts HEAD, a refs/heads or refs/tags name, or a raw
// "cm_<hex>" commit id.
func resolveCommitish(r *repo.Repository, ref string) (objid.ID, error) {
	if ref == "HEAD" {
		return r.Refs.ResolveHead()
	}
	if id, err := objid.Parse(ref); err == nil {
		return id, nil
	}
	return r.Refs.GetRef(ref)
}
