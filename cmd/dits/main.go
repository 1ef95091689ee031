// Command dits is the command-line surface over the storage and snapshot
// engine in internal/repo: init, add, remove, status, commit, checkout,
// log, fsck, stats. Presentation is plain text only (no color/TUI). Cobra
// here is used purely for command dispatch and flag parsing; every
// subcommand delegates immediately to a repo.Repository method.
package main

import (
	"log/slog"
	"os"

	"dits/internal/logging"

	"github.com/spf13/cobra"
)

func main() {
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	filterHandler := logging.NewComponentFilterHandler(baseHandler, slog.LevelInfo)
	logger := slog.New(filterHandler)

	root := &cobra.Command{
		Use:   "dits",
		Short: "Content-addressed storage and snapshot engine for large binary files",
	}
	root.PersistentFlags().String("repo", ".", "repository working directory")

	root.AddCommand(
		newInitCmd(logger),
		newAddCmd(logger),
		newRemoveCmd(logger),
		newStatusCmd(logger),
		newCommitCmd(logger),
		newCheckoutCmd(logger),
		newLogCmd(logger),
		newFsckCmd(logger),
		newStatsCmd(logger),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
