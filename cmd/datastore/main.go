// Command datastore is an operator CLI for one Chunk Store persisted as a
// migration container file: insert a chunk, run a latest-at or range
// query, list live chunks, or run garbage collection.
//
// Logging: a base logger is built once here with a ComponentFilterHandler
// and passed down via dependency injection, matching the no-global-slog
// rule every other component in this module follows.
package main

import (
	"log/slog"
	"os"

	"gastrolog/internal/logging"

	"github.com/spf13/cobra"
)

func main() {
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	filterHandler := logging.NewComponentFilterHandler(baseHandler, slog.LevelWarn)
	logger := slog.New(filterHandler)

	rootCmd := &cobra.Command{
		Use:   "datastore",
		Short: "Operate on a Chunk Store persisted as a migration container file",
	}
	rootCmd.PersistentFlags().String("data", "store.rrf", "path to the migration container file")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			filterHandler.SetLevel("store", slog.LevelDebug)
		}
	}

	rootCmd.AddCommand(
		newInsertCmd(logger),
		newLatestAtCmd(logger),
		newRangeCmd(logger),
		newStaticLatestCmd(logger),
		newListCmd(logger),
		newGCCmd(logger),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
