package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"gastrolog/internal/store"
)

func newGCCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Run one garbage collection pass and persist the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("data")
			all, _ := cmd.Flags().GetBool("all")
			fraction, _ := cmd.Flags().GetFloat64("fraction")
			bytes, _ := cmd.Flags().GetInt64("bytes")

			var target store.GcTarget
			switch {
			case all:
				target = store.DropAllTemporal()
			case bytes > 0:
				target = store.DropAtLeastBytes(bytes)
			default:
				target = store.DropAtLeastFraction(fraction)
			}

			s, err := loadStore(path, logger)
			if err != nil {
				return err
			}
			report := s.GC(target)
			if err := saveStore(path, s); err != nil {
				return err
			}
			fmt.Printf("dropped %d chunks, %d rows, %d bytes (%s)\n",
				len(report.ChunksDropped), report.RowsDropped, report.BytesReclaimed, report.Budget)
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "drop every unprotected temporal chunk")
	cmd.Flags().Float64("fraction", 0.5, "target fraction of temporal rows to reclaim")
	cmd.Flags().Int64("bytes", 0, "target bytes of temporal data to reclaim; overrides --fraction if set")
	return cmd
}
