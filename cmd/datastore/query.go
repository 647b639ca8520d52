package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/spf13/cobra"

	"gastrolog/internal/chunk"
	"gastrolog/internal/component"
	"gastrolog/internal/entitypath"
	"gastrolog/internal/timeline"
)

func newLatestAtCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latest-at",
		Short: "Print the latest row at or before a time on a timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("data")
			entity, _ := cmd.Flags().GetString("entity")
			componentName, _ := cmd.Flags().GetString("component")
			tlName, _ := cmd.Flags().GetString("timeline")
			tlType, _ := cmd.Flags().GetString("timeline-type")
			at, _ := cmd.Flags().GetInt64("at")

			typ, err := timeline.ParseType(tlType)
			if err != nil {
				return err
			}
			tl := timeline.New(tlName, typ)
			desc := component.New(componentName)

			s, err := loadStore(path, logger)
			if err != nil {
				return err
			}
			row, ok, err := s.LatestAt(entitypath.Parse(entity), desc, tl, timeline.Temporal(at))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("no row found")
				return nil
			}
			printRow(row)
			return nil
		},
	}
	cmd.Flags().String("entity", "", "entity path")
	cmd.Flags().String("component", "", "component name")
	cmd.Flags().String("timeline", "", "timeline name")
	cmd.Flags().String("timeline-type", "sequence", "timeline type: sequence, timestamp_ns, duration_ns")
	cmd.Flags().Int64("at", 0, "time to query at")
	cmd.MarkFlagRequired("entity")
	cmd.MarkFlagRequired("component")
	cmd.MarkFlagRequired("timeline")
	return cmd
}

func newRangeCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "range",
		Short: "Print every row in a closed time interval on a timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("data")
			entity, _ := cmd.Flags().GetString("entity")
			componentName, _ := cmd.Flags().GetString("component")
			tlName, _ := cmd.Flags().GetString("timeline")
			tlType, _ := cmd.Flags().GetString("timeline-type")
			lo, _ := cmd.Flags().GetInt64("lo")
			hi, _ := cmd.Flags().GetInt64("hi")

			typ, err := timeline.ParseType(tlType)
			if err != nil {
				return err
			}
			tl := timeline.New(tlName, typ)
			desc := component.New(componentName)

			s, err := loadStore(path, logger)
			if err != nil {
				return err
			}
			rows, err := s.Range(entitypath.Parse(entity), desc, tl, timeline.Temporal(lo), timeline.Temporal(hi))
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("no rows found")
				return nil
			}
			for _, row := range rows {
				printRow(row)
			}
			return nil
		},
	}
	cmd.Flags().String("entity", "", "entity path")
	cmd.Flags().String("component", "", "component name")
	cmd.Flags().String("timeline", "", "timeline name")
	cmd.Flags().String("timeline-type", "sequence", "timeline type: sequence, timestamp_ns, duration_ns")
	cmd.Flags().Int64("lo", 0, "lower bound, inclusive")
	cmd.Flags().Int64("hi", 0, "upper bound, inclusive")
	cmd.MarkFlagRequired("entity")
	cmd.MarkFlagRequired("component")
	cmd.MarkFlagRequired("timeline")
	return cmd
}

func newStaticLatestCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "static-latest",
		Short: "Print the latest static row for an entity/component",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("data")
			entity, _ := cmd.Flags().GetString("entity")
			componentName, _ := cmd.Flags().GetString("component")

			desc := component.New(componentName)
			s, err := loadStore(path, logger)
			if err != nil {
				return err
			}
			uc, ok := s.StaticLatest(entitypath.Parse(entity), desc)
			if !ok {
				fmt.Println("no static row found")
				return nil
			}
			printRow(uc.RowAt(desc, timeline.Timeline{}, 0))
			return nil
		},
	}
	cmd.Flags().String("entity", "", "entity path")
	cmd.Flags().String("component", "", "component name")
	cmd.MarkFlagRequired("entity")
	cmd.MarkFlagRequired("component")
	return cmd
}

func printRow(row chunk.Row) {
	var timeStr string
	if row.HasTime {
		timeStr = row.Time.String()
	} else {
		timeStr = "static"
	}
	fmt.Printf("%s\t%s\t%s\n", row.RowId, timeStr, formatListRow(row.Value))
}

func formatListRow(v *array.List) string {
	if v == nil || v.Len() == 0 {
		return "<null>"
	}
	start, end := v.ValueOffsets(0)
	values, ok := v.ListValues().(*array.Int64)
	if !ok {
		return "<unsupported value type>"
	}
	parts := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		parts = append(parts, fmt.Sprint(values.Value(int(i))))
	}
	return strings.Join(parts, ",")
}
