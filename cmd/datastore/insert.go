package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/spf13/cobra"

	"gastrolog/internal/chunk"
	"gastrolog/internal/component"
	"gastrolog/internal/entitypath"
	"gastrolog/internal/ids"
	"gastrolog/internal/timeline"
)

func newInsertCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert one row for one entity/component, static or on a timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("data")
			entity, _ := cmd.Flags().GetString("entity")
			componentName, _ := cmd.Flags().GetString("component")
			archetype, _ := cmd.Flags().GetString("archetype")
			field, _ := cmd.Flags().GetString("field")
			tlName, _ := cmd.Flags().GetString("timeline")
			tlType, _ := cmd.Flags().GetString("timeline-type")
			at, _ := cmd.Flags().GetInt64("at")
			values, _ := cmd.Flags().GetString("values")

			c, err := buildInsertChunk(entity, component.Descriptor{Archetype: archetype, Field: field, Component: componentName}, tlName, tlType, at, values)
			if err != nil {
				return err
			}

			s, err := loadStore(path, logger)
			if err != nil {
				return err
			}
			id := s.Insert(c)
			if err := saveStore(path, s); err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
	cmd.Flags().String("entity", "", "entity path, e.g. /robot/arm (required)")
	cmd.Flags().String("component", "", "component name (required)")
	cmd.Flags().String("archetype", "", "optional archetype name")
	cmd.Flags().String("field", "", "optional field name")
	cmd.Flags().String("timeline", "", "timeline name; omit for a static row")
	cmd.Flags().String("timeline-type", "sequence", "timeline type: sequence, timestamp_ns, duration_ns")
	cmd.Flags().Int64("at", 0, "time on the timeline (ignored for a static row)")
	cmd.Flags().String("values", "", "comma-separated int64 values for the component (required)")
	cmd.MarkFlagRequired("entity")
	cmd.MarkFlagRequired("component")
	cmd.MarkFlagRequired("values")
	return cmd
}

func buildInsertChunk(entityPath string, desc component.Descriptor, tlName, tlType string, at int64, valuesCSV string) (*chunk.Chunk, error) {
	vals, err := parseInt64CSV(valuesCSV)
	if err != nil {
		return nil, err
	}

	mem := memory.NewGoAllocator()
	lb := array.NewListBuilder(mem, arrow.PrimitiveTypes.Int64)
	defer lb.Release()
	vb := lb.ValueBuilder().(*array.Int64Builder)
	lb.Append(true)
	for _, v := range vals {
		vb.Append(v)
	}
	arr := lb.NewListArray()

	entity := entitypath.Parse(entityPath)
	builder := chunk.NewBuilder(entity).
		WithRowIds([]ids.RowId{ids.NewRowId()}).
		WithComponent(desc, arr)

	if tlName != "" {
		typ, err := timeline.ParseType(tlType)
		if err != nil {
			return nil, err
		}
		tl := timeline.New(tlName, typ)
		builder = builder.WithTimeColumn(chunk.TimeColumn{Timeline: tl, Times: []int64{at}})
	}

	return builder.Build()
}

func parseInt64CSV(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	out := make([]int64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse value %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}
