package codec

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"gastrolog/internal/format"
)

// migrationStep advances a decoded record one version forward, filling in
// whatever metadata a prior wire version omitted. Grounded in SPEC_FULL's
// "Schema Hash & Migration Table" module: the table is consulted in
// ascending version order so RRF0 -> RRF1 -> RRF2 composes.
type migrationStep func(arrow.Record) (arrow.Record, error)

// migrationTable maps a legacy magic to the step that turns it into the
// next magic in sequence. migrateFromMagic walks it until it reaches
// format.MagicCurrent.
var migrationTable = map[string]struct {
	next string
	step migrationStep
}{
	format.MagicV0: {next: format.MagicV1, step: migrateV0ToV1},
	format.MagicV1: {next: format.MagicCurrent, step: migrateV1ToV2},
}

// migrateFromMagic runs rec through every step between magic and the
// current version, in order. magic == format.MagicCurrent is a no-op.
func migrateFromMagic(magic string, rec arrow.Record) (arrow.Record, error) {
	cur := magic
	for cur != format.MagicCurrent {
		entry, ok := migrationTable[cur]
		if !ok {
			return nil, fmt.Errorf("%w: no migration step from %q", ErrMigrationUnsupported, cur)
		}
		var err error
		rec, err = entry.step(rec)
		if err != nil {
			return nil, err
		}
		cur = entry.next
	}
	return rec, nil
}

// migrateV0ToV1 fills rerun:is_sorted, which RRF0 streams never wrote.
// Every Chunk this codec can build is sorted by RowId (§3 invariant 2), so
// the default is unconditionally "true" rather than recomputed.
func migrateV0ToV1(rec arrow.Record) (arrow.Record, error) {
	return withDefaultMetadata(rec, MetaIsSorted, "true")
}

// migrateV1ToV2 fills rerun:heap_size_bytes, which RRF1 streams never
// wrote, by summing the record's column buffers.
func migrateV1ToV2(rec arrow.Record) (arrow.Record, error) {
	return withDefaultMetadata(rec, MetaHeapSizeBytes, fmt.Sprintf("%d", approxRecordBytes(rec)))
}

func withDefaultMetadata(rec arrow.Record, key, value string) (arrow.Record, error) {
	schema := rec.Schema()
	meta := schema.Metadata()
	if _, ok := meta.GetValue(key); ok {
		return rec, nil
	}

	keys := append(append([]string(nil), meta.Keys()...), key)
	values := append(append([]string(nil), meta.Values()...), value)
	newSchema := arrow.NewSchema(schema.Fields(), arrowMetadataPtr(keys, values))

	cols := make([]arrow.Array, rec.NumCols())
	for i := range cols {
		cols[i] = rec.Column(i)
	}
	return array.NewRecord(newSchema, cols, rec.NumRows()), nil
}

func arrowMetadataPtr(keys, values []string) *arrow.Metadata {
	m := arrow.NewMetadata(keys, values)
	return &m
}

func approxRecordBytes(rec arrow.Record) int64 {
	var total int64
	for i := 0; i < int(rec.NumCols()); i++ {
		total += dataByteSize(rec.Column(i).Data())
	}
	return total
}

func dataByteSize(d arrow.ArrayData) int64 {
	var total int64
	for _, buf := range d.Buffers() {
		if buf != nil {
			total += int64(buf.Len())
		}
	}
	for _, child := range d.Children() {
		total += dataByteSize(child)
	}
	return total
}
