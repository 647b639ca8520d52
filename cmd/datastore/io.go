package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gastrolog/internal/codec"
	"gastrolog/internal/config"
	"gastrolog/internal/format"
	"gastrolog/internal/store"
)

// loadStore reads every chunk in the migration container at path into a
// fresh Store. A missing file is treated as an empty store, matching
// config.Store's "Load returns nil if none exists" convention.
func loadStore(path string, logger *slog.Logger) (*store.Store, error) {
	cfg := config.Default()
	s := store.New(cfg.StoreConfig(logger))

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() == 0 {
		return s, nil
	}

	r, err := codec.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read container header: %w", err)
	}
	for {
		c, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, codec.ErrCorruptChunk) {
			logger.Warn("skipping corrupt chunk on load", "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read chunk: %w", err)
		}
		s.Insert(c)
	}
	return s, nil
}

// saveStore writes every live chunk in s to path, replacing whatever was
// there, via a temp-file-then-rename for atomicity (the same pattern
// internal/config/file uses for its own persisted state).
func saveStore(path string, s *store.Store) error {
	dir := "."
	tmp, err := os.CreateTemp(dir, ".datastore-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := codec.NewWriter(tmp, format.CompressionLZ4)
	for _, c := range s.All() {
		if err := w.WriteChunk(c); err != nil {
			tmp.Close()
			return fmt.Errorf("write chunk: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
