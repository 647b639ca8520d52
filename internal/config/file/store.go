// Package file provides a file-based config.Store implementation.
//
// Configuration is persisted as a versioned JSON envelope:
//
//	{"version": 1, "config": { ... }}
//
// Save writes a fresh envelope holding the given config and atomically
// replaces the whole file via a temp-file-then-rename. This is the nature
// of JSON — every mutation rewrites the file.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gastrolog/internal/config"
)

const currentVersion = 1

// envelope is the versioned on-disk format.
type envelope struct {
	Version int            `json:"version"`
	Config  *config.Config `json:"config"`
}

// Store is a file-based config.Store implementation.
type Store struct {
	path string
}

var _ config.Store = (*Store)(nil)

// NewStore creates a new file-based Store backed by path.
func NewStore(path string) *Store { return &Store{path: path} }

// Load reads the configuration from disk. Returns nil, nil if the file
// does not exist.
func (s *Store) Load(ctx context.Context) (*config.Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("config: parse file: %w", err)
	}

	if env.Version == 0 {
		return nil, fmt.Errorf("config: unversioned config file %s; delete it and restart to bootstrap a fresh config", s.path)
	}
	if env.Version > currentVersion {
		return nil, fmt.Errorf("config: file version %d is newer than supported version %d", env.Version, currentVersion)
	}
	if env.Version < currentVersion {
		migrated, err := migrate(data, env.Version)
		if err != nil {
			return nil, fmt.Errorf("config: migrate: %w", err)
		}
		if err := json.Unmarshal(migrated, &env); err != nil {
			return nil, fmt.Errorf("config: parse migrated file: %w", err)
		}
	}

	return env.Config, nil
}

// Save persists cfg, replacing whatever was previously at path.
func (s *Store) Save(ctx context.Context, cfg *config.Config) error {
	env := envelope{Version: currentVersion, Config: cfg}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("config: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("config: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("config: rename temp file: %w", err)
	}
	return nil
}
