package memory

import (
	"context"
	"testing"

	"gastrolog/internal/config"
)

func TestLoadBeforeSaveReturnsNil(t *testing.T) {
	s := NewStore()
	cfg, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != nil {
		t.Fatalf("expected nil config before any Save, got %+v", cfg)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s := NewStore()
	want := config.Default()
	want.ChunkMaxRows = 42

	if err := s.Save(context.Background(), &want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.ChunkMaxRows != 42 {
		t.Fatalf("got %+v, want ChunkMaxRows=42", got)
	}
}

func TestSaveCopiesRatherThanAliasing(t *testing.T) {
	s := NewStore()
	cfg := config.Default()
	if err := s.Save(context.Background(), &cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	cfg.ChunkMaxRows = 999

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ChunkMaxRows == 999 {
		t.Fatalf("Store aliased the caller's Config instead of copying it")
	}
}
