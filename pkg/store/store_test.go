package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/CTAG07/wordchain/pkg/markov"
)

// setupTestDB creates a new SQLite database and a Store for testing.
// It uses t.Cleanup to ensure resources are released.
func setupTestDB(t *testing.T) (*sql.DB, *Store) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(dbFile)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}
	// Second call must be a no-op.
	if err := SetupSchema(db); err != nil {
		t.Fatalf("SetupSchema is not idempotent: %v", err)
	}

	s, err := New(db)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)

	return db, s
}

func newChain(t *testing.T, order int, corpus string) *markov.Chain {
	t.Helper()
	c, err := markov.New(order)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = c.Ingest(corpus); err != nil {
		t.Fatalf("setup: Ingest() failed: %v", err)
	}
	return c
}

func TestSaveAndLoad(t *testing.T) {
	_, s := setupTestDB(t)
	ctx := context.Background()

	chain := newChain(t, 1, "the cat the dog the cat")
	if err := s.Save(ctx, "pets", chain); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := s.Load(ctx, "pets")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Order() != 1 {
		t.Errorf("expected order 1, got %d", loaded.Order())
	}
	// Duplicates and their order must survive the round trip.
	if !reflect.DeepEqual(loaded.Table(), chain.Table()) {
		t.Errorf("loaded table = %v, want %v", loaded.Table(), chain.Table())
	}
	if !reflect.DeepEqual(loaded.States(), chain.States()) {
		t.Errorf("loaded state order = %v, want %v", loaded.States(), chain.States())
	}
}

func TestSaveReplaces(t *testing.T) {
	db, s := setupTestDB(t)
	ctx := context.Background()

	if err := s.Save(ctx, "corpus", newChain(t, 1, "a b c d e f")); err != nil {
		t.Fatal(err)
	}
	replacement := newChain(t, 2, "x y z")
	if err := s.Save(ctx, "corpus", replacement); err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}

	loaded, err := s.Load(ctx, "corpus")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Order() != 2 || !reflect.DeepEqual(loaded.Table(), replacement.Table()) {
		t.Errorf("expected the replacement chain, got order %d table %v", loaded.Order(), loaded.Table())
	}

	var count int
	_ = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM wordchain_successors").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 successor row after replacement, found %d", count)
	}
}

func TestLoadMissing(t *testing.T) {
	_, s := setupTestDB(t)
	_, err := s.Load(context.Background(), "nonexistent")
	if !errors.Is(err, ErrChainNotFound) {
		t.Errorf("expected ErrChainNotFound, got %v", err)
	}
}

func TestListAndRemove(t *testing.T) {
	db, s := setupTestDB(t)
	ctx := context.Background()

	_ = s.Save(ctx, "to_delete", newChain(t, 1, "delete this data"))
	_ = s.Save(ctx, "to_keep", newChain(t, 2, "keep this data please"))

	chains, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	want := []ChainInfo{
		{Name: "to_delete", Order: 1, States: 2},
		{Name: "to_keep", Order: 2, States: 2},
	}
	if len(chains) != len(want) {
		t.Fatalf("expected %d chains, got %+v", len(want), chains)
	}
	for i := range want {
		chains[i].Id = 0
		if chains[i] != want[i] {
			t.Errorf("chain %d = %+v, want %+v", i, chains[i], want[i])
		}
	}

	if err = s.Remove(ctx, "to_delete"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if _, err = s.Load(ctx, "to_delete"); !errors.Is(err, ErrChainNotFound) {
		t.Errorf("expected ErrChainNotFound for removed chain, got %v", err)
	}
	if err = s.Remove(ctx, "to_delete"); err != nil {
		t.Errorf("removing a missing chain should not fail, got %v", err)
	}

	var count int
	_ = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM wordchain_states").Scan(&count)
	if count != 2 {
		t.Errorf("expected only the kept chain's 2 states to remain, found %d", count)
	}
	if _, err = s.Load(ctx, "to_keep"); err != nil {
		t.Errorf("kept chain could not be loaded: %v", err)
	}
}

func TestSaveEmptyName(t *testing.T) {
	_, s := setupTestDB(t)
	if err := s.Save(context.Background(), "", newChain(t, 1, "a b")); err == nil {
		t.Error("expected an error for an empty name")
	}
}
