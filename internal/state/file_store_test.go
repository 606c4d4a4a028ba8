package state

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"seatwatch/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSnapshot() domain.StatusMap {
	snapshot := domain.NewStatusMap(domain.Month{Year: 2026, Month: time.February})
	snapshot[5] = domain.StatusOpen
	snapshot[12] = domain.StatusLimited
	return snapshot
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "snapshot.json")
	store, err := NewFileStore(path, testLogger())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	defer store.Close()

	saved := testSnapshot()
	if err := store.Save(context.Background(), saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, found, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatal("expected snapshot after save")
	}
	if !loaded.Equal(saved) {
		t.Fatalf("round trip changed snapshot:\nsaved=%v\nloaded=%v", saved, loaded)
	}
}

func TestFileStoreMissingFileIsAbsent(t *testing.T) {
	t.Parallel()

	store, err := NewFileStore(filepath.Join(t.TempDir(), "never-written.json"), testLogger())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	snapshot, found, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found || snapshot != nil {
		t.Fatalf("missing file must read as absent, got found=%v snapshot=%v", found, snapshot)
	}
}

func TestFileStoreCorruptFileIsAbsent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(`{"5": "open", "6":`), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	store, err := NewFileStore(path, testLogger())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	_, found, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("corrupt snapshot must not surface an error, got %v", err)
	}
	if found {
		t.Fatal("corrupt snapshot must read as absent")
	}
}

func TestFileStoreInvalidEntriesAreAbsent(t *testing.T) {
	t.Parallel()

	// Valid JSON, but not a valid snapshot: unknown status word.
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(`{"5": "maybe"}`), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	store, err := NewFileStore(path, testLogger())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	_, found, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatal("snapshot with unknown status must read as absent")
	}
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "snapshot.json")
	store, err := NewFileStore(path, testLogger())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	first := testSnapshot()
	if err := store.Save(context.Background(), first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second := first.Clone()
	second[5] = domain.StatusFull
	if err := store.Save(context.Background(), second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, found, err := store.Load(context.Background())
	if err != nil || !found {
		t.Fatalf("load after overwrite: found=%v err=%v", found, err)
	}
	if loaded[5] != domain.StatusFull {
		t.Fatalf("expected overwritten day 5 to be full, got %q", loaded[5])
	}
}

func TestNewFileStoreRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := NewFileStore("", testLogger()); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	defer store.Close()

	if _, found, err := store.Load(context.Background()); err != nil || found {
		t.Fatalf("fresh store must read as absent, got found=%v err=%v", found, err)
	}

	saved := testSnapshot()
	if err := store.Save(context.Background(), saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, found, err := store.Load(context.Background())
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if !loaded.Equal(saved) {
		t.Fatalf("round trip changed snapshot:\nsaved=%v\nloaded=%v", saved, loaded)
	}

	// Mutating the loaded copy must not leak back into the store.
	loaded[5] = domain.StatusFull
	again, _, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again[5] != domain.StatusOpen {
		t.Fatalf("store must hand out copies, got day 5 = %q", again[5])
	}
}
