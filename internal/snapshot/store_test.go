package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/steam-digest/internal/domain"
)

var sample = domain.Snapshot{
	"alice": {"Hades": 150, "Celeste": 20},
	"bob":   {"Factorio": 9000},
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "snapshot.json")
	store := NewFileStore(path)
	ctx := context.Background()

	if err := store.Save(ctx, sample); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded, sample) {
		t.Errorf("loaded = %v, want %v", loaded, sample)
	}
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("missing file must not be an error, got %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("loaded = %v, want empty snapshot", loaded)
	}
}

func TestFileStoreRejectsCorruptData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(`{"alice": "not a map"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileStore(path).Load(context.Background())
	if !errors.Is(err, domain.ErrMalformedSnapshot) {
		t.Errorf("err = %v, want ErrMalformedSnapshot", err)
	}
}

func TestFileStoreRejectsNegativePlaytime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(`{"alice": {"Hades": -5}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileStore(path).Load(context.Background())
	if !errors.Is(err, domain.ErrMalformedSnapshot) {
		t.Errorf("err = %v, want ErrMalformedSnapshot", err)
	}
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	store := NewFileStore(path)
	ctx := context.Background()

	if err := store.Save(ctx, sample); err != nil {
		t.Fatal(err)
	}
	next := domain.Snapshot{"carol": {"Rimworld": 10}}
	if err := store.Save(ctx, next); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, next) {
		t.Errorf("loaded = %v, want full overwrite %v", loaded, next)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	loaded, err := store.Load(ctx)
	if err != nil || len(loaded) != 0 {
		t.Fatalf("fresh store: loaded = %v err = %v, want empty", loaded, err)
	}

	if err := store.Save(ctx, sample); err != nil {
		t.Fatal(err)
	}
	loaded, err = store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, sample) {
		t.Errorf("loaded = %v, want %v", loaded, sample)
	}

	// Mutating the loaded copy must not leak into the store.
	loaded["alice"]["Hades"] = 1
	again, _ := store.Load(ctx)
	if again["alice"]["Hades"] != 150 {
		t.Error("store must hand out copies, not its internal state")
	}
}
