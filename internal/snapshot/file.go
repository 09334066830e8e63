package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/steam-digest/internal/domain"
)

// FileStore persists the snapshot as a single JSON file whose shape is
// exactly the Snapshot structure: {"user": {"game": minutes}}.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted snapshot. A missing file is the normal first-run
// condition and yields an empty snapshot; a file that exists but does not
// parse or violates snapshot invariants is a hard error rather than a
// silently empty baseline.
func (f *FileStore) Load(ctx context.Context) (domain.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Snapshot{}, nil
		}
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}

	var snapshot domain.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrMalformedSnapshot, f.path, err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	if snapshot == nil {
		snapshot = domain.Snapshot{}
	}
	return snapshot, nil
}

// Save overwrites the persisted snapshot, creating the parent directory if
// needed.
func (f *FileStore) Save(ctx context.Context, snapshot domain.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot file: %w", err)
	}
	return nil
}
