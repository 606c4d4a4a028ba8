package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"seatwatch/internal/domain"
)

// FileStore persists the snapshot as one JSON file on local disk.
// Params: target path and logger for corrupt-snapshot warnings.
// Returns: file-backed store implementation.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore creates a file-backed store.
// Params: snapshot file path and service logger.
// Returns: initialized file store or path error.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("state file path is empty")
	}
	return &FileStore{path: path, logger: logger}, nil
}

// Load reads and decodes the snapshot file.
// Params: context (unused, disk read).
// Returns: snapshot and found=true, or found=false when the file is
// missing or does not decode; decode failures are logged, not returned.
func (s *FileStore) Load(_ context.Context) (domain.StatusMap, bool, error) {
	body, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read state file: %w", err)
	}

	var snapshot domain.StatusMap
	if err := json.Unmarshal(body, &snapshot); err != nil {
		s.logger.Warn("discarding corrupt state file", "path", s.path, "error", err)
		return nil, false, nil
	}
	return snapshot, true, nil
}

// Save encodes the snapshot and replaces the file atomically.
// Params: context (unused) and snapshot to persist.
// Returns: encode/write/rename error.
func (s *FileStore) Save(_ context.Context, snapshot domain.StatusMap) error {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	// Write to a sibling temp file and rename so a crash mid-write never
	// leaves a truncated snapshot behind.
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Close releases file store resources.
// Params: none.
// Returns: nil.
func (s *FileStore) Close() error {
	return nil
}
