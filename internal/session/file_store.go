package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aki/kmux/internal/filemanager"
)

// FileStore implements Store using one YAML file per record. Reads and
// writes go through the flock-guarded file manager so concurrent kmux
// invocations do not corrupt each other's records.
type FileStore struct {
	rootDir string
	files   *filemanager.Manager[Record]
}

// NewFileStore creates a file-based session record store
func NewFileStore(rootDir string) Store {
	return &FileStore{
		rootDir: rootDir,
		files:   filemanager.NewManager[Record](),
	}
}

// recordFile returns the path to a record's file
func (s *FileStore) recordFile(id string) string {
	return filepath.Join(s.rootDir, fmt.Sprintf("session-%s.yaml", id))
}

// Save persists a record
func (s *FileStore) Save(ctx context.Context, record *Record) error {
	if err := s.files.Write(ctx, s.recordFile(record.ID), record); err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}
	return nil
}

// Load retrieves a record by ID
func (s *FileStore) Load(ctx context.Context, id string) (*Record, error) {
	record, err := s.files.Read(ctx, s.recordFile(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrRecordNotFound{ID: id}
		}
		return nil, fmt.Errorf("failed to load session record: %w", err)
	}
	return record, nil
}

// List returns all records
func (s *FileStore) List(ctx context.Context) ([]*Record, error) {
	if err := os.MkdirAll(s.rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	entries, err := os.ReadDir(s.rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	var records []*Record
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "session-") || !strings.HasSuffix(name, ".yaml") {
			continue
		}

		id := strings.TrimSuffix(strings.TrimPrefix(name, "session-"), ".yaml")
		record, err := s.Load(ctx, id)
		if err != nil {
			continue // Skip invalid records
		}
		records = append(records, record)
	}

	return records, nil
}

// Remove deletes a record
func (s *FileStore) Remove(ctx context.Context, id string) error {
	if err := s.files.Delete(ctx, s.recordFile(id)); err != nil {
		return fmt.Errorf("failed to remove session record: %w", err)
	}
	return nil
}
