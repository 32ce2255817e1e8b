package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"incidentops/src/contracts"
	"incidentops/src/logger"
)

// FileStore keeps every entry in a single JSON array file. Each append
// reads the whole file and rewrites it through a temp file and rename.
type FileStore struct {
	path   string
	logger logger.Logger
	mu     sync.Mutex
}

// NewFileStore creates a store backed by the file at path. The file is
// created on the first append.
func NewFileStore(path string, log logger.Logger) *FileStore {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &FileStore{path: path, logger: log}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Append adds entry to the file. A missing or unreadable collection is
// replaced by a fresh one holding only entry.
func (s *FileStore) Append(ctx context.Context, entry contracts.AuditEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		s.logger.Error("[AuditStore] Starting fresh collection at %s: %v", s.path, err)
		entries = nil
	}
	entries = append(entries, entry)

	if err := s.write(entries); err != nil {
		return "", err
	}
	return s.path, nil
}

// Get returns the latest entry with entryID.
func (s *FileStore) Get(ctx context.Context, entryID string) (contracts.AuditEntry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return contracts.AuditEntry{}, err
	}
	return latest(entries, entryID)
}

// List returns every entry in the file. A missing file is an empty collection.
func (s *FileStore) List(ctx context.Context) ([]contracts.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if errors.Is(err, fs.ErrNotExist) {
		return []contracts.AuditEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() ([]contracts.AuditEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var entries []contracts.AuditEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse audit log %s: %w", s.path, err)
	}
	if entries == nil {
		entries = []contracts.AuditEntry{}
	}
	return entries, nil
}

func (s *FileStore) write(entries []contracts.AuditEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal audit log: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace audit log: %w", err)
	}
	return nil
}
