package store

import (
	"context"
	"sync"

	"incidentops/src/contracts"
)

// MemoryLocation is the location handle reported by MemoryStore.
const MemoryLocation = "memory"

// MemoryStore is a thread-safe in-memory implementation of AuditStore.
// Used by tests and the MCP server.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []contracts.AuditEntry
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append stores entry.
func (s *MemoryStore) Append(ctx context.Context, entry contracts.AuditEntry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	return MemoryLocation, nil
}

// Get returns the latest entry with entryID.
func (s *MemoryStore) Get(ctx context.Context, entryID string) (contracts.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return latest(s.entries, entryID)
}

// List returns a copy of all entries.
func (s *MemoryStore) List(ctx context.Context) ([]contracts.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]contracts.AuditEntry, len(s.entries))
	copy(result, s.entries)
	return result, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
