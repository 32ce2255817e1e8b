// Package store persists audit entries. Entries are append-only: once
// written they are never modified or removed.
package store

import (
	"context"
	"fmt"

	"incidentops/src/contracts"
)

// AuditStore defines the interface for persisting audit entries.
type AuditStore interface {
	// Append adds entry after all existing entries and returns the location
	// handle the entry can be re-loaded from.
	Append(ctx context.Context, entry contracts.AuditEntry) (string, error)

	// Get returns the most recently appended entry with the given entry id.
	Get(ctx context.Context, entryID string) (contracts.AuditEntry, error)

	// List returns every entry in append order.
	List(ctx context.Context) ([]contracts.AuditEntry, error)

	// Close releases the store.
	Close() error
}

// ErrNotFound is returned when no entry has the requested id.
type ErrNotFound struct {
	EntryID string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("audit entry not found: %s", e.EntryID)
}

// latest returns the last entry in entries with the given id.
func latest(entries []contracts.AuditEntry, entryID string) (contracts.AuditEntry, error) {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].AuditMetadata.EntryID == entryID {
			return entries[i], nil
		}
	}
	return contracts.AuditEntry{}, ErrNotFound{EntryID: entryID}
}
