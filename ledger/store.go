/*
store.go - Persistence interfaces for the ledger core

PURPOSE:
  Defines the interface between the ledger domain logic and the database.
  The Synchronizer, SequenceGenerator and report engine depend only on
  these interfaces; store/sqlite provides the production implementation.

IDEMPOTENCY CONTRACT:
  Mirrored writes are conditional upserts keyed on (Source, SourceRef),
  NOT read-check-then-write pairs. The store backs this with a unique
  index so a retried or double-delivered source-document event can never
  produce a duplicate entry.

COUNTER CONTRACT:
  Next() must be a single atomic fetch-and-increment at the storage layer.
  It is the only piece of shared mutable state in the engine and must
  never block readers.
*/
package ledger

import "context"

// EntryStore persists ledger entries.
type EntryStore interface {
	// Insert adds a new entry. Used for MANUAL entries.
	Insert(ctx context.Context, e Entry) error

	// Update replaces all user-editable fields of an existing entry.
	Update(ctx context.Context, e Entry) error

	// Delete removes an entry by id. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// Get returns an entry by id, ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Entry, error)

	// List returns the owner's entries in [r.Start, r.End], newest first,
	// paginated. Also returns the total number of matching entries.
	List(ctx context.Context, owner string, r DateRange, page, limit int) ([]Entry, int, error)

	// LoadRange returns the owner's entries in [r.Start, r.End] in
	// ascending date order. This is the report engine's read path.
	LoadRange(ctx context.Context, owner string, r DateRange) ([]Entry, error)

	// UpsertMirror creates the mirrored entry for e.Source/e.SourceRef or,
	// if one already exists, replaces its mirrored fields. Returns whether
	// a new entry was created.
	UpsertMirror(ctx context.Context, e Entry) (created bool, err error)

	// InsertMirrorIfAbsent creates the mirrored entry only when none exists
	// for e.Source/e.SourceRef. Returns false, nil when the entry was
	// already present (idempotent no-op).
	InsertMirrorIfAbsent(ctx context.Context, e Entry) (created bool, err error)

	// DeleteMirror removes the mirrored entry for a source document.
	// Absence of a match is not an error.
	DeleteMirror(ctx context.Context, source SourceType, ref string) error

	// FindBySource returns the mirrored entry for a source document,
	// ErrNotFound if none exists.
	FindBySource(ctx context.Context, source SourceType, ref string) (*Entry, error)
}

// CounterStore is atomic named counters. The invoice sequence is the only
// counter today, but the contract is generic.
type CounterStore interface {
	// Next atomically increments the named counter and returns the new
	// value, initializing it to 1 on first use. Two concurrent callers
	// never observe the same value.
	Next(ctx context.Context, name string) (int64, error)
}
