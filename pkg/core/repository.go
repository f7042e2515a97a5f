package core

import "context"

// Repository defines the contract for the append-only reflection store.
// Adhering to this interface allows the service to be independent of the
// underlying storage mechanism (JSON document, SQLite, ...).
type Repository interface {
	// List returns all persisted entries in store order.
	// A missing or undecodable backing document yields an empty slice and a
	// nil error; only genuine read failures are returned.
	List(ctx context.Context) ([]Entry, error)

	// Append persists e and returns the stored entry (with its final ID) and
	// the updated sequence. Appends are serialized; a failed write returns a
	// *StorageWriteError and nothing is persisted.
	Append(ctx context.Context, e Entry) (AppendResult, error)

	// Initialize ensures the underlying storage is ready (directories, schema).
	Initialize(ctx context.Context) error
}

// AppendResult is the outcome of a successful Append.
type AppendResult struct {
	Entry   Entry
	Entries []Entry
}

// Watchable is implemented by repositories that can report changes made to
// their storage, including by other processes.
type Watchable interface {
	Watch(ctx context.Context) (<-chan Event, error)
}
