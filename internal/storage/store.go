// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"roommates/internal/core"
)

// Store persists whole-collection snapshots of roommates and expenses.
// Backends replace the stored collection on every save; there are no
// partial writes.
type Store interface {
	// Load returns the persisted state, initializing empty collections when
	// nothing has been stored yet. Malformed data is an error.
	Load(ctx context.Context) (core.Snapshot, error)

	// SaveRoommates replaces the stored roommate collection.
	SaveRoommates(ctx context.Context, roommates []core.Roommate) error

	// SaveExpenses replaces the stored expense collection.
	SaveExpenses(ctx context.Context, expenses []core.Expense) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
