// Package remote defines the contract every remote list store implements
// and opens a concrete backend from a connection URL.
package remote

import (
	"context"
	"time"

	"todo/internal/service"
)

// DefaultTimeout bounds every single remote call unless the URL overrides it.
const DefaultTimeout = 10 * time.Second

// Store is a remote collection named "lists" holding one document per list,
// keyed by name. Implementations return only service errors: a missing list
// is ErrListNotFound and everything else is ErrRemote or ErrSerialization.
type Store interface {
	// FindAll returns every list. Order is not significant.
	FindAll(ctx context.Context) ([]service.List, error)

	// FindOne returns the named list or ErrListNotFound.
	FindOne(ctx context.Context, name string) (service.List, error)

	// Upsert replaces the list with the same name or inserts it.
	Upsert(ctx context.Context, list service.List) error

	// Insert adds a list. A list with the same name must not exist.
	Insert(ctx context.Context, list service.List) error

	// DeleteOne removes the named list or returns ErrListNotFound.
	DeleteOne(ctx context.Context, name string) error

	// DeleteAll removes every list.
	DeleteAll(ctx context.Context) error

	// Drop resets the collection. Push calls it before reinserting.
	Drop(ctx context.Context) error

	// Close releases connections.
	Close() error
}

// Replacer is implemented by stores that can swap the whole collection
// in one transaction.
type Replacer interface {
	ReplaceAll(ctx context.Context, lists []service.List) error
}
