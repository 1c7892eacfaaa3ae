package service

import "context"

// Service defines the task operations available to commands.
// Local edits never touch the remote store; only Push and Pull do.
// Commands never import the cache or a remote backend directly.
type Service interface {
	// CreateList inserts an empty list, replacing any list with the same name.
	CreateList(ctx context.Context, name string) error

	// AddItem appends item to the named list.
	// Returns ErrListNotFound if the list does not exist.
	AddItem(ctx context.Context, list string, item Item) error

	// Lists returns a snapshot of every list. Order is not significant.
	Lists(ctx context.Context) ([]List, error)

	// List returns a snapshot of one list.
	List(ctx context.Context, name string) (List, error)

	// SetCompleted sets the completion flag of item n (1-based).
	// Returns ErrListNotFound or ErrItemNotFound.
	SetCompleted(ctx context.Context, list string, n int, completed bool) error

	// RemoveItem removes item n (1-based); later items shift down by one.
	RemoveItem(ctx context.Context, list string, n int) error

	// RemoveList deletes the named list.
	RemoveList(ctx context.Context, name string) error

	// RemoveAllLists empties the local cache.
	RemoveAllLists(ctx context.Context) error

	// Push overwrites the remote store with the local cache.
	Push(ctx context.Context) (SyncResult, error)

	// Pull brings remote lists into the local cache using the given policy.
	// An empty policy selects the configured default.
	Pull(ctx context.Context, policy PullPolicy) (SyncResult, error)

	// Status reports the dirty flag and the last successful push time.
	Status(ctx context.Context) (SyncStatus, error)
}

// PullPolicy selects how Pull reconciles remote lists with local ones.
type PullPolicy string

const (
	// PullReplace rebuilds the local cache entirely from the remote store.
	PullReplace PullPolicy = "replace"

	// PullMerge creates or overwrites lists that differ remotely and keeps
	// lists that exist only locally.
	PullMerge PullPolicy = "merge"
)

// ParsePullPolicy validates a policy name. The empty string yields PullReplace.
func ParsePullPolicy(s string) (PullPolicy, error) {
	switch PullPolicy(s) {
	case "", PullReplace:
		return PullReplace, nil
	case PullMerge:
		return PullMerge, nil
	default:
		return "", ConfigError("unknown pull policy: " + s)
	}
}

// SyncResult summarises one push or pull.
type SyncResult struct {
	Lists   int // lists written to the destination
	Items   int // items written to the destination
	Created int // merge pull: lists created locally
	Updated int // merge pull: lists overwritten locally
	Kept    int // merge pull: local-only lists left untouched
}
