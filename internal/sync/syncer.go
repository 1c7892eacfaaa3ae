// Package sync reconciles the local cache with a remote store: push makes
// the remote equal to the cache, pull brings remote lists into the cache.
package sync

import (
	"context"
	"fmt"

	"todo/internal/logging"
	"todo/internal/remote"
	"todo/internal/service"
)

// Cache is the part of the local cache the synchronizer drives.
type Cache interface {
	Lists() []service.List
	Snapshot() ([]service.List, uint64)
	ClearDirtyIf(gen uint64) (bool, error)
	ReplaceContents(lists map[string][]service.Item) error
	ReplaceList(name string, items []service.Item) error
	SetDirty(dirty bool) error
	UpdateLastModified() error
	Status() service.SyncStatus
}

// Syncer couples one cache with one remote store. It holds no list state
// of its own.
type Syncer struct {
	cache  Cache
	store  remote.Store
	policy service.PullPolicy
	atomic bool
	logger logging.Logger
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithPolicy sets the pull policy used when Pull is given none.
func WithPolicy(p service.PullPolicy) Option {
	return func(s *Syncer) { s.policy = p }
}

// WithAtomicPush makes Push use the store's transactional replace when
// the store offers one.
func WithAtomicPush(atomic bool) Option {
	return func(s *Syncer) { s.atomic = atomic }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Syncer) { s.logger = l }
}

// New returns a Syncer using the replace pull policy and atomic push.
func New(cache Cache, store remote.Store, opts ...Option) *Syncer {
	s := &Syncer{
		cache:  cache,
		store:  store,
		policy: service.PullReplace,
		atomic: true,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Push overwrites the remote store with a snapshot of the cache.
//
// Without a transactional store the collection is dropped and lists are
// inserted one by one; a failure part way leaves the remote partially
// overwritten. Either way the first error is returned as is and the cache
// stays dirty. On success the push time is recorded and the dirty flag is
// cleared, unless the cache changed while the push was in flight.
func (s *Syncer) Push(ctx context.Context) (service.SyncResult, error) {
	lists, gen := s.cache.Snapshot()
	result := service.SyncResult{}
	for _, l := range lists {
		result.Items += len(l.Items)
	}

	var err error
	if r, ok := s.store.(remote.Replacer); ok && s.atomic {
		s.logger.Debug(ctx, "push: atomic replace", "lists", len(lists))
		err = r.ReplaceAll(ctx, lists)
		if err == nil {
			result.Lists = len(lists)
		}
	} else {
		result.Lists, err = s.dropAndInsert(ctx, lists)
	}
	if err != nil {
		s.logger.Error(ctx, "push failed", "written", result.Lists, "lists", len(lists), "err", err)
		if derr := s.cache.SetDirty(true); derr != nil {
			s.logger.Warn(ctx, "push: could not keep dirty flag", "err", derr)
		}
		return result, err
	}

	cleared, err := s.cache.ClearDirtyIf(gen)
	if err != nil {
		return result, err
	}
	if !cleared {
		s.logger.Info(ctx, "push: cache changed during push, still dirty")
	}
	if err := s.cache.UpdateLastModified(); err != nil {
		return result, err
	}
	s.logger.Info(ctx, "pushed", "lists", result.Lists, "items", result.Items)
	return result, nil
}

func (s *Syncer) dropAndInsert(ctx context.Context, lists []service.List) (int, error) {
	if err := s.store.Drop(ctx); err != nil {
		return 0, err
	}
	for i, l := range lists {
		if err := s.store.Insert(ctx, l); err != nil {
			return i, err
		}
	}
	return len(lists), nil
}

// Pull brings remote lists into the cache. An empty policy selects the
// configured one.
//
// PullReplace rebuilds the cache from the remote enumeration in one step
// and clears the dirty flag. PullMerge creates lists missing locally,
// overwrites lists whose items differ and keeps lists that exist only
// locally; the cache stays dirty while such lists remain.
func (s *Syncer) Pull(ctx context.Context, policy service.PullPolicy) (service.SyncResult, error) {
	if policy == "" {
		policy = s.policy
	}

	remoteLists, err := s.store.FindAll(ctx)
	if err != nil {
		s.logger.Error(ctx, "pull failed", "err", err)
		return service.SyncResult{}, err
	}

	switch policy {
	case service.PullReplace:
		return s.pullReplace(ctx, remoteLists)
	case service.PullMerge:
		return s.pullMerge(ctx, remoteLists)
	default:
		return service.SyncResult{}, service.ConfigError(fmt.Sprintf("unknown pull policy: %s", policy))
	}
}

func (s *Syncer) pullReplace(ctx context.Context, remoteLists []service.List) (service.SyncResult, error) {
	next := make(map[string][]service.Item, len(remoteLists))
	result := service.SyncResult{}
	for _, l := range remoteLists {
		if _, dup := next[l.Name]; dup {
			s.logger.Warn(ctx, "pull: duplicate remote list ignored", "list", l.Name)
			continue
		}
		next[l.Name] = l.Items
		result.Lists++
		result.Items += len(l.Items)
	}

	if err := s.cache.ReplaceContents(next); err != nil {
		return result, err
	}
	if err := s.cache.SetDirty(false); err != nil {
		return result, err
	}
	s.logger.Info(ctx, "pulled", "policy", service.PullReplace, "lists", result.Lists, "items", result.Items)
	return result, nil
}

func (s *Syncer) pullMerge(ctx context.Context, remoteLists []service.List) (service.SyncResult, error) {
	local := make(map[string][]service.Item)
	for _, l := range s.cache.Lists() {
		local[l.Name] = l.Items
	}

	result := service.SyncResult{}
	seen := make(map[string]bool, len(remoteLists))
	for _, l := range remoteLists {
		if seen[l.Name] {
			s.logger.Warn(ctx, "pull: duplicate remote list ignored", "list", l.Name)
			continue
		}
		seen[l.Name] = true
		result.Lists++
		result.Items += len(l.Items)

		items, ok := local[l.Name]
		switch {
		case !ok:
			result.Created++
		case !service.EqualItems(items, l.Items):
			result.Updated++
		default:
			continue
		}
		if err := s.cache.ReplaceList(l.Name, l.Items); err != nil {
			return result, err
		}
		s.logger.Debug(ctx, "pull: list updated", "list", l.Name, "items", len(l.Items))
	}

	for name := range local {
		if !seen[name] {
			result.Kept++
		}
	}

	if err := s.cache.SetDirty(result.Kept > 0); err != nil {
		return result, err
	}
	s.logger.Info(ctx, "pulled", "policy", service.PullMerge,
		"created", result.Created, "updated", result.Updated, "kept", result.Kept)
	return result, nil
}

// Status reports the cache's dirty flag and last push time.
func (s *Syncer) Status() service.SyncStatus {
	return s.cache.Status()
}
