// Package tasks wires the local cache and the synchronizer into the
// service.Service used by commands.
package tasks

import (
	"context"
	"sync"

	"golang.org/x/oauth2"

	"todo/internal/auth"
	"todo/internal/cache"
	"todo/internal/config"
	"todo/internal/logging"
	"todo/internal/remote"
	"todo/internal/service"
	tasksync "todo/internal/sync"
)

var _ service.Service = (*Service)(nil)

// StoreOpener connects to the remote store. It is called at most once per
// Service, on the first push or pull.
type StoreOpener func(ctx context.Context) (remote.Store, error)

// Service implements service.Service. Local operations only touch the
// cache; the remote store is opened lazily.
type Service struct {
	cache  *cache.Cache
	cfg    *config.Config
	logger logging.Logger
	open   StoreOpener

	cacheOpts []cache.Option

	mu     sync.Mutex
	store  remote.Store
	syncer *tasksync.Syncer
}

// Option configures Open.
type Option func(*Service)

// WithStoreOpener replaces the URL based remote.Open.
func WithStoreOpener(open StoreOpener) Option {
	return func(s *Service) { s.open = open }
}

// WithCacheOptions passes options to cache.Open.
func WithCacheOptions(opts ...cache.Option) Option {
	return func(s *Service) { s.cacheOpts = append(s.cacheOpts, opts...) }
}

// Open loads the cache from cfg.Dir.
func Open(cfg *config.Config, logger logging.Logger, opts ...Option) (*Service, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Service{cfg: cfg, logger: logger}
	s.open = s.openRemote
	for _, opt := range opts {
		opt(s)
	}

	c, err := cache.Open(cfg.Dir, append([]cache.Option{cache.WithLogger(logger)}, s.cacheOpts...)...)
	if err != nil {
		return nil, err
	}
	s.cache = c
	return s, nil
}

// Cache returns the underlying cache.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

func (s *Service) openRemote(ctx context.Context) (remote.Store, error) {
	rawURL, err := s.cfg.Remote()
	if err != nil {
		return nil, err
	}
	return remote.Open(ctx, rawURL, remote.Options{
		Logger: s.logger,
		TokenSource: func(ctx context.Context) (oauth2.TokenSource, error) {
			return auth.TokenSource(ctx, s.cfg)
		},
	})
}

// synchronizer returns the Syncer, connecting on first use. A failed
// connection is retried on the next call.
func (s *Service) synchronizer(ctx context.Context) (*tasksync.Syncer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.syncer != nil {
		return s.syncer, nil
	}
	store, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	s.store = store
	s.syncer = tasksync.New(s.cache, store,
		tasksync.WithPolicy(s.cfg.PullPolicy),
		tasksync.WithAtomicPush(s.cfg.AtomicPush),
		tasksync.WithLogger(s.logger),
	)
	return s.syncer, nil
}

// Close releases the remote store connection, if one was opened.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	s.syncer = nil
	return err
}

func (s *Service) CreateList(ctx context.Context, name string) error {
	if err := s.cache.CreateList(name); err != nil {
		return err
	}
	s.logger.Debug(ctx, "list created", "list", name)
	return nil
}

func (s *Service) AddItem(ctx context.Context, list string, item service.Item) error {
	if err := s.cache.AddItem(list, item); err != nil {
		return err
	}
	s.logger.Debug(ctx, "item added", "list", list)
	return nil
}

func (s *Service) Lists(_ context.Context) ([]service.List, error) {
	return s.cache.Lists(), nil
}

func (s *Service) List(_ context.Context, name string) (service.List, error) {
	return s.cache.List(name)
}

func (s *Service) SetCompleted(ctx context.Context, list string, n int, completed bool) error {
	if err := s.cache.SetCompleted(list, n, completed); err != nil {
		return err
	}
	s.logger.Debug(ctx, "item updated", "list", list, "item", n, "completed", completed)
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, list string, n int) error {
	if err := s.cache.RemoveItem(list, n); err != nil {
		return err
	}
	s.logger.Debug(ctx, "item removed", "list", list, "item", n)
	return nil
}

func (s *Service) RemoveList(ctx context.Context, name string) error {
	if err := s.cache.RemoveList(name); err != nil {
		return err
	}
	s.logger.Debug(ctx, "list removed", "list", name)
	return nil
}

func (s *Service) RemoveAllLists(ctx context.Context) error {
	if err := s.cache.RemoveAll(); err != nil {
		return err
	}
	s.logger.Debug(ctx, "all lists removed")
	return nil
}

func (s *Service) Push(ctx context.Context) (service.SyncResult, error) {
	syncer, err := s.synchronizer(ctx)
	if err != nil {
		return service.SyncResult{}, err
	}
	return syncer.Push(ctx)
}

func (s *Service) Pull(ctx context.Context, policy service.PullPolicy) (service.SyncResult, error) {
	syncer, err := s.synchronizer(ctx)
	if err != nil {
		return service.SyncResult{}, err
	}
	return syncer.Pull(ctx, policy)
}

func (s *Service) Status(_ context.Context) (service.SyncStatus, error) {
	return s.cache.Status(), nil
}

// Reload re-reads the cache files, picking up edits made by another
// process.
func (s *Service) Reload(ctx context.Context) error {
	if err := s.cache.Reload(); err != nil {
		return err
	}
	s.logger.Debug(ctx, "cache reloaded")
	return nil
}
