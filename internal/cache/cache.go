// Package cache holds the local copy of every task list and persists it
// to a JSON file after each change.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"todo/internal/logging"
	"todo/internal/service"
)

const (
	// ListsFile holds the list contents.
	ListsFile = "lists.json"

	// StateFile holds the dirty flag and the last successful push time.
	StateFile = "sync_state.json"
)

type syncState struct {
	Dirty        bool       `json:"dirty"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// Cache is the single owner of local list state. Every method takes the
// same exclusive lock, reads included, so each operation observes and
// leaves a consistent mapping.
//
// Mutations are write-through: the in-memory change is applied first and
// then persisted. If persistence fails the method returns a StorageError
// and the in-memory change stays in place; Save retries the write.
type Cache struct {
	mu     sync.Mutex
	dir    string
	lists  map[string][]service.Item
	state  syncState
	gen    uint64 // bumped by every change to lists
	now    func() time.Time
	logger logging.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for persistence diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithClock overrides the time source used by UpdateLastModified.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Open loads the cache stored in dir. Missing files yield an empty,
// clean cache; the directory is created on the first write.
func Open(dir string, opts ...Option) (*Cache, error) {
	c := &Cache{
		dir:    dir,
		lists:  map[string][]service.Item{},
		now:    time.Now,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the location of the lists file.
func (c *Cache) Path() string {
	return filepath.Join(c.dir, ListsFile)
}

func (c *Cache) statePath() string {
	return filepath.Join(c.dir, StateFile)
}

// CreateList inserts an empty list, replacing any list with the same name.
func (c *Cache) CreateList(name string) error {
	if name == "" {
		return service.InvalidInput("list name must not be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lists[name] = []service.Item{}
	return c.commit()
}

// AddItem appends item to the end of the named list.
func (c *Cache) AddItem(list string, item service.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, ok := c.lists[list]
	if !ok {
		return service.ListNotFound(list)
	}
	c.lists[list] = append(items, item)
	return c.commit()
}

// Lists returns a deep copy of every list, sorted by name.
func (c *Cache) Lists() []service.List {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshot()
}

// Snapshot returns Lists together with the generation it reflects. Pass
// the generation to ClearDirtyIf once the snapshot has been pushed.
func (c *Cache) Snapshot() ([]service.List, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshot(), c.gen
}

// snapshot copies the lists. Caller holds mu.
func (c *Cache) snapshot() []service.List {
	out := make([]service.List, 0, len(c.lists))
	for name, items := range c.lists {
		out = append(out, service.List{Name: name, Items: items}.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// List returns a deep copy of one list.
func (c *Cache) List(name string) (service.List, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, ok := c.lists[name]
	if !ok {
		return service.List{}, service.ListNotFound(name)
	}
	return service.List{Name: name, Items: items}.Clone(), nil
}

// SetCompleted sets the completion flag of item n (1-based).
func (c *Cache) SetCompleted(list string, n int, completed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.item(list, n)
	if err != nil {
		return err
	}
	items[n-1].Completed = completed
	return c.commit()
}

// RemoveItem deletes item n (1-based). Later items shift down by one.
func (c *Cache) RemoveItem(list string, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.item(list, n)
	if err != nil {
		return err
	}
	rest := make([]service.Item, 0, len(items)-1)
	rest = append(rest, items[:n-1]...)
	rest = append(rest, items[n:]...)
	c.lists[list] = rest
	return c.commit()
}

// RemoveList deletes the named list.
func (c *Cache) RemoveList(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lists[name]; !ok {
		return service.ListNotFound(name)
	}
	delete(c.lists, name)
	return c.commit()
}

// RemoveAll deletes every list.
func (c *Cache) RemoveAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lists = map[string][]service.Item{}
	return c.commit()
}

// ReplaceContents swaps the whole mapping for a copy of lists.
func (c *Cache) ReplaceContents(lists map[string][]service.Item) error {
	next := make(map[string][]service.Item, len(lists))
	for name, items := range lists {
		if name == "" {
			return service.InvalidInput("list name must not be empty")
		}
		next[name] = service.List{Items: items}.Clone().Items
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lists = next
	return c.commit()
}

// ReplaceList creates or overwrites a single list with a copy of items.
func (c *Cache) ReplaceList(name string, items []service.Item) error {
	if name == "" {
		return service.InvalidInput("list name must not be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lists[name] = service.List{Items: items}.Clone().Items
	return c.commit()
}

// SetDirty records whether local content may differ from the remote store.
func (c *Cache) SetDirty(dirty bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Dirty = dirty
	return c.saveState()
}

// ClearDirtyIf clears the dirty flag only if no list changed since gen
// was taken by Snapshot. It reports whether the flag was cleared.
func (c *Cache) ClearDirtyIf(gen uint64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return false, nil
	}
	c.state.Dirty = false
	return true, c.saveState()
}

// UpdateLastModified stamps the current time as the last successful push.
func (c *Cache) UpdateLastModified() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC()
	c.state.LastModified = &t
	return c.saveState()
}

// Status returns the dirty flag and last push time.
func (c *Cache) Status() service.SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := service.SyncStatus{Dirty: c.state.Dirty}
	if c.state.LastModified != nil {
		st.LastModified = *c.state.LastModified
	}
	return st
}

// Save rewrites both files from memory. Use it to retry after a
// StorageError.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.saveLists(); err != nil {
		return err
	}
	return c.saveState()
}

// Reload discards memory and re-reads both files. If either file is
// unreadable the previous state is kept.
func (c *Cache) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.load()
}

// item validates that n addresses an existing item and returns the
// list's backing slice. Caller holds mu.
func (c *Cache) item(list string, n int) ([]service.Item, error) {
	items, ok := c.lists[list]
	if !ok {
		return nil, service.ListNotFound(list)
	}
	if n < 1 || n > len(items) {
		return nil, service.ItemNotFound(list, n)
	}
	return items, nil
}

// commit marks the cache dirty and writes both files. Caller holds mu.
func (c *Cache) commit() error {
	c.gen++
	c.state.Dirty = true
	if err := c.saveLists(); err != nil {
		return err
	}
	return c.saveState()
}

func (c *Cache) saveLists() error {
	data, err := Encode(c.lists)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(c.Path(), data, 0600); err != nil {
		c.logger.Error(context.Background(), "cache write failed", "path", c.Path(), "err", err)
		return service.StorageError(err.Error())
	}
	c.logger.Debug(context.Background(), "cache saved", "path", c.Path(), "lists", len(c.lists))
	return nil
}

func (c *Cache) saveState() error {
	data, err := json.MarshalIndent(c.state, "", "  ")
	if err != nil {
		return service.SerializationError(err.Error())
	}
	data = append(data, '\n')
	if err := writeFileAtomic(c.statePath(), data, 0600); err != nil {
		c.logger.Error(context.Background(), "sync state write failed", "path", c.statePath(), "err", err)
		return service.StorageError(err.Error())
	}
	return nil
}

// load reads both files into memory. Caller holds mu (or owns c).
func (c *Cache) load() error {
	lists := map[string][]service.Item{}
	data, err := os.ReadFile(c.Path())
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return service.StorageError(err.Error())
	default:
		if lists, err = Decode(data); err != nil {
			return err
		}
	}

	var state syncState
	data, err = os.ReadFile(c.statePath())
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return service.StorageError(err.Error())
	default:
		if err := json.Unmarshal(data, &state); err != nil {
			return service.SerializationError(fmt.Sprintf("%s: %v", StateFile, err))
		}
	}

	c.lists = lists
	c.state = state
	c.gen++
	c.logger.Debug(context.Background(), "cache loaded", "path", c.Path(), "lists", len(lists), "dirty", state.Dirty)
	return nil
}
