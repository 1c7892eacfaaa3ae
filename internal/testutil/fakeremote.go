package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"todo/internal/service"
)

// FakeRemote is an in-memory remote store. Calls records every operation
// name in order, with the list name for single-list calls.
type FakeRemote struct {
	mu    sync.Mutex
	lists map[string][]service.Item
	Calls []string

	// Error injection for testing
	FindAllErr error
	DropErr    error
	InsertErr  map[string]error // list name -> error
	UpsertErr  error
	ReplaceErr error
}

// NewFakeRemote creates an empty FakeRemote.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{lists: map[string][]service.Item{}, InsertErr: map[string]error{}}
}

// Put stores a list directly, bypassing Calls and error injection.
func (f *FakeRemote) Put(l service.List) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[l.Name] = l.Clone().Items
}

// Names returns the stored list names, sorted.
func (f *FakeRemote) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.lists))
	for n := range f.lists {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (f *FakeRemote) record(call string) {
	f.Calls = append(f.Calls, call)
}

// FindAll implements remote.Store.
func (f *FakeRemote) FindAll(ctx context.Context) ([]service.List, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindAll")
	if f.FindAllErr != nil {
		return nil, f.FindAllErr
	}
	result := make([]service.List, 0, len(f.lists))
	for name, items := range f.lists {
		result = append(result, service.List{Name: name, Items: items}.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// FindOne implements remote.Store.
func (f *FakeRemote) FindOne(ctx context.Context, name string) (service.List, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindOne " + name)
	items, ok := f.lists[name]
	if !ok {
		return service.List{}, service.ListNotFound(name)
	}
	return service.List{Name: name, Items: items}.Clone(), nil
}

// Upsert implements remote.Store.
func (f *FakeRemote) Upsert(ctx context.Context, list service.List) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Upsert " + list.Name)
	if f.UpsertErr != nil {
		return f.UpsertErr
	}
	f.lists[list.Name] = list.Clone().Items
	return nil
}

// Insert implements remote.Store.
func (f *FakeRemote) Insert(ctx context.Context, list service.List) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Insert " + list.Name)
	if err := f.InsertErr[list.Name]; err != nil {
		return err
	}
	if _, exists := f.lists[list.Name]; exists {
		return service.RemoteError(fmt.Sprintf("list %q already exists", list.Name))
	}
	f.lists[list.Name] = list.Clone().Items
	return nil
}

// DeleteOne implements remote.Store.
func (f *FakeRemote) DeleteOne(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteOne " + name)
	if _, ok := f.lists[name]; !ok {
		return service.ListNotFound(name)
	}
	delete(f.lists, name)
	return nil
}

// DeleteAll implements remote.Store.
func (f *FakeRemote) DeleteAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteAll")
	f.lists = map[string][]service.Item{}
	return nil
}

// Drop implements remote.Store.
func (f *FakeRemote) Drop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Drop")
	if f.DropErr != nil {
		return f.DropErr
	}
	f.lists = map[string][]service.Item{}
	return nil
}

// Close implements remote.Store.
func (f *FakeRemote) Close() error { return nil }

// AtomicFakeRemote adds a transactional ReplaceAll to FakeRemote.
type AtomicFakeRemote struct {
	*FakeRemote
}

// ReplaceAll implements remote.Replacer. On error nothing changes.
func (f AtomicFakeRemote) ReplaceAll(ctx context.Context, lists []service.List) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ReplaceAll")
	if f.ReplaceErr != nil {
		return f.ReplaceErr
	}
	next := make(map[string][]service.Item, len(lists))
	for _, l := range lists {
		next[l.Name] = l.Clone().Items
	}
	f.lists = next
	return nil
}
