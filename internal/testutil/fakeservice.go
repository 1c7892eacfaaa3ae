// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sort"
	"sync"

	"todo/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
// It applies the same not-found and range rules as the real cache.
type FakeService struct {
	mu     sync.Mutex
	lists  map[string][]service.Item
	status service.SyncStatus

	// Pushed and Pulled count sync calls; LastPolicy is the last policy
	// passed to Pull.
	Pushed     int
	Pulled     int
	Reloaded   int
	LastPolicy service.PullPolicy

	// Error injection for testing
	CreateListErr     error
	AddItemErr        error
	ListsErr          error
	ListErr           error
	SetCompletedErr   error
	RemoveItemErr     error
	RemoveListErr     error
	RemoveAllListsErr error
	PushErr           error
	PullErr           error
	StatusErr         error
	ReloadErr         error

	// PushResult and PullResult are returned by successful sync calls.
	PushResult service.SyncResult
	PullResult service.SyncResult
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{lists: map[string][]service.Item{}}
}

// AddList adds a list with the given item descriptions.
func (f *FakeService) AddList(name string, descriptions ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := []service.Item{}
	for _, d := range descriptions {
		items = append(items, service.Item{Description: d})
	}
	f.lists[name] = items
}

// Complete marks item n (1-based) of a list completed without touching
// the dirty flag.
func (f *FakeService) Complete(name string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[name][n-1].Completed = true
}

// SetStatus sets what Status returns.
func (f *FakeService) SetStatus(st service.SyncStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = st
}

// Snapshot returns a copy of the named list and whether it exists.
func (f *FakeService) Snapshot(name string) (service.List, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items, ok := f.lists[name]
	if !ok {
		return service.List{}, false
	}
	return service.List{Name: name, Items: items}.Clone(), true
}

// CreateList implements service.Service.
func (f *FakeService) CreateList(ctx context.Context, name string) error {
	if f.CreateListErr != nil {
		return f.CreateListErr
	}
	if name == "" {
		return service.InvalidInput("list name must not be empty")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[name] = []service.Item{}
	f.status.Dirty = true
	return nil
}

// AddItem implements service.Service.
func (f *FakeService) AddItem(ctx context.Context, list string, item service.Item) error {
	if f.AddItemErr != nil {
		return f.AddItemErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	items, ok := f.lists[list]
	if !ok {
		return service.ListNotFound(list)
	}
	f.lists[list] = append(items, item)
	f.status.Dirty = true
	return nil
}

// Lists implements service.Service.
func (f *FakeService) Lists(ctx context.Context) ([]service.List, error) {
	if f.ListsErr != nil {
		return nil, f.ListsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]service.List, 0, len(f.lists))
	for name, items := range f.lists {
		result = append(result, service.List{Name: name, Items: items}.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// List implements service.Service.
func (f *FakeService) List(ctx context.Context, name string) (service.List, error) {
	if f.ListErr != nil {
		return service.List{}, f.ListErr
	}
	l, ok := f.Snapshot(name)
	if !ok {
		return service.List{}, service.ListNotFound(name)
	}
	return l, nil
}

// SetCompleted implements service.Service.
func (f *FakeService) SetCompleted(ctx context.Context, list string, n int, completed bool) error {
	if f.SetCompletedErr != nil {
		return f.SetCompletedErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	items, err := f.item(list, n)
	if err != nil {
		return err
	}
	items[n-1].Completed = completed
	f.status.Dirty = true
	return nil
}

// RemoveItem implements service.Service.
func (f *FakeService) RemoveItem(ctx context.Context, list string, n int) error {
	if f.RemoveItemErr != nil {
		return f.RemoveItemErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	items, err := f.item(list, n)
	if err != nil {
		return err
	}
	f.lists[list] = append(items[:n-1:n-1], items[n:]...)
	f.status.Dirty = true
	return nil
}

// RemoveList implements service.Service.
func (f *FakeService) RemoveList(ctx context.Context, name string) error {
	if f.RemoveListErr != nil {
		return f.RemoveListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.lists[name]; !ok {
		return service.ListNotFound(name)
	}
	delete(f.lists, name)
	f.status.Dirty = true
	return nil
}

// RemoveAllLists implements service.Service.
func (f *FakeService) RemoveAllLists(ctx context.Context) error {
	if f.RemoveAllListsErr != nil {
		return f.RemoveAllListsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = map[string][]service.Item{}
	f.status.Dirty = true
	return nil
}

// Push implements service.Service.
func (f *FakeService) Push(ctx context.Context) (service.SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pushed++
	if f.PushErr != nil {
		return service.SyncResult{}, f.PushErr
	}
	f.status.Dirty = false
	return f.PushResult, nil
}

// Pull implements service.Service.
func (f *FakeService) Pull(ctx context.Context, policy service.PullPolicy) (service.SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pulled++
	f.LastPolicy = policy
	if f.PullErr != nil {
		return service.SyncResult{}, f.PullErr
	}
	return f.PullResult, nil
}

// Status implements service.Service.
func (f *FakeService) Status(ctx context.Context) (service.SyncStatus, error) {
	if f.StatusErr != nil {
		return service.SyncStatus{}, f.StatusErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

// Reload counts calls; the fake has no file to re-read.
func (f *FakeService) Reload(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reloaded++
	return f.ReloadErr
}

func (f *FakeService) item(list string, n int) ([]service.Item, error) {
	items, ok := f.lists[list]
	if !ok {
		return nil, service.ListNotFound(list)
	}
	if n < 1 || n > len(items) {
		return nil, service.ItemNotFound(list, n)
	}
	return items, nil
}
