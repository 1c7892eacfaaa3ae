package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/cache"
	"todo/internal/service"
)

type fakeTarget struct {
	mu      sync.Mutex
	dirty   bool
	reloads int
	pushes  int
	pushErr error
}

func (f *fakeTarget) Reload(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	return nil
}

func (f *fakeTarget) Push(context.Context) (service.SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes++
	return service.SyncResult{Lists: 1}, f.pushErr
}

func (f *fakeTarget) Status(context.Context) (service.SyncStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return service.SyncStatus{Dirty: f.dirty}, nil
}

func (f *fakeTarget) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloads, f.pushes
}

func start(t *testing.T, dir string, target Target) <-chan error {
	t.Helper()
	pushed := make(chan error, 16)
	ctx, cancel := context.WithCancel(context.Background())
	w := New(dir, target,
		WithDebounce(50*time.Millisecond),
		WithNotify(func(_ service.SyncResult, err error) { pushed <- err }),
	)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	return pushed
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	target := &fakeTarget{}
	pushed := start(t, dir, target)

	path := filepath.Join(dir, cache.ListsFile)
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0600))
	}

	select {
	case err := <-pushed:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no push after cache write")
	}
	time.Sleep(200 * time.Millisecond)

	reloads, pushes := target.counts()
	assert.Equal(t, 1, reloads)
	assert.Equal(t, 1, pushes)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	target := &fakeTarget{}
	pushed := start(t, dir, target)

	require.NoError(t, os.WriteFile(filepath.Join(dir, cache.StateFile), []byte("{}\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600))

	select {
	case <-pushed:
		t.Fatal("unexpected push")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_PushesDirtyCacheAtStart(t *testing.T) {
	target := &fakeTarget{dirty: true}
	pushed := start(t, t.TempDir(), target)

	select {
	case <-pushed:
	case <-time.After(5 * time.Second):
		t.Fatal("dirty cache not pushed at start")
	}
}

func TestWatcher_KeepsRunningAfterPushFailure(t *testing.T) {
	dir := t.TempDir()
	target := &fakeTarget{pushErr: service.RemoteError("unreachable")}
	pushed := start(t, dir, target)

	path := filepath.Join(dir, cache.ListsFile)
	for i := 0; i < 2; i++ {
		require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0600))
		select {
		case err := <-pushed:
			assert.ErrorIs(t, err, service.ErrRemote)
		case <-time.After(5 * time.Second):
			t.Fatal("no push attempt")
		}
	}
}

func TestWatcher_RejectsNonPositiveDebounce(t *testing.T) {
	w := New(t.TempDir(), &fakeTarget{}, WithDebounce(0))
	err := w.Run(context.Background())
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}
