package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/config"
	"todo/internal/remote"
	"todo/internal/service"
	"todo/internal/testutil"
)

type closingRemote struct {
	*testutil.FakeRemote
	closed int
}

func (c *closingRemote) Close() error {
	c.closed++
	return nil
}

func newConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{Dir: t.TempDir(), PullPolicy: service.PullReplace, AtomicPush: true}
}

func TestLocalOperations(t *testing.T) {
	ctx := context.Background()
	svc, err := Open(newConfig(t), nil, WithStoreOpener(func(context.Context) (remote.Store, error) {
		t.Fatal("local operations must not open the remote store")
		return nil, nil
	}))
	require.NoError(t, err)

	require.NoError(t, svc.CreateList(ctx, "Groceries"))
	require.NoError(t, svc.AddItem(ctx, "Groceries", service.Item{Description: "milk"}))
	require.NoError(t, svc.AddItem(ctx, "Groceries", service.Item{Description: "eggs"}))
	require.NoError(t, svc.SetCompleted(ctx, "Groceries", 1, true))
	require.NoError(t, svc.RemoveItem(ctx, "Groceries", 2))

	l, err := svc.List(ctx, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, []service.Item{{Description: "milk", Completed: true}}, l.Items)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Dirty)

	err = svc.AddItem(ctx, "Missing", service.Item{Description: "x"})
	assert.ErrorIs(t, err, service.ErrListNotFound)

	require.NoError(t, svc.RemoveList(ctx, "Groceries"))
	require.NoError(t, svc.CreateList(ctx, "Other"))
	require.NoError(t, svc.RemoveAllLists(ctx))
	lists, err := svc.Lists(ctx)
	require.NoError(t, err)
	assert.Empty(t, lists)

	require.NoError(t, svc.Close())
}

func TestPushPull_OpensStoreOnce(t *testing.T) {
	ctx := context.Background()
	store := &closingRemote{FakeRemote: testutil.NewFakeRemote()}
	opened := 0
	svc, err := Open(newConfig(t), nil, WithStoreOpener(func(context.Context) (remote.Store, error) {
		opened++
		return store, nil
	}))
	require.NoError(t, err)

	require.NoError(t, svc.CreateList(ctx, "A"))
	require.NoError(t, svc.AddItem(ctx, "A", service.Item{Description: "one"}))

	res, err := svc.Push(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Lists)
	assert.Equal(t, []string{"A"}, store.Names())

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Dirty)
	assert.False(t, status.LastModified.IsZero())

	store.Put(service.List{Name: "B"})
	res, err = svc.Pull(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Lists)
	assert.Equal(t, 1, opened)

	require.NoError(t, svc.Close())
	assert.Equal(t, 1, store.closed)
}

func TestPush_OpenFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	fail := true
	svc, err := Open(newConfig(t), nil, WithStoreOpener(func(context.Context) (remote.Store, error) {
		if fail {
			return nil, service.RemoteError("connection refused")
		}
		return testutil.NewFakeRemote(), nil
	}))
	require.NoError(t, err)

	_, err = svc.Push(ctx)
	assert.ErrorIs(t, err, service.ErrRemote)

	fail = false
	_, err = svc.Push(ctx)
	assert.NoError(t, err)
}

func TestPush_NoRemoteConfigured(t *testing.T) {
	svc, err := Open(newConfig(t), nil)
	require.NoError(t, err)

	_, err = svc.Push(context.Background())
	assert.ErrorIs(t, err, service.ErrConfig)
	assert.Contains(t, err.Error(), config.KeyRemoteURL)
}

func TestPushPull_SQLiteRemote(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig(t)
	cfg.RemoteURL = "sqlite://" + filepath.Join(t.TempDir(), "remote.db")

	svc, err := Open(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	require.NoError(t, svc.CreateList(ctx, "Work"))
	require.NoError(t, svc.AddItem(ctx, "Work", service.Item{Description: "report"}))
	_, err = svc.Push(ctx)
	require.NoError(t, err)

	other := newConfig(t)
	other.RemoteURL = cfg.RemoteURL
	fresh, err := Open(other, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fresh.Close() })

	_, err = fresh.Pull(ctx, service.PullMerge)
	require.NoError(t, err)
	l, err := fresh.List(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, []service.Item{{Description: "report"}}, l.Items)
}

func TestOpen_MalformedCache(t *testing.T) {
	cfg := newConfig(t)
	require.NoError(t, writeFile(filepath.Join(cfg.Dir, "lists.json"), "{not json"))

	_, err := Open(cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrSerialization))
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
