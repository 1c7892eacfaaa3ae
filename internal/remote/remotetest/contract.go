// Package remotetest holds the behaviour every remote.Store must share,
// as a test suite backends run against their own fixtures.
package remotetest

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/remote"
	"todo/internal/service"
)

// Run exercises store semantics against stores produced by open. Each
// subtest gets a fresh, empty store.
func Run(t *testing.T, open func(t *testing.T) remote.Store) {
	ctx := context.Background()

	groceries := service.List{Name: "Groceries", Items: []service.Item{
		{Description: "Milk"},
		{Description: "Eggs", Completed: true},
		{Description: "Crème fraîche"},
	}}
	work := service.List{Name: "Work", Items: []service.Item{{Description: "report"}}}

	t.Run("empty store", func(t *testing.T) {
		s := open(t)
		lists, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, lists)
	})

	t.Run("insert then find keeps order and state", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Insert(ctx, groceries))

		got, err := s.FindOne(ctx, "Groceries")
		require.NoError(t, err)
		assert.Equal(t, groceries, got)
	})

	t.Run("empty list round trip", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Insert(ctx, service.List{Name: "Empty"}))

		got, err := s.FindOne(ctx, "Empty")
		require.NoError(t, err)
		assert.Equal(t, "Empty", got.Name)
		assert.Empty(t, got.Items)

		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
	})

	t.Run("insert duplicate fails", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Insert(ctx, work))

		err := s.Insert(ctx, work)
		require.Error(t, err)
		assert.Equal(t, service.ErrRemote, service.KindOf(err), "err = %v", err)
	})

	t.Run("find all", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Insert(ctx, work))
		require.NoError(t, s.Insert(ctx, groceries))

		got, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []service.List{groceries, work}, Sorted(got))
	})

	t.Run("find missing", func(t *testing.T) {
		s := open(t)
		_, err := s.FindOne(ctx, "nope")
		assert.ErrorIs(t, err, service.ErrListNotFound)
	})

	t.Run("upsert inserts and replaces", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Upsert(ctx, work))

		changed := service.List{Name: "Work", Items: []service.Item{
			{Description: "report", Completed: true},
			{Description: "email"},
		}}
		require.NoError(t, s.Upsert(ctx, changed))

		got, err := s.FindOne(ctx, "Work")
		require.NoError(t, err)
		assert.Equal(t, changed, got)

		all, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("delete one", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Insert(ctx, work))
		require.NoError(t, s.Insert(ctx, groceries))

		require.NoError(t, s.DeleteOne(ctx, "Work"))
		assert.ErrorIs(t, s.DeleteOne(ctx, "Work"), service.ErrListNotFound)

		got, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []service.List{groceries}, got)
	})

	t.Run("delete all and drop", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Insert(ctx, work))
		require.NoError(t, s.DeleteAll(ctx))
		got, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)

		require.NoError(t, s.Insert(ctx, groceries))
		require.NoError(t, s.Drop(ctx))
		got, err = s.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)

		// the collection is usable again after a drop
		require.NoError(t, s.Insert(ctx, work))
		got, err = s.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []service.List{work}, got)
	})

	t.Run("replace all", func(t *testing.T) {
		s := open(t)
		r, ok := s.(remote.Replacer)
		if !ok {
			t.Skip("store has no atomic replace")
		}
		require.NoError(t, s.Insert(ctx, work))

		require.NoError(t, r.ReplaceAll(ctx, []service.List{groceries}))

		got, err := s.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []service.List{groceries}, got)
	})
}

// Sorted returns lists ordered by name.
func Sorted(lists []service.List) []service.List {
	out := append([]service.List(nil), lists...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
