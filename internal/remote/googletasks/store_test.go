package googletasks_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"todo/internal/cache"
	"todo/internal/remote"
	"todo/internal/remote/googletasks"
	"todo/internal/remote/remotetest"
	"todo/internal/service"
	tasksync "todo/internal/sync"
)

const defaultID = "default-list"

type fakeList struct {
	id    string
	title string
	tasks []*tasks.Task
}

// fakeTasks serves the part of the Google Tasks REST API the store calls.
type fakeTasks struct {
	mu           sync.Mutex
	lists        []*fakeList
	next         int
	unauthorized bool
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{lists: []*fakeList{{id: defaultID, title: "My Tasks"}}}
}

func (f *fakeTasks) id(prefix string) string {
	f.next++
	return fmt.Sprintf("%s%d", prefix, f.next)
}

func (f *fakeTasks) list(id string) (int, *fakeList) {
	id = strings.Replace(id, "%40", "@", 1)
	if id == googletasks.DefaultListID {
		id = defaultID
	}
	for i, l := range f.lists {
		if l.id == id {
			return i, l
		}
	}
	return -1, nil
}

func (f *fakeTasks) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /tasks/v1/users/@me/lists/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, l := f.list(r.PathValue("id"))
		if l == nil {
			http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
			return
		}
		writeJSON(w, &tasks.TaskList{Id: l.id, Title: l.title})
	})

	mux.HandleFunc("GET /tasks/v1/users/@me/lists", func(w http.ResponseWriter, r *http.Request) {
		resp := &tasks.TaskLists{}
		for _, l := range f.lists {
			resp.Items = append(resp.Items, &tasks.TaskList{Id: l.id, Title: l.title})
		}
		writeJSON(w, resp)
	})

	mux.HandleFunc("POST /tasks/v1/users/@me/lists", func(w http.ResponseWriter, r *http.Request) {
		var in tasks.TaskList
		_ = json.NewDecoder(r.Body).Decode(&in)
		l := &fakeList{id: f.id("list-"), title: in.Title}
		f.lists = append(f.lists, l)
		writeJSON(w, &tasks.TaskList{Id: l.id, Title: l.title})
	})

	mux.HandleFunc("DELETE /tasks/v1/users/@me/lists/{id}", func(w http.ResponseWriter, r *http.Request) {
		i, l := f.list(r.PathValue("id"))
		if l == nil || l.id == defaultID {
			http.Error(w, `{"error":{"code":400,"message":"bad request"}}`, http.StatusBadRequest)
			return
		}
		f.lists = append(f.lists[:i], f.lists[i+1:]...)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /tasks/v1/lists/{id}/tasks", func(w http.ResponseWriter, r *http.Request) {
		_, l := f.list(r.PathValue("id"))
		if l == nil {
			http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
			return
		}
		resp := &tasks.Tasks{}
		// reverse order so the store has to sort by position
		for i := len(l.tasks) - 1; i >= 0; i-- {
			t := *l.tasks[i]
			t.Position = fmt.Sprintf("%020d", i)
			resp.Items = append(resp.Items, &t)
		}
		writeJSON(w, resp)
	})

	mux.HandleFunc("POST /tasks/v1/lists/{id}/tasks", func(w http.ResponseWriter, r *http.Request) {
		_, l := f.list(r.PathValue("id"))
		if l == nil {
			http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
			return
		}
		var in tasks.Task
		_ = json.NewDecoder(r.Body).Decode(&in)
		in.Id = f.id("task-")

		at := 0
		if prev := r.URL.Query().Get("previous"); prev != "" {
			for i, t := range l.tasks {
				if t.Id == prev {
					at = i + 1
				}
			}
		}
		l.tasks = append(l.tasks[:at], append([]*tasks.Task{&in}, l.tasks[at:]...)...)
		writeJSON(w, &in)
	})

	mux.HandleFunc("DELETE /tasks/v1/lists/{id}/tasks/{task}", func(w http.ResponseWriter, r *http.Request) {
		_, l := f.list(r.PathValue("id"))
		if l == nil {
			http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
			return
		}
		for i, t := range l.tasks {
			if t.Id == r.PathValue("task") {
				l.tasks = append(l.tasks[:i], l.tasks[i+1:]...)
				break
			}
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.unauthorized {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newStore(t *testing.T, fake *fakeTasks) *googletasks.Store {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	s, err := googletasks.New(context.Background(), nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return s
}

func TestGoogleTasksStoreContract(t *testing.T) {
	remotetest.Run(t, func(t *testing.T) remote.Store {
		return newStore(t, newFakeTasks())
	})
}

func TestInsert_PreservesOrderAndStatus(t *testing.T) {
	fake := newFakeTasks()
	s := newStore(t, fake)
	ctx := context.Background()

	items := []service.Item{
		{Description: "first"},
		{Description: "second", Completed: true},
		{Description: "third"},
	}
	require.NoError(t, s.Insert(ctx, service.List{Name: "Work", Items: items}))

	_, l := fake.list("list-1")
	require.NotNil(t, l)
	var statuses []string
	for _, task := range l.tasks {
		statuses = append(statuses, task.Title+":"+task.Status)
	}
	assert.Equal(t, []string{"first:needsAction", "second:completed", "third:needsAction"}, statuses)

	got, err := s.FindOne(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, items, got.Items)
}

func TestDefaultList_ClearedNotDeleted(t *testing.T) {
	fake := newFakeTasks()
	s := newStore(t, fake)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, service.List{Name: "My Tasks", Items: []service.Item{{Description: "inbox"}}}))

	all, err := s.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "My Tasks", all[0].Name)

	require.NoError(t, s.Drop(ctx))

	require.Len(t, fake.lists, 1, "default list must survive a drop")
	assert.Empty(t, fake.lists[0].tasks)

	all, err = s.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPullThenPush_DefaultListWithTasks(t *testing.T) {
	fake := newFakeTasks()
	fake.lists[0].tasks = []*tasks.Task{{Id: "t1", Title: "Milk", Status: "needsAction", Position: "00000001"}}
	s := newStore(t, fake)
	ctx := context.Background()

	c, err := cache.Open(t.TempDir())
	require.NoError(t, err)
	syncer := tasksync.New(c, s)

	_, err = syncer.Pull(ctx, service.PullReplace)
	require.NoError(t, err)
	got, err := c.List("My Tasks")
	require.NoError(t, err)
	assert.Equal(t, []service.Item{{Description: "Milk"}}, got.Items)

	require.NoError(t, c.AddItem("My Tasks", service.Item{Description: "Eggs"}))
	_, err = syncer.Push(ctx)
	require.NoError(t, err)

	require.Len(t, fake.lists, 1)
	remoteList, err := s.FindOne(ctx, "My Tasks")
	require.NoError(t, err)
	assert.Equal(t, []service.Item{{Description: "Milk"}, {Description: "Eggs"}}, remoteList.Items)
}

func TestInsert_DefaultListWithTasksExists(t *testing.T) {
	fake := newFakeTasks()
	fake.lists[0].tasks = []*tasks.Task{{Id: "t1", Title: "Milk", Status: "needsAction", Position: "00000001"}}
	s := newStore(t, fake)

	err := s.Insert(context.Background(), service.List{Name: "My Tasks"})
	require.ErrorIs(t, err, service.ErrRemote)
	assert.Contains(t, err.Error(), "already exists")
}

func TestUnauthorized(t *testing.T) {
	fake := newFakeTasks()
	s := newStore(t, fake)

	fake.mu.Lock()
	fake.unauthorized = true
	fake.mu.Unlock()

	_, err := s.FindAll(context.Background())
	require.ErrorIs(t, err, service.ErrRemote)
	assert.Contains(t, err.Error(), "todo login")
}
