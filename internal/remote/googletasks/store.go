// Package googletasks keeps remote lists in the Google Tasks account of the
// logged-in user. Each list is a task list with the same title and each
// item is a task, in order.
package googletasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"todo/internal/logging"
	"todo/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of lists or tasks per page.
	PageSize = 100

	// APITimeout is the default timeout for one API call.
	APITimeout = 10 * time.Second

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"
)

// Store implements the remote list store over the Google Tasks API.
type Store struct {
	svc       *tasks.Service
	timeout   time.Duration
	logger    logging.Logger
	defaultID string
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout bounds each API call.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithLogger sets the store logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open creates a store authorised by ts. The token source refreshes
// expired access tokens on its own.
func Open(ctx context.Context, ts oauth2.TokenSource, opts ...Option) (*Store, error) {
	httpClient := oauth2.NewClient(ctx, ts)
	return New(ctx, opts, option.WithHTTPClient(httpClient))
}

// New creates a store from raw client options and resolves the real ID of
// the default list, which also checks that the API is reachable.
func New(ctx context.Context, opts []Option, clientOpts ...option.ClientOption) (*Store, error) {
	svc, err := tasks.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, service.ConfigError(fmt.Sprintf("failed to create tasks service: %v", err))
	}

	s := &Store{svc: svc, timeout: APITimeout, logger: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	def, err := s.svc.Tasklists.Get(DefaultListID).Context(callCtx).Do()
	if err != nil {
		return nil, wrapError(err)
	}
	s.defaultID = def.Id
	s.logger.Debug(ctx, "google tasks store opened", "default_list", def.Title)
	return s, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// FindAll returns every task list with its tasks. The default list is
// left out while it has no tasks: it always exists and cannot be deleted.
func (s *Store) FindAll(ctx context.Context) ([]service.List, error) {
	lists, err := s.taskLists(ctx)
	if err != nil {
		return nil, err
	}

	var result []service.List
	seen := map[string]bool{}
	for _, tl := range lists {
		if seen[tl.Title] {
			s.logger.Warn(ctx, "duplicate task list title skipped", "title", tl.Title)
			continue
		}
		items, err := s.items(ctx, tl.Id)
		if err != nil {
			return nil, err
		}
		if tl.Id == s.defaultID && len(items) == 0 {
			continue
		}
		seen[tl.Title] = true
		result = append(result, service.List{Name: tl.Title, Items: items})
	}
	return result, nil
}

// FindOne returns the task list titled name.
func (s *Store) FindOne(ctx context.Context, name string) (service.List, error) {
	tl, err := s.find(ctx, name)
	if err != nil {
		return service.List{}, err
	}
	items, err := s.items(ctx, tl.Id)
	if err != nil {
		return service.List{}, err
	}
	return service.List{Name: name, Items: items}, nil
}

// Upsert replaces the tasks of the list titled list.Name, creating the
// list when needed.
func (s *Store) Upsert(ctx context.Context, list service.List) error {
	tl, err := s.find(ctx, list.Name)
	if errors.Is(err, service.ErrListNotFound) {
		return s.Insert(ctx, list)
	}
	if err != nil {
		return err
	}
	if err := s.clear(ctx, tl.Id); err != nil {
		return err
	}
	return s.insertItems(ctx, tl.Id, list.Items)
}

// Insert creates a task list and its tasks. A list with the same title
// must not exist, except for the default list while it is empty: it can
// never be deleted, so it is filled in place.
func (s *Store) Insert(ctx context.Context, list service.List) error {
	if list.Name == "" {
		return service.InvalidInput("list name must not be empty")
	}
	tl, err := s.find(ctx, list.Name)
	if err == nil {
		if tl.Id == s.defaultID {
			existing, err := s.listTasks(ctx, tl.Id)
			if err != nil {
				return err
			}
			if len(existing) == 0 {
				return s.insertItems(ctx, tl.Id, list.Items)
			}
		}
		return service.RemoteError(fmt.Sprintf("list %q already exists", list.Name))
	}
	if !errors.Is(err, service.ErrListNotFound) {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	created, err := s.svc.Tasklists.Insert(&tasks.TaskList{Title: list.Name}).Context(callCtx).Do()
	cancel()
	if err != nil {
		return wrapError(err)
	}
	return s.insertItems(ctx, created.Id, list.Items)
}

// DeleteOne deletes the task list titled name. The default list is
// emptied instead.
func (s *Store) DeleteOne(ctx context.Context, name string) error {
	tl, err := s.find(ctx, name)
	if err != nil {
		return err
	}
	return s.remove(ctx, tl)
}

// DeleteAll deletes every task list except the default one, which is emptied.
func (s *Store) DeleteAll(ctx context.Context) error {
	lists, err := s.taskLists(ctx)
	if err != nil {
		return err
	}
	for _, tl := range lists {
		if err := s.remove(ctx, tl); err != nil {
			return err
		}
	}
	return nil
}

// Drop is DeleteAll: the account is the collection.
func (s *Store) Drop(ctx context.Context) error {
	return s.DeleteAll(ctx)
}

func (s *Store) remove(ctx context.Context, tl *tasks.TaskList) error {
	if tl.Id == s.defaultID {
		return s.clear(ctx, tl.Id)
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.svc.Tasklists.Delete(tl.Id).Context(callCtx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

// taskLists returns all task lists in API order.
func (s *Store) taskLists(ctx context.Context) ([]*tasks.TaskList, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var result []*tasks.TaskList
	err := s.svc.Tasklists.List().MaxResults(PageSize).Pages(callCtx, func(resp *tasks.TaskLists) error {
		result = append(result, resp.Items...)
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}
	return result, nil
}

// find returns the first task list whose title is exactly name.
func (s *Store) find(ctx context.Context, name string) (*tasks.TaskList, error) {
	lists, err := s.taskLists(ctx)
	if err != nil {
		return nil, err
	}
	for _, tl := range lists {
		if tl.Title == name {
			return tl, nil
		}
	}
	return nil, service.ListNotFound(name)
}

// listTasks returns the top-level tasks of a list ordered by position,
// completed and hidden ones included.
func (s *Store) listTasks(ctx context.Context, listID string) ([]*tasks.Task, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var result []*tasks.Task
	err := s.svc.Tasks.List(listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(callCtx, func(resp *tasks.Tasks) error {
			for _, t := range resp.Items {
				if t.Parent == "" {
					result = append(result, t)
				}
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}

	// Position strings are zero-padded and sort lexicographically.
	sort.SliceStable(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

func (s *Store) items(ctx context.Context, listID string) ([]service.Item, error) {
	ts, err := s.listTasks(ctx, listID)
	if err != nil {
		return nil, err
	}
	items := make([]service.Item, 0, len(ts))
	for _, t := range ts {
		items = append(items, service.Item{Description: t.Title, Completed: t.Status == statusCompleted})
	}
	return items, nil
}

// clear deletes every task in a list.
func (s *Store) clear(ctx context.Context, listID string) error {
	ts, err := s.listTasks(ctx, listID)
	if err != nil {
		return err
	}
	for _, t := range ts {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.svc.Tasks.Delete(listID, t.Id).Context(callCtx).Do()
		cancel()
		if err != nil {
			return wrapError(err)
		}
	}
	return nil
}

// insertItems appends items in order; each task is placed after the
// previous one since the API inserts at the top by default.
func (s *Store) insertItems(ctx context.Context, listID string, items []service.Item) error {
	var previous string
	for _, it := range items {
		status := statusNeedsAction
		if it.Completed {
			status = statusCompleted
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		call := s.svc.Tasks.Insert(listID, &tasks.Task{Title: it.Description, Status: status}).Context(callCtx)
		if previous != "" {
			call = call.Previous(previous)
		}
		created, err := call.Do()
		cancel()
		if err != nil {
			return wrapError(err)
		}
		previous = created.Id
	}
	return nil
}

// wrapError turns API errors into remote errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return service.RemoteError("request timed out")
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return service.RemoteError("token expired or revoked (run: todo login)")
		case http.StatusNotFound:
			return service.RemoteError("not found")
		}
	}

	return service.RemoteError(err.Error())
}
