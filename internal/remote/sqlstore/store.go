// Package sqlstore keeps remote lists in a SQL table, one row per list
// with the items stored as a JSON array. PostgreSQL and SQLite are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"todo/internal/dbx"
	"todo/internal/logging"
	"todo/internal/service"
)

// Dialect selects the database driver and SQL flavour.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) driver() string {
	if d == SQLite {
		return "sqlite3"
	}
	return "pgx"
}

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

const defaultTimeout = 10 * time.Second

// Store implements the remote list store over database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	timeout time.Duration
	logger  logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTimeout bounds each statement.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithLogger sets the store logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New wraps an open database. It does not run migrations.
func New(db *sql.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: dialect,
		timeout: defaultTimeout,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects with dsn, pings the server and applies migrations.
func Open(ctx context.Context, dialect Dialect, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open(dialect.driver(), dsn)
	if err != nil {
		return nil, service.ConfigError(fmt.Sprintf("db open error: %v", err))
	}
	s := New(db, dialect, opts...)

	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, wrapError(err, "connect to %s", dialect)
	}

	if dialect == SQLite {
		if _, err := db.ExecContext(pingCtx, "PRAGMA busy_timeout=5000"); err != nil {
			_ = db.Close()
			return nil, wrapError(err, "set busy timeout")
		}
	}

	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, wrapError(err, "migrate")
	}

	s.logger.Debug(ctx, "sql store opened", "dialect", dialect.String())
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// FindAll returns every list ordered by name.
func (s *Store) FindAll(ctx context.Context) ([]service.List, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT name, items FROM lists ORDER BY name`))
	if err != nil {
		return nil, wrapError(err, "select lists")
	}
	defer rows.Close()

	var result []service.List
	for rows.Next() {
		var (
			name string
			raw  []byte
		)
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, wrapError(err, "scan list")
		}
		items, err := decodeItems(name, raw)
		if err != nil {
			return nil, err
		}
		result = append(result, service.List{Name: name, Items: items})
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(err, "select lists")
	}
	return result, nil
}

// FindOne returns the named list.
func (s *Store) FindOne(ctx context.Context, name string) (service.List, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var raw []byte
	err := s.db.QueryRowContext(ctx, s.q(`SELECT items FROM lists WHERE name = $1`), name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return service.List{}, service.ListNotFound(name)
	}
	if err != nil {
		return service.List{}, wrapError(err, "select list %q", name)
	}

	items, err := decodeItems(name, raw)
	if err != nil {
		return service.List{}, err
	}
	return service.List{Name: name, Items: items}, nil
}

// Upsert inserts the list or replaces the items of an existing one.
func (s *Store) Upsert(ctx context.Context, list service.List) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.write(ctx, s.db, `
		INSERT INTO lists (name, items) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET items = EXCLUDED.items`, list)
}

// Insert adds a new list; a duplicate name violates the primary key.
func (s *Store) Insert(ctx context.Context, list service.List) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.insert(ctx, s.db, list)
}

// DeleteOne removes the named list.
func (s *Store) DeleteOne(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM lists WHERE name = $1`), name)
	if err != nil {
		return wrapError(err, "delete list %q", name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapError(err, "rows affected")
	}
	if n == 0 {
		return service.ListNotFound(name)
	}
	return nil
}

// DeleteAll removes every list.
func (s *Store) DeleteAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM lists`); err != nil {
		return wrapError(err, "delete lists")
	}
	return nil
}

// Drop empties the lists table. The schema stays in place so a later
// insert does not need to re-run migrations.
func (s *Store) Drop(ctx context.Context) error {
	if err := s.DeleteAll(ctx); err != nil {
		return err
	}
	s.logger.Debug(ctx, "lists table emptied")
	return nil
}

// ReplaceAll swaps the table content for lists in a single transaction.
// On any error the previous content is kept.
func (s *Store) ReplaceAll(ctx context.Context, lists []service.List) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM lists`); err != nil {
			return wrapError(err, "delete lists")
		}
		for _, l := range lists {
			if err := s.insert(ctx, tx, l); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapError(err, "replace lists")
	}
	s.logger.Debug(ctx, "lists replaced", "lists", len(lists))
	return nil
}

func (s *Store) insert(ctx context.Context, db dbx.DBTX, list service.List) error {
	return s.write(ctx, db, `INSERT INTO lists (name, items) VALUES ($1, $2)`, list)
}

func (s *Store) write(ctx context.Context, db dbx.DBTX, query string, list service.List) error {
	if list.Name == "" {
		return service.InvalidInput("list name must not be empty")
	}
	raw, err := encodeItems(list.Items)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, s.q(query), list.Name, raw); err != nil {
		return wrapError(err, "write list %q", list.Name)
	}
	return nil
}

var placeholder = regexp.MustCompile(`\$\d+`)

// q rewrites $n placeholders for SQLite. Every query here uses each
// parameter once, in order.
func (s *Store) q(query string) string {
	if s.dialect != SQLite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?")
}

func encodeItems(items []service.Item) (string, error) {
	if items == nil {
		items = []service.Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", service.SerializationError(err.Error())
	}
	return string(b), nil
}

func decodeItems(name string, raw []byte) ([]service.Item, error) {
	var items []service.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, service.SerializationError(fmt.Sprintf("list %q: %v", name, err))
	}
	if items == nil {
		items = []service.Item{}
	}
	return items, nil
}

// wrapError turns driver errors into remote errors with a readable prefix.
func wrapError(err error, format string, args ...any) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return service.RemoteError(fmt.Sprintf(format, args...) + ": request timed out")
	}
	return service.Remotef(err, format, args...)
}
