// Package sqlite implements the persistent session store on an SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aretw0/inkwell/pkg/core"
)

// DefaultNamespace scopes the device settings inside the database.
const DefaultNamespace = "inkwell"

// Config configures a Store.
type Config struct {
	// Path is the database file. Parent directories are created.
	Path      string
	Namespace string
	Logger    *slog.Logger
}

// Store is a namespaced key/value session store.
type Store struct {
	db     *sql.DB
	ns     string
	path   string
	logger *slog.Logger
}

// Open opens or creates the database at cfg.Path.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("session store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{db: db, ns: cfg.Namespace, path: cfg.Path, logger: cfg.Logger}
	if s.ns == "" {
		s.ns = DefaultNamespace
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS settings (
		ns         TEXT NOT NULL,
		key        TEXT NOT NULL,
		kind       TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (ns, key)
	);
	`)
	return err
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(tx core.SessionReader) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()

	r := &reader{ctx: ctx, tx: tx, ns: s.ns}
	if err := fn(r); err != nil {
		return err
	}
	return r.err
}

// Update runs fn in a read-write transaction, committed when fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(tx core.SessionWriter) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}

	w := &writer{reader: reader{ctx: ctx, tx: tx, ns: s.ns}}
	if err := fn(w); err != nil {
		tx.Rollback()
		return err
	}
	if w.err != nil {
		tx.Rollback()
		return w.err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Entry is a raw stored setting.
type Entry struct {
	Key       string
	Kind      core.KeyKind
	Value     string
	UpdatedAt string
}

// Entries lists every setting of the namespace, ordered by key.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, kind, value, updated_at FROM settings WHERE ns = ? ORDER BY key`, s.ns)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.Key, &kind, &e.Value, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Kind = core.KeyKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type reader struct {
	ctx context.Context
	tx  *sql.Tx
	ns  string
	err error
}

// raw returns the stored value of key, or ok=false when it is absent.
func (r *reader) raw(key string) (string, bool) {
	var value string
	err := r.tx.QueryRowContext(r.ctx,
		`SELECT value FROM settings WHERE ns = ? AND key = ?`, r.ns, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false
	}
	if err != nil {
		if r.err == nil {
			r.err = fmt.Errorf("read %s: %w", key, err)
		}
		return "", false
	}
	return value, true
}

func (r *reader) Int(key string, def int) int {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (r *reader) Bool(key string, def bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func (r *reader) String(key string, def string) string {
	v, ok := r.raw(key)
	if !ok {
		return def
	}
	return v
}

type writer struct {
	reader
}

func (w *writer) put(key string, kind core.KeyKind, value string) error {
	_, err := w.tx.ExecContext(w.ctx, `
		INSERT INTO settings (ns, key, kind, value, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(ns, key) DO UPDATE SET kind = excluded.kind, value = excluded.value, updated_at = excluded.updated_at`,
		w.ns, key, string(kind), value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (w *writer) PutInt(key string, v int) error {
	return w.put(key, core.KindInt, strconv.Itoa(v))
}

func (w *writer) PutBool(key string, v bool) error {
	return w.put(key, core.KindBool, strconv.FormatBool(v))
}

func (w *writer) PutString(key string, v string) error {
	return w.put(key, core.KindString, v)
}

var _ core.SessionStore = (*Store)(nil)
