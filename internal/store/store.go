// Package store provides the embedded relational+FTS+vector store: schema
// migration, connection lifecycle, pragmas, and best-effort vector
// extension loading. Every exported data-access method takes an explicit *sql.Tx;
// passing nil has the method acquire a one-shot connection from the pool
// instead, per the store's "caller owns a connection, or none" contract.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
	"go.uber.org/zap"

	"github.com/untoldecay/memlayer/internal/log"
)

// Queryer is satisfied by both *sql.DB and *sql.Tx, letting domain methods
// run against either a caller-owned transaction or a plain pooled
// connection without duplicating their SQL.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Options configures Open.
type Options struct {
	BusyTimeout time.Duration // default 5s
}

// Store is the embedded store handle. One Store wraps one *sql.DB; the
// underlying driver (ncruces/go-sqlite3) multiplexes readers safely under
// WAL, and Go's connection pool serializes writers.
type Store struct {
	db          *sql.DB
	log         *zap.Logger
	vecEnabled  bool
	busyTimeout time.Duration
	path        string
}

// Open acquires the store at path (creating its parent directory and the
// schema if absent), configures pragmas, attempts to load the vector
// extension, and runs migrations. path may be "" or a sqlite in-memory DSN
// (e.g. "file::memory:?cache=shared"), in which case WAL is skipped.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	if opts.BusyTimeout == 0 {
		opts.BusyTimeout = 5 * time.Second
	}

	mem := isMemoryPath(path)
	if !mem && path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: creating db directory: %w", err)
			}
		}
	}

	dsn := buildDSN(path, opts.BusyTimeout)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single-writer discipline; WAL still allows concurrent readers from other processes

	if !mem {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: setting WAL: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous=NORMAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: setting synchronous: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: enabling foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db:          db,
		log:         log.Component("store"),
		busyTimeout: opts.BusyTimeout,
		path:        path,
	}
	s.vecEnabled = detectVectorExtension(ctx, db)
	if !s.vecEnabled {
		s.log.Debug("vector extension unavailable; degrading to lexical-only search")
	}
	return s, nil
}

func isMemoryPath(path string) bool {
	return path == "" || path == ":memory:" || strings.Contains(path, "mode=memory") || strings.HasPrefix(path, "file::memory:")
}

func buildDSN(path string, busyTimeout time.Duration) string {
	if path == "" {
		path = ":memory:"
	}
	if strings.HasPrefix(path, "file:") {
		// Caller already supplied a full sqlite URI; trust it verbatim.
		return path
	}
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(%d)", path, busyTimeout.Milliseconds())
}

// detectVectorExtension probes for the sqlite-vec extension by preparing
// its version function. A failure here is never surfaced as an error;
// the engine silently degrades to lexical-only search.
func detectVectorExtension(ctx context.Context, db *sql.DB) bool {
	var version string
	err := db.QueryRowContext(ctx, "SELECT vec_version()").Scan(&version)
	return err == nil
}

// VectorEnabled reports whether the vector extension loaded successfully.
func (s *Store) VectorEnabled() bool { return s.vecEnabled }

// DB returns the underlying connection pool for callers that need to pass
// a nil-equivalent Queryer explicitly.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the filesystem path this store was opened against (empty
// for in-memory stores).
func (s *Store) Path() string { return s.path }

// Close releases the store's connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// q resolves the Queryer a domain method should run against: the supplied
// transaction if non-nil, otherwise the pooled *sql.DB (one connection
// acquired and released per call).
func (s *Store) q(tx *sql.Tx) Queryer {
	if tx != nil {
		return tx
	}
	return s.db
}

// WithTx runs fn inside a new transaction, committing on success and
// rolling back on error or panic. Every top-level mutating operation
// (upsert, commit, promote, link, deprecate, forget, sweep, compact) uses
// this to commit its effects and its idempotency record atomically.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	err = fn(tx)
	return err
}
