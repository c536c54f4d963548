// Package sqlite provides a SQLite-backed [store.Store] using the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/shelfworks/planogram/pkg/store"
)

const schema = `CREATE TABLE IF NOT EXISTS planogram_versions (
	planogram_id TEXT NOT NULL,
	version      INTEGER NOT NULL CHECK (version > 0),
	data         BLOB NOT NULL,
	saved_at     INTEGER NOT NULL,
	PRIMARY KEY (planogram_id, version)
)`

// Store persists planogram versions in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection serializes writers; a deferred transaction upgraded to a
	// write lock would otherwise fail with SQLITE_BUSY instead of waiting.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Get(ctx context.Context, id string) (store.Document, error) {
	if err := ctx.Err(); err != nil {
		return store.Document{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT version, data, saved_at FROM planogram_versions
		 WHERE planogram_id = ? ORDER BY version DESC LIMIT 1`, id)
	return scanDocument(id, row)
}

func (s *Store) GetVersion(ctx context.Context, id string, version int) (store.Document, error) {
	if err := ctx.Err(); err != nil {
		return store.Document{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT version, data, saved_at FROM planogram_versions
		 WHERE planogram_id = ? AND version = ?`, id, version)
	return scanDocument(id, row)
}

func (s *Store) Versions(ctx context.Context, id string) ([]store.VersionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT version, length(data), saved_at FROM planogram_versions
		 WHERE planogram_id = ? ORDER BY version ASC`, id)
	if err != nil {
		return nil, classify("list versions", err)
	}
	defer rows.Close()

	var out []store.VersionInfo
	for rows.Next() {
		var (
			info    store.VersionInfo
			savedAt int64
		)
		if err := rows.Scan(&info.Version, &info.Size, &savedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		info.SavedAt = fromMillis(savedAt)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list versions", err)
	}
	if len(out) == 0 {
		return nil, store.ErrNotFound
	}
	return out, nil
}

// Put reads the latest version and inserts the next one in a single
// transaction. The primary key turns a lost race into a constraint
// violation, reported as ErrConflict.
func (s *Store) Put(ctx context.Context, id string, data []byte, expectedVersion int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := store.ValidateID(id); err != nil {
		return 0, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, classify("begin put", err)
	}
	defer func() { _ = tx.Rollback() }()

	var latest int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM planogram_versions WHERE planogram_id = ?`, id,
	).Scan(&latest); err != nil {
		return 0, classify("read latest version", err)
	}
	if latest != expectedVersion {
		return 0, store.ErrConflict
	}

	next := expectedVersion + 1
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO planogram_versions (planogram_id, version, data, saved_at) VALUES (?, ?, ?, ?)`,
		id, next, data, toMillis(s.now()),
	); err != nil {
		if isConstraintError(err) {
			return 0, store.ErrConflict
		}
		return 0, classify("insert version", err)
	}
	if err := tx.Commit(); err != nil {
		if isConstraintError(err) {
			return 0, store.ErrConflict
		}
		return 0, classify("commit put", err)
	}
	return next, nil
}

func scanDocument(id string, row *sql.Row) (store.Document, error) {
	var (
		doc     = store.Document{ID: id}
		savedAt int64
	)
	if err := row.Scan(&doc.Version, &doc.Data, &savedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Document{}, store.ErrNotFound
		}
		return store.Document{}, classify("get version", err)
	}
	doc.SavedAt = fromMillis(savedAt)
	return doc, nil
}

// classify wraps err, marking lock contention as retryable.
func classify(op string, err error) error {
	if isBusyError(err) {
		return store.Retryable(fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isConstraintError(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3lib.SQLITE_CONSTRAINT || code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
}

func isBusyError(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3lib.SQLITE_BUSY || code == sqlite3lib.SQLITE_LOCKED
}

var _ store.Store = (*Store)(nil)
