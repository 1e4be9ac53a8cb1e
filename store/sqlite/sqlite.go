/*
Package sqlite provides a SQLite-backed implementation of booking.Store.

PURPOSE:
  Keeps the booking collection as a single row of a key/value table. The
  version column carries the optimistic-concurrency stamp.

KEY TABLES:
  collections: key (PK), data (JSON blob), version, updated_at

WRITE PATH:
  expectedVersion == 0: INSERT. A concurrent first write loses on the PK.
  expectedVersion  > 0: UPDATE ... WHERE version = expectedVersion.
  Zero affected rows / PK violation -> booking.ErrConcurrentModification.

WAL MODE:
  Opened with WAL so dashboard readers don't block the writer.

USAGE:
  store, err := sqlite.New("./data/bookings.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := booking.NewLedger(store, booking.LedgerConfig{})
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/oneearth/travel-engine/booking"
)

// Store implements booking.Store using SQLite.
type Store struct {
	db  *sql.DB
	key string
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: ":memory:" databases are per-connection, and SQLite
	// has a single writer anyway.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, key: booking.CollectionKey}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS collections (
		key TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		version INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);`)
	return err
}

func (s *Store) Read(ctx context.Context) (booking.Snapshot, error) {
	var (
		data    string
		version int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, version FROM collections WHERE key = ?`, s.key).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Snapshot{}, nil
	}
	if err != nil {
		return booking.Snapshot{}, fmt.Errorf("failed to read collection: %w", err)
	}
	return booking.Snapshot{Data: []byte(data), Version: version}, nil
}

func (s *Store) Write(ctx context.Context, data []byte, expectedVersion int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	if expectedVersion == 0 {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO collections (key, data, version, updated_at) VALUES (?, ?, 1, ?)`,
			s.key, string(data), now)
		if isUniqueConstraintError(err) {
			return booking.ErrConcurrentModification
		}
		if err != nil {
			return fmt.Errorf("failed to insert collection: %w", err)
		}
		return nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE collections SET data = ?, version = version + 1, updated_at = ?
		 WHERE key = ? AND version = ?`,
		string(data), now, s.key, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}
	if n == 0 {
		return booking.ErrConcurrentModification
	}
	return nil
}

// Reset drops every stored collection (dev only).
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM collections`)
	return err
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
