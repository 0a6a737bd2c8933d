// Package store provides the local SQLite cache of normalized air quality
// records. The schema is created idempotently on every open and all batch
// writes are transactional with insert-or-replace semantics on natural keys.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// ddl creates the cache tables when missing. Never destructive.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS stations (
		id INTEGER PRIMARY KEY,
		code TEXT,
		name TEXT,
		lat REAL,
		lon REAL,
		city_id INTEGER,
		city_name TEXT,
		commune TEXT,
		district TEXT,
		province TEXT,
		street TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS sensors (
		id INTEGER PRIMARY KEY,
		station_id INTEGER NOT NULL,
		param_name TEXT,
		param_formula TEXT,
		param_code TEXT,
		param_id INTEGER,
		FOREIGN KEY (station_id) REFERENCES stations(id) ON DELETE CASCADE
	);`,
	`CREATE TABLE IF NOT EXISTS measurements (
		sensor_id INTEGER NOT NULL,
		dt TEXT NOT NULL,
		value REAL,
		PRIMARY KEY (sensor_id, dt),
		FOREIGN KEY (sensor_id) REFERENCES sensors(id) ON DELETE CASCADE
	);`,
	`CREATE TABLE IF NOT EXISTS air_index (
		station_id INTEGER NOT NULL,
		param TEXT NOT NULL,
		value REAL,
		category TEXT,
		calc_date TEXT,
		UNIQUE (station_id, param)
	);`,
}

// Store is the SQLite-backed cache. Safe for concurrent readers during a
// write: the database runs in WAL mode and writes are serialized by SQLite's
// transaction mechanism.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if missing) the cache database at path, turns on
// write-ahead journaling and foreign key enforcement, and ensures the schema.
// The pragmas travel in the DSN so that every connection database/sql opens
// later enforces them too, not just the one that ran Open.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}

	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	logger.Debug().Str("path", path).Msg("cache database ready")
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// inTx runs fn inside a transaction, rolling back the whole batch on failure.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	return tx.Commit()
}
