package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// note: as per SQLite's manual suggestions, we do not use 'AUTOINCREMENT' on
// the 'INTEGER PRIMARY KEY' columns. The default behaviour of such columns is
// nearly identical anyway, with less overhead.
var schema_stmts = []string{
	`PRAGMA journal_mode=WAL;`,
	`PRAGMA foreign_keys=ON;`,
	`CREATE TABLE IF NOT EXISTS openings (
		id INTEGER PRIMARY KEY,
		source TEXT NOT NULL,
		position TEXT NOT NULL,
		move TEXT NOT NULL,
		weight INTEGER NOT NULL DEFAULT 0 CHECK (weight >= 0),
		UNIQUE(source, position, move),
		CHECK (source IN ('online', 'masters'))
	);`,
	`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
		config_id TEXT NOT NULL,
		num_trials INTEGER NOT NULL,
		max_depth INTEGER NOT NULL,
		concurrency INTEGER NOT NULL,
		random_seed INTEGER NOT NULL DEFAULT 0,
		start_fen TEXT NOT NULL DEFAULT '',
		trial_count INTEGER NOT NULL,
		skipped_trials INTEGER NOT NULL DEFAULT 0,
		mean_depth REAL NOT NULL DEFAULT 0,
		depth_histogram TEXT NOT NULL DEFAULT '{}',
		status_counts TEXT NOT NULL DEFAULT '{}'
	);`,
	`CREATE INDEX IF NOT EXISTS idx_openings_source_position ON openings(source, position);`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_runs_config_id ON runs(config_id);`,
}

type Store struct {
	db *sqlx.DB
}

func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// keep it predictable; this is a single-instance tool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	for _, stmt := range schema_stmts {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
