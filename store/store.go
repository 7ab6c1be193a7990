// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const connectRetries = 5

// ErrDuplicateBallot is returned when a ballot insert trips the
// (instance_id, voter_token_hash) unique constraint. It is the only storage
// error callers are expected to branch on.
var ErrDuplicateBallot = errors.New("duplicate ballot")

// Store wraps the Postgres pool with the repository methods the engines use.
// The database is the single source of truth; every mutation that spans rows
// runs inside a transaction here.
type Store struct {
	db *sqlx.DB
}

// Open connects to Postgres and verifies the connection, retrying a few
// times so the process survives a database that is still starting up.
func Open(databaseURL string) (*Store, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for attempt := 1; attempt <= connectRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(ctx)
		cancel()
		if err == nil {
			break
		}
		slog.Warn("database not ready, retrying", "attempt", attempt, "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection pool. Used by tests.
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for test fixtures.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction, committing on nil and rolling back on
// error.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally limited to one named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
