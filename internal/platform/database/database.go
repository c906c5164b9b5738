// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package database opens the relational store behind the credential, session
// and audit repositories.
//
// # Architecture
//
// Two engines are supported from a single DSN:
//
//   - postgres:// or postgresql:// opens a tuned pgx pool and exposes it
//     through database/sql, so the same sqlx repositories serve both engines.
//   - sqlite://<path> (or sqlite::memory:) opens the embedded engine used by
//     the terminal shell, single-host deployments and the test suite.
//
// Repositories write queries with '?' placeholders and pass them through
// [sqlx.DB.Rebind], which rewrites them to the engine's bind style.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/sistema-fontes/fontes/internal/platform/dberr"
)

// Dialect names the SQL engine behind a [DB].
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// maxTxAttempts bounds retries of serializable transactions on PostgreSQL.
const maxTxAttempts = 3

// DB is an open relational store.
type DB struct {
	*sqlx.DB

	Dialect Dialect

	// pool backs DB when the dialect is PostgreSQL.
	pool *pgxpool.Pool
}

// Open connects to the store named by dsn and verifies it is reachable.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*DB, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return openPostgres(ctx, dsn, logger)
	case strings.HasPrefix(dsn, "sqlite:"):
		return openSQLite(ctx, dsn, logger)
	default:
		return nil, fmt.Errorf("database: unsupported DSN scheme in %q", redact(dsn))
	}
}

// Ping verifies that the store is healthy.
func (db *DB) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database: ping failed: %w", err)
	}
	return nil
}

// Close releases every connection.
func (db *DB) Close() error {
	err := db.DB.Close()
	if db.pool != nil {
		db.pool.Close()
	}
	return err
}

// WriteTxOptions returns the isolation used for read-check-write transactions.
// PostgreSQL runs them SERIALIZABLE; SQLite already serialises writers on its
// single connection and rejects explicit isolation levels.
func (db *DB) WriteTxOptions() *sql.TxOptions {
	if db.Dialect == DialectPostgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

// InTx runs fn inside a write transaction and commits when fn returns nil.
// Serialization failures are retried a bounded number of times.
func (db *DB) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = db.runTx(ctx, fn)
		if err == nil || !dberr.IsSerializationFailure(err) {
			return err
		}
	}
	return err
}

func (db *DB) runTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, db.WriteTxOptions())
	if err != nil {
		return fmt.Errorf("database: begin: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("database: commit: %w", err)
	}
	return nil
}

// redact strips credentials from a DSN before it is logged or returned.
func redact(dsn string) string {
	scheme, rest, found := strings.Cut(dsn, "://")
	if !found {
		return dsn
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		return scheme + "://***@" + rest[at+1:]
	}
	return dsn
}
