// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory store. Each call yields an empty database.
const MemoryDSN = "sqlite::memory:"

// sqlitePragmas are applied to every connection. Times are stored in SQLite's
// native text layout so they sort and parse consistently.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// openSQLite opens the embedded engine on a single connection. SQLite allows
// one writer at a time, and an in-memory database lives only as long as its
// connection.
func openSQLite(ctx context.Context, dsn string, logger *slog.Logger) (*DB, error) {
	path := SQLitePath(dsn)

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("database: failed to create data directory: %w", err)
		}
	}

	conn, err := sqlx.Open("sqlite", path+"?"+sqlitePragmas)
	if err != nil {
		return nil, fmt.Errorf("database: failed to open sqlite: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)
	conn.SetConnMaxIdleTime(0)

	db := &DB{DB: conn, Dialect: DialectSQLite}

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("sqlite database opened", slog.String("path", path))

	return db, nil
}

// SQLitePath extracts the filesystem path (or ":memory:") from a sqlite DSN.
func SQLitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "sqlite:")
	path = strings.TrimPrefix(path, "//")
	if path == "" || path == ":memory:" {
		return ":memory:"
	}
	return path
}
