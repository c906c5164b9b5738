// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package migration provides a thin wrapper around golang-migrate for
// running database schema migrations.
//
// # Architecture
//
// This package belongs to the Infrastructure layer. It enforces schema
// idempotency during application startup, ensuring the database is always
// in the correct state before traffic is served. The SQL files are embedded
// in the binary, one directory per engine.
package migration

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// pgx5 driver registers "pgx5" scheme for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/sistema-fontes/fontes/internal/platform/database"
)

//go:embed sql/postgres/*.sql sql/sqlite/*.sql
var migrations embed.FS

// RunUp applies all pending UP migrations.
//
// # Parameters
//   - db: The open store; its dialect selects the migration set.
//   - dsn: The DSN db was opened with. PostgreSQL migrations use their own connection.
//   - logger: Structured logger for migration events.
func RunUp(db *database.DB, dsn string, logger *slog.Logger) error {
	source, err := iofs.New(migrations, "sql/"+string(db.Dialect))
	if err != nil {
		return fmt.Errorf("migration: failed to open embedded source: %w", err)
	}

	var migrator *migrate.Migrate

	switch db.Dialect {
	case database.DialectPostgres:
		migrator, err = migrate.NewWithSourceInstance("iofs", source, convertToPgx5DSN(dsn))
		if err != nil {
			return fmt.Errorf("migration: failed to initialize: %w", err)
		}
		defer func() {
			sourceError, dbError := migrator.Close()
			if sourceError != nil {
				logger.Error("migration_source_close_failed", slog.Any("error", sourceError))
			}
			if dbError != nil {
				logger.Error("migration_db_close_failed", slog.Any("error", dbError))
			}
		}()

	case database.DialectSQLite:
		// The driver borrows db's connection. Closing the migrator would close
		// the store itself, so it is left to the garbage collector.
		driver, err := sqlite.WithInstance(db.DB.DB, &sqlite.Config{})
		if err != nil {
			return fmt.Errorf("migration: failed to wrap sqlite: %w", err)
		}
		migrator, err = migrate.NewWithInstance("iofs", source, "sqlite", driver)
		if err != nil {
			return fmt.Errorf("migration: failed to initialize: %w", err)
		}

	default:
		return fmt.Errorf("migration: unsupported dialect %q", db.Dialect)
	}

	return apply(migrator, logger)
}

func apply(migrator *migrate.Migrate, logger *slog.Logger) error {
	// Enable verbose logging via the slog bridge.
	migrator.Log = &migrateLogger{logger: logger}

	currentVersion, isDirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration: failed to get current version: %w", err)
	}

	if isDirty {
		return fmt.Errorf("migration: database is in a dirty state at version %d (manual intervention required)", currentVersion)
	}

	logger.Info("migration_started", slog.Int("current_version", int(currentVersion)))

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("migration_already_up_to_date")
			return nil
		}
		return fmt.Errorf("migration: up failed: %w", err)
	}

	newVersion, _, _ := migrator.Version()
	logger.Info("migration_successful",
		slog.Int("from_version", int(currentVersion)),
		slog.Int("to_version", int(newVersion)),
	)

	return nil
}

// Files lists the embedded migration files for a dialect.
func Files(dialect database.Dialect) ([]string, error) {
	entries, err := fs.ReadDir(migrations, "sql/"+string(dialect))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

// convertToPgx5DSN ensures the DSN uses the pgx5:// scheme required by golang-migrate/v4.
func convertToPgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, prefix); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}

// migrateLogger adapts golang-migrate's logger interface to slog.
type migrateLogger struct {
	logger  *slog.Logger
	verbose bool
}

// Printf implements migrate.Logger.
func (l *migrateLogger) Printf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Verbose implements migrate.Logger.
func (l *migrateLogger) Verbose() bool {
	return l.verbose
}
