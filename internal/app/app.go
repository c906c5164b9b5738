// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package app assembles the authentication core from configuration. The HTTP
// server and the terminal shell share it, so both run against the same store
// with the same policy.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sistema-fontes/fontes/internal/auth"
	"github.com/sistema-fontes/fontes/internal/platform/config"
	"github.com/sistema-fontes/fontes/internal/platform/constants"
	"github.com/sistema-fontes/fontes/internal/platform/database"
	"github.com/sistema-fontes/fontes/internal/platform/migration"
	redisstore "github.com/sistema-fontes/fontes/internal/platform/redis"
	"github.com/sistema-fontes/fontes/internal/platform/sec"
)

// App holds the wired core and the resources it owns.
type App struct {
	Config  *config.Config
	DB      *database.DB
	Redis   *redis.Client // nil when REDIS_URL is empty
	Service *auth.Service
	Cookies *sec.CookieSigner
}

// Build opens the store, applies migrations, wires every component and
// seeds the bootstrap administrator when none exists.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	now := time.Now

	// ── 1. Storage ────────────────────────────────────────────────────────

	db, err := database.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}

	if err := migration.RunUp(db, cfg.DatabaseURL, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{Config: cfg, DB: db}

	// ── 2. Lockout State ──────────────────────────────────────────────────

	var lockout auth.LockoutRepository = auth.NewSQLLockoutRepository(db)
	if cfg.RedisURL != "" {
		client, err := redisstore.NewClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.Redis = client
		lockout = auth.NewRedisLockoutRepository(client, now)
	}

	// ── 3. Components ─────────────────────────────────────────────────────

	users := auth.NewUserRepository(db)
	hasher := sec.NewPasswordHasher(cfg.PasswordIterations)
	auditor := auth.NewAuditor(auth.NewAuditRepository(db), now)
	sessions := auth.NewSessionManager(auth.NewSessionRepository(db), users, now)
	credentials := auth.NewCredentialStore(users, sessions, hasher, auditor, now)

	app.Service = auth.NewService(credentials, users, sessions, auditor, lockout, hasher, auth.Policy{
		SessionLifetimeDays: cfg.SessionLifetimeDays,
		MaxLoginAttempts:    cfg.MaxLoginAttempts,
		LockoutDuration:     cfg.LockoutDuration,
	}, now)

	app.Cookies, err = sec.NewCookieSigner(cfg.SessionSecret, constants.AuthIssuer)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	// ── 4. Seed ───────────────────────────────────────────────────────────

	if _, err := credentials.Bootstrap(ctx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("app: bootstrap failed: %w", err)
	}

	return app, nil
}

// Close releases the store and the Redis client.
func (app *App) Close() error {
	var errs []error
	if app.Redis != nil {
		errs = append(errs, app.Redis.Close())
	}
	if app.DB != nil {
		errs = append(errs, app.DB.Close())
	}
	return errors.Join(errs...)
}
