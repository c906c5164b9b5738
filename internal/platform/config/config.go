// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Both binaries (the HTTP server and the terminal shell) read the same schema,
so an operator configures the storage engine and the security policy once.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// DevSessionSecret is the fallback cookie key used when SESSION_SECRET is unset.
// [Config.Validate] refuses it in production.
const DevSessionSecret = "fontes-development-secret-change-me"

// MinPasswordIterations is the lowest PBKDF2 work factor the service accepts.
const MinPasswordIterations = 100_000

// # Configuration Schema

// Config holds all runtime configuration for the FONTES authentication service.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database. Either postgres://... or sqlite://<path>.
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://./database/users.db"`

	// Key-Value Cache (Redis). Optional; lockout state falls back to SQL.
	RedisURL string `env:"REDIS_URL"`

	// Session policy
	SessionSecret       string `env:"SESSION_SECRET"        envDefault:"fontes-development-secret-change-me"`
	SessionLifetimeDays int    `env:"SESSION_LIFETIME_DAYS" envDefault:"30"`
	CookieSecure        bool   `env:"COOKIE_SECURE"         envDefault:"false"`

	// Credential policy
	PasswordIterations int           `env:"PASSWORD_ITERATIONS" envDefault:"100000"`
	MaxLoginAttempts   int           `env:"MAX_LOGIN_ATTEMPTS"  envDefault:"0"`
	LockoutDuration    time.Duration `env:"LOCKOUT_DURATION"    envDefault:"0s"`

	// First-run seed
	BootstrapAdminUsername string `env:"BOOTSTRAP_ADMIN_USERNAME" envDefault:"admin"`
	BootstrapAdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD" envDefault:"admin123"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`

	// Terminal shell "remember me" file
	RememberFile string `env:"REMEMBER_FILE" envDefault:"~/.fontes/session.toml"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects combinations that would leave the service in an unsafe or
// contradictory state.
func (c *Config) Validate() error {
	var errs []error

	if c.SessionLifetimeDays < 0 {
		errs = append(errs, errors.New("SESSION_LIFETIME_DAYS must not be negative"))
	}
	if c.PasswordIterations < MinPasswordIterations {
		errs = append(errs, fmt.Errorf("PASSWORD_ITERATIONS must be at least %d", MinPasswordIterations))
	}
	if c.MaxLoginAttempts < 0 {
		errs = append(errs, errors.New("MAX_LOGIN_ATTEMPTS must not be negative"))
	}
	if c.MaxLoginAttempts > 0 && c.LockoutDuration <= 0 {
		errs = append(errs, errors.New("LOCKOUT_DURATION is required when MAX_LOGIN_ATTEMPTS is set"))
	}
	if strings.TrimSpace(c.SessionSecret) == "" {
		errs = append(errs, errors.New("SESSION_SECRET must not be empty"))
	}
	if c.IsProduction() && c.SessionSecret == DevSessionSecret {
		errs = append(errs, errors.New("SESSION_SECRET must be set in production"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// SessionLifetime converts the configured day count into a duration.
func (c *Config) SessionLifetime() time.Duration {
	return time.Duration(c.SessionLifetimeDays) * 24 * time.Hour
}

// Origins splits EXTRA_ORIGINS into a clean list.
func (c *Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
