// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistema-fontes/fontes/internal/platform/config"
)

/*
TestLoad_Defaults verifies the permissive demo defaults when nothing is set.
*/
func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite://./database/users.db", cfg.DatabaseURL)
	assert.Equal(t, 30, cfg.SessionLifetimeDays)
	assert.Equal(t, 30*24*time.Hour, cfg.SessionLifetime())
	assert.Equal(t, 100_000, cfg.PasswordIterations)
	assert.Zero(t, cfg.MaxLoginAttempts)
	assert.Equal(t, "admin", cfg.BootstrapAdminUsername)
	assert.True(t, cfg.IsDevelopment())
}

/*
TestLoad_FromEnvironment checks that environment variables override defaults.
*/
func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SESSION_LIFETIME_DAYS", "7")
	t.Setenv("MAX_LOGIN_ATTEMPTS", "5")
	t.Setenv("LOCKOUT_DURATION", "15m")
	t.Setenv("EXTRA_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.SessionLifetime())
	assert.Equal(t, 5, cfg.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.LockoutDuration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
}

/*
TestConfig_Validate covers each rejected combination.
*/
func TestConfig_Validate(t *testing.T) {
	base := func() config.Config {
		return config.Config{
			Environment:         "development",
			SessionSecret:       config.DevSessionSecret,
			SessionLifetimeDays: 30,
			PasswordIterations:  config.MinPasswordIterations,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{"valid_dev", func(c *config.Config) {}, ""},
		{"dev_secret_in_production", func(c *config.Config) { c.Environment = "production" }, "SESSION_SECRET must be set"},
		{"weak_iterations", func(c *config.Config) { c.PasswordIterations = 1000 }, "PASSWORD_ITERATIONS"},
		{"threshold_without_cooldown", func(c *config.Config) { c.MaxLoginAttempts = 3 }, "LOCKOUT_DURATION"},
		{"negative_lifetime", func(c *config.Config) { c.SessionLifetimeDays = -1 }, "SESSION_LIFETIME_DAYS"},
		{"empty_secret", func(c *config.Config) { c.SessionSecret = " " }, "must not be empty"},
		{"production_ok", func(c *config.Config) {
			c.Environment = "production"
			c.SessionSecret = "a-real-secret"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
