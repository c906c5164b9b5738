// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sistema-fontes/fontes/internal/auth"
	"github.com/sistema-fontes/fontes/internal/platform/database"
	"github.com/sistema-fontes/fontes/internal/platform/migration"
	"github.com/sistema-fontes/fontes/internal/platform/sec"
)

// testIterations keeps PBKDF2 fast in tests.
const testIterations = 1000

// fakeClock is a controllable time source shared by every component. It
// starts at the wall clock so signed cookies issued in tests are still valid.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testEnv wires the core against a private in-memory database.
type testEnv struct {
	db          *database.DB
	clock       *fakeClock
	hasher      *sec.PasswordHasher
	users       *auth.SQLUserRepository
	sessions    *auth.SessionManager
	auditor     *auth.Auditor
	credentials *auth.CredentialStore
	service     *auth.Service
}

type envOption func(*envConfig)

type envConfig struct {
	policy  auth.Policy
	lockout func(db *database.DB) auth.LockoutRepository
	audit   func(db *database.DB) auth.AuditRepository
}

func withPolicy(policy auth.Policy) envOption {
	return func(c *envConfig) { c.policy = policy }
}

func withLockout(build func(db *database.DB) auth.LockoutRepository) envOption {
	return func(c *envConfig) { c.lockout = build }
}

func withAuditRepository(build func(db *database.DB) auth.AuditRepository) envOption {
	return func(c *envConfig) { c.audit = build }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, options ...envOption) *testEnv {
	t.Helper()

	cfg := envConfig{
		policy: auth.Policy{SessionLifetimeDays: auth.DefaultSessionLifetimeDays},
		lockout: func(db *database.DB) auth.LockoutRepository {
			return auth.NewSQLLockoutRepository(db)
		},
		audit: func(db *database.DB) auth.AuditRepository {
			return auth.NewAuditRepository(db)
		},
	}
	for _, option := range options {
		option(&cfg)
	}

	db, err := database.Open(context.Background(), database.MemoryDSN, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migration.RunUp(db, database.MemoryDSN, discardLogger()))

	clock := newFakeClock()
	hasher := sec.NewPasswordHasher(testIterations)
	users := auth.NewUserRepository(db)
	auditor := auth.NewAuditor(cfg.audit(db), clock.Now)
	sessions := auth.NewSessionManager(auth.NewSessionRepository(db), users, clock.Now)
	credentials := auth.NewCredentialStore(users, sessions, hasher, auditor, clock.Now)
	service := auth.NewService(credentials, users, sessions, auditor, cfg.lockout(db), hasher, cfg.policy, clock.Now)

	return &testEnv{
		db:          db,
		clock:       clock,
		hasher:      hasher,
		users:       users,
		sessions:    sessions,
		auditor:     auditor,
		credentials: credentials,
		service:     service,
	}
}

// createUser adds an account and advances the clock so creation order is
// observable.
func (env *testEnv) createUser(t *testing.T, username, password string, role sec.UserRole) *auth.User {
	t.Helper()

	user, err := env.credentials.CreateUser(context.Background(), auth.NewUserInput{
		Username: username,
		Password: password,
		FullName: username + " Example",
		Role:     role,
	})
	require.NoError(t, err)

	env.clock.Advance(time.Second)
	return user
}

// auditCount returns the number of rows in the access log.
func (env *testEnv) auditCount(t *testing.T) int {
	t.Helper()

	var count int
	require.NoError(t, env.db.GetContext(context.Background(), &count, "SELECT COUNT(*) FROM access_logs"))
	return count
}

// latestEntry returns the newest access log entry.
func (env *testEnv) latestEntry(t *testing.T) auth.AccessLogEntry {
	t.Helper()

	entries, err := env.auditor.QueryRecent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	return entries[0]
}
