// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package auth implements the FONTES authentication and session core.
//
// # Architecture
//
// Four components cooperate, each owning one relation:
//
//   - [CredentialStore] owns user accounts and their password hashes.
//   - [SessionManager] owns sessions and reads users on every validation.
//   - [Auditor] owns the append-only access log.
//   - [Service] orchestrates them for login, logout and session checks.
//
// Components talk to storage through the repository interfaces in store.go.
// SQL implementations serve PostgreSQL and SQLite; lockout state may live in
// Redis instead.
//
// Every call takes the session token explicitly. Nothing in the package keeps
// a "current user" between calls.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sistema-fontes/fontes/internal/platform/ctxutil"
	"github.com/sistema-fontes/fontes/internal/platform/metrics"
	"github.com/sistema-fontes/fontes/internal/platform/sec"
	"github.com/sistema-fontes/fontes/pkg/pointer"
)

// Login outcomes used as metric labels.
const (
	outcomeSuccess       = "success"
	outcomeUnknownUser   = "unknown_user"
	outcomeInactive      = "inactive"
	outcomeLocked        = "locked"
	outcomeWrongPassword = "wrong_password"
	outcomeError         = "error"
)

// Policy holds the tunable rules applied by [Service.Authenticate].
type Policy struct {
	// SessionLifetimeDays is the absolute lifetime of new sessions.
	SessionLifetimeDays int

	// MaxLoginAttempts is the failure count that triggers a lockout.
	// Zero disables lockout.
	MaxLoginAttempts int

	// LockoutDuration is how long a lockout lasts.
	LockoutDuration time.Duration
}

func (p Policy) lockoutEnabled() bool {
	return p.MaxLoginAttempts > 0 && p.LockoutDuration > 0
}

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is critical for security. Changes to the login sequence must
// keep the three credential failures indistinguishable to clients while
// keeping them distinct in the access log.
type Service struct {
	credentials *CredentialStore
	users       UserRepository
	sessions    *SessionManager
	auditor     *Auditor
	lockout     LockoutRepository
	hasher      *sec.PasswordHasher
	policy      Policy
	now         func() time.Time
}

// NewService constructs a [Service]. lockout may be nil when the policy does
// not enable lockouts.
func NewService(
	credentials *CredentialStore,
	users UserRepository,
	sessions *SessionManager,
	auditor *Auditor,
	lockout LockoutRepository,
	hasher *sec.PasswordHasher,
	policy Policy,
	now func() time.Time,
) *Service {
	if now == nil {
		now = time.Now
	}
	if policy.SessionLifetimeDays < 0 {
		policy.SessionLifetimeDays = DefaultSessionLifetimeDays
	}
	return &Service{
		credentials: credentials,
		users:       users,
		sessions:    sessions,
		auditor:     auditor,
		lockout:     lockout,
		hasher:      hasher,
		policy:      policy,
		now:         now,
	}
}

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult represents a successfully established session.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

/*
Authenticate verifies credentials and opens a session.

Exactly one access log entry is written per call that reaches the store.

Returns:
  - *LoginResult: token, expiry and the refreshed account
  - error: ErrUnknownUsername, ErrAccountInactive, ErrAccountLocked,
    ErrWrongPassword or ErrStorageUnavailable
*/
func (service *Service) Authenticate(ctx context.Context, input LoginInput) (*LoginResult, error) {
	result, outcome, err := service.authenticate(ctx, input)
	metrics.LoginAttempts.WithLabelValues(outcome).Inc()
	return result, err
}

func (service *Service) authenticate(ctx context.Context, input LoginInput) (*LoginResult, string, error) {
	logger := ctxutil.GetLogger(ctx)

	// ── 1. Account Lookup ─────────────────────────────────────────────────

	user, err := service.users.FindByUsername(ctx, input.Username)
	if errors.Is(err, ErrUserNotFound) {
		service.auditor.Record(ctx, Event{
			Username:  input.Username,
			Action:    ActionLoginFailed,
			Details:   detailUserNotFound,
			IPAddress: input.IPAddress,
		})
		return nil, outcomeUnknownUser, ErrUnknownUsername
	}
	if err != nil {
		return nil, outcomeError, err
	}

	// ── 2. Account State ──────────────────────────────────────────────────

	if !user.IsActive {
		service.recordFor(ctx, user, input.IPAddress, ActionLoginBlocked, false, detailAccountDisabled)
		return nil, outcomeInactive, ErrAccountInactive
	}

	if until := service.lockedUntil(ctx, user.ID); service.now().Before(until) {
		service.recordFor(ctx, user, input.IPAddress, ActionLoginBlocked, false,
			fmt.Sprintf(detailAccountLocked, until.UTC().Format(time.RFC3339)))
		return nil, outcomeLocked, ErrAccountLocked
	}

	// ── 3. Password Check ─────────────────────────────────────────────────

	if !service.hasher.Verify(user.PasswordHash, input.Password) {
		count, err := service.users.RecordLoginFailure(ctx, user.ID)
		if err != nil {
			return nil, outcomeError, err
		}

		service.recordFor(ctx, user, input.IPAddress, ActionLoginFailed, false, fmt.Sprintf(detailWrongPassword, count))
		service.applyLockout(ctx, user.ID, count)

		logger.InfoContext(ctx, "login_failed",
			slog.Int64("user_id", user.ID),
			slog.Int("failed_login_count", count),
		)
		return nil, outcomeWrongPassword, ErrWrongPassword
	}

	// ── 4. Session ────────────────────────────────────────────────────────

	now := service.now().UTC()
	if err := service.users.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return nil, outcomeError, err
	}
	if service.policy.lockoutEnabled() && service.lockout != nil {
		if err := service.lockout.Clear(ctx, user.ID); err != nil {
			logger.WarnContext(ctx, "lockout_clear_failed", slog.Int64("user_id", user.ID), slog.Any("error", err))
		}
	}

	service.upgradeHash(ctx, user, input.Password)

	token, expiresAt, err := service.sessions.CreateSession(ctx, user.ID, service.policy.SessionLifetimeDays, SessionMeta{
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})
	if err != nil {
		return nil, outcomeError, err
	}

	service.recordFor(ctx, user, input.IPAddress, ActionLoginSuccess, true, detailLoginSuccessful)

	user.FailedLoginCount = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, outcomeSuccess, nil
}

// lockedUntil fails open: a lockout store outage must not block logins.
func (service *Service) lockedUntil(ctx context.Context, userID int64) time.Time {
	if !service.policy.lockoutEnabled() || service.lockout == nil {
		return time.Time{}
	}

	until, err := service.lockout.LockedUntil(ctx, userID)
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "lockout_check_failed",
			slog.Int64("user_id", userID),
			slog.Any("error", err),
		)
		return time.Time{}
	}
	return until
}

func (service *Service) applyLockout(ctx context.Context, userID int64, count int) {
	if !service.policy.lockoutEnabled() || service.lockout == nil || count < service.policy.MaxLoginAttempts {
		return
	}

	until := service.now().Add(service.policy.LockoutDuration)
	if err := service.lockout.Lock(ctx, userID, until); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "lockout_set_failed",
			slog.Int64("user_id", userID),
			slog.Any("error", err),
		)
		return
	}

	ctxutil.GetLogger(ctx).WarnContext(ctx, "account_locked",
		slog.Int64("user_id", userID),
		slog.Time("until", until),
	)
}

// upgradeHash replaces legacy or weaker hashes after a verified login.
func (service *Service) upgradeHash(ctx context.Context, user *User, password string) {
	if !service.hasher.NeedsRehash(user.PasswordHash) {
		return
	}

	hash, err := service.hasher.Hash(password)
	if err == nil {
		err = service.users.RehashPassword(ctx, user.ID, hash)
	}
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "password_rehash_failed",
			slog.Int64("user_id", user.ID),
			slog.Any("error", err),
		)
		return
	}

	user.PasswordHash = hash
}

/*
Logout invalidates token and records one LOGOUT entry.

Unknown or already inactive tokens are accepted; the entry is then recorded
as unsuccessful with no user attached.
*/
func (service *Service) Logout(ctx context.Context, token string) error {
	owner, err := service.sessions.Owner(ctx, token)
	if err != nil {
		return err
	}

	if err := service.sessions.Invalidate(ctx, token); err != nil {
		return err
	}

	if owner == nil {
		service.auditor.Record(ctx, Event{Action: ActionLogout, Details: detailUnknownSession})
		return nil
	}

	service.recordFor(ctx, owner, "", ActionLogout, true, detailLogout)
	return nil
}

// Validate resolves token to its owner, keeping the failure reason.
func (service *Service) Validate(ctx context.Context, token string) (*User, error) {
	return service.sessions.Validate(ctx, token)
}

// ValidateSession resolves token to its owner for call sites that only need
// a yes or no.
func (service *Service) ValidateSession(ctx context.Context, token string) (*User, bool) {
	user, err := service.sessions.Validate(ctx, token)
	if err != nil {
		return nil, false
	}
	return user, true
}

// Identify implements the request authentication hook of the HTTP layer.
func (service *Service) Identify(ctx context.Context, token string) (*sec.Identity, error) {
	user, err := service.sessions.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	return user.Identity(token), nil
}

// Credentials exposes the account management component.
func (service *Service) Credentials() *CredentialStore { return service.credentials }

// Audit exposes the access log component.
func (service *Service) Audit() *Auditor { return service.auditor }

func (service *Service) recordFor(ctx context.Context, user *User, ip string, action Action, success bool, details string) {
	service.auditor.Record(ctx, Event{
		UserID:    pointer.To(user.ID),
		Username:  user.Username,
		Action:    action,
		Success:   success,
		Details:   details,
		IPAddress: ip,
	})
}
