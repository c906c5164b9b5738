// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

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
)

// Validation outcomes used as metric labels.
const (
	validationValid        = "valid"
	validationInvalid      = "invalid"
	validationExpired      = "expired"
	validationUserInactive = "user_inactive"
	validationError        = "error"
)

// SessionMeta carries optional request details stored with a new session.
type SessionMeta struct {
	IPAddress string
	UserAgent string
}

// SessionManager issues, validates and revokes opaque session tokens.
//
// Expiry is absolute from creation and is detected lazily when a token is
// presented. Every validation re-reads the owning user so deactivation and
// role changes apply immediately.
type SessionManager struct {
	sessions SessionRepository
	users    UserRepository
	now      func() time.Time
}

// NewSessionManager constructs a [SessionManager].
func NewSessionManager(sessions SessionRepository, users UserRepository, now func() time.Time) *SessionManager {
	if now == nil {
		now = time.Now
	}
	return &SessionManager{sessions: sessions, users: users, now: now}
}

/*
CreateSession mints a token for userID valid for lifetimeDays.

A negative lifetime is treated as zero, which produces a session that is
already expired on first validation.

Returns:
  - string: the raw token, returned once and never stored
  - time.Time: absolute expiry
  - error: ErrUserNotFound or ErrStorageUnavailable
*/
func (manager *SessionManager) CreateSession(ctx context.Context, userID int64, lifetimeDays int, meta SessionMeta) (string, time.Time, error) {
	if lifetimeDays < 0 {
		lifetimeDays = 0
	}

	token := sec.NewSessionToken()
	now := manager.now().UTC()

	session := &Session{
		UserID:    userID,
		TokenHash: sec.HashToken(token),
		CreatedAt: now,
		ExpiresAt: now.AddDate(0, 0, lifetimeDays),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}

	if err := manager.sessions.Create(ctx, session); err != nil {
		return "", time.Time{}, fmt.Errorf("session_create_failed: %w", err)
	}

	metrics.SessionsCreated.Inc()
	return token, session.ExpiresAt, nil
}

/*
Validate resolves token to the current snapshot of its owner.

Side effects: an expired session, or one whose owner is inactive or gone, is
moved to inactive before the error is returned. An inactive session whose
owner is disabled keeps failing with ErrSessionUserInactive.

Returns:
  - *User: freshly read owner
  - error: ErrSessionInvalid, ErrSessionExpired, ErrSessionUserInactive or ErrStorageUnavailable
*/
func (manager *SessionManager) Validate(ctx context.Context, token string) (*User, error) {
	user, err := manager.validate(ctx, token)
	metrics.SessionValidations.WithLabelValues(validationLabel(err)).Inc()
	return user, err
}

func (manager *SessionManager) validate(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}

	session, err := manager.sessions.FindByTokenHash(ctx, sec.HashToken(token))
	if err != nil {
		return nil, err
	}
	if !session.IsActive {
		return nil, manager.inactiveReason(ctx, session.UserID)
	}

	if session.ExpiredAt(manager.now()) {
		if err := manager.sessions.Deactivate(ctx, session.ID); err != nil {
			return nil, err
		}
		return nil, ErrSessionExpired
	}

	user, err := manager.users.FindByID(ctx, session.UserID)
	if errors.Is(err, ErrUserNotFound) {
		if err := manager.sessions.Deactivate(ctx, session.ID); err != nil {
			return nil, err
		}
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		if err := manager.sessions.Deactivate(ctx, session.ID); err != nil {
			return nil, err
		}
		return nil, ErrSessionUserInactive
	}

	return user, nil
}

// inactiveReason reports why an already inactive session is refused. Sessions
// revoked by the deactivation cascade keep naming the disabled account.
func (manager *SessionManager) inactiveReason(ctx context.Context, userID int64) error {
	user, err := manager.users.FindByID(ctx, userID)
	switch {
	case errors.Is(err, ErrUserNotFound):
		return ErrSessionInvalid
	case err != nil:
		return err
	case !user.IsActive:
		return ErrSessionUserInactive
	default:
		return ErrSessionInvalid
	}
}

// Owner returns the user of an active, unexpired session without changing
// any state. It returns nil when the token does not resolve.
func (manager *SessionManager) Owner(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}

	session, err := manager.sessions.FindByTokenHash(ctx, sec.HashToken(token))
	if errors.Is(err, ErrSessionInvalid) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !session.IsActive || session.ExpiredAt(manager.now()) {
		return nil, nil
	}

	user, err := manager.users.FindByID(ctx, session.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil
	}
	return user, err
}

// Invalidate moves the session to inactive. Unknown and already inactive
// tokens are accepted silently.
func (manager *SessionManager) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return manager.sessions.DeactivateByTokenHash(ctx, sec.HashToken(token))
}

// InvalidateAllForUser revokes every active session of userID.
func (manager *SessionManager) InvalidateAllForUser(ctx context.Context, userID int64) error {
	revoked, err := manager.sessions.DeactivateAllForUser(ctx, userID)
	if err != nil {
		return err
	}

	if revoked > 0 {
		ctxutil.GetLogger(ctx).InfoContext(ctx, "sessions_revoked",
			slog.Int64("user_id", userID),
			slog.Int64("count", revoked),
		)
	}
	return nil
}

func validationLabel(err error) string {
	switch {
	case err == nil:
		return validationValid
	case errors.Is(err, ErrSessionExpired):
		return validationExpired
	case errors.Is(err, ErrSessionUserInactive):
		return validationUserInactive
	case errors.Is(err, ErrSessionInvalid):
		return validationInvalid
	default:
		return validationError
	}
}
