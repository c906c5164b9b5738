// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sistema-fontes/fontes/internal/platform/constants"
	"github.com/sistema-fontes/fontes/internal/platform/ctxutil"
	"github.com/sistema-fontes/fontes/internal/platform/sec"
	"github.com/sistema-fontes/fontes/internal/platform/validate"
	"github.com/sistema-fontes/fontes/pkg/pointer"
)

// sessionRevoker is the part of the session manager the credential store
// needs for the deactivation cascade.
type sessionRevoker interface {
	InvalidateAllForUser(ctx context.Context, userID int64) error
}

// CredentialStore manages the lifecycle of user accounts.
//
// It is the only component that sees password hashes. Every mutation is
// written to the access log.
type CredentialStore struct {
	users    UserRepository
	sessions sessionRevoker
	hasher   *sec.PasswordHasher
	auditor  *Auditor
	now      func() time.Time
}

// NewCredentialStore constructs a [CredentialStore].
func NewCredentialStore(
	users UserRepository,
	sessions sessionRevoker,
	hasher *sec.PasswordHasher,
	auditor *Auditor,
	now func() time.Time,
) *CredentialStore {
	if now == nil {
		now = time.Now
	}
	return &CredentialStore{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		auditor:  auditor,
		now:      now,
	}
}

// NewUserInput holds the data required to create an account.
type NewUserInput struct {
	Username string
	Password string
	FullName string
	Email    *string

	// Role defaults to [sec.RoleUser].
	Role sec.UserRole
}

// UpdateUserInput holds the replaceable profile fields of an account.
type UpdateUserInput struct {
	Username string
	FullName string
	Email    *string
	Role     sec.UserRole
}

/*
CreateUser validates, hashes and persists a new active account.

Returns:
  - *User: the stored account
  - error: VALIDATION_ERROR, ErrDuplicateUsername or ErrStorageUnavailable

Business Rules:
  - Usernames are unique and compared case-sensitively.
  - A duplicate leaves no trace in the store.
*/
func (store *CredentialStore) CreateUser(ctx context.Context, input NewUserInput) (*User, error) {
	// ── 1. Validation ─────────────────────────────────────────────────────

	if input.Role == "" {
		input.Role = sec.RoleUser
	}
	input.Email = normaliseEmail(input.Email)

	validator := &validate.Validator{}
	validator.
		Required("username", input.Username).
		MaxLen("username", input.Username, MaxUsernameLength).
		Custom("username", strings.TrimSpace(input.Username) != input.Username, "Must not start or end with spaces").
		MinLen("password", input.Password, MinPasswordLength).
		Required("fullName", input.FullName).
		MaxLen("fullName", input.FullName, MaxFullNameLength).
		OptionalEmail("email", pointer.Val(input.Email)).
		Custom("role", !input.Role.Valid(), "Must be one of: admin, user")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// ── 2. Security ───────────────────────────────────────────────────────

	hash, err := store.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("credential_hash_failed: %w", err)
	}

	// ── 3. Persistence ────────────────────────────────────────────────────

	user := &User{
		Username:     input.Username,
		PasswordHash: hash,
		FullName:     input.FullName,
		Email:        input.Email,
		Role:         input.Role,
		IsActive:     true,
		CreatedAt:    store.now().UTC(),
	}

	if err := store.users.Create(ctx, user); err != nil {
		return nil, err
	}

	store.record(ctx, user, ActionUserCreated, detailUserCreated)
	return user, nil
}

// FindByUsername performs an exact-match lookup. It has no side effects.
func (store *CredentialStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	return store.users.FindByUsername(ctx, username)
}

// FindByID returns the account with the given ID.
func (store *CredentialStore) FindByID(ctx context.Context, id int64) (*User, error) {
	return store.users.FindByID(ctx, id)
}

// ListUsers returns every account, newest-created first.
func (store *CredentialStore) ListUsers(ctx context.Context) ([]User, error) {
	return store.users.List(ctx)
}

/*
UpdateUser replaces username, full name, email and role. The password is
not touched.

Returns:
  - error: ErrUserNotFound, ErrDuplicateUsername, ErrLastAdmin or VALIDATION_ERROR
*/
func (store *CredentialStore) UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (*User, error) {
	input.Email = normaliseEmail(input.Email)

	validator := &validate.Validator{}
	validator.
		Required("username", input.Username).
		MaxLen("username", input.Username, MaxUsernameLength).
		Custom("username", strings.TrimSpace(input.Username) != input.Username, "Must not start or end with spaces").
		Required("fullName", input.FullName).
		MaxLen("fullName", input.FullName, MaxFullNameLength).
		OptionalEmail("email", pointer.Val(input.Email)).
		Custom("role", !input.Role.Valid(), "Must be one of: admin, user")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	user, err := store.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Username = input.Username
	user.FullName = input.FullName
	user.Email = input.Email
	user.Role = input.Role

	if err := store.users.Update(ctx, user); err != nil {
		return nil, err
	}

	store.record(ctx, user, ActionUserUpdated, detailUserUpdated)
	return user, nil
}

// ChangePassword re-hashes and replaces the password of id and resets its
// failure counter.
func (store *CredentialStore) ChangePassword(ctx context.Context, id int64, newPassword string) error {
	validator := &validate.Validator{}
	if err := validator.MinLen("password", newPassword, MinPasswordLength).Err(); err != nil {
		return err
	}

	user, err := store.users.FindByID(ctx, id)
	if err != nil {
		return err
	}

	hash, err := store.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("credential_hash_failed: %w", err)
	}

	if err := store.users.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}

	store.record(ctx, user, ActionPasswordChanged, detailPasswordChanged)
	return nil
}

/*
SetActive toggles the active flag of id.

Deactivation revokes every session of the account. Validation re-reads the
flag as well, so a token presented between the two writes is still refused.

Returns:
  - error: ErrUserNotFound, ErrLastAdmin or ErrStorageUnavailable
*/
func (store *CredentialStore) SetActive(ctx context.Context, id int64, active bool) error {
	user, err := store.users.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := store.users.SetActive(ctx, id, active); err != nil {
		return err
	}

	detail := detailActivated
	if !active {
		detail = detailDeactivated
		if err := store.sessions.InvalidateAllForUser(ctx, id); err != nil {
			return err
		}
	}

	user.IsActive = active
	store.record(ctx, user, ActionUserUpdated, detail)
	return nil
}

/*
DeleteUser removes the account and its sessions. Access log entries that
reference it are kept.

Returns:
  - error: ErrUserNotFound, ErrLastAdmin or ErrStorageUnavailable
*/
func (store *CredentialStore) DeleteUser(ctx context.Context, id int64) error {
	user, err := store.users.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := store.users.Delete(ctx, id); err != nil {
		return err
	}

	store.record(ctx, user, ActionUserDeleted, fmt.Sprintf(detailUserRemoved, user.Username))
	return nil
}

/*
Bootstrap seeds an administrator when no active one exists.

The well-known credentials exist for first-run usability only. The password
must be changed before the service is exposed.

Returns:
  - bool: true when an account was created
*/
func (store *CredentialStore) Bootstrap(ctx context.Context, username, password string) (bool, error) {
	count, err := store.users.CountActiveAdmins(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	_, err = store.CreateUser(ctxutil.SystemContext(ctx), NewUserInput{
		Username: username,
		Password: password,
		FullName: BootstrapFullName,
		Email:    pointer.To(BootstrapEmail),
		Role:     sec.RoleAdmin,
	})
	if errors.Is(err, ErrDuplicateUsername) {
		return false, fmt.Errorf("bootstrap_admin_failed: username %q exists but is not an active admin: %w", username, err)
	}
	if err != nil {
		return false, err
	}

	ctxutil.GetLogger(ctx).WarnContext(ctx, "bootstrap_admin_created",
		slog.String("username", username),
		slog.String("action_required", "change the default password before production use"),
	)
	return true, nil
}

func (store *CredentialStore) record(ctx context.Context, user *User, action Action, details string) {
	store.auditor.Record(ctx, Event{
		UserID:    pointer.To(user.ID),
		Username:  user.Username,
		Action:    action,
		Success:   true,
		Details:   details,
		IPAddress: ctxutil.GetClientIP(ctx, constants.SystemIP),
	})
}

// normaliseEmail maps blank addresses to nil.
func normaliseEmail(email *string) *string {
	if email == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*email)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
