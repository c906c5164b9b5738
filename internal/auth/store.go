// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// Mutations that could remove the last active administrator (delete,
// deactivate, demote) check and write in one transaction and fail with
// [ErrLastAdmin].
type UserRepository interface {

	/*
		Create persists a new account and assigns its ID.

		Returns:
		  - error: ErrDuplicateUsername, or ErrStorageUnavailable
	*/
	Create(context context.Context, user *User) error

	// FindByID returns the account with the given ID or ErrUserNotFound.
	FindByID(context context.Context, id int64) (*User, error)

	// FindByUsername performs a case-sensitive exact match or returns ErrUserNotFound.
	FindByUsername(context context.Context, username string) (*User, error)

	// List returns every account, newest first.
	List(context context.Context) ([]User, error)

	/*
		Update persists username, full name, email and role.

		Returns:
		  - error: ErrUserNotFound, ErrDuplicateUsername, ErrLastAdmin
	*/
	Update(context context.Context, user *User) error

	// UpdatePassword replaces the hash and resets the failure counter and lock.
	UpdatePassword(context context.Context, id int64, hash string) error

	// RehashPassword replaces the hash only. Used for transparent upgrades.
	RehashPassword(context context.Context, id int64, hash string) error

	// SetActive toggles the active flag. Deactivation is guarded by ErrLastAdmin.
	SetActive(context context.Context, id int64, active bool) error

	// Delete removes the account and its sessions. Audit entries are kept.
	Delete(context context.Context, id int64) error

	// RecordLoginSuccess resets the failure counter and stamps the login time.
	RecordLoginSuccess(context context.Context, id int64, at time.Time) error

	// RecordLoginFailure atomically increments the failure counter and returns
	// the new value.
	RecordLoginFailure(context context.Context, id int64) (int, error)

	// CountActiveAdmins reports how many accounts are both active and admin.
	CountActiveAdmins(context context.Context) (int, error)
}

// # Session Data Access

// SessionRepository defines the data access contract for login sessions.
type SessionRepository interface {

	// Create persists a new active session and assigns its ID.
	Create(context context.Context, session *Session) error

	// FindByTokenHash returns the session or ErrSessionInvalid.
	FindByTokenHash(context context.Context, tokenHash string) (*Session, error)

	// Deactivate marks one session inactive. Already inactive sessions are left alone.
	Deactivate(context context.Context, id int64) error

	// DeactivateByTokenHash marks the session inactive if it exists.
	DeactivateByTokenHash(context context.Context, tokenHash string) error

	// DeactivateAllForUser marks every active session of userID inactive and
	// reports how many changed.
	DeactivateAllForUser(context context.Context, userID int64) (int64, error)
}

// # Audit Data Access

// AuditRepository is the append-only store behind the access auditor.
type AuditRepository interface {

	// Append writes one entry and assigns its ID.
	Append(context context.Context, entry *AccessLogEntry) error

	// ListByUser returns up to limit entries for userID, newest first.
	ListByUser(context context.Context, userID int64, limit int) ([]AccessLogEntry, error)

	// ListRecent returns up to limit entries across all users, newest first.
	ListRecent(context context.Context, limit int) ([]AccessLogEntry, error)
}

// # Lockout State

// LockoutRepository holds temporary login bans. Implementations exist for the
// relational store and for Redis.
type LockoutRepository interface {

	// LockedUntil returns the end of the current ban, or the zero time.
	LockedUntil(context context.Context, userID int64) (time.Time, error)

	// Lock bans userID until the given instant.
	Lock(context context.Context, userID int64, until time.Time) error

	// Clear lifts any ban on userID.
	Clear(context context.Context, userID int64) error
}
