// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"time"

	"github.com/sistema-fontes/fontes/internal/platform/sec"
)

// # Domain Entities

// User is an account capable of authenticating.
//
// PasswordHash never leaves the credential store: it is excluded from JSON.
type User struct {
	ID               int64        `db:"id"                 json:"id"`
	Username         string       `db:"username"           json:"username"`
	PasswordHash     string       `db:"password_hash"      json:"-"`
	FullName         string       `db:"full_name"          json:"fullName"`
	Email            *string      `db:"email"              json:"email,omitempty"`
	Role             sec.UserRole `db:"role"               json:"role"`
	IsActive         bool         `db:"is_active"          json:"isActive"`
	CreatedAt        time.Time    `db:"created_at"         json:"createdAt"`
	LastLoginAt      *time.Time   `db:"last_login_at"      json:"lastLoginAt,omitempty"`
	FailedLoginCount int          `db:"failed_login_count" json:"failedLoginCount"`
	LockedUntil      *time.Time   `db:"locked_until"       json:"-"`
}

// IsActiveAdmin reports whether u counts towards the active-admin minimum.
func (u *User) IsActiveAdmin() bool {
	return u.IsActive && u.Role == sec.RoleAdmin
}

// Identity projects u onto the request-scoped identity.
func (u *User) Identity(token string) *sec.Identity {
	return &sec.Identity{
		UserID:   u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
		Token:    token,
	}
}

// Session is a proof of prior authentication.
//
// Only the SHA-256 of the token is stored. A session goes from active to
// inactive exactly once and is never physically deleted while its user exists.
type Session struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
	IsActive  bool      `db:"is_active"`
	IPAddress string    `db:"ip_address"`
	UserAgent string    `db:"user_agent"`
}

// ExpiredAt reports whether the session's absolute lifetime has elapsed at now.
// A zero lifetime is expired immediately.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Action enumerates the audited events.
type Action string

const (
	ActionLoginSuccess    Action = "LOGIN_SUCCESS"
	ActionLoginFailed     Action = "LOGIN_FAILED"
	ActionLoginBlocked    Action = "LOGIN_BLOCKED"
	ActionLogout          Action = "LOGOUT"
	ActionUserCreated     Action = "USER_CREATED"
	ActionUserUpdated     Action = "USER_UPDATED"
	ActionUserDeleted     Action = "USER_DELETED"
	ActionPasswordChanged Action = "PASSWORD_CHANGED"
)

// AccessLogEntry is an append-only audit record. UserID is nil when the
// attempted username did not resolve to an account.
type AccessLogEntry struct {
	ID        int64     `db:"id"          json:"id"`
	UserID    *int64    `db:"user_id"     json:"userId"`
	Username  string    `db:"username"    json:"username"`
	Action    Action    `db:"action"      json:"action"`
	Timestamp time.Time `db:"occurred_at" json:"timestamp"`
	Success   bool      `db:"success"     json:"success"`
	Details   string    `db:"details"     json:"details"`
	IPAddress string    `db:"ip_address"  json:"ipAddress"`
}
