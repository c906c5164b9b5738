// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Limits

const (
	// UserHistoryLimit caps the entries returned for a single user.
	UserHistoryLimit = 1000

	// MaxUsernameLength bounds usernames in characters.
	MaxUsernameLength = 64

	// MaxFullNameLength bounds display names in characters.
	MaxFullNameLength = 128

	// MinPasswordLength is the shortest password accepted for new credentials.
	MinPasswordLength = 6

	// DefaultSessionLifetimeDays is used when a policy does not set one.
	DefaultSessionLifetimeDays = 30

	// auditWriteTimeout bounds a single audit insert so it cannot stall its caller.
	auditWriteTimeout = 2 * time.Second
)

// # Bootstrap Account

const (
	BootstrapFullName = "Administrador"
	BootstrapEmail    = "admin@fontes.com"
)

// # Audit Details

const (
	detailUserNotFound    = "user not found"
	detailAccountDisabled = "account disabled"
	detailWrongPassword   = "wrong password - attempt %d"
	detailAccountLocked   = "account locked until %s"
	detailLoginSuccessful = "login successful"
	detailLogout          = "logout"
	detailUnknownSession  = "logout with unknown or inactive session"
	detailUserCreated     = "user created"
	detailUserUpdated     = "user data updated"
	detailUserRemoved     = "user %s removed"
	detailPasswordChanged = "password changed"
	detailActivated       = "account activated"
	detailDeactivated     = "account deactivated"
)
