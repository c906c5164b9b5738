// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"github.com/sistema-fontes/fontes/internal/platform/apperr"
	"github.com/sistema-fontes/fontes/internal/platform/dberr"
)

// Client-facing texts. Credential failures share one message so responses do
// not reveal which usernames exist.
const (
	msgInvalidCredentials = "Invalid username or password"
	msgInvalidSession     = "Invalid or expired session"
)

// # Account Errors

var (
	// ErrDuplicateUsername is returned when a username is already taken.
	ErrDuplicateUsername = apperr.Conflict("Username is already taken")

	// ErrUserNotFound is returned when no account has the requested id or name.
	ErrUserNotFound = apperr.NotFound("User")

	// ErrLastAdmin is returned when a change would leave no active administrator.
	ErrLastAdmin = apperr.Unprocessable("At least one active administrator must remain")
)

// # Authentication Errors
//
// Each failure is a distinct value for callers and the audit log, but all of
// them render the same to clients.

var (
	ErrUnknownUsername = apperr.Unauthorized(msgInvalidCredentials)
	ErrWrongPassword   = apperr.Unauthorized(msgInvalidCredentials)
	ErrAccountInactive = apperr.Unauthorized(msgInvalidCredentials)
	ErrAccountLocked   = apperr.Unauthorized(msgInvalidCredentials)
)

// # Session Errors

var (
	ErrSessionInvalid      = apperr.Unauthorized(msgInvalidSession)
	ErrSessionExpired      = apperr.Unauthorized(msgInvalidSession)
	ErrSessionUserInactive = apperr.Unauthorized(msgInvalidSession)
)

// ErrStorageUnavailable is returned when the store cannot be reached. It is
// never reported as a credentials problem.
var ErrStorageUnavailable = dberr.ErrUnavailable
