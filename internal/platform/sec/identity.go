// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// Identity is the caller resolved from a valid session.
//
// It is rebuilt from the current user row on every request, so role or name
// changes take effect without re-authentication.
type Identity struct {
	UserID   int64
	Username string
	FullName string
	Role     UserRole

	// Token is the opaque session token the identity was resolved from.
	Token string
}

// IsAdmin reports whether the identity may use administrative operations.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
