// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewSessionToken mints an opaque bearer token with 122 bits of randomness.
func NewSessionToken() string {
	return uuid.NewString()
}

// HashToken returns the lookup key stored in place of the raw token. Raw
// tokens are never persisted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
