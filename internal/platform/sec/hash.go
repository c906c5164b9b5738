// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// # Encoding

// HashFormat identifies how a stored password hash is laid out.
type HashFormat int

const (
	// FormatUnknown is anything the hasher cannot parse. It never verifies.
	FormatUnknown HashFormat = iota

	// FormatPBKDF2 is the current tagged encoding:
	//
	//	pbkdf2-sha256$<iterations>$<base64 salt>$<base64 key>
	FormatPBKDF2

	// FormatLegacyHex is hex(salt) ":" hex(key) at [LegacyIterations].
	FormatLegacyHex

	// FormatLegacyBase64 is base64(salt || key) with a 32-byte salt at [LegacyIterations].
	FormatLegacyBase64
)

const (
	hashTag = "pbkdf2-sha256"

	// SaltSize is the length of freshly generated salts.
	SaltSize = 32

	// KeySize is the derived key length (one SHA-256 block).
	KeySize = sha256.Size

	// LegacyIterations is the work factor implied by the untagged encodings.
	LegacyIterations = 100_000
)

var errMalformedHash = errors.New("sec: malformed password hash")

// parsedHash is the decoded form of a stored hash.
type parsedHash struct {
	format     HashFormat
	iterations int
	salt       []byte
	key        []byte
}

// parseHash dispatches on the explicit tag first. Untagged values are tried
// against the two legacy layouts, whose shapes cannot overlap: the hex form
// always contains ':' which is outside the base64 alphabet.
func parseHash(stored string) (parsedHash, error) {
	if rest, ok := strings.CutPrefix(stored, hashTag+"$"); ok {
		parts := strings.Split(rest, "$")
		if len(parts) != 3 {
			return parsedHash{}, errMalformedHash
		}
		iterations, err := strconv.Atoi(parts[0])
		if err != nil || iterations <= 0 {
			return parsedHash{}, errMalformedHash
		}
		salt, errSalt := base64.RawStdEncoding.DecodeString(parts[1])
		key, errKey := base64.RawStdEncoding.DecodeString(parts[2])
		if errSalt != nil || errKey != nil || len(salt) == 0 || len(key) == 0 {
			return parsedHash{}, errMalformedHash
		}
		return parsedHash{format: FormatPBKDF2, iterations: iterations, salt: salt, key: key}, nil
	}

	if saltHex, keyHex, ok := strings.Cut(stored, ":"); ok {
		salt, errSalt := hex.DecodeString(saltHex)
		key, errKey := hex.DecodeString(keyHex)
		if errSalt != nil || errKey != nil || len(salt) == 0 || len(key) == 0 {
			return parsedHash{}, errMalformedHash
		}
		return parsedHash{format: FormatLegacyHex, iterations: LegacyIterations, salt: salt, key: key}, nil
	}

	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil || len(raw) <= SaltSize {
		return parsedHash{}, errMalformedHash
	}
	return parsedHash{
		format:     FormatLegacyBase64,
		iterations: LegacyIterations,
		salt:       raw[:SaltSize],
		key:        raw[SaltSize:],
	}, nil
}

// # Hasher

// PasswordHasher derives and verifies PBKDF2-HMAC-SHA256 password hashes.
//
// The plaintext never leaves the call stack: it is not logged, cached or stored.
// A PasswordHasher is immutable and safe for concurrent use.
type PasswordHasher struct {
	iterations int
}

// NewPasswordHasher returns a hasher producing hashes with the given work
// factor. The configuration layer enforces the production minimum; tests may
// pass a lower value to stay fast.
func NewPasswordHasher(iterations int) *PasswordHasher {
	if iterations <= 0 {
		iterations = LegacyIterations
	}
	return &PasswordHasher{iterations: iterations}
}

// Iterations returns the work factor used for new hashes.
func (h *PasswordHasher) Iterations() int { return h.iterations }

// Hash derives a new tagged hash with a fresh random salt.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("sec: failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, h.iterations, KeySize, sha256.New)

	return fmt.Sprintf("%s$%d$%s$%s",
		hashTag,
		h.iterations,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether candidate matches stored. Every supported encoding is
// accepted; an unparseable hash never matches.
func (h *PasswordHasher) Verify(stored, candidate string) bool {
	parsed, err := parseHash(stored)
	if err != nil {
		return false
	}

	derived := pbkdf2.Key([]byte(candidate), parsed.salt, parsed.iterations, len(parsed.key), sha256.New)
	return subtle.ConstantTimeCompare(derived, parsed.key) == 1
}

// NeedsRehash reports whether stored should be replaced after the next
// successful login: legacy layouts and weaker work factors are upgraded.
func (h *PasswordHasher) NeedsRehash(stored string) bool {
	parsed, err := parseHash(stored)
	if err != nil {
		return false
	}
	return parsed.format != FormatPBKDF2 || parsed.iterations < h.iterations
}

// Format reports the encoding of stored.
func Format(stored string) HashFormat {
	parsed, err := parseHash(stored)
	if err != nil {
		return FormatUnknown
	}
	return parsed.format
}
