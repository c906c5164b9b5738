// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/pbkdf2"
	"pgregory.net/rapid"

	"github.com/sistema-fontes/fontes/internal/platform/sec"
)

// fastIterations keeps property tests quick; production enforces 100k.
const fastIterations = 1000

/*
TestPasswordHasher_RoundTrip checks that every password verifies against its
own hash.
*/
func TestPasswordHasher_RoundTrip(t *testing.T) {
	hasher := sec.NewPasswordHasher(fastIterations)

	rapid.Check(t, func(t *rapid.T) {
		password := rapid.String().Draw(t, "password")

		stored, err := hasher.Hash(password)
		require.NoError(t, err)
		assert.True(t, hasher.Verify(stored, password))
		assert.Equal(t, sec.FormatPBKDF2, sec.Format(stored))
	})
}

/*
TestPasswordHasher_RejectsOtherPasswords checks that a hash never verifies a
different password.
*/
func TestPasswordHasher_RejectsOtherPasswords(t *testing.T) {
	hasher := sec.NewPasswordHasher(fastIterations)

	rapid.Check(t, func(t *rapid.T) {
		first := rapid.String().Draw(t, "first")
		second := rapid.String().Filter(func(s string) bool { return s != first }).Draw(t, "second")

		stored, err := hasher.Hash(first)
		require.NoError(t, err)
		assert.False(t, hasher.Verify(stored, second))
	})
}

/*
TestPasswordHasher_NonDeterministic checks that two hashes of the same password
differ yet both verify.
*/
func TestPasswordHasher_NonDeterministic(t *testing.T) {
	hasher := sec.NewPasswordHasher(fastIterations)

	rapid.Check(t, func(t *rapid.T) {
		password := rapid.String().Draw(t, "password")

		first, err := hasher.Hash(password)
		require.NoError(t, err)
		second, err := hasher.Hash(password)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
		assert.True(t, hasher.Verify(first, password))
		assert.True(t, hasher.Verify(second, password))
	})
}

/*
TestPasswordHasher_LegacyFormats verifies hashes written by earlier releases.
*/
func TestPasswordHasher_LegacyFormats(t *testing.T) {
	hasher := sec.NewPasswordHasher(sec.LegacyIterations)
	salt := []byte(strings.Repeat("s", sec.SaltSize))
	key := pbkdf2.Key([]byte("admin123"), salt, sec.LegacyIterations, sec.KeySize, sha256.New)

	tests := []struct {
		name   string
		stored string
		format sec.HashFormat
	}{
		{"hex_pair", hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), sec.FormatLegacyHex},
		{"base64_concat", base64.StdEncoding.EncodeToString(append(append([]byte{}, salt...), key...)), sec.FormatLegacyBase64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.format, sec.Format(tt.stored))
			assert.True(t, hasher.Verify(tt.stored, "admin123"))
			assert.False(t, hasher.Verify(tt.stored, "admin124"))
			assert.True(t, hasher.NeedsRehash(tt.stored))
		})
	}
}

/*
TestPasswordHasher_NeedsRehash upgrades weaker work factors only.
*/
func TestPasswordHasher_NeedsRehash(t *testing.T) {
	weak, err := sec.NewPasswordHasher(fastIterations).Hash("pw")
	require.NoError(t, err)
	strong, err := sec.NewPasswordHasher(2 * fastIterations).Hash("pw")
	require.NoError(t, err)

	hasher := sec.NewPasswordHasher(2 * fastIterations)
	assert.True(t, hasher.NeedsRehash(weak))
	assert.False(t, hasher.NeedsRehash(strong))
	assert.False(t, hasher.NeedsRehash("garbage"), "unparseable hashes are left alone")
}

/*
TestPasswordHasher_Malformed makes sure corrupt values never verify.
*/
func TestPasswordHasher_Malformed(t *testing.T) {
	hasher := sec.NewPasswordHasher(fastIterations)

	for _, stored := range []string{
		"",
		"pbkdf2-sha256$abc$c2FsdA$a2V5",
		"pbkdf2-sha256$1000$c2FsdA",
		"pbkdf2-sha256$0$c2FsdA$a2V5",
		"zz:zz",
		"c2hvcnQ=",
	} {
		assert.False(t, hasher.Verify(stored, ""), stored)
		assert.Equal(t, sec.FormatUnknown, sec.Format(stored), stored)
	}
}
