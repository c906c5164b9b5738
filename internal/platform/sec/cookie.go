// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieClaims is the payload of the signed session cookie.
//
// The cookie only wraps the opaque session token; identity is always
// re-resolved server-side so revocation takes effect immediately.
type CookieClaims struct {
	jwt.RegisteredClaims

	SessionToken string `json:"sid"`
}

// CookieSigner signs and verifies session cookies with HS256.
type CookieSigner struct {
	secret []byte
	issuer string
}

// NewCookieSigner creates a signer keyed with secret.
func NewCookieSigner(secret, issuer string) (*CookieSigner, error) {
	if secret == "" {
		return nil, errors.New("sec: cookie secret must not be empty")
	}
	return &CookieSigner{secret: []byte(secret), issuer: issuer}, nil
}

// Sign wraps token in a signed cookie value that expires at expiresAt.
func (signer *CookieSigner) Sign(token string, issuedAt, expiresAt time.Time) (string, error) {
	claims := CookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    signer.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionToken: token,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signer.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign cookie: %w", err)
	}
	return signed, nil
}

// Parse verifies value and returns the wrapped session token.
func (signer *CookieSigner) Parse(value string) (string, error) {
	claims := &CookieClaims{}
	_, err := jwt.ParseWithClaims(value, claims,
		func(token *jwt.Token) (interface{}, error) {
			return signer.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(signer.issuer),
	)
	if err != nil {
		return "", fmt.Errorf("sec: invalid session cookie: %w", err)
	}

	if claims.SessionToken == "" {
		return "", errors.New("sec: session cookie carries no token")
	}
	return claims.SessionToken, nil
}
