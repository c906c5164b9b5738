// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sistema-fontes/fontes/internal/platform/apperr"
	"github.com/sistema-fontes/fontes/internal/platform/constants"
	"github.com/sistema-fontes/fontes/internal/platform/ctxutil"
	"github.com/sistema-fontes/fontes/internal/platform/respond"
	"github.com/sistema-fontes/fontes/internal/platform/sec"
)

// SessionResolver turns an opaque session token into the current identity.
//
// Defining it here decouples the middleware from the auth service and lets
// tests inject a stub.
type SessionResolver interface {
	Identify(ctx context.Context, token string) (*sec.Identity, error)
}

// CookieParser unwraps the signed session cookie.
type CookieParser interface {
	Parse(value string) (string, error)
}

// SessionToken extracts the raw session token from the request. The
// Authorization header wins over the cookie. An empty string means none was
// presented or the cookie failed verification.
func SessionToken(request *http.Request, cookies CookieParser) string {
	if header := request.Header.Get(constants.HeaderAuthorization); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, constants.AuthorizationBearer) {
			return strings.TrimSpace(token)
		}
		return ""
	}

	cookie, err := request.Cookie(constants.SessionCookieName)
	if err != nil || cookies == nil {
		return ""
	}

	token, err := cookies.Parse(cookie.Value)
	if err != nil {
		return ""
	}
	return token
}

// Authenticate resolves the session presented by the request.
//
// # Flow
//  1. No token: the request proceeds as anonymous.
//  2. Token present: resolve it via [SessionResolver]. Failures are answered
//     with the resolver's error (401 for bad sessions, 503 when storage is down).
//  3. Inject [*sec.Identity] into the request context for downstream use.
func Authenticate(resolver SessionResolver, cookies CookieParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			token := SessionToken(request, cookies)

			if token == "" {
				next.ServeHTTP(writer, request)
				return
			}

			identity, err := resolver.Identify(request.Context(), token)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			noteIdentity(request.Context(), identity.UserID)
			ctx := ctxutil.WithIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetIdentity(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests if the authenticated user doesn't have the
// required role. It implies [RequireAuth].
func RequireRole(role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := ctxutil.GetIdentity(request.Context())

			if identity == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			if !identity.Role.AtLeast(role) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
