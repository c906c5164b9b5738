// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistema-fontes/fontes/internal/platform/apperr"
	"github.com/sistema-fontes/fontes/internal/platform/constants"
	"github.com/sistema-fontes/fontes/internal/platform/ctxutil"
	"github.com/sistema-fontes/fontes/internal/platform/middleware"
	"github.com/sistema-fontes/fontes/internal/platform/sec"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

/*
TestRealIP checks header precedence.
*/
func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"remote_addr", nil, "192.0.2.1"},
		{"x_real_ip", map[string]string{"X-Real-IP": "10.0.0.9"}, "10.0.0.9"},
		{"forwarded_for_first_hop", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "203.0.113.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			for key, value := range tt.headers {
				request.Header.Set(key, value)
			}
			assert.Equal(t, tt.want, middleware.RealIP(request))
		})
	}
}

/*
TestRateLimiter_PerClient exhausts one client's bucket without affecting another.
*/
func TestRateLimiter_PerClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := middleware.NewRateLimiter(ctx, 0.001, 2)
	handler := limiter.Handler(okHandler)

	send := func(ip string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		request.Header.Set("X-Real-IP", ip)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1").Code)

	blocked := send("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("10.0.0.2").Code)
}

/*
TestRequestID_GeneratesAndEchoes covers both the generated and the forwarded id.
*/
func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxutil.GetRequestID(r.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, recorder.Header().Get("X-Request-ID"))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("X-Request-ID", "abc")
	handler.ServeHTTP(httptest.NewRecorder(), request)
	assert.Equal(t, "abc", seen)
}

/*
TestClientIP_StoredInContext makes the address available to the core.
*/
func TestClientIP_StoredInContext(t *testing.T) {
	var seen string
	handler := middleware.ClientIP()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxutil.GetClientIP(r.Context(), "unknown")
	}))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("X-Real-IP", "198.51.100.7")
	handler.ServeHTTP(httptest.NewRecorder(), request)

	assert.Equal(t, "198.51.100.7", seen)
}

/*
TestPanicRecovery answers 500 instead of crashing.
*/
func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

type corsConfig struct {
	dev     bool
	origins []string
}

func (c corsConfig) IsDevelopment() bool { return c.dev }
func (c corsConfig) Origins() []string   { return c.origins }

/*
TestCORS_Production only echoes configured origins.
*/
func TestCORS_Production(t *testing.T) {
	handler := middleware.CORS(corsConfig{origins: []string{"https://portal.fontes.app"}})(okHandler)

	for origin, allowed := range map[string]bool{
		"https://portal.fontes.app": true,
		"https://evil.example":      false,
	} {
		request := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
		request.Header.Set("Origin", origin)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		if allowed {
			assert.Equal(t, origin, recorder.Header().Get("Access-Control-Allow-Origin"))
		} else {
			assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
		}
	}
}

// stubResolver resolves exactly one token.
type stubResolver struct {
	token    string
	identity *sec.Identity
	err      error
}

func (s stubResolver) Identify(_ context.Context, token string) (*sec.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	if token != s.token {
		return nil, apperr.Unauthorized("Invalid or expired session")
	}
	return s.identity, nil
}

/*
TestAuthenticate_Flow covers anonymous, bearer, cookie and failure paths.
*/
func TestAuthenticate_Flow(t *testing.T) {
	signer, err := sec.NewCookieSigner("secret", constants.AuthIssuer)
	require.NoError(t, err)

	admin := &sec.Identity{UserID: 1, Username: "admin", Role: sec.RoleAdmin}
	resolver := stubResolver{token: "tok-1", identity: admin}

	var seen *sec.Identity
	protected := middleware.Authenticate(resolver, signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxutil.GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	cookieValue, err := signer.Sign("tok-1", time.Now(), time.Now().Add(time.Hour))
	require.NoError(t, err)

	tests := []struct {
		name       string
		prepare    func(r *http.Request)
		wantStatus int
		wantUser   bool
	}{
		{"anonymous", func(r *http.Request) {}, http.StatusOK, false},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer tok-1") }, http.StatusOK, true},
		{"cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: cookieValue})
		}, http.StatusOK, true},
		{"unknown_token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer other") }, http.StatusUnauthorized, false},
		{"tampered_cookie_is_anonymous", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: cookieValue + "x"})
		}, http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			request := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			tt.prepare(request)
			recorder := httptest.NewRecorder()

			protected.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantUser {
				require.NotNil(t, seen)
				assert.Equal(t, "admin", seen.Username)
			} else {
				assert.Nil(t, seen)
			}
		})
	}
}

/*
TestAuthenticate_StorageDown surfaces 503, not 401.
*/
func TestAuthenticate_StorageDown(t *testing.T) {
	resolver := stubResolver{err: apperr.ServiceUnavailable("System temporarily unavailable")}
	handler := middleware.Authenticate(resolver, nil)(okHandler)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer anything")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

/*
TestRequireRole distinguishes anonymous, insufficient and sufficient callers.
*/
func TestRequireRole(t *testing.T) {
	guarded := middleware.RequireRole(sec.RoleAdmin)(okHandler)

	tests := []struct {
		name     string
		identity *sec.Identity
		want     int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"user", &sec.Identity{UserID: 2, Role: sec.RoleUser}, http.StatusForbidden},
		{"admin", &sec.Identity{UserID: 1, Role: sec.RoleAdmin}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
			if tt.identity != nil {
				request = request.WithContext(ctxutil.WithIdentity(request.Context(), tt.identity))
			}
			recorder := httptest.NewRecorder()
			guarded.ServeHTTP(recorder, request)
			assert.Equal(t, tt.want, recorder.Code)
		})
	}
}
