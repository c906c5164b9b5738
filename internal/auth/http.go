// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sistema-fontes/fontes/internal/platform/constants"
	"github.com/sistema-fontes/fontes/internal/platform/ctxutil"
	"github.com/sistema-fontes/fontes/internal/platform/middleware"
	requestutil "github.com/sistema-fontes/fontes/internal/platform/request"
	"github.com/sistema-fontes/fontes/internal/platform/respond"
	"github.com/sistema-fontes/fontes/internal/platform/sec"
	"github.com/sistema-fontes/fontes/internal/platform/validate"
)

// Handler implements the session entry points used by the web front end.
//
// # Token Transport
//
// A successful login returns the raw token in the body and also sets an
// HttpOnly cookie carrying it inside a signed envelope. Later requests may
// present either.
type Handler struct {
	service      *Service
	cookies      *sec.CookieSigner
	secureCookie bool
}

// NewHandler constructs a new [Handler].
func NewHandler(service *Service, cookies *sec.CookieSigner, secureCookie bool) *Handler {
	return &Handler{service: service, cookies: cookies, secureCookie: secureCookie}
}

// Routes returns a [chi.Router] configured with the session routes.
//
// # Endpoints
//   - POST /login  : Authenticates and opens a session.
//   - POST /logout : Closes the presented session. Unknown tokens are accepted.
//   - GET  /me     : Returns the account behind the presented session.
//
// loginGuard throttles the login route; authenticate resolves the session for
// the protected route.
func (handler *Handler) Routes(loginGuard, authenticate func(http.Handler) http.Handler) chi.Router {
	router := chi.NewRouter()

	router.With(loginGuard).Post("/login", handler.login)
	router.Post("/logout", handler.logout)
	router.With(authenticate, middleware.RequireAuth).Get("/me", handler.me)

	return router
}

// loginRequest represents the JSON payload expected for authentication.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// login handles POST /api/v1/auth/login requests.
//
// # Returns
//   - Writes HTTP 200 OK with the token, its expiry and the account.
//   - Writes HTTP 401 Unauthorized with one generic message for every
//     credential failure.
//   - Writes HTTP 503 Service Unavailable when the store is down.
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 2. Boundary Validation ────────────────────────────────────────────

	validator := &validate.Validator{}
	validator.Required("username", input.Username).Required("password", input.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	result, err := handler.service.Authenticate(request.Context(), LoginInput{
		Username:  input.Username,
		Password:  input.Password,
		IPAddress: ctxutil.GetClientIP(request.Context(), constants.UnknownIP),
		UserAgent: request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	if err := handler.setSessionCookie(writer, result.Token, result.ExpiresAt); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

// logout handles POST /api/v1/auth/logout requests. It always answers 204 once
// the store accepted the change.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	token := middleware.SessionToken(request, handler.cookies)

	if err := handler.service.Logout(request.Context(), token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.clearSessionCookie(writer)
	respond.NoContent(writer)
}

// me handles GET /api/v1/auth/me requests.
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.Credentials().FindByID(request.Context(), identity.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

func (handler *Handler) setSessionCookie(writer http.ResponseWriter, token string, expiresAt time.Time) error {
	value, err := handler.cookies.Sign(token, time.Now(), expiresAt)
	if err != nil {
		return err
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    value,
		Path:     constants.SessionCookiePath,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   handler.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (handler *Handler) clearSessionCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   handler.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
