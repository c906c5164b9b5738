// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sistema-fontes/fontes/internal/platform/apperr"
	"github.com/sistema-fontes/fontes/internal/platform/middleware"
	requestutil "github.com/sistema-fontes/fontes/internal/platform/request"
	"github.com/sistema-fontes/fontes/internal/platform/respond"
	"github.com/sistema-fontes/fontes/internal/platform/sec"
	"github.com/sistema-fontes/fontes/internal/platform/validate"
	"github.com/sistema-fontes/fontes/pkg/pagination"
)

// AdminHandler implements the administrative panel API: account management
// and access log review.
type AdminHandler struct {
	credentials *CredentialStore
	auditor     *Auditor
}

// NewAdminHandler constructs a new [AdminHandler].
func NewAdminHandler(service *Service) *AdminHandler {
	return &AdminHandler{credentials: service.Credentials(), auditor: service.Audit()}
}

// Routes returns a [chi.Router] configured with the administrative routes.
//
// # Endpoints
//   - GET    /users               : List accounts, newest first.
//   - POST   /users               : Create an account.
//   - PUT    /users/{id}          : Replace profile fields and role.
//   - PUT    /users/{id}/password : Change a password (admin or the owner).
//   - PATCH  /users/{id}/status   : Activate or deactivate.
//   - DELETE /users/{id}          : Delete an account.
//   - GET    /users/{id}/logs     : Access log of one account.
//   - GET    /logs                : Recent access log across accounts.
func (handler *AdminHandler) Routes(authenticate func(http.Handler) http.Handler) chi.Router {
	router := chi.NewRouter()
	router.Use(authenticate)

	router.With(middleware.RequireAuth).Put("/users/{id}/password", handler.changePassword)

	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(sec.RoleAdmin))

		admin.Get("/users", handler.listUsers)
		admin.Post("/users", handler.createUser)
		admin.Put("/users/{id}", handler.updateUser)
		admin.Patch("/users/{id}/status", handler.setStatus)
		admin.Delete("/users/{id}", handler.deleteUser)
		admin.Get("/users/{id}/logs", handler.userLogs)
		admin.Get("/logs", handler.recentLogs)
	})

	return router
}

// listUsers handles GET /api/v1/admin/users.
func (handler *AdminHandler) listUsers(writer http.ResponseWriter, request *http.Request) {
	users, err := handler.credentials.ListUsers(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, users)
}

type createUserRequest struct {
	Username string       `json:"username"`
	Password string       `json:"password"`
	FullName string       `json:"fullName"`
	Email    *string      `json:"email"`
	Role     sec.UserRole `json:"role"`
}

// createUser handles POST /api/v1/admin/users.
//
// # Returns
//   - Writes HTTP 201 Created with the account.
//   - Writes HTTP 400 Bad Request if validation rules fail.
//   - Writes HTTP 409 Conflict if the username is taken.
func (handler *AdminHandler) createUser(writer http.ResponseWriter, request *http.Request) {
	var input createUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.credentials.CreateUser(request.Context(), NewUserInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

type updateUserRequest struct {
	Username string       `json:"username"`
	FullName string       `json:"fullName"`
	Email    *string      `json:"email"`
	Role     sec.UserRole `json:"role"`
}

// updateUser handles PUT /api/v1/admin/users/{id}.
func (handler *AdminHandler) updateUser(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.credentials.UpdateUser(request.Context(), id, UpdateUserInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

type changePasswordRequest struct {
	Password string `json:"password"`
}

// changePassword handles PUT /api/v1/admin/users/{id}/password. Non-admins
// may only change their own password.
func (handler *AdminHandler) changePassword(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	if !identity.IsAdmin() && identity.UserID != id {
		respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.credentials.ChangePassword(request.Context(), id, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

type setStatusRequest struct {
	Active *bool `json:"active"`
}

// setStatus handles PATCH /api/v1/admin/users/{id}/status.
func (handler *AdminHandler) setStatus(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input setStatusRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if input.Active == nil {
		respond.Error(writer, request, validate.RequiredError("active", "This field is required"))
		return
	}

	if err := handler.credentials.SetActive(request.Context(), id, *input.Active); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// deleteUser handles DELETE /api/v1/admin/users/{id}.
//
// # Returns
//   - Writes HTTP 204 No Content on success.
//   - Writes HTTP 422 Unprocessable Entity for the last active administrator.
func (handler *AdminHandler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.credentials.DeleteUser(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// userLogs handles GET /api/v1/admin/users/{id}/logs.
func (handler *AdminHandler) userLogs(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	entries, err := handler.auditor.QueryByUser(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, entries)
}

// recentLogs handles GET /api/v1/admin/logs?limit=N.
func (handler *AdminHandler) recentLogs(writer http.ResponseWriter, request *http.Request) {
	entries, err := handler.auditor.QueryRecent(request.Context(), pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, entries)
}
