package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/shop-admin/internal/apperror"
	"github.com/sakif/shop-admin/internal/auth"
	"github.com/sakif/shop-admin/internal/repository"
)

// UserHandler serves the authenticated caller's own record.
type UserHandler struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users repository.UserRepository, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleMe returns the local mirror record for the session's subject.
//
// HTTP: GET /api/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("authentication required"))
		return
	}

	user, err := h.users.GetUserByID(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
