package common

import (
	"errors"
	"net/http"

	userdomain "timebank-go/internal/domain/user"
	"timebank-go/pkg/logger"
)

type Handlers struct {
	Users *userdomain.Service
	log   logger.Logger
}

func New(users *userdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Users: users,
		log:   log,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type meResponse struct {
	ID    int64   `json:"id"`
	Role  string  `json:"role"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := RequirePrincipal(w, r)
	if !ok {
		return
	}

	response := meResponse{ID: principal.ID, Role: string(principal.Role)}
	profile, err := h.Users.Get(r.Context(), principal.ID)
	switch {
	case err == nil:
		response.Name = profile.Name
		response.Email = profile.Email
	case errors.Is(err, userdomain.ErrUserNotFound):
	default:
		WriteDomainError(w, h.log, "common.me", err, "user_id", principal.ID)
		return
	}

	WriteJSON(w, http.StatusOK, response)
}
