package handler

import (
	"encoding/json"
	"net/http"

	"onefine/internal/model"
	"onefine/internal/service"

	"github.com/rs/zerolog"
)

// AuthHandler handles admin login.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("handler", "auth").Logger(),
	}
}

// Login handles POST /api/auth/login. An unreadable body is treated as a
// wrong password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("unreadable login body")
		writeDomainError(w, model.ErrIncorrectPassword, h.logger)
		return
	}

	token, err := h.service.Login(r.Context(), req.Password)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, token)
}
