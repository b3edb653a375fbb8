package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/equipment-reservation/internal/application"
)

type authService interface {
	Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error)
}

// AuthHandler exchanges credentials for bearer tokens.
type AuthHandler struct {
	handlerBase
	service authService
}

func NewAuthHandler(service authService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{handlerBase: newHandlerBase("AuthHandler", logger), service: service}
}

// CreateSession handles POST /sessions.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "CreateSession", err)
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	logger := h.log(r.Context(), "CreateSession", "email", email)

	result, err := h.service.Authenticate(r.Context(), application.AuthenticateParams{
		Email:    email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "authentication rejected", err)
		return
	}

	logger.InfoContext(r.Context(), "user authenticated", "user_id", result.User.ID())
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, loginResponse{
		Token:     result.Token,
		TokenType: "Bearer",
		ExpiresAt: formatInstant(result.ExpiresAt),
		User:      toUserDTO(result.User),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string  `json:"token"`
	TokenType string  `json:"token_type"`
	ExpiresAt string  `json:"expires_at"`
	User      userDTO `json:"user"`
}
