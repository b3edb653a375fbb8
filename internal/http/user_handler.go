package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/equipment-reservation/internal/application"
	"github.com/example/equipment-reservation/internal/domain"
)

type userService interface {
	Register(ctx context.Context, params application.RegisterUserParams) (domain.User, error)
	Get(ctx context.Context, principal application.Principal, userID string) (domain.User, error)
	List(ctx context.Context, principal application.Principal) ([]domain.User, error)
	UpdateProfile(ctx context.Context, params application.UpdateProfileParams) (domain.User, error)
	ChangeRole(ctx context.Context, params application.ChangeRoleParams) (domain.User, error)
	Delete(ctx context.Context, principal application.Principal, userID string) error
}

// UserHandler serves registration, profiles and user administration.
type UserHandler struct {
	handlerBase
	service userService
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	return &UserHandler{handlerBase: newHandlerBase("UserHandler", logger), service: service}
}

// Register handles POST /users. It is the only user endpoint open to
// anonymous callers.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "Register", err)
		return
	}

	logger := h.log(r.Context(), "Register", "email", strings.ToLower(strings.TrimSpace(req.Email)))
	user, err := h.service.Register(r.Context(), application.RegisterUserParams{
		Email:       req.Email,
		Password:    req.Password,
		Name:        trimmedPtr(req.Name),
		DisplayName: trimmedPtr(req.DisplayName),
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "registration failed", err)
		return
	}

	logger.InfoContext(r.Context(), "user registered", "user_id", user.ID(), "role", user.Role())
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, userResponse{User: toUserDTO(user)})
}

// Me handles GET /me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	h.get(w, r, principal.UserID)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.get(w, r, r.PathValue("id"))
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request, userID string) {
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "user_id", userID)
	user, err := h.service.Get(r.Context(), principal, userID)
	if err != nil {
		h.fail(r.Context(), w, logger, "user lookup failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List")
	users, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.fail(r.Context(), w, logger, "user list failed", err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listUsersResponse{Users: mapSlice(users, toUserDTO)})
}

// Update handles PUT /users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "Update", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Update", "user_id", userID)
	user, err := h.service.UpdateProfile(r.Context(), application.UpdateProfileParams{
		Principal:   principal,
		UserID:      userID,
		Name:        trimmedPtr(req.Name),
		DisplayName: trimmedPtr(req.DisplayName),
		Password:    req.Password,
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "profile update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "profile updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

// ChangeRole handles PUT /users/{id}/role.
func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	var req changeRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "ChangeRole", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ChangeRole", "user_id", userID, "role", req.Role)
	user, err := h.service.ChangeRole(r.Context(), application.ChangeRoleParams{
		Principal: principal,
		UserID:    userID,
		Role:      req.Role,
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "role change failed", err)
		return
	}

	logger.InfoContext(r.Context(), "role changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "user_id", userID)
	if err := h.service.Delete(r.Context(), principal, userID); err != nil {
		h.fail(r.Context(), w, logger, "user delete failed", err)
		return
	}

	logger.InfoContext(r.Context(), "user deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type registerRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	Name        *string `json:"name"`
	DisplayName *string `json:"display_name"`
}

type updateProfileRequest struct {
	Name        *string `json:"name"`
	DisplayName *string `json:"display_name"`
	Password    string  `json:"password"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

type userResponse struct {
	User userDTO `json:"user"`
}

type listUsersResponse struct {
	Users []userDTO `json:"users"`
}

type userDTO struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Name        *string `json:"name,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	Label       string  `json:"label"`
	Role        string  `json:"role"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toUserDTO(user domain.User) userDTO {
	return userDTO{
		ID:          user.ID(),
		Email:       user.Email(),
		Name:        optional(user.Name()),
		DisplayName: optional(user.DisplayName()),
		Label:       user.Label(),
		Role:        string(user.Role()),
		CreatedAt:   formatInstant(user.CreatedAt()),
		UpdatedAt:   formatInstant(user.UpdatedAt()),
	}
}

// optional adapts a (value, ok) accessor pair to a JSON-friendly pointer.
func optional[T any](value T, ok bool) *T {
	if !ok {
		return nil
	}
	return &value
}
