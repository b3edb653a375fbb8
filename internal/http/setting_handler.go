package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/equipment-reservation/internal/application"
	"github.com/example/equipment-reservation/internal/domain"
)

type settingService interface {
	Get(ctx context.Context, principal application.Principal, key string) (domain.SystemSetting, error)
	List(ctx context.Context, principal application.Principal) ([]domain.SystemSetting, error)
	Set(ctx context.Context, params application.SetSettingParams) (domain.SystemSetting, error)
}

// SettingHandler exposes system-wide key/value settings.
type SettingHandler struct {
	handlerBase
	service settingService
}

func NewSettingHandler(service settingService, logger *slog.Logger) *SettingHandler {
	return &SettingHandler{handlerBase: newHandlerBase("SettingHandler", logger), service: service}
}

func (h *SettingHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	settings, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "List"), "setting list failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSettingsResponse{Settings: mapSlice(settings, toSettingDTO)})
}

func (h *SettingHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	principal, _ := PrincipalFromContext(r.Context())
	setting, err := h.service.Get(r.Context(), principal, key)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "Get", "key", key), "setting lookup failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, settingResponse{Setting: toSettingDTO(setting)})
}

// Set handles PUT /settings/{key}; the setting is created when absent.
func (h *SettingHandler) Set(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var req settingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "Set", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Set", "key", key)
	setting, err := h.service.Set(r.Context(), application.SetSettingParams{
		Principal: principal,
		Key:       key,
		Value:     req.Value,
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "setting update failed", err)
		return
	}
	logger.InfoContext(r.Context(), "setting updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, settingResponse{Setting: toSettingDTO(setting)})
}

type settingRequest struct {
	Value string `json:"value"`
}

type settingDTO struct {
	Key       string  `json:"key"`
	Value     string  `json:"value"`
	UpdatedAt string  `json:"updated_at"`
	UpdatedBy *string `json:"updated_by,omitempty"`
}

type settingResponse struct {
	Setting settingDTO `json:"setting"`
}

type listSettingsResponse struct {
	Settings []settingDTO `json:"settings"`
}

func toSettingDTO(s domain.SystemSetting) settingDTO {
	return settingDTO{
		Key:       s.Key(),
		Value:     s.Value(),
		UpdatedAt: formatInstant(s.UpdatedAt()),
		UpdatedBy: optional(s.UpdatedBy()),
	}
}
