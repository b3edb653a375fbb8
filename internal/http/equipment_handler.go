package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/equipment-reservation/internal/application"
	"github.com/example/equipment-reservation/internal/domain"
)

type equipmentService interface {
	Create(ctx context.Context, params application.CreateEquipmentParams) (domain.Equipment, error)
	Update(ctx context.Context, params application.UpdateEquipmentParams) (domain.Equipment, error)
	UpdateManagement(ctx context.Context, params application.UpdateManagementParams) (domain.Equipment, error)
	Delete(ctx context.Context, principal application.Principal, equipmentID string) error
	Get(ctx context.Context, principal application.Principal, equipmentID string) (application.EquipmentView, error)
	List(ctx context.Context, principal application.Principal) ([]domain.Equipment, error)
	ListByRoom(ctx context.Context, principal application.Principal, roomID string) ([]domain.Equipment, error)
	RecentlyUsed(ctx context.Context, principal application.Principal, limit int) ([]domain.Equipment, error)
}

type categoryService interface {
	Create(ctx context.Context, params application.CreateCategoryParams) (domain.EquipmentCategory, error)
	Update(ctx context.Context, params application.UpdateCategoryParams) (domain.EquipmentCategory, error)
	Delete(ctx context.Context, principal application.Principal, categoryID string) error
	List(ctx context.Context, principal application.Principal) ([]domain.EquipmentCategory, error)
}

// EquipmentHandler serves the equipment catalog and its categories.
type EquipmentHandler struct {
	handlerBase
	service    equipmentService
	categories categoryService
}

func NewEquipmentHandler(service equipmentService, categories categoryService, logger *slog.Logger) *EquipmentHandler {
	return &EquipmentHandler{handlerBase: newHandlerBase("EquipmentHandler", logger), service: service, categories: categories}
}

func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req equipmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "Create", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.badRequest(r.Context(), w, "Create", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create")
	equipment, err := h.service.Create(r.Context(), application.CreateEquipmentParams{Principal: principal, Input: input})
	if err != nil {
		h.fail(r.Context(), w, logger, "equipment creation failed", err)
		return
	}

	logger.InfoContext(r.Context(), "equipment created", "equipment_id", equipment.ID())
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, equipmentResponse{Equipment: toEquipmentDTO(equipment)})
}

func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	equipmentID := r.PathValue("id")
	var req equipmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "Update", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.badRequest(r.Context(), w, "Update", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Update", "equipment_id", equipmentID)
	equipment, err := h.service.Update(r.Context(), application.UpdateEquipmentParams{
		Principal:   principal,
		EquipmentID: equipmentID,
		Input:       input,
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "equipment update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "equipment updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, equipmentResponse{Equipment: toEquipmentDTO(equipment)})
}

// UpdateManagement handles PUT /equipment/{id}/management.
func (h *EquipmentHandler) UpdateManagement(w http.ResponseWriter, r *http.Request) {
	equipmentID := r.PathValue("id")
	var req managementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "UpdateManagement", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "UpdateManagement", "equipment_id", equipmentID)
	equipment, err := h.service.UpdateManagement(r.Context(), application.UpdateManagementParams{
		Principal:            principal,
		EquipmentID:          equipmentID,
		AdministratorID:      trimmedPtr(req.AdministratorID),
		ViceAdministratorIDs: req.ViceAdministratorIDs,
		RunningState:         trimmedPtr(req.RunningState),
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "management update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "management updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, equipmentResponse{Equipment: toEquipmentDTO(equipment)})
}

func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	equipmentID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "equipment_id", equipmentID)
	if err := h.service.Delete(r.Context(), principal, equipmentID); err != nil {
		h.fail(r.Context(), w, logger, "equipment delete failed", err)
		return
	}
	logger.InfoContext(r.Context(), "equipment deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	equipmentID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	view, err := h.service.Get(r.Context(), principal, equipmentID)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "Get", "equipment_id", equipmentID), "equipment lookup failed", err)
		return
	}

	dto := toEquipmentDTO(view.Equipment)
	if view.Administrator != nil {
		admin := toUserSummaryDTO(*view.Administrator)
		dto.Administrator = &admin
	}
	dto.ViceAdministrators = mapSlice(view.ViceAdministrators, toUserSummaryDTO)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, equipmentResponse{Equipment: dto})
}

// List handles GET /equipment, optionally filtered with ?room_id=.
func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	var (
		equipment []domain.Equipment
		err       error
	)
	if roomID := strings.TrimSpace(r.URL.Query().Get("room_id")); roomID != "" {
		equipment, err = h.service.ListByRoom(r.Context(), principal, roomID)
	} else {
		equipment, err = h.service.List(r.Context(), principal)
	}
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "List"), "equipment list failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEquipmentResponse{Equipment: mapSlice(equipment, toEquipmentDTO)})
}

// ListByRoom handles GET /rooms/{id}/equipment.
func (h *EquipmentHandler) ListByRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	equipment, err := h.service.ListByRoom(r.Context(), principal, roomID)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "ListByRoom", "room_id", roomID), "equipment list failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEquipmentResponse{Equipment: mapSlice(equipment, toEquipmentDTO)})
}

// RecentlyUsed handles GET /equipment/recent?limit=.
func (h *EquipmentHandler) RecentlyUsed(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.badRequest(r.Context(), w, "RecentlyUsed", &fieldError{Field: "limit", Message: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	principal, _ := PrincipalFromContext(r.Context())
	equipment, err := h.service.RecentlyUsed(r.Context(), principal, limit)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "RecentlyUsed"), "recently used lookup failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEquipmentResponse{Equipment: mapSlice(equipment, toEquipmentDTO)})
}

func (h *EquipmentHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "CreateCategory", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "CreateCategory")
	category, err := h.categories.Create(r.Context(), application.CreateCategoryParams{Principal: principal, Input: req.toInput()})
	if err != nil {
		h.fail(r.Context(), w, logger, "category creation failed", err)
		return
	}

	logger.InfoContext(r.Context(), "category created", "category_id", category.ID())
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, categoryResponse{Category: toCategoryDTO(category)})
}

func (h *EquipmentHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("id")
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "UpdateCategory", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "UpdateCategory", "category_id", categoryID)
	category, err := h.categories.Update(r.Context(), application.UpdateCategoryParams{
		Principal:  principal,
		CategoryID: categoryID,
		Input:      req.toInput(),
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "category update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "category updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, categoryResponse{Category: toCategoryDTO(category)})
}

func (h *EquipmentHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "DeleteCategory", "category_id", categoryID)
	if err := h.categories.Delete(r.Context(), principal, categoryID); err != nil {
		h.fail(r.Context(), w, logger, "category delete failed", err)
		return
	}
	logger.InfoContext(r.Context(), "category deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *EquipmentHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	categories, err := h.categories.List(r.Context(), principal)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "ListCategories"), "category list failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listCategoriesResponse{Categories: mapSlice(categories, toCategoryDTO)})
}

type equipmentRequest struct {
	Name                 string   `json:"name"`
	Description          *string  `json:"description"`
	CategoryMajor        *string  `json:"category_major"`
	CategoryMinor        *string  `json:"category_minor"`
	RoomID               *string  `json:"room_id"`
	RunningState         string   `json:"running_state"`
	InstallationDate     *string  `json:"installation_date"`
	AdministratorID      *string  `json:"administrator_id"`
	ViceAdministratorIDs []string `json:"vice_administrator_ids"`
}

func (r equipmentRequest) toInput() (domain.EquipmentInput, error) {
	in := domain.EquipmentInput{
		Name:                 strings.TrimSpace(r.Name),
		Description:          trimmedPtr(r.Description),
		CategoryMajor:        trimmedPtr(r.CategoryMajor),
		CategoryMinor:        trimmedPtr(r.CategoryMinor),
		RoomID:               trimmedPtr(r.RoomID),
		RunningState:         strings.TrimSpace(r.RunningState),
		AdministratorID:      trimmedPtr(r.AdministratorID),
		ViceAdministratorIDs: r.ViceAdministratorIDs,
	}
	if r.InstallationDate != nil && strings.TrimSpace(*r.InstallationDate) != "" {
		date, err := parseDate("installation_date", *r.InstallationDate)
		if err != nil {
			return domain.EquipmentInput{}, err
		}
		in.InstallationDate = &date
	}
	return in, nil
}

type managementRequest struct {
	AdministratorID      *string  `json:"administrator_id"`
	ViceAdministratorIDs []string `json:"vice_administrator_ids"`
	RunningState         *string  `json:"running_state"`
}

type categoryRequest struct {
	CategoryMajor string `json:"category_major"`
	CategoryMinor string `json:"category_minor"`
}

func (r categoryRequest) toInput() domain.CategoryInput {
	return domain.CategoryInput{
		CategoryMajor: strings.TrimSpace(r.CategoryMajor),
		CategoryMinor: strings.TrimSpace(r.CategoryMinor),
	}
}

type userSummaryDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Label string `json:"label"`
}

func toUserSummaryDTO(u application.UserSummary) userSummaryDTO {
	return userSummaryDTO{ID: u.ID, Email: u.Email, Label: u.Label}
}

type equipmentDTO struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	Description          *string          `json:"description,omitempty"`
	CategoryMajor        *string          `json:"category_major,omitempty"`
	CategoryMinor        *string          `json:"category_minor,omitempty"`
	RoomID               *string          `json:"room_id,omitempty"`
	RunningState         string           `json:"running_state"`
	InstallationDate     *string          `json:"installation_date,omitempty"`
	AdministratorID      *string          `json:"administrator_id,omitempty"`
	ViceAdministratorIDs []string         `json:"vice_administrator_ids"`
	Administrator        *userSummaryDTO  `json:"administrator,omitempty"`
	ViceAdministrators   []userSummaryDTO `json:"vice_administrators,omitempty"`
}

type equipmentResponse struct {
	Equipment equipmentDTO `json:"equipment"`
}

type listEquipmentResponse struct {
	Equipment []equipmentDTO `json:"equipment"`
}

func toEquipmentDTO(e domain.Equipment) equipmentDTO {
	dto := equipmentDTO{
		ID:                   e.ID(),
		Name:                 e.Name(),
		Description:          optional(e.Description()),
		CategoryMajor:        optional(e.CategoryMajor()),
		CategoryMinor:        optional(e.CategoryMinor()),
		RoomID:               optional(e.RoomID()),
		RunningState:         string(e.RunningState()),
		AdministratorID:      optional(e.AdministratorID()),
		ViceAdministratorIDs: append([]string{}, e.ViceAdministratorIDs()...),
	}
	if date, ok := e.InstallationDate(); ok {
		formatted := date.UTC().Format(time.DateOnly)
		dto.InstallationDate = &formatted
	}
	return dto
}

type categoryDTO struct {
	ID            string `json:"id"`
	CategoryMajor string `json:"category_major"`
	CategoryMinor string `json:"category_minor"`
}

type categoryResponse struct {
	Category categoryDTO `json:"category"`
}

type listCategoriesResponse struct {
	Categories []categoryDTO `json:"categories"`
}

func toCategoryDTO(c domain.EquipmentCategory) categoryDTO {
	return categoryDTO{ID: c.ID(), CategoryMajor: c.CategoryMajor(), CategoryMinor: c.CategoryMinor()}
}
