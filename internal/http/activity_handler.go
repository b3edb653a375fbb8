package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/equipment-reservation/internal/application"
	"github.com/example/equipment-reservation/internal/domain"
)

type maintenanceService interface {
	Create(ctx context.Context, params application.CreateMaintenanceParams) (domain.MaintenanceRecord, error)
	Update(ctx context.Context, params application.UpdateMaintenanceParams) (domain.MaintenanceRecord, error)
	Delete(ctx context.Context, principal application.Principal, recordID string) error
	ListForEquipment(ctx context.Context, principal application.Principal, equipmentID string) ([]domain.MaintenanceRecord, error)
}

type commentService interface {
	Create(ctx context.Context, params application.CreateCommentParams) (domain.EquipmentComment, error)
	Delete(ctx context.Context, principal application.Principal, commentID string) error
	ListForEquipment(ctx context.Context, principal application.Principal, equipmentID string) ([]domain.EquipmentComment, error)
}

// ActivityHandler serves maintenance history and equipment comments.
type ActivityHandler struct {
	handlerBase
	maintenance maintenanceService
	comments    commentService
}

func NewActivityHandler(maintenance maintenanceService, comments commentService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		handlerBase: newHandlerBase("ActivityHandler", logger),
		maintenance: maintenance,
		comments:    comments,
	}
}

func (h *ActivityHandler) CreateMaintenance(w http.ResponseWriter, r *http.Request) {
	var req maintenanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "CreateMaintenance", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.badRequest(r.Context(), w, "CreateMaintenance", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "CreateMaintenance", "equipment_id", input.EquipmentID)
	record, err := h.maintenance.Create(r.Context(), application.CreateMaintenanceParams{Principal: principal, Input: input})
	if err != nil {
		h.fail(r.Context(), w, logger, "maintenance create failed", err)
		return
	}
	logger.InfoContext(r.Context(), "maintenance recorded", "record_id", record.ID())
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, maintenanceResponse{Record: toMaintenanceDTO(record)})
}

func (h *ActivityHandler) UpdateMaintenance(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")
	var req maintenanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "UpdateMaintenance", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		h.badRequest(r.Context(), w, "UpdateMaintenance", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "UpdateMaintenance", "record_id", recordID)
	record, err := h.maintenance.Update(r.Context(), application.UpdateMaintenanceParams{
		Principal: principal,
		RecordID:  recordID,
		Input:     input,
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "maintenance update failed", err)
		return
	}
	logger.InfoContext(r.Context(), "maintenance record updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, maintenanceResponse{Record: toMaintenanceDTO(record)})
}

func (h *ActivityHandler) DeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	recordID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "DeleteMaintenance", "record_id", recordID)
	if err := h.maintenance.Delete(r.Context(), principal, recordID); err != nil {
		h.fail(r.Context(), w, logger, "maintenance delete failed", err)
		return
	}
	logger.InfoContext(r.Context(), "maintenance record deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ActivityHandler) ListMaintenance(w http.ResponseWriter, r *http.Request) {
	equipmentID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	records, err := h.maintenance.ListForEquipment(r.Context(), principal, equipmentID)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "ListMaintenance", "equipment_id", equipmentID), "maintenance list failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listMaintenanceResponse{Records: mapSlice(records, toMaintenanceDTO)})
}

func (h *ActivityHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "CreateComment", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "CreateComment", "equipment_id", req.EquipmentID)
	comment, err := h.comments.Create(r.Context(), application.CreateCommentParams{
		Principal:   principal,
		EquipmentID: strings.TrimSpace(req.EquipmentID),
		Content:     req.Content,
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "comment create failed", err)
		return
	}
	logger.InfoContext(r.Context(), "comment created", "comment_id", comment.ID())
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, commentResponse{Comment: toCommentDTO(comment)})
}

func (h *ActivityHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "DeleteComment", "comment_id", commentID)
	if err := h.comments.Delete(r.Context(), principal, commentID); err != nil {
		h.fail(r.Context(), w, logger, "comment delete failed", err)
		return
	}
	logger.InfoContext(r.Context(), "comment deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ActivityHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	equipmentID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	comments, err := h.comments.ListForEquipment(r.Context(), principal, equipmentID)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "ListComments", "equipment_id", equipmentID), "comment list failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listCommentsResponse{Comments: mapSlice(comments, toCommentDTO)})
}

type maintenanceRequest struct {
	EquipmentID string `json:"equipment_id"`
	RecordDate  string `json:"record_date"`
	Description string `json:"description"`
	PerformedBy string `json:"performed_by"`
	Cost        *int   `json:"cost"`
}

func (r maintenanceRequest) toInput() (domain.MaintenanceInput, error) {
	recordDate, err := parseDate("record_date", r.RecordDate)
	if err != nil {
		return domain.MaintenanceInput{}, err
	}
	return domain.MaintenanceInput{
		EquipmentID: strings.TrimSpace(r.EquipmentID),
		RecordDate:  recordDate,
		Description: r.Description,
		PerformedBy: strings.TrimSpace(r.PerformedBy),
		Cost:        r.Cost,
	}, nil
}

type maintenanceDTO struct {
	ID          string `json:"id"`
	EquipmentID string `json:"equipment_id"`
	RecordDate  string `json:"record_date"`
	Description string `json:"description"`
	PerformedBy string `json:"performed_by"`
	Cost        *int   `json:"cost,omitempty"`
}

type maintenanceResponse struct {
	Record maintenanceDTO `json:"maintenance_record"`
}

type listMaintenanceResponse struct {
	Records []maintenanceDTO `json:"maintenance_records"`
}

func toMaintenanceDTO(m domain.MaintenanceRecord) maintenanceDTO {
	return maintenanceDTO{
		ID:          m.ID(),
		EquipmentID: m.EquipmentID(),
		RecordDate:  m.RecordDate().Format(time.DateOnly),
		Description: m.Description(),
		PerformedBy: m.PerformedBy(),
		Cost:        optional(m.Cost()),
	}
}

type commentRequest struct {
	EquipmentID string `json:"equipment_id"`
	Content     string `json:"content"`
}

type commentDTO struct {
	ID          string `json:"id"`
	EquipmentID string `json:"equipment_id"`
	UserID      string `json:"user_id"`
	Content     string `json:"content"`
	CreatedAt   string `json:"created_at"`
}

type commentResponse struct {
	Comment commentDTO `json:"comment"`
}

type listCommentsResponse struct {
	Comments []commentDTO `json:"comments"`
}

func toCommentDTO(c domain.EquipmentComment) commentDTO {
	return commentDTO{
		ID:          c.ID(),
		EquipmentID: c.EquipmentID(),
		UserID:      c.UserID(),
		Content:     c.Content(),
		CreatedAt:   formatInstant(c.CreatedAt()),
	}
}
