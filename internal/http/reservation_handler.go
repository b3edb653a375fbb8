package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/equipment-reservation/internal/application"
	"github.com/example/equipment-reservation/internal/calendar"
	"github.com/example/equipment-reservation/internal/domain"
)

type reservationService interface {
	Create(ctx context.Context, params application.CreateReservationParams) (domain.Reservation, error)
	Update(ctx context.Context, params application.UpdateReservationParams) (domain.Reservation, error)
	Delete(ctx context.Context, principal application.Principal, reservationID string) error
	Get(ctx context.Context, principal application.Principal, reservationID string) (domain.Reservation, error)
	ListForEquipment(ctx context.Context, params application.ListReservationsParams) ([]domain.Reservation, error)
	ListMine(ctx context.Context, principal application.Principal) ([]domain.Reservation, error)
}

type equipmentGetter interface {
	Get(ctx context.Context, principal application.Principal, equipmentID string) (application.EquipmentView, error)
}

type timezoneProvider interface {
	Timezone(ctx context.Context) *time.Location
}

// Calendar feeds default to this window around the current time.
const (
	calendarLookBack  = 30 * 24 * time.Hour
	calendarLookAhead = 180 * 24 * time.Hour
)

// ReservationHandler serves bookings and the per-equipment calendar feed.
type ReservationHandler struct {
	handlerBase
	service   reservationService
	equipment equipmentGetter
	timezones timezoneProvider
	now       func() time.Time
}

func NewReservationHandler(service reservationService, equipment equipmentGetter, timezones timezoneProvider, now func() time.Time, logger *slog.Logger) *ReservationHandler {
	if now == nil {
		now = time.Now
	}
	return &ReservationHandler{
		handlerBase: newHandlerBase("ReservationHandler", logger),
		service:     service,
		equipment:   equipment,
		timezones:   timezones,
		now:         now,
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "Create", err)
		return
	}
	start, end, err := req.window()
	if err != nil {
		h.badRequest(r.Context(), w, "Create", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", "equipment_id", req.EquipmentID)
	reservation, err := h.service.Create(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input: domain.ReservationInput{
			StartTime:   start,
			EndTime:     end,
			Comment:     trimmedPtr(req.Comment),
			UserID:      strings.TrimSpace(req.UserID),
			EquipmentID: strings.TrimSpace(req.EquipmentID),
		},
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "reservation failed", err)
		return
	}

	logger.InfoContext(r.Context(), "reservation created", "reservation_id", reservation.ID())
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	reservationID := r.PathValue("id")
	var req reservationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, "Update", err)
		return
	}
	start, end, err := req.window()
	if err != nil {
		h.badRequest(r.Context(), w, "Update", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Update", "reservation_id", reservationID)
	reservation, err := h.service.Update(r.Context(), application.UpdateReservationParams{
		Principal:     principal,
		ReservationID: reservationID,
		StartTime:     start,
		EndTime:       end,
		Comment:       trimmedPtr(req.Comment),
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "reservation update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "reservation updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	reservationID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "reservation_id", reservationID)
	if err := h.service.Delete(r.Context(), principal, reservationID); err != nil {
		h.fail(r.Context(), w, logger, "reservation delete failed", err)
		return
	}
	logger.InfoContext(r.Context(), "reservation deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	reservationID := r.PathValue("id")
	principal, _ := PrincipalFromContext(r.Context())
	reservation, err := h.service.Get(r.Context(), principal, reservationID)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "Get", "reservation_id", reservationID), "reservation lookup failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

// ListMine handles GET /reservations.
func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	reservations, err := h.service.ListMine(r.Context(), principal)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "ListMine"), "reservation list failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: mapSlice(reservations, toReservationDTO)})
}

// ListForEquipment handles GET /equipment/{id}/reservations?from=&to=.
func (h *ReservationHandler) ListForEquipment(w http.ResponseWriter, r *http.Request) {
	equipmentID := r.PathValue("id")
	from, err := parseInstant("from", r.URL.Query().Get("from"))
	if err != nil {
		h.badRequest(r.Context(), w, "ListForEquipment", err)
		return
	}
	to, err := parseInstant("to", r.URL.Query().Get("to"))
	if err != nil {
		h.badRequest(r.Context(), w, "ListForEquipment", err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	reservations, err := h.service.ListForEquipment(r.Context(), application.ListReservationsParams{
		Principal:   principal,
		EquipmentID: equipmentID,
		From:        from,
		To:          to,
	})
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "ListForEquipment", "equipment_id", equipmentID), "reservation list failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: mapSlice(reservations, toReservationDTO)})
}

// Calendar handles GET /equipment/{id}/calendar.ics. Without from/to the
// feed spans calendarLookBack before and calendarLookAhead after now.
func (h *ReservationHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	equipmentID := r.PathValue("id")
	now := h.now()
	from, to := now.Add(-calendarLookBack), now.Add(calendarLookAhead)
	query := r.URL.Query()
	if raw := query.Get("from"); raw != "" {
		parsed, err := parseInstant("from", raw)
		if err != nil {
			h.badRequest(r.Context(), w, "Calendar", err)
			return
		}
		from = parsed
	}
	if raw := query.Get("to"); raw != "" {
		parsed, err := parseInstant("to", raw)
		if err != nil {
			h.badRequest(r.Context(), w, "Calendar", err)
			return
		}
		to = parsed
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Calendar", "equipment_id", equipmentID)
	view, err := h.equipment.Get(r.Context(), principal, equipmentID)
	if err != nil {
		h.fail(r.Context(), w, logger, "calendar equipment lookup failed", err)
		return
	}
	reservations, err := h.service.ListForEquipment(r.Context(), application.ListReservationsParams{
		Principal:   principal,
		EquipmentID: equipmentID,
		From:        from,
		To:          to,
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "calendar reservation lookup failed", err)
		return
	}

	loc := time.UTC
	if h.timezones != nil {
		loc = h.timezones.Timezone(r.Context())
	}
	var buf bytes.Buffer
	if err := calendar.Encode(&buf, view.Equipment, reservations, loc, now); err != nil {
		h.fail(r.Context(), w, logger, "calendar encoding failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="`+equipmentID+`.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.WarnContext(r.Context(), "failed to write calendar", "error", err)
	}
}

type reservationRequest struct {
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Comment     *string `json:"comment"`
	UserID      string  `json:"user_id"`
	EquipmentID string  `json:"equipment_id"`
}

func (r reservationRequest) window() (time.Time, time.Time, error) {
	start, err := parseInstant("start_time", r.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseInstant("end_time", r.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

type reservationDTO struct {
	ID          string  `json:"id"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Comment     *string `json:"comment,omitempty"`
	UserID      string  `json:"user_id"`
	EquipmentID string  `json:"equipment_id"`
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

func toReservationDTO(r domain.Reservation) reservationDTO {
	return reservationDTO{
		ID:          r.ID(),
		StartTime:   formatInstant(r.StartTime()),
		EndTime:     formatInstant(r.EndTime()),
		Comment:     optional(r.Comment()),
		UserID:      r.UserID(),
		EquipmentID: r.EquipmentID(),
	}
}
