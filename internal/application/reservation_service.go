package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/permission"
	"github.com/example/equipment-reservation/internal/persistence"
	"github.com/example/equipment-reservation/internal/scheduler"
)

const (
	MsgReservationInPast     = "Reservations cannot start in the past"
	MsgEquipmentUnavailable  = "Equipment is not available for reservation"
	MsgInvalidListRange      = "Range start must be before range end"
	reservationResultSuccess = "success"
)

// ReservationService books equipment. Every write runs the conflict
// pre-check and then relies on the repository to reject overlaps atomically.
type ReservationService struct {
	serviceBase
	reservations persistence.ReservationRepository
	equipment    persistence.EquipmentRepository
	detector     *scheduler.Detector
}

// NewReservationService constructs a reservation service with the provided dependencies.
func NewReservationService(reservations persistence.ReservationRepository, equipment persistence.EquipmentRepository, idGenerator func() string, now func() time.Time) *ReservationService {
	return NewReservationServiceWithLogger(reservations, equipment, idGenerator, now, nil)
}

// NewReservationServiceWithLogger constructs a reservation service with a specified logger.
func NewReservationServiceWithLogger(reservations persistence.ReservationRepository, equipment persistence.EquipmentRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	svc := &ReservationService{
		serviceBase:  newServiceBase("ReservationService", idGenerator, now, logger),
		reservations: reservations,
		equipment:    equipment,
	}
	if reservations != nil {
		svc.detector = scheduler.NewDetector(reservations)
	}
	return svc
}

func (s *ReservationService) ready() error {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil || s.equipment == nil {
		return fmt.Errorf("reservation repositories not configured")
	}
	return nil
}

// Create books equipment for the principal. Elevated principals may book on
// behalf of another user by setting Input.UserID.
func (s *ReservationService) Create(ctx context.Context, params CreateReservationParams) (reservation domain.Reservation, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Create", time.Now())
	defer s.count("create", &err)
	logger := s.loggerWith(ctx, "Create",
		"principal_id", params.Principal.UserID,
		"equipment_id", params.Input.EquipmentID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create reservation", "reservation created",
			"reservation_id", reservation.ID(),
			"start", reservation.StartTime(),
			"end", reservation.EndTime(),
		)
	}()

	if err = authorize(params.Principal, permission.CanReserve(params.Principal)); err != nil {
		return
	}
	in := params.Input
	in.ID = s.idGenerator()
	if in.UserID == "" || !permission.Elevated(params.Principal) {
		in.UserID = params.Principal.UserID
	}
	if reservation, err = domain.NewReservation(in); err != nil {
		return
	}
	allowed := permission.CanReserve(params.Principal) && permission.CanManageReservations(params.Principal, &reservation)
	if err = authorize(params.Principal, allowed); err != nil {
		return
	}
	if err = s.ensureFuture(params.Principal, reservation); err != nil {
		return
	}
	if err = s.ensureReservable(ctx, reservation.EquipmentID()); err != nil {
		return
	}
	err = s.checkAndSave(ctx, reservation)
	return
}

// Update moves an existing reservation to a new window and replaces its
// comment. Reservations that have already started can only be changed by
// elevated principals.
func (s *ReservationService) Update(ctx context.Context, params UpdateReservationParams) (reservation domain.Reservation, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Update", time.Now())
	defer s.count("update", &err)
	logger := s.loggerWith(ctx, "Update",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update reservation", "reservation updated",
			"start", reservation.StartTime(),
			"end", reservation.EndTime(),
		)
	}()

	if err = authorize(params.Principal, true); err != nil {
		return
	}

	var existing domain.Reservation
	if existing, err = findRequired(ctx, s.reservations.FindByID, params.ReservationID, "find reservation"); err != nil {
		return
	}
	in := existing.Input()
	in.StartTime = params.StartTime
	in.EndTime = params.EndTime
	in.Comment = params.Comment
	if reservation, err = domain.NewReservation(in); err != nil {
		return
	}
	if err = authorize(params.Principal, permission.CanManageReservations(params.Principal, &existing)); err != nil {
		return
	}
	if err = s.ensureMutable(params.Principal, existing); err != nil {
		return
	}
	if err = s.ensureFuture(params.Principal, reservation); err != nil {
		return
	}
	if err = s.ensureReservable(ctx, reservation.EquipmentID()); err != nil {
		return
	}
	err = s.checkAndSave(ctx, reservation)
	return
}

// Delete cancels a reservation. Owners may cancel bookings that have not
// started yet; elevated principals may cancel any booking.
func (s *ReservationService) Delete(ctx context.Context, principal Principal, reservationID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Delete", time.Now())
	defer s.count("delete", &err)
	logger := s.loggerWith(ctx, "Delete",
		"principal_id", principal.UserID,
		"reservation_id", reservationID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete reservation", "reservation deleted")
	}()

	if err = authorize(principal, true); err != nil {
		return
	}

	var existing domain.Reservation
	if existing, err = findRequired(ctx, s.reservations.FindByID, reservationID, "find reservation"); err != nil {
		return
	}
	if err = authorize(principal, permission.CanDeleteReservation(principal, existing)); err != nil {
		return
	}
	if err = s.ensureMutable(principal, existing); err != nil {
		return
	}
	err = mapRepoError("delete reservation", s.reservations.Delete(ctx, reservationID))
	return
}

// Get returns a single reservation.
func (s *ReservationService) Get(ctx context.Context, principal Principal, reservationID string) (domain.Reservation, error) {
	if err := s.ready(); err != nil {
		return domain.Reservation{}, err
	}
	if err := authorize(principal, true); err != nil {
		return domain.Reservation{}, err
	}
	return findRequired(ctx, s.reservations.FindByID, reservationID, "find reservation")
}

// ListForEquipment returns the reservations of one equipment intersecting
// [From, To), ordered by start time.
func (s *ReservationService) ListForEquipment(ctx context.Context, params ListReservationsParams) (reservations []domain.Reservation, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "ListForEquipment",
		"principal_id", params.Principal.UserID,
		"equipment_id", params.EquipmentID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list reservations", "reservations listed", "result_count", len(reservations))
	}()

	if err = authorize(params.Principal, true); err != nil {
		return
	}
	if !params.From.Before(params.To) {
		err = validationFailure("from", MsgInvalidListRange)
		return
	}
	if _, err = findRequired(ctx, s.equipment.FindByID, params.EquipmentID, "find equipment"); err != nil {
		return
	}
	reservations, err = s.reservations.FindByEquipmentAndDateRange(ctx, params.EquipmentID, params.From.UTC(), params.To.UTC())
	err = mapRepoError("list reservations", err)
	return
}

// ListMine returns the principal's own reservations ordered by start time.
func (s *ReservationService) ListMine(ctx context.Context, principal Principal) ([]domain.Reservation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := authorize(principal, true); err != nil {
		return nil, err
	}
	reservations, err := s.reservations.FindByUserID(ctx, principal.UserID)
	return reservations, mapRepoError("list reservations by user", err)
}

// checkAndSave runs the conflict pre-check and persists the reservation. An
// overlap rejected by the store is reported like one found by the pre-check.
func (s *ReservationService) checkAndSave(ctx context.Context, reservation domain.Reservation) error {
	window := scheduler.Window{Start: reservation.StartTime(), End: reservation.EndTime()}
	conflicts, err := s.detector.Check(ctx, reservation.EquipmentID(), window, reservation.ID())
	if err != nil {
		return mapRepoError("check conflicts", err)
	}
	if len(conflicts) > 0 {
		ids := make([]string, 0, len(conflicts))
		for _, c := range conflicts {
			ids = append(ids, c.WithReservationID)
		}
		return &ConflictError{EquipmentID: reservation.EquipmentID(), ReservationIDs: ids}
	}

	if err := s.reservations.Save(ctx, reservation); err != nil {
		if errors.Is(err, persistence.ErrOverlap) {
			return &ConflictError{EquipmentID: reservation.EquipmentID()}
		}
		return mapRepoError("save reservation", err)
	}
	return nil
}

func (s *ReservationService) ensureReservable(ctx context.Context, equipmentID string) error {
	equipment, err := findRequired(ctx, s.equipment.FindByID, equipmentID, "find equipment")
	if err != nil {
		return err
	}
	switch equipment.RunningState() {
	case domain.RunningStateOutOfService, domain.RunningStateRetired:
		return validationFailure("equipmentId", MsgEquipmentUnavailable)
	}
	return nil
}

// ensureFuture rejects windows starting before now for non-elevated principals.
func (s *ReservationService) ensureFuture(principal Principal, reservation domain.Reservation) error {
	if permission.Elevated(principal) {
		return nil
	}
	if reservation.StartTime().Before(s.now()) {
		return validationFailure("startTime", MsgReservationInPast)
	}
	return nil
}

// ensureMutable forbids non-elevated principals from touching reservations
// that have already started.
func (s *ReservationService) ensureMutable(principal Principal, existing domain.Reservation) error {
	if permission.Elevated(principal) {
		return nil
	}
	if !existing.StartTime().After(s.now()) {
		return ErrForbidden
	}
	return nil
}

func (s *ReservationService) count(operation string, err *error) {
	result := reservationResultSuccess
	if *err != nil {
		result = ErrorKind(*err)
	}
	var conflict *ConflictError
	if errors.As(*err, &conflict) {
		s.metrics.ReservationConflict()
	}
	s.metrics.ReservationOperation(operation, result)
}
