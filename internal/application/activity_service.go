package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/permission"
	"github.com/example/equipment-reservation/internal/persistence"
)

// MaintenanceService records maintenance performed on equipment. Writes are
// open to whoever may edit the management of the equipment concerned.
type MaintenanceService struct {
	serviceBase
	records   persistence.MaintenanceRepository
	equipment persistence.EquipmentRepository
}

// NewMaintenanceService constructs a maintenance service with the provided dependencies.
func NewMaintenanceService(records persistence.MaintenanceRepository, equipment persistence.EquipmentRepository, idGenerator func() string, now func() time.Time) *MaintenanceService {
	return NewMaintenanceServiceWithLogger(records, equipment, idGenerator, now, nil)
}

// NewMaintenanceServiceWithLogger constructs a maintenance service with a specified logger.
func NewMaintenanceServiceWithLogger(records persistence.MaintenanceRepository, equipment persistence.EquipmentRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *MaintenanceService {
	return &MaintenanceService{
		serviceBase: newServiceBase("MaintenanceService", idGenerator, now, logger),
		records:     records,
		equipment:   equipment,
	}
}

func (s *MaintenanceService) ready() error {
	if s == nil {
		return fmt.Errorf("MaintenanceService is nil")
	}
	if s.records == nil || s.equipment == nil {
		return fmt.Errorf("maintenance repositories not configured")
	}
	return nil
}

// Create records maintenance. PerformedBy defaults to the principal.
func (s *MaintenanceService) Create(ctx context.Context, params CreateMaintenanceParams) (record domain.MaintenanceRecord, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Create", time.Now())
	logger := s.loggerWith(ctx, "Create",
		"principal_id", params.Principal.UserID,
		"equipment_id", params.Input.EquipmentID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to record maintenance", "maintenance recorded", "record_id", record.ID())
	}()

	if err = authorize(params.Principal, true); err != nil {
		return
	}
	in := params.Input
	in.ID = s.idGenerator()
	if in.PerformedBy == "" {
		in.PerformedBy = params.Principal.UserID
	}
	if record, err = domain.NewMaintenanceRecord(in); err != nil {
		return
	}
	err = s.authorizeFor(ctx, params.Principal, record.EquipmentID())
	if err != nil {
		return
	}
	err = mapRepoError("save maintenance record", s.records.Save(ctx, record))
	return
}

// Update replaces a maintenance record. The record stays attached to its equipment.
func (s *MaintenanceService) Update(ctx context.Context, params UpdateMaintenanceParams) (record domain.MaintenanceRecord, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Update", time.Now())
	logger := s.loggerWith(ctx, "Update",
		"principal_id", params.Principal.UserID,
		"record_id", params.RecordID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update maintenance record", "maintenance record updated")
	}()

	if err = authorize(params.Principal, true); err != nil {
		return
	}

	var existing domain.MaintenanceRecord
	if existing, err = findRequired(ctx, s.records.FindByID, params.RecordID, "find maintenance record"); err != nil {
		return
	}
	in := params.Input
	in.ID = existing.ID()
	in.EquipmentID = existing.EquipmentID()
	if in.PerformedBy == "" {
		in.PerformedBy = existing.PerformedBy()
	}
	if record, err = domain.NewMaintenanceRecord(in); err != nil {
		return
	}
	if err = s.authorizeFor(ctx, params.Principal, record.EquipmentID()); err != nil {
		return
	}
	err = mapRepoError("save maintenance record", s.records.Save(ctx, record))
	return
}

// Delete removes a maintenance record.
func (s *MaintenanceService) Delete(ctx context.Context, principal Principal, recordID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Delete", time.Now())
	logger := s.loggerWith(ctx, "Delete",
		"principal_id", principal.UserID,
		"record_id", recordID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete maintenance record", "maintenance record deleted")
	}()

	if err = authorize(principal, true); err != nil {
		return
	}

	var existing domain.MaintenanceRecord
	if existing, err = findRequired(ctx, s.records.FindByID, recordID, "find maintenance record"); err != nil {
		return
	}
	if err = s.authorizeFor(ctx, principal, existing.EquipmentID()); err != nil {
		return
	}
	err = mapRepoError("delete maintenance record", s.records.Delete(ctx, recordID))
	return
}

// ListForEquipment returns the maintenance history of equipment, newest first.
func (s *MaintenanceService) ListForEquipment(ctx context.Context, principal Principal, equipmentID string) ([]domain.MaintenanceRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := authorize(principal, true); err != nil {
		return nil, err
	}
	if _, err := findRequired(ctx, s.equipment.FindByID, equipmentID, "find equipment"); err != nil {
		return nil, err
	}
	records, err := s.records.FindByEquipmentID(ctx, equipmentID)
	return records, mapRepoError("list maintenance records", err)
}

func (s *MaintenanceService) authorizeFor(ctx context.Context, principal Principal, equipmentID string) error {
	if err := authorize(principal, true); err != nil {
		return err
	}
	equipment, err := findRequired(ctx, s.equipment.FindByID, equipmentID, "find equipment")
	if err != nil {
		return err
	}
	return authorize(principal, permission.CanEditEquipmentManagement(principal, equipment))
}

// CommentService manages free-text comments left on equipment.
type CommentService struct {
	serviceBase
	comments  persistence.CommentRepository
	equipment persistence.EquipmentRepository
}

// NewCommentService constructs a comment service with the provided dependencies.
func NewCommentService(comments persistence.CommentRepository, equipment persistence.EquipmentRepository, idGenerator func() string, now func() time.Time) *CommentService {
	return NewCommentServiceWithLogger(comments, equipment, idGenerator, now, nil)
}

// NewCommentServiceWithLogger constructs a comment service with a specified logger.
func NewCommentServiceWithLogger(comments persistence.CommentRepository, equipment persistence.EquipmentRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CommentService {
	return &CommentService{
		serviceBase: newServiceBase("CommentService", idGenerator, now, logger),
		comments:    comments,
		equipment:   equipment,
	}
}

func (s *CommentService) ready() error {
	if s == nil {
		return fmt.Errorf("CommentService is nil")
	}
	if s.comments == nil || s.equipment == nil {
		return fmt.Errorf("comment repositories not configured")
	}
	return nil
}

// Create posts a comment authored by the principal.
func (s *CommentService) Create(ctx context.Context, params CreateCommentParams) (comment domain.EquipmentComment, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Create", time.Now())
	logger := s.loggerWith(ctx, "Create",
		"principal_id", params.Principal.UserID,
		"equipment_id", params.EquipmentID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create comment", "comment created", "comment_id", comment.ID())
	}()

	if err = authorize(params.Principal, permission.CanComment(params.Principal)); err != nil {
		return
	}
	comment, err = domain.NewEquipmentComment(domain.CommentInput{
		ID:          s.idGenerator(),
		EquipmentID: params.EquipmentID,
		UserID:      params.Principal.UserID,
		Content:     params.Content,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return
	}
	if _, err = findRequired(ctx, s.equipment.FindByID, params.EquipmentID, "find equipment"); err != nil {
		return
	}
	err = mapRepoError("save comment", s.comments.Save(ctx, comment))
	return
}

// Delete removes a comment. Authors and administrators may delete.
func (s *CommentService) Delete(ctx context.Context, principal Principal, commentID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Delete", time.Now())
	logger := s.loggerWith(ctx, "Delete",
		"principal_id", principal.UserID,
		"comment_id", commentID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete comment", "comment deleted")
	}()

	if err = authorize(principal, true); err != nil {
		return
	}

	var existing domain.EquipmentComment
	if existing, err = findRequired(ctx, s.comments.FindByID, commentID, "find comment"); err != nil {
		return
	}
	if err = authorize(principal, permission.CanDeleteComment(principal, existing)); err != nil {
		return
	}
	err = mapRepoError("delete comment", s.comments.Delete(ctx, commentID))
	return
}

// ListForEquipment returns the comments on equipment, oldest first.
func (s *CommentService) ListForEquipment(ctx context.Context, principal Principal, equipmentID string) ([]domain.EquipmentComment, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := authorize(principal, true); err != nil {
		return nil, err
	}
	if _, err := findRequired(ctx, s.equipment.FindByID, equipmentID, "find equipment"); err != nil {
		return nil, err
	}
	comments, err := s.comments.FindByEquipmentID(ctx, equipmentID)
	return comments, mapRepoError("list comments", err)
}
