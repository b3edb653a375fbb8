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

// DefaultRecentlyUsedLimit bounds RecentlyUsed when the caller passes no limit.
const DefaultRecentlyUsedLimit = 10

// EquipmentService manages equipment and the people responsible for it.
type EquipmentService struct {
	serviceBase
	equipment persistence.EquipmentRepository
	users     persistence.UserRepository
}

// NewEquipmentService constructs an equipment service with the provided dependencies.
func NewEquipmentService(equipment persistence.EquipmentRepository, users persistence.UserRepository, idGenerator func() string, now func() time.Time) *EquipmentService {
	return NewEquipmentServiceWithLogger(equipment, users, idGenerator, now, nil)
}

// NewEquipmentServiceWithLogger constructs an equipment service with a specified logger.
func NewEquipmentServiceWithLogger(equipment persistence.EquipmentRepository, users persistence.UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EquipmentService {
	return &EquipmentService{
		serviceBase: newServiceBase("EquipmentService", idGenerator, now, logger),
		equipment:   equipment,
		users:       users,
	}
}

func (s *EquipmentService) ready() error {
	if s == nil {
		return fmt.Errorf("EquipmentService is nil")
	}
	if s.equipment == nil || s.users == nil {
		return fmt.Errorf("equipment repositories not configured")
	}
	return nil
}

// Create validates input and persists new equipment.
func (s *EquipmentService) Create(ctx context.Context, params CreateEquipmentParams) (equipment domain.Equipment, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Create", time.Now())
	logger := s.loggerWith(ctx, "Create", "principal_id", params.Principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create equipment", "equipment created", "equipment_id", equipment.ID())
	}()

	in := params.Input
	in.ID = s.idGenerator()
	if equipment, err = domain.NewEquipment(in); err != nil {
		return
	}
	if err = authorize(params.Principal, permission.CanManageEquipment(params.Principal)); err != nil {
		return
	}
	if err = s.ensureActiveUsers(ctx, equipment); err != nil {
		return
	}
	err = mapRepoError("save equipment", s.equipment.Save(ctx, equipment))
	return
}

// Update replaces the descriptive attributes of equipment, keeping its
// administrator and vice administrators.
func (s *EquipmentService) Update(ctx context.Context, params UpdateEquipmentParams) (equipment domain.Equipment, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Update", time.Now())
	logger := s.loggerWith(ctx, "Update",
		"principal_id", params.Principal.UserID,
		"equipment_id", params.EquipmentID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update equipment", "equipment updated")
	}()

	in := params.Input
	in.ID = params.EquipmentID
	in.AdministratorID = nil
	in.ViceAdministratorIDs = nil
	if _, err = domain.NewEquipment(in); err != nil {
		return
	}
	if err = authorize(params.Principal, permission.CanManageEquipment(params.Principal)); err != nil {
		return
	}

	var existing domain.Equipment
	if existing, err = findRequired(ctx, s.equipment.FindByID, params.EquipmentID, "find equipment"); err != nil {
		return
	}
	current := existing.Input()
	in.AdministratorID = current.AdministratorID
	in.ViceAdministratorIDs = current.ViceAdministratorIDs
	if equipment, err = domain.NewEquipment(in); err != nil {
		return
	}
	err = mapRepoError("save equipment", s.equipment.Save(ctx, equipment))
	return
}

// UpdateManagement reassigns the administrator and vice administrators and
// optionally changes the running state. Elevated users and the current
// managers of the equipment may do this.
func (s *EquipmentService) UpdateManagement(ctx context.Context, params UpdateManagementParams) (equipment domain.Equipment, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("UpdateManagement", time.Now())
	logger := s.loggerWith(ctx, "UpdateManagement",
		"principal_id", params.Principal.UserID,
		"equipment_id", params.EquipmentID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update equipment management", "equipment management updated",
			"vice_administrator_count", len(equipment.ViceAdministratorIDs()))
	}()

	if err = authorize(params.Principal, true); err != nil {
		return
	}

	var existing domain.Equipment
	if existing, err = findRequired(ctx, s.equipment.FindByID, params.EquipmentID, "find equipment"); err != nil {
		return
	}
	if equipment, err = existing.WithManagement(params.AdministratorID, params.ViceAdministratorIDs); err != nil {
		return
	}
	if params.RunningState != nil {
		if equipment, err = equipment.WithRunningState(*params.RunningState); err != nil {
			return
		}
	}
	if err = authorize(params.Principal, permission.CanEditEquipmentManagement(params.Principal, existing)); err != nil {
		return
	}
	if err = s.ensureActiveUsers(ctx, equipment); err != nil {
		return
	}
	err = mapRepoError("save equipment", s.equipment.Save(ctx, equipment))
	return
}

// Delete removes equipment together with its reservations, maintenance
// records and comments.
func (s *EquipmentService) Delete(ctx context.Context, principal Principal, equipmentID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Delete", time.Now())
	logger := s.loggerWith(ctx, "Delete",
		"principal_id", principal.UserID,
		"equipment_id", equipmentID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete equipment", "equipment deleted")
	}()

	if err = authorize(principal, permission.CanManageEquipment(principal)); err != nil {
		return
	}
	err = mapRepoError("delete equipment", s.equipment.Delete(ctx, equipmentID))
	return
}

// Get returns equipment with its managers resolved for display.
func (s *EquipmentService) Get(ctx context.Context, principal Principal, equipmentID string) (EquipmentView, error) {
	if err := s.ready(); err != nil {
		return EquipmentView{}, err
	}
	if err := authorize(principal, true); err != nil {
		return EquipmentView{}, err
	}
	equipment, err := findRequired(ctx, s.equipment.FindByID, equipmentID, "find equipment")
	if err != nil {
		return EquipmentView{}, err
	}
	return s.view(ctx, equipment)
}

// List returns all equipment ordered by name.
func (s *EquipmentService) List(ctx context.Context, principal Principal) (equipment []domain.Equipment, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "List", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list equipment", "equipment listed", "result_count", len(equipment))
	}()

	if err = authorize(principal, true); err != nil {
		return
	}
	equipment, err = s.equipment.FindAll(ctx)
	err = mapRepoError("list equipment", err)
	return
}

// ListByRoom returns the equipment placed in a room.
func (s *EquipmentService) ListByRoom(ctx context.Context, principal Principal, roomID string) ([]domain.Equipment, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := authorize(principal, true); err != nil {
		return nil, err
	}
	equipment, err := s.equipment.FindByRoomID(ctx, roomID)
	return equipment, mapRepoError("list equipment by room", err)
}

// RecentlyUsed returns the equipment the principal reserved most recently.
func (s *EquipmentService) RecentlyUsed(ctx context.Context, principal Principal, limit int) ([]domain.Equipment, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := authorize(principal, true); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRecentlyUsedLimit
	}
	equipment, err := s.equipment.FindRecentlyUsedByUserID(ctx, principal.UserID, limit)
	return equipment, mapRepoError("list recently used equipment", err)
}

// ensureActiveUsers rejects assignments naming unknown or deleted users.
func (s *EquipmentService) ensureActiveUsers(ctx context.Context, equipment domain.Equipment) error {
	ids := equipment.ViceAdministratorIDs()
	if admin, ok := equipment.AdministratorID(); ok {
		ids = append(ids, admin)
	}
	for _, id := range ids {
		user, found, err := s.users.FindByID(ctx, id)
		if err != nil {
			return mapRepoError("find user", err)
		}
		if !found || user.Deleted() {
			return fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
	}
	return nil
}

func (s *EquipmentService) view(ctx context.Context, equipment domain.Equipment) (EquipmentView, error) {
	view := EquipmentView{Equipment: equipment}
	if admin, ok := equipment.AdministratorID(); ok {
		user, found, err := s.users.FindByID(ctx, admin)
		if err != nil {
			return EquipmentView{}, mapRepoError("find user", err)
		}
		if found && !user.Deleted() {
			summary := summarizeUser(user)
			view.Administrator = &summary
		}
	}
	for _, id := range equipment.ViceAdministratorIDs() {
		user, found, err := s.users.FindByID(ctx, id)
		if err != nil {
			return EquipmentView{}, mapRepoError("find user", err)
		}
		if found && !user.Deleted() {
			view.ViceAdministrators = append(view.ViceAdministrators, summarizeUser(user))
		}
	}
	return view, nil
}

// CategoryService manages the equipment category catalog.
type CategoryService struct {
	serviceBase
	categories persistence.CategoryRepository
}

// NewCategoryService constructs a category service with the provided dependencies.
func NewCategoryService(categories persistence.CategoryRepository, idGenerator func() string, now func() time.Time) *CategoryService {
	return NewCategoryServiceWithLogger(categories, idGenerator, now, nil)
}

// NewCategoryServiceWithLogger constructs a category service with a specified logger.
func NewCategoryServiceWithLogger(categories persistence.CategoryRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CategoryService {
	return &CategoryService{
		serviceBase: newServiceBase("CategoryService", idGenerator, now, logger),
		categories:  categories,
	}
}

func (s *CategoryService) ready() error {
	if s == nil {
		return fmt.Errorf("CategoryService is nil")
	}
	if s.categories == nil {
		return fmt.Errorf("category repository not configured")
	}
	return nil
}

// Create adds a (major, minor) pair to the catalog. Pairs are unique ignoring case.
func (s *CategoryService) Create(ctx context.Context, params CreateCategoryParams) (category domain.EquipmentCategory, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Create", time.Now())
	logger := s.loggerWith(ctx, "Create", "principal_id", params.Principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create category", "category created", "category_id", category.ID())
	}()

	in := params.Input
	in.ID = s.idGenerator()
	if category, err = domain.NewEquipmentCategory(in); err != nil {
		return
	}
	if err = authorize(params.Principal, permission.CanManageCategories(params.Principal)); err != nil {
		return
	}
	if err = s.ensureUnique(ctx, category); err != nil {
		return
	}
	err = mapRepoError("save category", s.categories.Save(ctx, category))
	return
}

// Update renames a category.
func (s *CategoryService) Update(ctx context.Context, params UpdateCategoryParams) (category domain.EquipmentCategory, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Update", time.Now())
	logger := s.loggerWith(ctx, "Update",
		"principal_id", params.Principal.UserID,
		"category_id", params.CategoryID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update category", "category updated")
	}()

	in := params.Input
	in.ID = params.CategoryID
	if category, err = domain.NewEquipmentCategory(in); err != nil {
		return
	}
	if err = authorize(params.Principal, permission.CanManageCategories(params.Principal)); err != nil {
		return
	}
	if _, err = findRequired(ctx, s.categories.FindByID, params.CategoryID, "find category"); err != nil {
		return
	}
	if err = s.ensureUnique(ctx, category); err != nil {
		return
	}
	err = mapRepoError("save category", s.categories.Save(ctx, category))
	return
}

// Delete removes a category from the catalog. Equipment keeps its copy of
// the category names.
func (s *CategoryService) Delete(ctx context.Context, principal Principal, categoryID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("Delete", time.Now())
	logger := s.loggerWith(ctx, "Delete",
		"principal_id", principal.UserID,
		"category_id", categoryID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete category", "category deleted")
	}()

	if err = authorize(principal, permission.CanManageCategories(principal)); err != nil {
		return
	}
	err = mapRepoError("delete category", s.categories.Delete(ctx, categoryID))
	return
}

// List returns the catalog ordered by major then minor category.
func (s *CategoryService) List(ctx context.Context, principal Principal) ([]domain.EquipmentCategory, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := authorize(principal, true); err != nil {
		return nil, err
	}
	categories, err := s.categories.FindAll(ctx)
	return categories, mapRepoError("list categories", err)
}

func (s *CategoryService) ensureUnique(ctx context.Context, category domain.EquipmentCategory) error {
	existing, found, err := s.categories.FindByCategory(ctx, category.CategoryMajor(), category.CategoryMinor())
	if err != nil {
		return mapRepoError("find category", err)
	}
	if found && existing.ID() != category.ID() {
		return ErrAlreadyExists
	}
	return nil
}
