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

// LocationService manages the building, floor and room hierarchy. Mutations
// are reserved for administrators; any authenticated user may read.
type LocationService struct {
	serviceBase
	buildings persistence.BuildingRepository
	floors    persistence.FloorRepository
	rooms     persistence.RoomRepository
}

// NewLocationService constructs a location service with the provided dependencies.
func NewLocationService(buildings persistence.BuildingRepository, floors persistence.FloorRepository, rooms persistence.RoomRepository, idGenerator func() string, now func() time.Time) *LocationService {
	return NewLocationServiceWithLogger(buildings, floors, rooms, idGenerator, now, nil)
}

// NewLocationServiceWithLogger constructs a location service with a specified logger.
func NewLocationServiceWithLogger(buildings persistence.BuildingRepository, floors persistence.FloorRepository, rooms persistence.RoomRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *LocationService {
	return &LocationService{
		serviceBase: newServiceBase("LocationService", idGenerator, now, logger),
		buildings:   buildings,
		floors:      floors,
		rooms:       rooms,
	}
}

func (s *LocationService) ready() error {
	if s == nil {
		return fmt.Errorf("LocationService is nil")
	}
	if s.buildings == nil || s.floors == nil || s.rooms == nil {
		return fmt.Errorf("location repositories not configured")
	}
	return nil
}

// CreateBuilding validates input and persists a new building.
func (s *LocationService) CreateBuilding(ctx context.Context, params CreateBuildingParams) (building domain.Building, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("CreateBuilding", time.Now())
	logger := s.loggerWith(ctx, "CreateBuilding", "principal_id", params.Principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create building", "building created", "building_id", building.ID())
	}()

	in := params.Input
	in.ID = s.idGenerator()
	if building, err = domain.NewBuilding(in); err != nil {
		return
	}
	if err = authorize(params.Principal, permission.CanManageBuildings(params.Principal)); err != nil {
		return
	}
	err = mapRepoError("save building", s.buildings.Save(ctx, building))
	return
}

// UpdateBuilding replaces the attributes of an existing building.
func (s *LocationService) UpdateBuilding(ctx context.Context, params UpdateBuildingParams) (building domain.Building, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("UpdateBuilding", time.Now())
	logger := s.loggerWith(ctx, "UpdateBuilding",
		"principal_id", params.Principal.UserID,
		"building_id", params.BuildingID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update building", "building updated")
	}()

	in := params.Input
	in.ID = params.BuildingID
	if building, err = domain.NewBuilding(in); err != nil {
		return
	}
	if err = authorize(params.Principal, permission.CanManageBuildings(params.Principal)); err != nil {
		return
	}
	if _, err = findRequired(ctx, s.buildings.FindByID, params.BuildingID, "find building"); err != nil {
		return
	}
	err = mapRepoError("save building", s.buildings.Save(ctx, building))
	return
}

// DeleteBuilding removes a building together with its floors and rooms.
func (s *LocationService) DeleteBuilding(ctx context.Context, principal Principal, buildingID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("DeleteBuilding", time.Now())
	logger := s.loggerWith(ctx, "DeleteBuilding",
		"principal_id", principal.UserID,
		"building_id", buildingID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete building", "building deleted")
	}()

	if err = authorize(principal, permission.CanManageBuildings(principal)); err != nil {
		return
	}
	err = mapRepoError("delete building", s.buildings.Delete(ctx, buildingID))
	return
}

// GetBuilding returns a single building.
func (s *LocationService) GetBuilding(ctx context.Context, principal Principal, buildingID string) (domain.Building, error) {
	if err := s.ready(); err != nil {
		return domain.Building{}, err
	}
	if err := authorize(principal, true); err != nil {
		return domain.Building{}, err
	}
	return findRequired(ctx, s.buildings.FindByID, buildingID, "find building")
}

// ListBuildings returns every building ordered by name.
func (s *LocationService) ListBuildings(ctx context.Context, principal Principal) (buildings []domain.Building, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "ListBuildings", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list buildings", "buildings listed", "result_count", len(buildings))
	}()

	if err = authorize(principal, true); err != nil {
		return
	}
	buildings, err = s.buildings.FindAll(ctx)
	err = mapRepoError("list buildings", err)
	return
}

// CreateFloor validates input and persists a new floor of an existing building.
func (s *LocationService) CreateFloor(ctx context.Context, params CreateFloorParams) (floor domain.Floor, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("CreateFloor", time.Now())
	logger := s.loggerWith(ctx, "CreateFloor",
		"principal_id", params.Principal.UserID,
		"building_id", params.Input.BuildingID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create floor", "floor created", "floor_id", floor.ID())
	}()

	in := params.Input
	in.ID = s.idGenerator()
	if floor, err = domain.NewFloor(in); err != nil {
		return
	}
	if err = authorize(params.Principal, permission.CanManageBuildings(params.Principal)); err != nil {
		return
	}
	err = mapRepoError("save floor", s.floors.Save(ctx, floor))
	return
}

// UpdateFloor replaces the attributes of an existing floor.
func (s *LocationService) UpdateFloor(ctx context.Context, params UpdateFloorParams) (floor domain.Floor, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("UpdateFloor", time.Now())
	logger := s.loggerWith(ctx, "UpdateFloor",
		"principal_id", params.Principal.UserID,
		"floor_id", params.FloorID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update floor", "floor updated")
	}()

	in := params.Input
	in.ID = params.FloorID
	if floor, err = domain.NewFloor(in); err != nil {
		return
	}
	if err = authorize(params.Principal, permission.CanManageBuildings(params.Principal)); err != nil {
		return
	}
	if _, err = findRequired(ctx, s.floors.FindByID, params.FloorID, "find floor"); err != nil {
		return
	}
	err = mapRepoError("save floor", s.floors.Save(ctx, floor))
	return
}

// DeleteFloor removes a floor together with its rooms.
func (s *LocationService) DeleteFloor(ctx context.Context, principal Principal, floorID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("DeleteFloor", time.Now())
	logger := s.loggerWith(ctx, "DeleteFloor",
		"principal_id", principal.UserID,
		"floor_id", floorID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete floor", "floor deleted")
	}()

	if err = authorize(principal, permission.CanManageBuildings(principal)); err != nil {
		return
	}
	err = mapRepoError("delete floor", s.floors.Delete(ctx, floorID))
	return
}

// ListFloors returns the floors of a building, numbered floors first.
func (s *LocationService) ListFloors(ctx context.Context, principal Principal, buildingID string) ([]domain.Floor, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := authorize(principal, true); err != nil {
		return nil, err
	}
	if _, err := findRequired(ctx, s.buildings.FindByID, buildingID, "find building"); err != nil {
		return nil, err
	}
	floors, err := s.floors.FindByBuildingID(ctx, buildingID)
	return floors, mapRepoError("list floors", err)
}

// CreateRoom validates input and persists a new room on an existing floor.
func (s *LocationService) CreateRoom(ctx context.Context, params CreateRoomParams) (room domain.Room, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("CreateRoom", time.Now())
	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", params.Principal.UserID,
		"floor_id", params.Input.FloorID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create room", "room created", "room_id", room.ID())
	}()

	in := params.Input
	in.ID = s.idGenerator()
	if room, err = domain.NewRoom(in); err != nil {
		return
	}
	if err = authorize(params.Principal, permission.CanManageBuildings(params.Principal)); err != nil {
		return
	}
	err = mapRepoError("save room", s.rooms.Save(ctx, room))
	return
}

// UpdateRoom replaces the attributes of an existing room.
func (s *LocationService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room domain.Room, err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("UpdateRoom", time.Now())
	logger := s.loggerWith(ctx, "UpdateRoom",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to update room", "room updated")
	}()

	in := params.Input
	in.ID = params.RoomID
	if room, err = domain.NewRoom(in); err != nil {
		return
	}
	if err = authorize(params.Principal, permission.CanManageBuildings(params.Principal)); err != nil {
		return
	}
	if _, err = findRequired(ctx, s.rooms.FindByID, params.RoomID, "find room"); err != nil {
		return
	}
	err = mapRepoError("save room", s.rooms.Save(ctx, room))
	return
}

// DeleteRoom removes a room. Equipment placed in it becomes unplaced.
func (s *LocationService) DeleteRoom(ctx context.Context, principal Principal, roomID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}
	defer s.observe("DeleteRoom", time.Now())
	logger := s.loggerWith(ctx, "DeleteRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to delete room", "room deleted")
	}()

	if err = authorize(principal, permission.CanManageBuildings(principal)); err != nil {
		return
	}
	err = mapRepoError("delete room", s.rooms.Delete(ctx, roomID))
	return
}

// ListRooms returns the rooms of a floor ordered by name.
func (s *LocationService) ListRooms(ctx context.Context, principal Principal, floorID string) ([]domain.Room, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := authorize(principal, true); err != nil {
		return nil, err
	}
	if _, err := findRequired(ctx, s.floors.FindByID, floorID, "find floor"); err != nil {
		return nil, err
	}
	rooms, err := s.rooms.FindByFloorID(ctx, floorID)
	return rooms, mapRepoError("list rooms", err)
}

// findRequired turns a (value, found, error) lookup into ErrNotFound when the
// record is absent.
func findRequired[T any](ctx context.Context, find func(context.Context, string) (T, bool, error), id, op string) (T, error) {
	value, found, err := find(ctx, id)
	if err != nil {
		var zero T
		return zero, mapRepoError(op, err)
	}
	if !found {
		var zero T
		return zero, ErrNotFound
	}
	return value, nil
}
