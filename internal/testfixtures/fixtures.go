package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/permission"
)

var (
	userCounter        uint64
	buildingCounter    uint64
	floorCounter       uint64
	roomCounter        uint64
	equipmentCounter   uint64
	categoryCounter    uint64
	reservationCounter uint64
	maintenanceCounter uint64
	commentCounter     uint64
	settingCounter     uint64
)

var referenceTime = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("testfixtures: invalid fixture: %v", err))
	}
	return v
}

// ----------------------------- User fixtures -----------------------------

// UserFixture is a deterministic user that can be materialised as a domain
// value or a principal.
type UserFixture struct {
	Input domain.UserInput
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a GENERAL user with a unique id and email.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{Input: domain.UserInput{
		ID:           ID("user", idx),
		Email:        fmt.Sprintf("user-%03d@example.com", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Name:         domain.StringPtr(fmt.Sprintf("User %03d", idx)),
		Role:         string(domain.RoleGeneral),
		CreatedAt:    created,
		UpdatedAt:    created,
	}}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the identifier.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) { f.Input.ID = id }
}

// WithUserEmail overrides the email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Input.Email = email }
}

// WithUserName sets the name.
func WithUserName(name string) UserOption {
	return func(f *UserFixture) { f.Input.Name = domain.StringPtr(name) }
}

// WithUserDisplayName sets the display name.
func WithUserDisplayName(name string) UserOption {
	return func(f *UserFixture) { f.Input.DisplayName = domain.StringPtr(name) }
}

// WithUserPasswordHash overrides the stored password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) { f.Input.PasswordHash = hash }
}

// WithUserRole overrides the role.
func WithUserRole(role domain.Role) UserOption {
	return func(f *UserFixture) { f.Input.Role = string(role) }
}

// WithUserTimestamps overrides the creation and update times.
func WithUserTimestamps(created, updated time.Time) UserOption {
	return func(f *UserFixture) {
		f.Input.CreatedAt = created
		f.Input.UpdatedAt = updated
	}
}

// WithUserDeletedAt marks the user as soft-deleted.
func WithUserDeletedAt(t time.Time) UserOption {
	return func(f *UserFixture) { f.Input.DeletedAt = domain.TimePtr(t) }
}

// Domain builds the domain user. It panics on invalid input.
func (f UserFixture) Domain() domain.User {
	return must(domain.NewUser(f.Input))
}

// Principal returns the principal acting as this user.
func (f UserFixture) Principal() permission.Principal {
	role, _ := domain.ParseRole(f.Input.Role)
	return permission.Principal{UserID: f.Input.ID, Role: role, Email: f.Input.Email}
}

// ------------------------- Location fixtures -----------------------------

// BuildingOption configures a building input.
type BuildingOption func(*domain.BuildingInput)

// NewBuilding returns a building named "Building NNN".
func NewBuilding(opts ...BuildingOption) domain.Building {
	idx := atomic.AddUint64(&buildingCounter, 1)
	in := domain.BuildingInput{ID: ID("building", idx), Name: fmt.Sprintf("Building %03d", idx)}
	for _, opt := range opts {
		opt(&in)
	}
	return must(domain.NewBuilding(in))
}

// WithBuildingName overrides the building name.
func WithBuildingName(name string) BuildingOption {
	return func(in *domain.BuildingInput) { in.Name = name }
}

// WithBuildingAddress sets the address.
func WithBuildingAddress(address string) BuildingOption {
	return func(in *domain.BuildingInput) { in.Address = domain.StringPtr(address) }
}

// FloorOption configures a floor input.
type FloorOption func(*domain.FloorInput)

// NewFloor returns an unnumbered floor of buildingID.
func NewFloor(buildingID string, opts ...FloorOption) domain.Floor {
	idx := atomic.AddUint64(&floorCounter, 1)
	in := domain.FloorInput{ID: ID("floor", idx), Name: fmt.Sprintf("Floor %03d", idx), BuildingID: buildingID}
	for _, opt := range opts {
		opt(&in)
	}
	return must(domain.NewFloor(in))
}

// WithFloorName overrides the floor name.
func WithFloorName(name string) FloorOption {
	return func(in *domain.FloorInput) { in.Name = name }
}

// WithFloorNumber sets the floor number.
func WithFloorNumber(n int) FloorOption {
	return func(in *domain.FloorInput) { in.FloorNumber = domain.IntPtr(n) }
}

// RoomOption configures a room input.
type RoomOption func(*domain.RoomInput)

// NewRoom returns a room on floorID.
func NewRoom(floorID string, opts ...RoomOption) domain.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	in := domain.RoomInput{ID: ID("room", idx), Name: fmt.Sprintf("Room %03d", idx), FloorID: floorID}
	for _, opt := range opts {
		opt(&in)
	}
	return must(domain.NewRoom(in))
}

// WithRoomName overrides the room name.
func WithRoomName(name string) RoomOption {
	return func(in *domain.RoomInput) { in.Name = name }
}

// WithRoomCapacity sets the capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(in *domain.RoomInput) { in.Capacity = domain.IntPtr(capacity) }
}

// ------------------------ Equipment fixtures -----------------------------

// EquipmentOption configures an equipment input.
type EquipmentOption func(*domain.EquipmentInput)

// NewEquipment returns operational, unplaced equipment without managers.
func NewEquipment(opts ...EquipmentOption) domain.Equipment {
	idx := atomic.AddUint64(&equipmentCounter, 1)
	in := domain.EquipmentInput{ID: ID("equipment", idx), Name: fmt.Sprintf("Equipment %03d", idx)}
	for _, opt := range opts {
		opt(&in)
	}
	return must(domain.NewEquipment(in))
}

// WithEquipmentID overrides the identifier.
func WithEquipmentID(id string) EquipmentOption {
	return func(in *domain.EquipmentInput) { in.ID = id }
}

// WithEquipmentName overrides the name.
func WithEquipmentName(name string) EquipmentOption {
	return func(in *domain.EquipmentInput) { in.Name = name }
}

// WithEquipmentRoom places the equipment in roomID.
func WithEquipmentRoom(roomID string) EquipmentOption {
	return func(in *domain.EquipmentInput) { in.RoomID = domain.StringPtr(roomID) }
}

// WithEquipmentCategory sets the category pair.
func WithEquipmentCategory(major, minor string) EquipmentOption {
	return func(in *domain.EquipmentInput) {
		in.CategoryMajor = domain.StringPtr(major)
		in.CategoryMinor = domain.StringPtr(minor)
	}
}

// WithEquipmentState sets the running state.
func WithEquipmentState(state domain.RunningState) EquipmentOption {
	return func(in *domain.EquipmentInput) { in.RunningState = string(state) }
}

// WithEquipmentManagers sets the administrator and vice administrators.
func WithEquipmentManagers(administratorID string, vice ...string) EquipmentOption {
	return func(in *domain.EquipmentInput) {
		in.AdministratorID = domain.StringPtr(administratorID)
		in.ViceAdministratorIDs = vice
	}
}

// WithEquipmentInstallationDate sets the installation date.
func WithEquipmentInstallationDate(t time.Time) EquipmentOption {
	return func(in *domain.EquipmentInput) { in.InstallationDate = domain.TimePtr(t) }
}

// NewCategory returns a category for the (major, minor) pair.
func NewCategory(major, minor string) domain.EquipmentCategory {
	idx := atomic.AddUint64(&categoryCounter, 1)
	return must(domain.NewEquipmentCategory(domain.CategoryInput{
		ID:            ID("category", idx),
		CategoryMajor: major,
		CategoryMinor: minor,
	}))
}

// ----------------------- Reservation fixtures ----------------------------

// ReservationOption configures a reservation input.
type ReservationOption func(*domain.ReservationInput)

// NewReservation returns a one hour reservation starting at ReferenceTime.
func NewReservation(equipmentID, userID string, opts ...ReservationOption) domain.Reservation {
	idx := atomic.AddUint64(&reservationCounter, 1)
	in := domain.ReservationInput{
		ID:          ID("reservation", idx),
		StartTime:   referenceTime,
		EndTime:     referenceTime.Add(time.Hour),
		UserID:      userID,
		EquipmentID: equipmentID,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return must(domain.NewReservation(in))
}

// WithReservationID overrides the identifier.
func WithReservationID(id string) ReservationOption {
	return func(in *domain.ReservationInput) { in.ID = id }
}

// WithReservationWindow sets the reserved window.
func WithReservationWindow(start, end time.Time) ReservationOption {
	return func(in *domain.ReservationInput) {
		in.StartTime = start
		in.EndTime = end
	}
}

// WithReservationComment sets the comment.
func WithReservationComment(comment string) ReservationOption {
	return func(in *domain.ReservationInput) { in.Comment = domain.StringPtr(comment) }
}

// ------------------------ Activity fixtures ------------------------------

// NewMaintenanceRecord returns a record dated at recordDate.
func NewMaintenanceRecord(equipmentID, performedBy string, recordDate time.Time, cost *int) domain.MaintenanceRecord {
	idx := atomic.AddUint64(&maintenanceCounter, 1)
	return must(domain.NewMaintenanceRecord(domain.MaintenanceInput{
		ID:          ID("maintenance", idx),
		EquipmentID: equipmentID,
		RecordDate:  recordDate,
		Description: fmt.Sprintf("Service %03d", idx),
		PerformedBy: performedBy,
		Cost:        cost,
	}))
}

// NewComment returns a comment created at createdAt.
func NewComment(equipmentID, userID, content string, createdAt time.Time) domain.EquipmentComment {
	idx := atomic.AddUint64(&commentCounter, 1)
	return must(domain.NewEquipmentComment(domain.CommentInput{
		ID:          ID("comment", idx),
		EquipmentID: equipmentID,
		UserID:      userID,
		Content:     content,
		CreatedAt:   createdAt,
	}))
}

// NewSetting returns a setting without an author.
func NewSetting(key, value string, updatedAt time.Time) domain.SystemSetting {
	return must(domain.NewSystemSetting(domain.SettingInput{
		ID:        ID("setting", atomic.AddUint64(&settingCounter, 1)),
		Key:       key,
		Value:     value,
		UpdatedAt: updatedAt,
	}))
}
