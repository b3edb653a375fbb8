package application

import (
	"time"

	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/permission"
)

// Principal represents the authenticated user invoking a service method.
type Principal = permission.Principal

// Create and update parameters carry the domain input for the entity. The
// input ID is ignored: creation assigns a fresh identifier and updates use
// the identifier named by the params.

type CreateBuildingParams struct {
	Principal Principal
	Input     domain.BuildingInput
}

type UpdateBuildingParams struct {
	Principal  Principal
	BuildingID string
	Input      domain.BuildingInput
}

type CreateFloorParams struct {
	Principal Principal
	Input     domain.FloorInput
}

type UpdateFloorParams struct {
	Principal Principal
	FloorID   string
	Input     domain.FloorInput
}

type CreateRoomParams struct {
	Principal Principal
	Input     domain.RoomInput
}

type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     domain.RoomInput
}

type CreateEquipmentParams struct {
	Principal Principal
	Input     domain.EquipmentInput
}

// UpdateEquipmentParams replaces the descriptive attributes of equipment. The
// management assignments of the stored equipment are kept.
type UpdateEquipmentParams struct {
	Principal   Principal
	EquipmentID string
	Input       domain.EquipmentInput
}

// UpdateManagementParams reassigns the people responsible for equipment. A nil
// RunningState leaves the state unchanged.
type UpdateManagementParams struct {
	Principal            Principal
	EquipmentID          string
	AdministratorID      *string
	ViceAdministratorIDs []string
	RunningState         *string
}

type CreateCategoryParams struct {
	Principal Principal
	Input     domain.CategoryInput
}

type UpdateCategoryParams struct {
	Principal  Principal
	CategoryID string
	Input      domain.CategoryInput
}

// CreateReservationParams books equipment. Input.UserID is honoured only for
// elevated principals; everyone else books for themselves.
type CreateReservationParams struct {
	Principal Principal
	Input     domain.ReservationInput
}

// UpdateReservationParams moves a reservation and replaces its comment.
type UpdateReservationParams struct {
	Principal     Principal
	ReservationID string
	StartTime     time.Time
	EndTime       time.Time
	Comment       *string
}

// ListReservationsParams selects the reservations of one equipment that
// intersect [From, To).
type ListReservationsParams struct {
	Principal   Principal
	EquipmentID string
	From        time.Time
	To          time.Time
}

type CreateMaintenanceParams struct {
	Principal Principal
	Input     domain.MaintenanceInput
}

type UpdateMaintenanceParams struct {
	Principal Principal
	RecordID  string
	Input     domain.MaintenanceInput
}

type CreateCommentParams struct {
	Principal   Principal
	EquipmentID string
	Content     string
}

// RegisterUserParams carries a self-service registration. The role is
// always GENERAL except for the very first account.
type RegisterUserParams struct {
	Email       string
	Password    string
	Name        *string
	DisplayName *string
}

type UpdateProfileParams struct {
	Principal   Principal
	UserID      string
	Name        *string
	DisplayName *string
	// Password is changed only when non-empty.
	Password string
}

type ChangeRoleParams struct {
	Principal Principal
	UserID    string
	Role      string
}

type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult carries the issued bearer token.
type AuthenticateResult struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time
}

type SetSettingParams struct {
	Principal Principal
	Key       string
	Value     string
}

// UserSummary is the display projection of a user attached to other views.
type UserSummary struct {
	ID    string
	Email string
	Label string
}

func summarizeUser(u domain.User) UserSummary {
	return UserSummary{ID: u.ID(), Email: u.Email(), Label: u.Label()}
}

// EquipmentView composes equipment with the users that manage it. Managers
// whose accounts no longer resolve are omitted.
type EquipmentView struct {
	Equipment          domain.Equipment
	Administrator      *UserSummary
	ViceAdministrators []UserSummary
}
