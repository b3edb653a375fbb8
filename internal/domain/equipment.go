package domain

import (
	"slices"
	"strings"
	"time"
)

// EquipmentInput carries raw equipment attributes.
type EquipmentInput struct {
	ID                   string
	Name                 string
	Description          *string
	CategoryMajor        *string
	CategoryMinor        *string
	RoomID               *string
	RunningState         string
	InstallationDate     *time.Time
	AdministratorID      *string
	ViceAdministratorIDs []string
}

// Equipment is a bookable item, optionally placed in a Room and looked after
// by an administrator and any number of vice administrators.
type Equipment struct {
	id                   string
	name                 string
	description          optional[string]
	categoryMajor        optional[string]
	categoryMinor        optional[string]
	roomID               optional[string]
	runningState         RunningState
	installationDate     optional[time.Time]
	administratorID      optional[string]
	viceAdministratorIDs []string
}

// NewEquipment validates input and returns an Equipment. Duplicate vice
// administrator ids collapse to one entry.
func NewEquipment(in EquipmentInput) (Equipment, error) {
	if !ValidID(in.ID) {
		return Equipment{}, invalid("id", MsgInvalidEquipmentID)
	}
	name, ok := required(in.Name)
	if !ok {
		return Equipment{}, invalid("name", MsgEquipmentNameRequired)
	}
	roomID, ok := optionalID(in.RoomID)
	if !ok {
		return Equipment{}, invalid("room_id", MsgInvalidRoomID)
	}
	administratorID, ok := optionalID(in.AdministratorID)
	if !ok {
		return Equipment{}, invalid("administrator_id", MsgInvalidAdministratorID)
	}
	state, ok := ParseRunningState(in.RunningState)
	if !ok {
		return Equipment{}, invalid("running_state", MsgInvalidRunningState)
	}

	vice := make([]string, 0, len(in.ViceAdministratorIDs))
	for _, raw := range in.ViceAdministratorIDs {
		id := strings.TrimSpace(raw)
		if !ValidID(id) {
			return Equipment{}, invalid("vice_administrator_ids", MsgInvalidViceAdministratorID)
		}
		if !slices.Contains(vice, id) {
			vice = append(vice, id)
		}
	}

	return Equipment{
		id:                   in.ID,
		name:                 name,
		description:          optionalText(in.Description),
		categoryMajor:        optionalText(in.CategoryMajor),
		categoryMinor:        optionalText(in.CategoryMinor),
		roomID:               roomID,
		runningState:         state,
		installationDate:     optionalTime(in.InstallationDate),
		administratorID:      administratorID,
		viceAdministratorIDs: vice,
	}, nil
}

func (e Equipment) ID() string                 { return e.id }
func (e Equipment) Name() string               { return e.name }
func (e Equipment) RunningState() RunningState { return e.runningState }

func (e Equipment) Description() (string, bool)   { return e.description.get() }
func (e Equipment) CategoryMajor() (string, bool) { return e.categoryMajor.get() }
func (e Equipment) CategoryMinor() (string, bool) { return e.categoryMinor.get() }

// RoomID returns the room the equipment is located in, if any.
func (e Equipment) RoomID() (string, bool) { return e.roomID.get() }

// InstallationDate returns the UTC installation instant, if recorded.
func (e Equipment) InstallationDate() (time.Time, bool) { return e.installationDate.get() }

// AdministratorID returns the user responsible for the equipment, if any.
func (e Equipment) AdministratorID() (string, bool) { return e.administratorID.get() }

// ViceAdministratorIDs returns a copy of the vice administrator ids.
func (e Equipment) ViceAdministratorIDs() []string {
	return slices.Clone(e.viceAdministratorIDs)
}

// IsManagedBy reports whether userID is the administrator or one of the vice
// administrators.
func (e Equipment) IsManagedBy(userID string) bool {
	if userID == "" {
		return false
	}
	if admin, ok := e.administratorID.get(); ok && admin == userID {
		return true
	}
	return slices.Contains(e.viceAdministratorIDs, userID)
}

// Input returns the raw attributes the equipment was built from.
func (e Equipment) Input() EquipmentInput {
	return EquipmentInput{
		ID:                   e.id,
		Name:                 e.name,
		Description:          e.description.ptr(),
		CategoryMajor:        e.categoryMajor.ptr(),
		CategoryMinor:        e.categoryMinor.ptr(),
		RoomID:               e.roomID.ptr(),
		RunningState:         string(e.runningState),
		InstallationDate:     e.installationDate.ptr(),
		AdministratorID:      e.administratorID.ptr(),
		ViceAdministratorIDs: slices.Clone(e.viceAdministratorIDs),
	}
}

// WithManagement returns a copy with the management assignments replaced.
func (e Equipment) WithManagement(administratorID *string, viceAdministratorIDs []string) (Equipment, error) {
	in := e.Input()
	in.AdministratorID = administratorID
	in.ViceAdministratorIDs = viceAdministratorIDs
	return NewEquipment(in)
}

// WithRunningState returns a copy carrying the given running state.
func (e Equipment) WithRunningState(state string) (Equipment, error) {
	in := e.Input()
	in.RunningState = state
	return NewEquipment(in)
}

// CategoryInput carries raw category attributes.
type CategoryInput struct {
	ID            string
	CategoryMajor string
	CategoryMinor string
}

// EquipmentCategory is a (major, minor) classification pair.
type EquipmentCategory struct {
	id            string
	categoryMajor string
	categoryMinor string
}

// NewEquipmentCategory validates input and returns an EquipmentCategory.
func NewEquipmentCategory(in CategoryInput) (EquipmentCategory, error) {
	if !ValidID(in.ID) {
		return EquipmentCategory{}, invalid("id", MsgInvalidCategoryID)
	}
	major, ok := required(in.CategoryMajor)
	if !ok {
		return EquipmentCategory{}, invalid("category_major", MsgCategoryMajorRequired)
	}
	minor, ok := required(in.CategoryMinor)
	if !ok {
		return EquipmentCategory{}, invalid("category_minor", MsgCategoryMinorRequired)
	}
	return EquipmentCategory{id: in.ID, categoryMajor: major, categoryMinor: minor}, nil
}

func (c EquipmentCategory) ID() string            { return c.id }
func (c EquipmentCategory) CategoryMajor() string { return c.categoryMajor }
func (c EquipmentCategory) CategoryMinor() string { return c.categoryMinor }

// SameKey reports whether both categories share the (major, minor) pair,
// compared case-insensitively.
func (c EquipmentCategory) SameKey(other EquipmentCategory) bool {
	return strings.EqualFold(c.categoryMajor, other.categoryMajor) &&
		strings.EqualFold(c.categoryMinor, other.categoryMinor)
}

// Input returns the raw attributes the category was built from.
func (c EquipmentCategory) Input() CategoryInput {
	return CategoryInput{ID: c.id, CategoryMajor: c.categoryMajor, CategoryMinor: c.categoryMinor}
}
