package domain

// ValidationError reports the single field or cross-field invariant an entity
// factory rejected.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// Messages returned by the entity factories. Callers match on these to render
// field-addressable feedback.
const (
	MsgInvalidBuildingID          = "Invalid Building ID"
	MsgBuildingNameRequired       = "Building name is required"
	MsgInvalidFloorID             = "Invalid Floor ID"
	MsgFloorNameRequired          = "Floor name is required"
	MsgInvalidRoomID              = "Invalid Room ID"
	MsgRoomNameRequired           = "Room name is required"
	MsgInvalidEquipmentID         = "Invalid Equipment ID"
	MsgEquipmentNameRequired      = "Equipment name is required"
	MsgInvalidAdministratorID     = "Invalid Administrator ID"
	MsgInvalidRunningState        = "Invalid Running State"
	MsgInvalidViceAdministratorID = "Invalid Vice Administrator ID"
	MsgInvalidCategoryID          = "Invalid Category ID"
	MsgCategoryMajorRequired      = "Major category is required"
	MsgCategoryMinorRequired      = "Minor category is required"
	MsgInvalidReservationID       = "Invalid Reservation ID"
	MsgStartTimeRequired          = "Start time is required"
	MsgEndTimeRequired            = "End time is required"
	MsgInvalidUserID              = "Invalid User ID"
	MsgStartBeforeEnd             = "Start time must be before end time"
	MsgInvalidMaintenanceID       = "Invalid Maintenance Record ID"
	MsgDescriptionRequired        = "Description is required"
	MsgRecordDateRequired         = "Record date is required"
	MsgInvalidPerformedBy         = "Invalid Performed By User ID"
	MsgInvalidCost                = "Cost must be a non-negative integer"
	MsgInvalidCommentID           = "Invalid Comment ID"
	MsgCommentContentRequired     = "Comment content is required"
	MsgInvalidEmail               = "Invalid Email"
	MsgInvalidRole                = "Invalid Role"
	MsgInvalidSettingID           = "Invalid Setting ID"
	MsgSettingKeyRequired         = "Setting key is required"
	MsgInvalidUpdatedBy           = "Invalid Updated By User ID"
)
