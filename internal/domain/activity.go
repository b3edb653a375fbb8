package domain

import "time"

// MaintenanceInput carries raw maintenance record attributes.
type MaintenanceInput struct {
	ID          string
	EquipmentID string
	RecordDate  time.Time
	Description string
	PerformedBy string
	Cost        *int
}

// MaintenanceRecord documents work performed on a piece of equipment.
type MaintenanceRecord struct {
	id          string
	equipmentID string
	recordDate  time.Time
	description string
	performedBy string
	cost        optional[int]
}

// NewMaintenanceRecord validates input and returns a MaintenanceRecord.
func NewMaintenanceRecord(in MaintenanceInput) (MaintenanceRecord, error) {
	if !ValidID(in.ID) {
		return MaintenanceRecord{}, invalid("id", MsgInvalidMaintenanceID)
	}
	description, ok := required(in.Description)
	if !ok {
		return MaintenanceRecord{}, invalid("description", MsgDescriptionRequired)
	}
	if in.RecordDate.IsZero() {
		return MaintenanceRecord{}, invalid("record_date", MsgRecordDateRequired)
	}
	if !ValidID(in.EquipmentID) {
		return MaintenanceRecord{}, invalid("equipment_id", MsgInvalidEquipmentID)
	}
	if !ValidID(in.PerformedBy) {
		return MaintenanceRecord{}, invalid("performed_by", MsgInvalidPerformedBy)
	}
	if in.Cost != nil && *in.Cost < 0 {
		return MaintenanceRecord{}, invalid("cost", MsgInvalidCost)
	}
	return MaintenanceRecord{
		id:          in.ID,
		equipmentID: in.EquipmentID,
		recordDate:  in.RecordDate.UTC(),
		description: description,
		performedBy: in.PerformedBy,
		cost:        optionalInt(in.Cost),
	}, nil
}

func (m MaintenanceRecord) ID() string            { return m.id }
func (m MaintenanceRecord) EquipmentID() string   { return m.equipmentID }
func (m MaintenanceRecord) RecordDate() time.Time { return m.recordDate }
func (m MaintenanceRecord) Description() string   { return m.description }
func (m MaintenanceRecord) PerformedBy() string   { return m.performedBy }

// Cost returns the recorded cost, if any.
func (m MaintenanceRecord) Cost() (int, bool) { return m.cost.get() }

// Input returns the raw attributes the record was built from.
func (m MaintenanceRecord) Input() MaintenanceInput {
	return MaintenanceInput{
		ID:          m.id,
		EquipmentID: m.equipmentID,
		RecordDate:  m.recordDate,
		Description: m.description,
		PerformedBy: m.performedBy,
		Cost:        m.cost.ptr(),
	}
}

// CommentInput carries raw comment attributes.
type CommentInput struct {
	ID          string
	EquipmentID string
	UserID      string
	Content     string
	CreatedAt   time.Time
}

// EquipmentComment is a note left by a user on a piece of equipment.
type EquipmentComment struct {
	id          string
	equipmentID string
	userID      string
	content     string
	createdAt   time.Time
}

// NewEquipmentComment validates input and returns an EquipmentComment.
func NewEquipmentComment(in CommentInput) (EquipmentComment, error) {
	if !ValidID(in.ID) {
		return EquipmentComment{}, invalid("id", MsgInvalidCommentID)
	}
	content, ok := required(in.Content)
	if !ok {
		return EquipmentComment{}, invalid("content", MsgCommentContentRequired)
	}
	if !ValidID(in.EquipmentID) {
		return EquipmentComment{}, invalid("equipment_id", MsgInvalidEquipmentID)
	}
	if !ValidID(in.UserID) {
		return EquipmentComment{}, invalid("user_id", MsgInvalidUserID)
	}
	return EquipmentComment{
		id:          in.ID,
		equipmentID: in.EquipmentID,
		userID:      in.UserID,
		content:     content,
		createdAt:   in.CreatedAt.UTC(),
	}, nil
}

func (c EquipmentComment) ID() string           { return c.id }
func (c EquipmentComment) EquipmentID() string  { return c.equipmentID }
func (c EquipmentComment) UserID() string       { return c.userID }
func (c EquipmentComment) Content() string      { return c.content }
func (c EquipmentComment) CreatedAt() time.Time { return c.createdAt }

// Input returns the raw attributes the comment was built from.
func (c EquipmentComment) Input() CommentInput {
	return CommentInput{
		ID:          c.id,
		EquipmentID: c.equipmentID,
		UserID:      c.userID,
		Content:     c.content,
		CreatedAt:   c.createdAt,
	}
}
