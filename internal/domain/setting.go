package domain

import "time"

// SettingTimezone names the setting holding the display timezone.
const SettingTimezone = "timezone"

// SettingInput carries raw system setting attributes.
type SettingInput struct {
	ID        string
	Key       string
	Value     string
	UpdatedAt time.Time
	UpdatedBy *string
}

// SystemSetting is a single key/value configuration row.
type SystemSetting struct {
	id        string
	key       string
	value     string
	updatedAt time.Time
	updatedBy optional[string]
}

// NewSystemSetting validates input and returns a SystemSetting.
func NewSystemSetting(in SettingInput) (SystemSetting, error) {
	if !ValidID(in.ID) {
		return SystemSetting{}, invalid("id", MsgInvalidSettingID)
	}
	key, ok := required(in.Key)
	if !ok {
		return SystemSetting{}, invalid("key", MsgSettingKeyRequired)
	}
	updatedBy, ok := optionalID(in.UpdatedBy)
	if !ok {
		return SystemSetting{}, invalid("updated_by", MsgInvalidUpdatedBy)
	}
	return SystemSetting{
		id:        in.ID,
		key:       key,
		value:     in.Value,
		updatedAt: in.UpdatedAt.UTC(),
		updatedBy: updatedBy,
	}, nil
}

func (s SystemSetting) ID() string           { return s.id }
func (s SystemSetting) Key() string          { return s.key }
func (s SystemSetting) Value() string        { return s.value }
func (s SystemSetting) UpdatedAt() time.Time { return s.updatedAt }

// UpdatedBy returns the id of the user who last changed the setting, if known.
func (s SystemSetting) UpdatedBy() (string, bool) { return s.updatedBy.get() }

// Input returns the raw attributes the setting was built from.
func (s SystemSetting) Input() SettingInput {
	return SettingInput{
		ID:        s.id,
		Key:       s.key,
		Value:     s.value,
		UpdatedAt: s.updatedAt,
		UpdatedBy: s.updatedBy.ptr(),
	}
}
