package domain

import "time"

// ReservationInput carries raw reservation attributes.
type ReservationInput struct {
	ID          string
	StartTime   time.Time
	EndTime     time.Time
	Comment     *string
	UserID      string
	EquipmentID string
}

// Reservation books equipment for the half-open window [StartTime, EndTime).
// Both instants are held in UTC.
type Reservation struct {
	id          string
	startTime   time.Time
	endTime     time.Time
	comment     optional[string]
	userID      string
	equipmentID string
}

// TimePrecision is the resolution reservation instants are kept at. It matches
// what the stores can persist.
const TimePrecision = time.Microsecond

// NewReservation validates input and returns a Reservation. Instants are
// truncated to TimePrecision before the window is checked, so the start must
// be strictly before the end at that resolution.
func NewReservation(in ReservationInput) (Reservation, error) {
	if !ValidID(in.ID) {
		return Reservation{}, invalid("id", MsgInvalidReservationID)
	}
	if in.StartTime.IsZero() {
		return Reservation{}, invalid("start_time", MsgStartTimeRequired)
	}
	if in.EndTime.IsZero() {
		return Reservation{}, invalid("end_time", MsgEndTimeRequired)
	}
	if !ValidID(in.UserID) {
		return Reservation{}, invalid("user_id", MsgInvalidUserID)
	}
	if !ValidID(in.EquipmentID) {
		return Reservation{}, invalid("equipment_id", MsgInvalidEquipmentID)
	}
	start := in.StartTime.UTC().Truncate(TimePrecision)
	end := in.EndTime.UTC().Truncate(TimePrecision)
	if !start.Before(end) {
		return Reservation{}, invalid("start_time", MsgStartBeforeEnd)
	}
	return Reservation{
		id:          in.ID,
		startTime:   start,
		endTime:     end,
		comment:     optionalText(in.Comment),
		userID:      in.UserID,
		equipmentID: in.EquipmentID,
	}, nil
}

func (r Reservation) ID() string           { return r.id }
func (r Reservation) StartTime() time.Time { return r.startTime }
func (r Reservation) EndTime() time.Time   { return r.endTime }
func (r Reservation) UserID() string       { return r.userID }
func (r Reservation) EquipmentID() string  { return r.equipmentID }

// Comment returns the booker's note, if any.
func (r Reservation) Comment() (string, bool) { return r.comment.get() }

// Input returns the raw attributes the reservation was built from.
func (r Reservation) Input() ReservationInput {
	return ReservationInput{
		ID:          r.id,
		StartTime:   r.startTime,
		EndTime:     r.endTime,
		Comment:     r.comment.ptr(),
		UserID:      r.userID,
		EquipmentID: r.equipmentID,
	}
}

// WithWindow returns a copy booked for the new window.
func (r Reservation) WithWindow(start, end time.Time) (Reservation, error) {
	in := r.Input()
	in.StartTime = start
	in.EndTime = end
	return NewReservation(in)
}
