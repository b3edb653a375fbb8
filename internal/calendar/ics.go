// Package calendar renders equipment reservations as iCalendar feeds.
package calendar

import (
	"io"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/example/equipment-reservation/internal/domain"
)

// ProductID identifies feeds produced by this service.
const ProductID = "-//equipment-reservation//calendar//EN"

const uidSuffix = "@equipment-reservation"

// Encode writes the reservations of equipment as an RFC 5545 calendar. Event
// times are written as UTC instants; loc only names the calendar's display
// timezone. generatedAt becomes every event's DTSTAMP.
func Encode(w io.Writer, equipment domain.Equipment, reservations []domain.Reservation, loc *time.Location, generatedAt time.Time) error {
	if loc == nil {
		loc = time.UTC
	}
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetName(equipment.Name())
	cal.SetXWRCalName(equipment.Name())
	cal.SetXWRTimezone(loc.String())

	for _, r := range reservations {
		if r.EquipmentID() != equipment.ID() {
			continue
		}
		event := cal.AddEvent(r.ID() + uidSuffix)
		event.SetDtStampTime(generatedAt.UTC())
		event.SetStartAt(r.StartTime().UTC())
		event.SetEndAt(r.EndTime().UTC())
		event.SetSummary(equipment.Name())
		if comment, ok := r.Comment(); ok {
			event.SetDescription(comment)
		}
	}
	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// ReservationID recovers the reservation id from an event UID written by
// Encode. ok is false for foreign UIDs.
func ReservationID(uid string) (id string, ok bool) {
	if len(uid) <= len(uidSuffix) || uid[len(uid)-len(uidSuffix):] != uidSuffix {
		return "", false
	}
	return uid[:len(uid)-len(uidSuffix)], true
}
