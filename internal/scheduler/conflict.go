package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/example/equipment-reservation/internal/domain"
)

// Window is a half-open interval [Start, End) of absolute instants.
type Window struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the window has a strictly positive length.
func (w Window) Valid() bool {
	return w.Start.Before(w.End)
}

// Overlaps reports whether w and other intersect. Windows that only share a
// boundary do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Booking is the slice of a reservation the detector needs.
type Booking struct {
	ID          string
	EquipmentID string
	Window      Window
}

// BookingFromReservation projects a reservation into a Booking.
func BookingFromReservation(r domain.Reservation) Booking {
	return Booking{
		ID:          r.ID(),
		EquipmentID: r.EquipmentID(),
		Window:      Window{Start: r.StartTime(), End: r.EndTime()},
	}
}

// Conflict details an existing booking that overlaps the candidate.
type Conflict struct {
	WithReservationID string
	EquipmentID       string
	Window            Window
}

// DetectConflicts returns the bookings in existing that overlap candidate on the
// same equipment. A booking sharing the candidate's id is the candidate's own
// stored version and is skipped.
func DetectConflicts(existing []Booking, candidate Booking) []Conflict {
	var conflicts []Conflict
	for _, b := range existing {
		if b.EquipmentID != candidate.EquipmentID {
			continue
		}
		if candidate.ID != "" && b.ID == candidate.ID {
			continue
		}
		if !b.Window.Overlaps(candidate.Window) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			WithReservationID: b.ID,
			EquipmentID:       b.EquipmentID,
			Window:            b.Window,
		})
	}
	return conflicts
}

// ReservationFinder retrieves the reservations of one equipment intersecting a
// time range.
type ReservationFinder interface {
	FindByEquipmentAndDateRange(ctx context.Context, equipmentID string, from, to time.Time) ([]domain.Reservation, error)
}

// Detector checks candidate windows against stored reservations.
type Detector struct {
	finder ReservationFinder
}

// NewDetector constructs a Detector backed by finder.
func NewDetector(finder ReservationFinder) *Detector {
	return &Detector{finder: finder}
}

// Check returns the stored reservations on equipmentID that overlap window,
// ignoring excludeID. An invalid window is rejected without querying.
func (d *Detector) Check(ctx context.Context, equipmentID string, window Window, excludeID string) ([]Conflict, error) {
	if !window.Valid() {
		return nil, fmt.Errorf("scheduler: window start %s is not before end %s", window.Start, window.End)
	}
	stored, err := d.finder.FindByEquipmentAndDateRange(ctx, equipmentID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("scheduler: load reservations: %w", err)
	}
	existing := make([]Booking, 0, len(stored))
	for _, r := range stored {
		existing = append(existing, BookingFromReservation(r))
	}
	return DetectConflicts(existing, Booking{ID: excludeID, EquipmentID: equipmentID, Window: window}), nil
}
