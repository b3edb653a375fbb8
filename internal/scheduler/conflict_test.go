package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/equipment-reservation/internal/domain"
)

const (
	equipmentA = "2d3c4b5a-0000-4000-8000-00000000000a"
	equipmentB = "2d3c4b5a-0000-4000-8000-00000000000b"
	userID     = "2d3c4b5a-0000-4000-8000-0000000000ff"
	resOne     = "2d3c4b5a-0000-4000-8000-000000000001"
	resTwo     = "2d3c4b5a-0000-4000-8000-000000000002"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 1, hour, minute, 0, 0, time.UTC)
}

func window(startHour, startMinute, endHour, endMinute int) Window {
	return Window{Start: at(startHour, startMinute), End: at(endHour, endMinute)}
}

func TestWindowOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Window
		want bool
	}{
		{"partial overlap", window(10, 0, 11, 0), window(10, 30, 11, 30), true},
		{"contained", window(10, 0, 12, 0), window(10, 30, 11, 0), true},
		{"identical", window(10, 0, 11, 0), window(10, 0, 11, 0), true},
		{"adjacent after", window(10, 0, 11, 0), window(11, 0, 12, 0), false},
		{"adjacent before", window(11, 0, 12, 0), window(10, 0, 11, 0), false},
		{"disjoint", window(8, 0, 9, 0), window(10, 0, 11, 0), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a), "overlap must be symmetric")
		})
	}
}

func TestWindowOverlapsItself(t *testing.T) {
	w := window(9, 15, 9, 16)
	assert.True(t, w.Overlaps(w))
}

func TestDetectConflicts(t *testing.T) {
	existing := []Booking{
		{ID: resOne, EquipmentID: equipmentA, Window: window(10, 0, 11, 0)},
		{ID: resTwo, EquipmentID: equipmentB, Window: window(10, 0, 11, 0)},
	}

	t.Run("overlap on same equipment produces conflict", func(t *testing.T) {
		got := DetectConflicts(existing, Booking{EquipmentID: equipmentA, Window: window(10, 30, 11, 30)})
		require.Len(t, got, 1)
		assert.Equal(t, resOne, got[0].WithReservationID)
	})

	t.Run("other equipment is ignored", func(t *testing.T) {
		got := DetectConflicts(existing[1:], Booking{EquipmentID: equipmentA, Window: window(10, 30, 11, 30)})
		assert.Empty(t, got)
	})

	t.Run("update does not conflict with its own stored window", func(t *testing.T) {
		got := DetectConflicts(existing, Booking{ID: resOne, EquipmentID: equipmentA, Window: window(10, 0, 11, 0)})
		assert.Empty(t, got)
	})

	t.Run("adjacent bookings yield no conflicts", func(t *testing.T) {
		got := DetectConflicts(existing, Booking{EquipmentID: equipmentA, Window: window(11, 0, 12, 0)})
		assert.Empty(t, got)
	})
}

type finderStub struct {
	reservations []domain.Reservation
	err          error
	calls        int
}

func (f *finderStub) FindByEquipmentAndDateRange(ctx context.Context, equipmentID string, from, to time.Time) ([]domain.Reservation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.reservations, nil
}

func TestDetectorCheck(t *testing.T) {
	stored, err := domain.NewReservation(domain.ReservationInput{
		ID:          resOne,
		StartTime:   at(10, 0),
		EndTime:     at(11, 0),
		UserID:      userID,
		EquipmentID: equipmentA,
	})
	require.NoError(t, err)

	t.Run("reports overlapping reservation", func(t *testing.T) {
		d := NewDetector(&finderStub{reservations: []domain.Reservation{stored}})
		conflicts, err := d.Check(context.Background(), equipmentA, window(10, 30, 11, 30), "")
		require.NoError(t, err)
		require.Len(t, conflicts, 1)
		assert.Equal(t, resOne, conflicts[0].WithReservationID)
	})

	t.Run("excludes the reservation being updated", func(t *testing.T) {
		d := NewDetector(&finderStub{reservations: []domain.Reservation{stored}})
		conflicts, err := d.Check(context.Background(), equipmentA, window(10, 15, 11, 15), resOne)
		require.NoError(t, err)
		assert.Empty(t, conflicts)
	})

	t.Run("invalid window is rejected without querying", func(t *testing.T) {
		finder := &finderStub{}
		d := NewDetector(finder)
		_, err := d.Check(context.Background(), equipmentA, window(11, 0, 11, 0), "")
		require.Error(t, err)
		assert.Zero(t, finder.calls)
	})

	t.Run("propagates finder failures", func(t *testing.T) {
		boom := errors.New("boom")
		d := NewDetector(&finderStub{err: boom})
		_, err := d.Check(context.Background(), equipmentA, window(10, 0, 11, 0), "")
		assert.ErrorIs(t, err, boom)
	})
}
