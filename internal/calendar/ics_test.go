package calendar

import (
	"bytes"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/testfixtures"
)

func TestEncode(t *testing.T) {
	equipment := testfixtures.NewEquipment(testfixtures.WithEquipmentName("Confocal Microscope"))
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	start := time.Date(2025, 3, 3, 19, 0, 0, 0, tokyo)
	first := testfixtures.NewReservation(equipment.ID(), testfixtures.ID("user", 1),
		testfixtures.WithReservationWindow(start, start.Add(time.Hour)),
		testfixtures.WithReservationComment("calibration run"))
	second := testfixtures.NewReservation(equipment.ID(), testfixtures.ID("user", 2),
		testfixtures.WithReservationWindow(start.Add(2*time.Hour), start.Add(3*time.Hour)))
	foreign := testfixtures.NewReservation(testfixtures.ID("equipment", 999), testfixtures.ID("user", 2))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, equipment, []domain.Reservation{first, second, foreign}, tokyo, testfixtures.ReferenceTime()))

	raw := buf.String()
	assert.Contains(t, raw, "X-WR-TIMEZONE:Asia/Tokyo")
	assert.Contains(t, raw, "DTSTART:20250303T100000Z", "times are written in UTC")

	cal, err := ics.ParseCalendar(&buf)
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	id, ok := ReservationID(events[0].Id())
	require.True(t, ok)
	assert.Equal(t, first.ID(), id)

	startAt, err := events[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, startAt.Equal(first.StartTime()))
	assert.Equal(t, "calibration run", events[0].GetProperty(ics.ComponentPropertyDescription).Value)
	assert.Nil(t, events[1].GetProperty(ics.ComponentPropertyDescription))
	assert.Equal(t, "Confocal Microscope", events[1].GetProperty(ics.ComponentPropertySummary).Value)
}

func TestReservationID(t *testing.T) {
	_, ok := ReservationID("other@example.com")
	assert.False(t, ok)
	_, ok = ReservationID(uidSuffix)
	assert.False(t, ok)
	id, ok := ReservationID("abc" + uidSuffix)
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}
