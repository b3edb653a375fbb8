package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/equipment-reservation/internal/application"
	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/persistence"
	"github.com/example/equipment-reservation/internal/testfixtures"
)

func newReservationEnv(t *testing.T) (*env, *application.ReservationService, domain.Equipment) {
	t.Helper()
	e := newEnv(t)
	e.Clock.Set(time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC))
	return e, e.NewReservationService(), e.seedEquipment(t)
}

func book(equipmentID string, start, end time.Time) domain.ReservationInput {
	return domain.ReservationInput{EquipmentID: equipmentID, StartTime: start, EndTime: end}
}

func TestReservationService_BookingScenarios(t *testing.T) {
	ctx := context.Background()
	e, svc, equipment := newReservationEnv(t)

	first, err := svc.Create(ctx, application.CreateReservationParams{
		Principal: e.general.Principal(),
		Input:     book(equipment.ID(), at(10, 0), at(11, 0)),
	})
	require.NoError(t, err, "booking against an empty calendar succeeds")
	assert.Equal(t, e.general.Input.ID, first.UserID())

	t.Run("overlapping window conflicts", func(t *testing.T) {
		_, err := svc.Create(ctx, application.CreateReservationParams{
			Principal: e.other.Principal(),
			Input:     book(equipment.ID(), at(10, 30), at(11, 30)),
		})
		var conflict *application.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "Time slot already reserved", err.Error())
		assert.Equal(t, []string{first.ID()}, conflict.ReservationIDs)
	})

	t.Run("identical window conflicts", func(t *testing.T) {
		_, err := svc.Create(ctx, application.CreateReservationParams{
			Principal: e.other.Principal(),
			Input:     book(equipment.ID(), at(10, 0), at(11, 0)),
		})
		var conflict *application.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})

	t.Run("adjacent window is accepted", func(t *testing.T) {
		_, err := svc.Create(ctx, application.CreateReservationParams{
			Principal: e.other.Principal(),
			Input:     book(equipment.ID(), at(11, 0), at(12, 0)),
		})
		assert.NoError(t, err)
	})

	t.Run("inverted window is a validation error", func(t *testing.T) {
		_, err := svc.Create(ctx, application.CreateReservationParams{
			Principal: e.other.Principal(),
			Input:     book(equipment.ID(), at(11, 0), at(10, 0)),
		})
		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, domain.MsgStartBeforeEnd, vErr.Message)
	})

	t.Run("other equipment is independent", func(t *testing.T) {
		second := e.seedEquipment(t)
		_, err := svc.Create(ctx, application.CreateReservationParams{
			Principal: e.other.Principal(),
			Input:     book(second.ID(), at(10, 0), at(11, 0)),
		})
		assert.NoError(t, err)
	})
}

func TestReservationService_CreateRejections(t *testing.T) {
	ctx := context.Background()
	e, svc, equipment := newReservationEnv(t)

	tests := []struct {
		name      string
		principal application.Principal
		input     domain.ReservationInput
		check     func(t *testing.T, err error)
	}{
		{
			name:      "anonymous",
			principal: application.Principal{},
			input:     book(equipment.ID(), at(10, 0), at(11, 0)),
			check:     func(t *testing.T, err error) { assert.ErrorIs(t, err, application.ErrUnauthorized) },
		},
		{
			name:      "unknown equipment",
			principal: e.general.Principal(),
			input:     book(domain.NewID(), at(10, 0), at(11, 0)),
			check:     func(t *testing.T, err error) { assert.ErrorIs(t, err, application.ErrNotFound) },
		},
		{
			name:      "malformed equipment id",
			principal: e.general.Principal(),
			input:     book("not-an-id", at(10, 0), at(11, 0)),
			check: func(t *testing.T, err error) {
				var vErr *domain.ValidationError
				assert.ErrorAs(t, err, &vErr)
			},
		},
		{
			name:      "start in the past",
			principal: e.general.Principal(),
			input:     book(equipment.ID(), time.Date(2023, 12, 30, 10, 0, 0, 0, time.UTC), time.Date(2023, 12, 30, 11, 0, 0, 0, time.UTC)),
			check: func(t *testing.T, err error) {
				var vErr *domain.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, application.MsgReservationInPast, vErr.Message)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, application.CreateReservationParams{Principal: tt.principal, Input: tt.input})
			tt.check(t, err)
		})
	}

	t.Run("retired equipment", func(t *testing.T) {
		retired := e.seedEquipment(t, testfixtures.WithEquipmentState(domain.RunningStateRetired))
		_, err := svc.Create(ctx, application.CreateReservationParams{
			Principal: e.general.Principal(),
			Input:     book(retired.ID(), at(10, 0), at(11, 0)),
		})
		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, application.MsgEquipmentUnavailable, vErr.Message)
	})

	t.Run("elevated users may book the past and for others", func(t *testing.T) {
		in := book(equipment.ID(), time.Date(2023, 12, 30, 10, 0, 0, 0, time.UTC), time.Date(2023, 12, 30, 11, 0, 0, 0, time.UTC))
		in.UserID = e.general.Input.ID
		r, err := svc.Create(ctx, application.CreateReservationParams{Principal: e.editor.Principal(), Input: in})
		require.NoError(t, err)
		assert.Equal(t, e.general.Input.ID, r.UserID())
	})

	t.Run("general users always book for themselves", func(t *testing.T) {
		in := book(equipment.ID(), at(15, 0), at(16, 0))
		in.UserID = e.other.Input.ID
		r, err := svc.Create(ctx, application.CreateReservationParams{Principal: e.general.Principal(), Input: in})
		require.NoError(t, err)
		assert.Equal(t, e.general.Input.ID, r.UserID())
	})
}

func TestReservationService_Update(t *testing.T) {
	ctx := context.Background()
	e, svc, equipment := newReservationEnv(t)

	mine, err := svc.Create(ctx, application.CreateReservationParams{Principal: e.general.Principal(), Input: book(equipment.ID(), at(10, 0), at(11, 0))})
	require.NoError(t, err)
	theirs, err := svc.Create(ctx, application.CreateReservationParams{Principal: e.other.Principal(), Input: book(equipment.ID(), at(12, 0), at(13, 0))})
	require.NoError(t, err)

	update := func(p application.Principal, id string, start, end time.Time) (domain.Reservation, error) {
		return svc.Update(ctx, application.UpdateReservationParams{
			Principal:     p,
			ReservationID: id,
			StartTime:     start,
			EndTime:       end,
			Comment:       domain.StringPtr("moved"),
		})
	}

	t.Run("keeping the same window does not conflict with itself", func(t *testing.T) {
		updated, err := update(e.general.Principal(), mine.ID(), at(10, 0), at(11, 0))
		require.NoError(t, err)
		comment, ok := updated.Comment()
		assert.True(t, ok)
		assert.Equal(t, "moved", comment)
	})

	t.Run("extending into a neighbour conflicts", func(t *testing.T) {
		_, err := update(e.general.Principal(), mine.ID(), at(10, 0), at(12, 30))
		var conflict *application.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, []string{theirs.ID()}, conflict.ReservationIDs)

		stored, err := svc.Get(ctx, e.general.Principal(), mine.ID())
		require.NoError(t, err)
		assert.True(t, stored.EndTime().Equal(at(11, 0)), "failed update leaves the reservation unchanged")
	})

	t.Run("shrinking is allowed", func(t *testing.T) {
		_, err := update(e.general.Principal(), mine.ID(), at(10, 15), at(10, 45))
		assert.NoError(t, err)
	})

	t.Run("other users are forbidden", func(t *testing.T) {
		_, err := update(e.other.Principal(), mine.ID(), at(9, 0), at(9, 30))
		assert.ErrorIs(t, err, application.ErrForbidden)
	})

	t.Run("editors may move anyone", func(t *testing.T) {
		_, err := update(e.editor.Principal(), theirs.ID(), at(13, 0), at(14, 0))
		assert.NoError(t, err)
	})

	t.Run("missing reservation", func(t *testing.T) {
		_, err := update(e.general.Principal(), domain.NewID(), at(9, 0), at(9, 30))
		assert.ErrorIs(t, err, application.ErrNotFound)
	})

	t.Run("started reservations are frozen for their owner", func(t *testing.T) {
		e.Clock.Set(at(10, 30))
		defer e.Clock.Set(time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC))

		_, err := update(e.general.Principal(), mine.ID(), at(16, 0), at(17, 0))
		assert.ErrorIs(t, err, application.ErrForbidden)
		assert.ErrorIs(t, svc.Delete(ctx, e.general.Principal(), mine.ID()), application.ErrForbidden)
		assert.NoError(t, svc.Delete(ctx, e.admin.Principal(), mine.ID()))
	})

	t.Run("retired equipment rejects moves", func(t *testing.T) {
		retired, err := equipment.WithRunningState(string(domain.RunningStateRetired))
		require.NoError(t, err)
		require.NoError(t, e.Repositories.Equipment.Save(ctx, retired))

		_, err = update(e.editor.Principal(), theirs.ID(), at(15, 0), at(16, 0))
		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, application.MsgEquipmentUnavailable, vErr.Message)
	})
}

func TestReservationService_Delete(t *testing.T) {
	ctx := context.Background()
	e, svc, equipment := newReservationEnv(t)

	r, err := svc.Create(ctx, application.CreateReservationParams{Principal: e.general.Principal(), Input: book(equipment.ID(), at(10, 0), at(11, 0))})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, e.other.Principal(), r.ID()), application.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, e.general.Principal(), r.ID()))
	assert.ErrorIs(t, svc.Delete(ctx, e.general.Principal(), r.ID()), application.ErrNotFound)

	_, err = svc.Create(ctx, application.CreateReservationParams{Principal: e.other.Principal(), Input: book(equipment.ID(), at(10, 0), at(11, 0))})
	assert.NoError(t, err, "a cancelled window can be booked again")
}

func TestReservationService_Listing(t *testing.T) {
	ctx := context.Background()
	e, svc, equipment := newReservationEnv(t)

	for _, w := range [][2]time.Time{{at(14, 0), at(15, 0)}, {at(9, 0), at(10, 0)}, {at(11, 0), at(12, 0)}} {
		_, err := svc.Create(ctx, application.CreateReservationParams{Principal: e.general.Principal(), Input: book(equipment.ID(), w[0], w[1])})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, application.CreateReservationParams{Principal: e.other.Principal(), Input: book(equipment.ID(), at(16, 0), at(17, 0))})
	require.NoError(t, err)

	listed, err := svc.ListForEquipment(ctx, application.ListReservationsParams{
		Principal:   e.other.Principal(),
		EquipmentID: equipment.ID(),
		From:        at(9, 30),
		To:          at(14, 0),
	})
	require.NoError(t, err)
	require.Len(t, listed, 2, "[9:30, 14:00) touches 9-10 and 11-12 but not 14-15")
	assert.True(t, listed[0].StartTime().Equal(at(9, 0)))
	assert.True(t, listed[1].StartTime().Equal(at(11, 0)))

	_, err = svc.ListForEquipment(ctx, application.ListReservationsParams{
		Principal:   e.other.Principal(),
		EquipmentID: equipment.ID(),
		From:        at(14, 0),
		To:          at(14, 0),
	})
	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.ListForEquipment(ctx, application.ListReservationsParams{
		Principal:   e.other.Principal(),
		EquipmentID: domain.NewID(),
		From:        at(0, 0),
		To:          at(23, 0),
	})
	assert.ErrorIs(t, err, application.ErrNotFound)

	mine, err := svc.ListMine(ctx, e.general.Principal())
	require.NoError(t, err)
	assert.Len(t, mine, 3)
	assert.True(t, mine[0].StartTime().Equal(at(9, 0)))
}

// blindFinder hides stored reservations from the pre-check, emulating a
// concurrent writer that committed after the check ran.
type blindFinder struct {
	persistence.ReservationRepository
}

func (blindFinder) FindByEquipmentAndDateRange(context.Context, string, time.Time, time.Time) ([]domain.Reservation, error) {
	return nil, nil
}

func TestReservationService_StoreRejectsOverlapMissedByPreCheck(t *testing.T) {
	ctx := context.Background()
	e, _, equipment := newReservationEnv(t)
	svc := application.NewReservationService(blindFinder{e.Repositories.Reservations}, e.Repositories.Equipment, e.IDGenerator.NextFunc(), e.Clock.NowFunc())
	metrics := newRecordingMetrics()
	svc.SetMetrics(metrics)

	_, err := svc.Create(ctx, application.CreateReservationParams{Principal: e.general.Principal(), Input: book(equipment.ID(), at(10, 0), at(11, 0))})
	require.NoError(t, err)

	_, err = svc.Create(ctx, application.CreateReservationParams{Principal: e.other.Principal(), Input: book(equipment.ID(), at(10, 30), at(11, 30))})
	var conflict *application.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Empty(t, conflict.ReservationIDs)
	assert.Equal(t, equipment.ID(), conflict.EquipmentID)

	assert.Equal(t, 1, metrics.operations["create/success"])
	assert.Equal(t, 1, metrics.operations["create/conflict"])
	assert.Equal(t, 1, metrics.conflicts)
	assert.Contains(t, metrics.observed, "ReservationService.Create")
}

func TestReservationService_ConcurrentBookingsYieldOneWinner(t *testing.T) {
	ctx := context.Background()
	e, svc, equipment := newReservationEnv(t)

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, application.CreateReservationParams{
				Principal: e.general.Principal(),
				Input:     book(equipment.ID(), at(10, 0), at(11, 0)),
			})
			mu.Lock()
			defer mu.Unlock()
			var conflict *application.ConflictError
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorAs(t, err, &conflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, conflicts)
}
