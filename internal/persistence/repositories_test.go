package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/persistence"
	"github.com/example/equipment-reservation/internal/testfixtures"
)

// forEachBackend runs fn against a fresh store of every implementation.
func forEachBackend(t *testing.T, fn func(t *testing.T, repos persistence.Repositories)) {
	t.Helper()
	for _, backend := range testfixtures.Backends() {
		t.Run(backend.Name, func(t *testing.T) {
			t.Parallel()
			fn(t, backend.Open(t))
		})
	}
}

func saveUser(t *testing.T, repos persistence.Repositories, opts ...testfixtures.UserOption) domain.User {
	t.Helper()
	u := testfixtures.NewUserFixture(opts...).Domain()
	require.NoError(t, repos.Users.Save(context.Background(), u))
	return u
}

func saveEquipment(t *testing.T, repos persistence.Repositories, opts ...testfixtures.EquipmentOption) domain.Equipment {
	t.Helper()
	e := testfixtures.NewEquipment(opts...)
	require.NoError(t, repos.Equipment.Save(context.Background(), e))
	return e
}

func ids[T interface{ ID() string }](items []T) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID()
	}
	return out
}

func TestLocationRepositories(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, repos persistence.Repositories) {
		ctx := context.Background()

		building := testfixtures.NewBuilding(testfixtures.WithBuildingAddress("1 Main St"))
		require.NoError(t, repos.Buildings.Save(ctx, building))

		basement := testfixtures.NewFloor(building.ID(), testfixtures.WithFloorName("Basement"), testfixtures.WithFloorNumber(-1))
		ground := testfixtures.NewFloor(building.ID(), testfixtures.WithFloorName("Ground"), testfixtures.WithFloorNumber(0))
		roof := testfixtures.NewFloor(building.ID(), testfixtures.WithFloorName("Roof"))
		for _, f := range []domain.Floor{roof, ground, basement} {
			require.NoError(t, repos.Floors.Save(ctx, f))
		}

		floors, err := repos.Floors.FindByBuildingID(ctx, building.ID())
		require.NoError(t, err)
		assert.Equal(t, []string{basement.ID(), ground.ID(), roof.ID()}, ids(floors), "numbered floors first, unnumbered last")

		room := testfixtures.NewRoom(ground.ID(), testfixtures.WithRoomCapacity(12))
		require.NoError(t, repos.Rooms.Save(ctx, room))

		fetched, found, err := repos.Rooms.FindByID(ctx, room.ID())
		require.NoError(t, err)
		require.True(t, found)
		capacity, ok := fetched.Capacity()
		assert.True(t, ok)
		assert.Equal(t, 12, capacity)

		gotBuilding, found, err := repos.Buildings.FindByID(ctx, building.ID())
		require.NoError(t, err)
		require.True(t, found)
		address, _ := gotBuilding.Address()
		assert.Equal(t, "1 Main St", address)

		t.Run("deleting a building removes floors and rooms", func(t *testing.T) {
			require.NoError(t, repos.Buildings.Delete(ctx, building.ID()))

			floors, err := repos.Floors.FindAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, floors)

			_, found, err := repos.Rooms.FindByID(ctx, room.ID())
			require.NoError(t, err)
			assert.False(t, found)

			assert.ErrorIs(t, repos.Buildings.Delete(ctx, building.ID()), persistence.ErrNotFound)
		})
	})
}

func TestLocationRepositories_ForeignKeys(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, repos persistence.Repositories) {
		ctx := context.Background()

		err := repos.Floors.Save(ctx, testfixtures.NewFloor(domain.NewID()))
		assert.ErrorIs(t, err, persistence.ErrForeignKeyViolation)

		err = repos.Rooms.Save(ctx, testfixtures.NewRoom(domain.NewID()))
		assert.ErrorIs(t, err, persistence.ErrForeignKeyViolation)
	})
}

func TestEquipmentRepository(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, repos persistence.Repositories) {
		ctx := context.Background()

		admin := saveUser(t, repos)
		vice1 := saveUser(t, repos)
		vice2 := saveUser(t, repos)

		building := testfixtures.NewBuilding()
		floor := testfixtures.NewFloor(building.ID())
		room := testfixtures.NewRoom(floor.ID())
		require.NoError(t, repos.Buildings.Save(ctx, building))
		require.NoError(t, repos.Floors.Save(ctx, floor))
		require.NoError(t, repos.Rooms.Save(ctx, room))

		installed := testfixtures.ReferenceTime().AddDate(-1, 0, 0)
		microscope := saveEquipment(t, repos,
			testfixtures.WithEquipmentName("Microscope"),
			testfixtures.WithEquipmentRoom(room.ID()),
			testfixtures.WithEquipmentCategory("Optics", "Microscope"),
			testfixtures.WithEquipmentManagers(admin.ID(), vice2.ID(), vice1.ID()),
			testfixtures.WithEquipmentInstallationDate(installed),
		)
		centrifuge := saveEquipment(t, repos, testfixtures.WithEquipmentName("Centrifuge"))

		got, found, err := repos.Equipment.FindByID(ctx, microscope.ID())
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []string{vice2.ID(), vice1.ID()}, got.ViceAdministratorIDs(), "vice administrator order is preserved")
		gotInstalled, ok := got.InstallationDate()
		require.True(t, ok)
		assert.True(t, installed.Equal(gotInstalled))
		assert.True(t, got.IsManagedBy(vice1.ID()))

		all, err := repos.Equipment.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{centrifuge.ID(), microscope.ID()}, ids(all))

		inRoom, err := repos.Equipment.FindByRoomID(ctx, room.ID())
		require.NoError(t, err)
		assert.Equal(t, []string{microscope.ID()}, ids(inRoom))

		t.Run("management can be replaced", func(t *testing.T) {
			updated, err := got.WithManagement(domain.StringPtr(vice1.ID()), nil)
			require.NoError(t, err)
			require.NoError(t, repos.Equipment.Save(ctx, updated))

			reloaded, _, err := repos.Equipment.FindByID(ctx, microscope.ID())
			require.NoError(t, err)
			assert.Empty(t, reloaded.ViceAdministratorIDs())
			adminID, _ := reloaded.AdministratorID()
			assert.Equal(t, vice1.ID(), adminID)
		})

		t.Run("unknown administrator is rejected", func(t *testing.T) {
			orphan := testfixtures.NewEquipment(testfixtures.WithEquipmentManagers(domain.NewID()))
			assert.ErrorIs(t, repos.Equipment.Save(ctx, orphan), persistence.ErrForeignKeyViolation)
		})

		t.Run("deleting the room unplaces equipment", func(t *testing.T) {
			require.NoError(t, repos.Rooms.Delete(ctx, room.ID()))

			reloaded, found, err := repos.Equipment.FindByID(ctx, microscope.ID())
			require.NoError(t, err)
			require.True(t, found)
			_, placed := reloaded.RoomID()
			assert.False(t, placed)
		})
	})
}

func TestEquipmentRepository_DeleteCascades(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, repos persistence.Repositories) {
		ctx := context.Background()
		user := saveUser(t, repos)
		equipment := saveEquipment(t, repos)

		reservation := testfixtures.NewReservation(equipment.ID(), user.ID())
		require.NoError(t, repos.Reservations.Save(ctx, reservation))
		record := testfixtures.NewMaintenanceRecord(equipment.ID(), user.ID(), testfixtures.ReferenceTime(), nil)
		require.NoError(t, repos.Maintenance.Save(ctx, record))
		comment := testfixtures.NewComment(equipment.ID(), user.ID(), "Needs calibration", testfixtures.ReferenceTime())
		require.NoError(t, repos.Comments.Save(ctx, comment))

		require.NoError(t, repos.Equipment.Delete(ctx, equipment.ID()))

		_, found, err := repos.Reservations.FindByID(ctx, reservation.ID())
		require.NoError(t, err)
		assert.False(t, found)
		records, err := repos.Maintenance.FindByEquipmentID(ctx, equipment.ID())
		require.NoError(t, err)
		assert.Empty(t, records)
		comments, err := repos.Comments.FindByEquipmentID(ctx, equipment.ID())
		require.NoError(t, err)
		assert.Empty(t, comments)

		assert.ErrorIs(t, repos.Equipment.Delete(ctx, equipment.ID()), persistence.ErrNotFound)
	})
}

func TestEquipmentRepository_FindRecentlyUsedByUserID(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, repos persistence.Repositories) {
		ctx := context.Background()
		user := saveUser(t, repos)
		other := saveUser(t, repos)
		first := saveEquipment(t, repos)
		second := saveEquipment(t, repos)
		third := saveEquipment(t, repos)
		saveEquipment(t, repos)

		base := testfixtures.ReferenceTime()
		book := func(equipmentID, userID string, dayOffset int) {
			start := base.AddDate(0, 0, dayOffset)
			res := testfixtures.NewReservation(equipmentID, userID, testfixtures.WithReservationWindow(start, start.Add(time.Hour)))
			require.NoError(t, repos.Reservations.Save(ctx, res))
		}
		book(first.ID(), user.ID(), 1)
		book(second.ID(), user.ID(), 3)
		book(first.ID(), user.ID(), 5)
		book(third.ID(), other.ID(), 9)

		recent, err := repos.Equipment.FindRecentlyUsedByUserID(ctx, user.ID(), 10)
		require.NoError(t, err)
		assert.Equal(t, []string{first.ID(), second.ID()}, ids(recent))

		limited, err := repos.Equipment.FindRecentlyUsedByUserID(ctx, user.ID(), 1)
		require.NoError(t, err)
		assert.Equal(t, []string{first.ID()}, ids(limited))
	})
}

func TestCategoryRepository(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, repos persistence.Repositories) {
		ctx := context.Background()
		optics := testfixtures.NewCategory("Optics", "Microscope")
		analysis := testfixtures.NewCategory("Analysis", "Spectrometer")
		require.NoError(t, repos.Categories.Save(ctx, optics))
		require.NoError(t, repos.Categories.Save(ctx, analysis))

		all, err := repos.Categories.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{analysis.ID(), optics.ID()}, ids(all))

		found, ok, err := repos.Categories.FindByCategory(ctx, "optics", "MICROSCOPE")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, optics.ID(), found.ID())

		_, ok, err = repos.Categories.FindByCategory(ctx, "Optics", "Telescope")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, repos.Categories.Delete(ctx, optics.ID()))
		assert.ErrorIs(t, repos.Categories.Delete(ctx, optics.ID()), persistence.ErrNotFound)
	})
}

func TestReservationRepository_Overlap(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, repos persistence.Repositories) {
		ctx := context.Background()
		user := saveUser(t, repos)
		equipment := saveEquipment(t, repos)
		otherEquipment := saveEquipment(t, repos)

		base := testfixtures.ReferenceTime()
		window := func(startHour, endHour int) testfixtures.ReservationOption {
			return testfixtures.WithReservationWindow(base.Add(time.Duration(startHour)*time.Hour), base.Add(time.Duration(endHour)*time.Hour))
		}

		existing := testfixtures.NewReservation(equipment.ID(), user.ID(), window(10, 12), testfixtures.WithReservationComment("calibration"))
		require.NoError(t, repos.Reservations.Save(ctx, existing))

		tests := []struct {
			name        string
			reservation domain.Reservation
			expectedErr error
		}{
			{"overlapping start", testfixtures.NewReservation(equipment.ID(), user.ID(), window(9, 11)), persistence.ErrOverlap},
			{"contained", testfixtures.NewReservation(equipment.ID(), user.ID(), window(10, 11)), persistence.ErrOverlap},
			{"enclosing", testfixtures.NewReservation(equipment.ID(), user.ID(), window(8, 13)), persistence.ErrOverlap},
			{"adjacent before", testfixtures.NewReservation(equipment.ID(), user.ID(), window(8, 10)), nil},
			{"adjacent after", testfixtures.NewReservation(equipment.ID(), user.ID(), window(12, 14)), nil},
			{"other equipment", testfixtures.NewReservation(otherEquipment.ID(), user.ID(), window(10, 12)), nil},
		}
		for _, tt := range tests {
			err := repos.Reservations.Save(ctx, tt.reservation)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr, tt.name)
			} else {
				assert.NoError(t, err, tt.name)
			}
		}

		t.Run("updating a reservation does not conflict with itself", func(t *testing.T) {
			moved, err := existing.WithWindow(base.Add(10*time.Hour+30*time.Minute), base.Add(11*time.Hour+30*time.Minute))
			require.NoError(t, err)
			require.NoError(t, repos.Reservations.Save(ctx, moved))

			reloaded, found, err := repos.Reservations.FindByID(ctx, existing.ID())
			require.NoError(t, err)
			require.True(t, found)
			assert.True(t, moved.StartTime().Equal(reloaded.StartTime()))
			comment, _ := reloaded.Comment()
			assert.Equal(t, "calibration", comment)
		})

		t.Run("updating into another reservation fails", func(t *testing.T) {
			moved, err := existing.WithWindow(base.Add(13*time.Hour), base.Add(15*time.Hour))
			require.NoError(t, err)
			assert.ErrorIs(t, repos.Reservations.Save(ctx, moved), persistence.ErrOverlap)
		})
	})
}

func TestReservationRepository_Queries(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, repos persistence.Repositories) {
		ctx := context.Background()
		alice := saveUser(t, repos)
		bob := saveUser(t, repos)
		equipment := saveEquipment(t, repos)

		base := testfixtures.ReferenceTime()
		at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }
		morning := testfixtures.NewReservation(equipment.ID(), alice.ID(), testfixtures.WithReservationWindow(at(8), at(10)))
		noon := testfixtures.NewReservation(equipment.ID(), bob.ID(), testfixtures.WithReservationWindow(at(12), at(13)))
		evening := testfixtures.NewReservation(equipment.ID(), alice.ID(), testfixtures.WithReservationWindow(at(18), at(20)))
		for _, r := range []domain.Reservation{evening, morning, noon} {
			require.NoError(t, repos.Reservations.Save(ctx, r))
		}

		inRange, err := repos.Reservations.FindByEquipmentAndDateRange(ctx, equipment.ID(), at(9), at(18))
		require.NoError(t, err)
		assert.Equal(t, []string{morning.ID(), noon.ID()}, ids(inRange), "ranges are half-open")

		byAlice, err := repos.Reservations.FindByUserID(ctx, alice.ID())
		require.NoError(t, err)
		assert.Equal(t, []string{morning.ID(), evening.ID()}, ids(byAlice))

		err = repos.Reservations.Save(ctx, testfixtures.NewReservation(domain.NewID(), alice.ID(), testfixtures.WithReservationWindow(at(30), at(31))))
		assert.ErrorIs(t, err, persistence.ErrForeignKeyViolation)

		require.NoError(t, repos.Reservations.Delete(ctx, noon.ID()))
		assert.ErrorIs(t, repos.Reservations.Delete(ctx, noon.ID()), persistence.ErrNotFound)
	})
}

func TestActivityRepositories(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, repos persistence.Repositories) {
		ctx := context.Background()
		user := saveUser(t, repos)
		equipment := saveEquipment(t, repos)
		base := testfixtures.ReferenceTime()

		older := testfixtures.NewMaintenanceRecord(equipment.ID(), user.ID(), base, domain.IntPtr(1500))
		newer := testfixtures.NewMaintenanceRecord(equipment.ID(), user.ID(), base.AddDate(0, 1, 0), nil)
		require.NoError(t, repos.Maintenance.Save(ctx, older))
		require.NoError(t, repos.Maintenance.Save(ctx, newer))

		records, err := repos.Maintenance.FindByEquipmentID(ctx, equipment.ID())
		require.NoError(t, err)
		assert.Equal(t, []string{newer.ID(), older.ID()}, ids(records), "newest first")
		cost, ok := records[1].Cost()
		assert.True(t, ok)
		assert.Equal(t, 1500, cost)

		first := testfixtures.NewComment(equipment.ID(), user.ID(), "first", base)
		second := testfixtures.NewComment(equipment.ID(), user.ID(), "second", base.Add(time.Minute))
		require.NoError(t, repos.Comments.Save(ctx, second))
		require.NoError(t, repos.Comments.Save(ctx, first))

		comments, err := repos.Comments.FindByEquipmentID(ctx, equipment.ID())
		require.NoError(t, err)
		assert.Equal(t, []string{first.ID(), second.ID()}, ids(comments))

		orphan := testfixtures.NewComment(equipment.ID(), domain.NewID(), "ghost", base)
		assert.ErrorIs(t, repos.Comments.Save(ctx, orphan), persistence.ErrForeignKeyViolation)
	})
}

func TestUserRepository(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, repos persistence.Repositories) {
		ctx := context.Background()
		alice := saveUser(t, repos, testfixtures.WithUserEmail("alice@example.com"), testfixtures.WithUserRole(domain.RoleAdmin))
		bob := saveUser(t, repos, testfixtures.WithUserEmail("bob@example.com"))

		found, ok, err := repos.Users.FindByEmail(ctx, "  ALICE@example.com ")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, alice.ID(), found.ID())
		assert.Equal(t, domain.RoleAdmin, found.Role())

		duplicate := testfixtures.NewUserFixture(testfixtures.WithUserEmail("alice@example.com")).Domain()
		assert.ErrorIs(t, repos.Users.Save(ctx, duplicate), persistence.ErrDuplicate)

		promoted, err := bob.WithRole(domain.RoleEditor, bob.UpdatedAt().Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, repos.Users.Save(ctx, promoted))

		deletedAt := testfixtures.ReferenceTime().Add(48 * time.Hour)
		require.NoError(t, repos.Users.SoftDelete(ctx, bob.ID(), deletedAt))
		assert.ErrorIs(t, repos.Users.SoftDelete(ctx, bob.ID(), deletedAt), persistence.ErrNotFound)
		assert.ErrorIs(t, repos.Users.SoftDelete(ctx, domain.NewID(), deletedAt), persistence.ErrNotFound)

		all, err := repos.Users.FindAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{alice.ID()}, ids(all))

		_, ok, err = repos.Users.FindByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.False(t, ok)

		deleted, ok, err := repos.Users.FindByID(ctx, bob.ID())
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, deleted.Deleted())
		assert.Equal(t, domain.RoleEditor, deleted.Role())

		count, err := repos.Users.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestSettingRepository(t *testing.T) {
	t.Parallel()

	forEachBackend(t, func(t *testing.T, repos persistence.Repositories) {
		ctx := context.Background()
		base := testfixtures.ReferenceTime()

		original := testfixtures.NewSetting(domain.SettingTimezone, "UTC", base)
		require.NoError(t, repos.Settings.Save(ctx, original))
		require.NoError(t, repos.Settings.Save(ctx, testfixtures.NewSetting("site_name", "Lab", base)))

		replacement := testfixtures.NewSetting(domain.SettingTimezone, "Asia/Tokyo", base.Add(time.Hour))
		require.NoError(t, repos.Settings.Save(ctx, replacement))

		got, ok, err := repos.Settings.FindByKey(ctx, domain.SettingTimezone)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Asia/Tokyo", got.Value())
		assert.Equal(t, original.ID(), got.ID(), "the row keeps its id")

		all, err := repos.Settings.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "site_name", all[0].Key())

		_, ok, err = repos.Settings.FindByKey(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
