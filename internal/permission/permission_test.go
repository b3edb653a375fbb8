package permission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/equipment-reservation/internal/domain"
)

const (
	adminID   = "6f0f3b7e-2b1a-4c57-9d0a-000000000001"
	editorID  = "6f0f3b7e-2b1a-4c57-9d0a-000000000002"
	generalID = "6f0f3b7e-2b1a-4c57-9d0a-000000000003"
	otherID   = "6f0f3b7e-2b1a-4c57-9d0a-000000000004"
	itemID    = "6f0f3b7e-2b1a-4c57-9d0a-000000000005"
	bookingID = "6f0f3b7e-2b1a-4c57-9d0a-000000000006"
)

var (
	admin     = Principal{UserID: adminID, Role: domain.RoleAdmin}
	editor    = Principal{UserID: editorID, Role: domain.RoleEditor}
	general   = Principal{UserID: generalID, Role: domain.RoleGeneral}
	anonymous = Principal{}
)

func equipment(t *testing.T, administratorID *string, vice ...string) domain.Equipment {
	t.Helper()
	e, err := domain.NewEquipment(domain.EquipmentInput{
		ID:                   itemID,
		Name:                 "Spectrometer",
		AdministratorID:      administratorID,
		ViceAdministratorIDs: vice,
	})
	require.NoError(t, err)
	return e
}

func reservation(t *testing.T, owner string) domain.Reservation {
	t.Helper()
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	r, err := domain.NewReservation(domain.ReservationInput{
		ID:          bookingID,
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		UserID:      owner,
		EquipmentID: itemID,
	})
	require.NoError(t, err)
	return r
}

func TestRoleChecks(t *testing.T) {
	tests := []struct {
		name      string
		principal Principal
		buildings bool
		equipment bool
		users     bool
	}{
		{"admin", admin, true, true, true},
		{"editor", editor, false, true, false},
		{"general", general, false, false, false},
		{"anonymous", anonymous, false, false, false},
		{"role without user", Principal{Role: domain.RoleAdmin}, false, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.buildings, CanManageBuildings(tc.principal))
			assert.Equal(t, tc.equipment, CanManageEquipment(tc.principal))
			assert.Equal(t, tc.equipment, CanManageCategories(tc.principal))
			assert.Equal(t, tc.users, CanManageUsers(tc.principal))
			assert.Equal(t, tc.users, CanManageSettings(tc.principal))
		})
	}
}

func TestCanEditEquipmentManagement(t *testing.T) {
	t.Run("general user without assignment is denied", func(t *testing.T) {
		assert.False(t, CanEditEquipmentManagement(general, equipment(t, nil)))
	})

	t.Run("general user as administrator is allowed", func(t *testing.T) {
		assert.True(t, CanEditEquipmentManagement(general, equipment(t, domain.StringPtr(generalID))))
	})

	t.Run("general user as vice administrator is allowed", func(t *testing.T) {
		assert.True(t, CanEditEquipmentManagement(general, equipment(t, domain.StringPtr(otherID), generalID)))
	})

	t.Run("elevated roles are always allowed", func(t *testing.T) {
		e := equipment(t, nil)
		assert.True(t, CanEditEquipmentManagement(admin, e))
		assert.True(t, CanEditEquipmentManagement(editor, e))
	})

	t.Run("anonymous is denied", func(t *testing.T) {
		assert.False(t, CanEditEquipmentManagement(anonymous, equipment(t, nil)))
	})
}

func TestReservationChecks(t *testing.T) {
	own := reservation(t, generalID)
	foreign := reservation(t, otherID)

	assert.True(t, CanManageReservations(general, nil))
	assert.False(t, CanManageReservations(anonymous, nil))
	assert.True(t, CanManageReservations(general, &own))
	assert.False(t, CanManageReservations(general, &foreign))
	assert.True(t, CanManageReservations(editor, &foreign))

	assert.True(t, CanDeleteReservation(general, own))
	assert.False(t, CanDeleteReservation(general, foreign))
	assert.True(t, CanDeleteReservation(admin, foreign))
	assert.False(t, CanDeleteReservation(anonymous, foreign))

	assert.True(t, CanReserve(general))
	assert.False(t, CanReserve(anonymous))
	assert.True(t, CanComment(general))
	assert.False(t, CanComment(anonymous))
}

func TestCanDeleteComment(t *testing.T) {
	c, err := domain.NewEquipmentComment(domain.CommentInput{
		ID:          bookingID,
		EquipmentID: itemID,
		UserID:      generalID,
		Content:     "lens is scratched",
	})
	require.NoError(t, err)

	assert.True(t, CanDeleteComment(general, c))
	assert.True(t, CanDeleteComment(admin, c))
	assert.False(t, CanDeleteComment(editor, c))
}

func TestCanEditUserProfile(t *testing.T) {
	assert.True(t, CanEditUserProfile(general, generalID))
	assert.False(t, CanEditUserProfile(general, otherID))
	assert.True(t, CanEditUserProfile(admin, otherID))
	assert.False(t, CanEditUserProfile(anonymous, ""))
}
