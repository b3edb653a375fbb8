// Package permission decides which principal may perform which mutation.
// Every check is a pure function over its arguments; callers translate a
// false result into an authorization failure.
package permission

import (
	"github.com/example/equipment-reservation/internal/domain"
)

// Principal describes the authenticated actor making a request.
type Principal struct {
	UserID string
	Role   domain.Role
	Email  string
}

// Authenticated reports whether the principal identifies a user.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

func (p Principal) is(role domain.Role) bool {
	return p.Authenticated() && p.Role == role
}

// Elevated reports whether p holds a global role above GENERAL.
func Elevated(p Principal) bool {
	return p.is(domain.RoleAdmin) || p.is(domain.RoleEditor)
}

// CanManageBuildings covers buildings, floors and rooms.
func CanManageBuildings(p Principal) bool {
	return p.is(domain.RoleAdmin)
}

// CanManageEquipment covers creating, editing and deleting equipment.
func CanManageEquipment(p Principal) bool {
	return Elevated(p)
}

// CanManageCategories covers the equipment category catalog.
func CanManageCategories(p Principal) bool {
	return Elevated(p)
}

// CanEditEquipmentManagement governs reassigning administrators and vice
// administrators, changing the running state and recording maintenance.
func CanEditEquipmentManagement(p Principal, equipment domain.Equipment) bool {
	if Elevated(p) {
		return true
	}
	return p.Authenticated() && equipment.IsManagedBy(p.UserID)
}

// CanManageReservations reports whether p may edit reservations. With a nil
// reservation every authenticated principal may manage their own bookings.
func CanManageReservations(p Principal, reservation *domain.Reservation) bool {
	if !p.Authenticated() {
		return false
	}
	if Elevated(p) || reservation == nil {
		return true
	}
	return reservation.UserID() == p.UserID
}

// CanDeleteReservation requires ownership or an elevated role.
func CanDeleteReservation(p Principal, reservation domain.Reservation) bool {
	if Elevated(p) {
		return true
	}
	return p.Authenticated() && reservation.UserID() == p.UserID
}

// CanReserve reports whether p may book equipment.
func CanReserve(p Principal) bool {
	return p.Authenticated()
}

// CanComment reports whether p may leave comments on equipment.
func CanComment(p Principal) bool {
	return p.Authenticated()
}

// CanDeleteComment allows the author or an administrator.
func CanDeleteComment(p Principal, comment domain.EquipmentComment) bool {
	if p.is(domain.RoleAdmin) {
		return true
	}
	return p.Authenticated() && comment.UserID() == p.UserID
}

// CanManageUsers allows administrators to list, re-role and delete accounts.
func CanManageUsers(p Principal) bool {
	return p.is(domain.RoleAdmin)
}

// CanManageSettings allows administrators to change system settings.
func CanManageSettings(p Principal) bool {
	return p.is(domain.RoleAdmin)
}

// CanEditUserProfile allows users to edit themselves and administrators to
// edit anyone.
func CanEditUserProfile(p Principal, userID string) bool {
	if p.is(domain.RoleAdmin) {
		return true
	}
	return p.Authenticated() && p.UserID == userID
}
