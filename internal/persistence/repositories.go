package persistence

import (
	"context"
	"time"

	"github.com/example/equipment-reservation/internal/domain"
)

// Repository is the lookup and storage contract shared by every entity.
// FindByID reports a missing record with found == false rather than an
// error. Save inserts or replaces the record keyed by its id. Delete returns
// ErrNotFound when no record matched.
type Repository[T any] interface {
	FindAll(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id string) (T, bool, error)
	Save(ctx context.Context, entity T) error
	Delete(ctx context.Context, id string) error
}

// BuildingRepository stores buildings. Deleting a building removes its
// floors and rooms.
type BuildingRepository interface {
	Repository[domain.Building]
}

// FloorRepository stores floors.
type FloorRepository interface {
	Repository[domain.Floor]
	FindByBuildingID(ctx context.Context, buildingID string) ([]domain.Floor, error)
}

// RoomRepository stores rooms. Deleting a room leaves its equipment unplaced.
type RoomRepository interface {
	Repository[domain.Room]
	FindByFloorID(ctx context.Context, floorID string) ([]domain.Room, error)
}

// EquipmentRepository stores equipment together with its vice administrator
// assignments. Deleting equipment removes its reservations, maintenance
// records and comments.
type EquipmentRepository interface {
	Repository[domain.Equipment]
	FindByRoomID(ctx context.Context, roomID string) ([]domain.Equipment, error)
	// FindRecentlyUsedByUserID returns equipment the user reserved, most
	// recently reserved first.
	FindRecentlyUsedByUserID(ctx context.Context, userID string, limit int) ([]domain.Equipment, error)
}

// CategoryRepository stores equipment categories.
type CategoryRepository interface {
	Repository[domain.EquipmentCategory]
	// FindByCategory matches the (major, minor) pair case-insensitively.
	FindByCategory(ctx context.Context, major, minor string) (domain.EquipmentCategory, bool, error)
}

// ReservationRepository stores reservations. Save returns ErrOverlap when the
// reservation would intersect another reservation of the same equipment; the
// check and the write happen atomically.
type ReservationRepository interface {
	Repository[domain.Reservation]
	// FindByEquipmentAndDateRange returns reservations of the equipment that
	// intersect [from, to), ordered by start time.
	FindByEquipmentAndDateRange(ctx context.Context, equipmentID string, from, to time.Time) ([]domain.Reservation, error)
	FindByUserID(ctx context.Context, userID string) ([]domain.Reservation, error)
}

// MaintenanceRepository stores maintenance records.
type MaintenanceRepository interface {
	Repository[domain.MaintenanceRecord]
	FindByEquipmentID(ctx context.Context, equipmentID string) ([]domain.MaintenanceRecord, error)
}

// CommentRepository stores equipment comments.
type CommentRepository interface {
	Repository[domain.EquipmentComment]
	FindByEquipmentID(ctx context.Context, equipmentID string) ([]domain.EquipmentComment, error)
}

// UserRepository stores users. Users are never hard-deleted; FindAll and
// FindByEmail skip soft-deleted users while FindByID still returns them.
type UserRepository interface {
	FindAll(ctx context.Context) ([]domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, bool, error)
	FindByEmail(ctx context.Context, email string) (domain.User, bool, error)
	// Save returns ErrDuplicate when another user holds the same email.
	Save(ctx context.Context, user domain.User) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
	// Count includes soft-deleted users.
	Count(ctx context.Context) (int, error)
}

// SettingRepository stores system settings keyed by name.
type SettingRepository interface {
	FindAll(ctx context.Context) ([]domain.SystemSetting, error)
	FindByKey(ctx context.Context, key string) (domain.SystemSetting, bool, error)
	// Save replaces the row holding the same key.
	Save(ctx context.Context, setting domain.SystemSetting) error
}

// Repositories bundles every repository a store provides.
type Repositories struct {
	Buildings    BuildingRepository
	Floors       FloorRepository
	Rooms        RoomRepository
	Equipment    EquipmentRepository
	Categories   CategoryRepository
	Reservations ReservationRepository
	Maintenance  MaintenanceRepository
	Comments     CommentRepository
	Users        UserRepository
	Settings     SettingRepository
}
