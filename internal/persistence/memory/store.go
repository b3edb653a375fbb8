// Package memory provides a process-local implementation of every
// persistence repository. It backs tests and single-process demos; all state
// is lost when the process exits.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/persistence"
	"github.com/example/equipment-reservation/internal/scheduler"
)

// Store holds every entity in maps guarded by a single lock, so each
// repository call is atomic with respect to the others.
type Store struct {
	mu           sync.RWMutex
	buildings    map[string]domain.Building
	floors       map[string]domain.Floor
	rooms        map[string]domain.Room
	equipment    map[string]domain.Equipment
	categories   map[string]domain.EquipmentCategory
	reservations map[string]domain.Reservation
	maintenance  map[string]domain.MaintenanceRecord
	comments     map[string]domain.EquipmentComment
	users        map[string]domain.User
	settings     map[string]domain.SystemSetting
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		buildings:    make(map[string]domain.Building),
		floors:       make(map[string]domain.Floor),
		rooms:        make(map[string]domain.Room),
		equipment:    make(map[string]domain.Equipment),
		categories:   make(map[string]domain.EquipmentCategory),
		reservations: make(map[string]domain.Reservation),
		maintenance:  make(map[string]domain.MaintenanceRecord),
		comments:     make(map[string]domain.EquipmentComment),
		users:        make(map[string]domain.User),
		settings:     make(map[string]domain.SystemSetting),
	}
}

// Close is a no-op kept for parity with the SQL store.
func (s *Store) Close() error {
	return nil
}

// Repositories exposes the store through the persistence contracts.
func (s *Store) Repositories() persistence.Repositories {
	return persistence.Repositories{
		Buildings:    buildingRepo{s},
		Floors:       floorRepo{s},
		Rooms:        roomRepo{s},
		Equipment:    equipmentRepo{s},
		Categories:   categoryRepo{s},
		Reservations: reservationRepo{s},
		Maintenance:  maintenanceRepo{s},
		Comments:     commentRepo{s},
		Users:        userRepo{s},
		Settings:     settingRepo{s},
	}
}

var (
	_ persistence.BuildingRepository    = buildingRepo{}
	_ persistence.FloorRepository       = floorRepo{}
	_ persistence.RoomRepository        = roomRepo{}
	_ persistence.EquipmentRepository   = equipmentRepo{}
	_ persistence.CategoryRepository    = categoryRepo{}
	_ persistence.ReservationRepository = reservationRepo{}
	_ persistence.MaintenanceRepository = maintenanceRepo{}
	_ persistence.CommentRepository     = commentRepo{}
	_ persistence.UserRepository        = userRepo{}
	_ persistence.SettingRepository     = settingRepo{}
)

func collect[T any](m map[string]T, keep func(T) bool, compare func(a, b T) int) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, compare)
	return out
}

func lookup[T any](s *Store, m map[string]T, id string) (T, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := m[id]
	return v, ok, nil
}

func remove[T any](s *Store, m map[string]T, id string, cascade func(id string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := m[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m, id)
	if cascade != nil {
		cascade(id)
	}
	return nil
}

// --- buildings, floors, rooms ---

type buildingRepo struct{ s *Store }

func (r buildingRepo) FindAll(ctx context.Context) ([]domain.Building, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.buildings, nil, func(a, b domain.Building) int {
		return cmp.Or(cmp.Compare(a.Name(), b.Name()), cmp.Compare(a.ID(), b.ID()))
	}), nil
}

func (r buildingRepo) FindByID(ctx context.Context, id string) (domain.Building, bool, error) {
	return lookup(r.s, r.s.buildings, id)
}

func (r buildingRepo) Save(ctx context.Context, b domain.Building) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.buildings[b.ID()] = b
	return nil
}

func (r buildingRepo) Delete(ctx context.Context, id string) error {
	return remove(r.s, r.s.buildings, id, r.s.cascadeBuildingLocked)
}

func (s *Store) cascadeBuildingLocked(buildingID string) {
	for id, f := range s.floors {
		if f.BuildingID() == buildingID {
			delete(s.floors, id)
			s.cascadeFloorLocked(id)
		}
	}
}

type floorRepo struct{ s *Store }

func compareFloors(a, b domain.Floor) int {
	an, aok := a.FloorNumber()
	bn, bok := b.FloorNumber()
	// Numbered floors sort before unnumbered ones.
	if aok != bok {
		if aok {
			return -1
		}
		return 1
	}
	return cmp.Or(cmp.Compare(an, bn), cmp.Compare(a.Name(), b.Name()), cmp.Compare(a.ID(), b.ID()))
}

func (r floorRepo) FindAll(ctx context.Context) ([]domain.Floor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.floors, nil, compareFloors), nil
}

func (r floorRepo) FindByBuildingID(ctx context.Context, buildingID string) ([]domain.Floor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.floors, func(f domain.Floor) bool { return f.BuildingID() == buildingID }, compareFloors), nil
}

func (r floorRepo) FindByID(ctx context.Context, id string) (domain.Floor, bool, error) {
	return lookup(r.s, r.s.floors, id)
}

func (r floorRepo) Save(ctx context.Context, f domain.Floor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.buildings[f.BuildingID()]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	r.s.floors[f.ID()] = f
	return nil
}

func (r floorRepo) Delete(ctx context.Context, id string) error {
	return remove(r.s, r.s.floors, id, r.s.cascadeFloorLocked)
}

func (s *Store) cascadeFloorLocked(floorID string) {
	for id, room := range s.rooms {
		if room.FloorID() == floorID {
			delete(s.rooms, id)
			s.cascadeRoomLocked(id)
		}
	}
}

type roomRepo struct{ s *Store }

func compareRooms(a, b domain.Room) int {
	return cmp.Or(cmp.Compare(a.Name(), b.Name()), cmp.Compare(a.ID(), b.ID()))
}

func (r roomRepo) FindAll(ctx context.Context) ([]domain.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.rooms, nil, compareRooms), nil
}

func (r roomRepo) FindByFloorID(ctx context.Context, floorID string) ([]domain.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.rooms, func(room domain.Room) bool { return room.FloorID() == floorID }, compareRooms), nil
}

func (r roomRepo) FindByID(ctx context.Context, id string) (domain.Room, bool, error) {
	return lookup(r.s, r.s.rooms, id)
}

func (r roomRepo) Save(ctx context.Context, room domain.Room) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.floors[room.FloorID()]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	r.s.rooms[room.ID()] = room
	return nil
}

func (r roomRepo) Delete(ctx context.Context, id string) error {
	return remove(r.s, r.s.rooms, id, r.s.cascadeRoomLocked)
}

func (s *Store) cascadeRoomLocked(roomID string) {
	for id, e := range s.equipment {
		if current, ok := e.RoomID(); ok && current == roomID {
			in := e.Input()
			in.RoomID = nil
			if unplaced, err := domain.NewEquipment(in); err == nil {
				s.equipment[id] = unplaced
			}
		}
	}
}

// --- equipment, categories ---

type equipmentRepo struct{ s *Store }

func compareEquipment(a, b domain.Equipment) int {
	return cmp.Or(cmp.Compare(a.Name(), b.Name()), cmp.Compare(a.ID(), b.ID()))
}

func (r equipmentRepo) FindAll(ctx context.Context) ([]domain.Equipment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.equipment, nil, compareEquipment), nil
}

func (r equipmentRepo) FindByRoomID(ctx context.Context, roomID string) ([]domain.Equipment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.equipment, func(e domain.Equipment) bool {
		current, ok := e.RoomID()
		return ok && current == roomID
	}, compareEquipment), nil
}

func (r equipmentRepo) FindRecentlyUsedByUserID(ctx context.Context, userID string, limit int) ([]domain.Equipment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	lastUsed := make(map[string]time.Time)
	for _, res := range r.s.reservations {
		if res.UserID() != userID {
			continue
		}
		if prev, ok := lastUsed[res.EquipmentID()]; !ok || res.StartTime().After(prev) {
			lastUsed[res.EquipmentID()] = res.StartTime()
		}
	}

	out := make([]domain.Equipment, 0, len(lastUsed))
	for id := range lastUsed {
		if e, ok := r.s.equipment[id]; ok {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b domain.Equipment) int {
		return cmp.Or(lastUsed[b.ID()].Compare(lastUsed[a.ID()]), cmp.Compare(a.ID(), b.ID()))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r equipmentRepo) FindByID(ctx context.Context, id string) (domain.Equipment, bool, error) {
	return lookup(r.s, r.s.equipment, id)
}

func (r equipmentRepo) Save(ctx context.Context, e domain.Equipment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if roomID, ok := e.RoomID(); ok {
		if _, exists := r.s.rooms[roomID]; !exists {
			return persistence.ErrForeignKeyViolation
		}
	}
	if adminID, ok := e.AdministratorID(); ok {
		if _, exists := r.s.users[adminID]; !exists {
			return persistence.ErrForeignKeyViolation
		}
	}
	for _, id := range e.ViceAdministratorIDs() {
		if _, exists := r.s.users[id]; !exists {
			return persistence.ErrForeignKeyViolation
		}
	}
	r.s.equipment[e.ID()] = e
	return nil
}

func (r equipmentRepo) Delete(ctx context.Context, id string) error {
	return remove(r.s, r.s.equipment, id, r.s.cascadeEquipmentLocked)
}

func (s *Store) cascadeEquipmentLocked(equipmentID string) {
	for id, res := range s.reservations {
		if res.EquipmentID() == equipmentID {
			delete(s.reservations, id)
		}
	}
	for id, rec := range s.maintenance {
		if rec.EquipmentID() == equipmentID {
			delete(s.maintenance, id)
		}
	}
	for id, c := range s.comments {
		if c.EquipmentID() == equipmentID {
			delete(s.comments, id)
		}
	}
}

type categoryRepo struct{ s *Store }

func (r categoryRepo) FindAll(ctx context.Context) ([]domain.EquipmentCategory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.categories, nil, func(a, b domain.EquipmentCategory) int {
		return cmp.Or(
			cmp.Compare(a.CategoryMajor(), b.CategoryMajor()),
			cmp.Compare(a.CategoryMinor(), b.CategoryMinor()),
			cmp.Compare(a.ID(), b.ID()),
		)
	}), nil
}

func (r categoryRepo) FindByCategory(ctx context.Context, major, minor string) (domain.EquipmentCategory, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.categories {
		if strings.EqualFold(c.CategoryMajor(), strings.TrimSpace(major)) &&
			strings.EqualFold(c.CategoryMinor(), strings.TrimSpace(minor)) {
			return c, true, nil
		}
	}
	return domain.EquipmentCategory{}, false, nil
}

func (r categoryRepo) FindByID(ctx context.Context, id string) (domain.EquipmentCategory, bool, error) {
	return lookup(r.s, r.s.categories, id)
}

func (r categoryRepo) Save(ctx context.Context, c domain.EquipmentCategory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.categories[c.ID()] = c
	return nil
}

func (r categoryRepo) Delete(ctx context.Context, id string) error {
	return remove(r.s, r.s.categories, id, nil)
}

// --- reservations ---

type reservationRepo struct{ s *Store }

func compareReservations(a, b domain.Reservation) int {
	return cmp.Or(a.StartTime().Compare(b.StartTime()), cmp.Compare(a.ID(), b.ID()))
}

func (r reservationRepo) FindAll(ctx context.Context) ([]domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.reservations, nil, compareReservations), nil
}

func (r reservationRepo) FindByEquipmentAndDateRange(ctx context.Context, equipmentID string, from, to time.Time) ([]domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	window := scheduler.Window{Start: from, End: to}
	return collect(r.s.reservations, func(res domain.Reservation) bool {
		return res.EquipmentID() == equipmentID &&
			window.Overlaps(scheduler.Window{Start: res.StartTime(), End: res.EndTime()})
	}, compareReservations), nil
}

func (r reservationRepo) FindByUserID(ctx context.Context, userID string) ([]domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.reservations, func(res domain.Reservation) bool {
		return res.UserID() == userID
	}, compareReservations), nil
}

func (r reservationRepo) FindByID(ctx context.Context, id string) (domain.Reservation, bool, error) {
	return lookup(r.s, r.s.reservations, id)
}

// Save checks for overlaps and writes under the same lock.
func (r reservationRepo) Save(ctx context.Context, res domain.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.equipment[res.EquipmentID()]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := r.s.users[res.UserID()]; !ok {
		return persistence.ErrForeignKeyViolation
	}

	existing := make([]scheduler.Booking, 0, len(r.s.reservations))
	for _, other := range r.s.reservations {
		existing = append(existing, scheduler.BookingFromReservation(other))
	}
	if len(scheduler.DetectConflicts(existing, scheduler.BookingFromReservation(res))) > 0 {
		return persistence.ErrOverlap
	}

	r.s.reservations[res.ID()] = res
	return nil
}

func (r reservationRepo) Delete(ctx context.Context, id string) error {
	return remove(r.s, r.s.reservations, id, nil)
}

// --- maintenance, comments ---

type maintenanceRepo struct{ s *Store }

// Newest records first.
func compareMaintenance(a, b domain.MaintenanceRecord) int {
	return cmp.Or(b.RecordDate().Compare(a.RecordDate()), cmp.Compare(a.ID(), b.ID()))
}

func (r maintenanceRepo) FindAll(ctx context.Context) ([]domain.MaintenanceRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.maintenance, nil, compareMaintenance), nil
}

func (r maintenanceRepo) FindByEquipmentID(ctx context.Context, equipmentID string) ([]domain.MaintenanceRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.maintenance, func(m domain.MaintenanceRecord) bool {
		return m.EquipmentID() == equipmentID
	}, compareMaintenance), nil
}

func (r maintenanceRepo) FindByID(ctx context.Context, id string) (domain.MaintenanceRecord, bool, error) {
	return lookup(r.s, r.s.maintenance, id)
}

func (r maintenanceRepo) Save(ctx context.Context, m domain.MaintenanceRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.equipment[m.EquipmentID()]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := r.s.users[m.PerformedBy()]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	r.s.maintenance[m.ID()] = m
	return nil
}

func (r maintenanceRepo) Delete(ctx context.Context, id string) error {
	return remove(r.s, r.s.maintenance, id, nil)
}

type commentRepo struct{ s *Store }

func compareComments(a, b domain.EquipmentComment) int {
	return cmp.Or(a.CreatedAt().Compare(b.CreatedAt()), cmp.Compare(a.ID(), b.ID()))
}

func (r commentRepo) FindAll(ctx context.Context) ([]domain.EquipmentComment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.comments, nil, compareComments), nil
}

func (r commentRepo) FindByEquipmentID(ctx context.Context, equipmentID string) ([]domain.EquipmentComment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.comments, func(c domain.EquipmentComment) bool {
		return c.EquipmentID() == equipmentID
	}, compareComments), nil
}

func (r commentRepo) FindByID(ctx context.Context, id string) (domain.EquipmentComment, bool, error) {
	return lookup(r.s, r.s.comments, id)
}

func (r commentRepo) Save(ctx context.Context, c domain.EquipmentComment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.equipment[c.EquipmentID()]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	if _, ok := r.s.users[c.UserID()]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	r.s.comments[c.ID()] = c
	return nil
}

func (r commentRepo) Delete(ctx context.Context, id string) error {
	return remove(r.s, r.s.comments, id, nil)
}

// --- users, settings ---

type userRepo struct{ s *Store }

func (r userRepo) FindAll(ctx context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.users, func(u domain.User) bool { return !u.Deleted() }, func(a, b domain.User) int {
		return cmp.Or(a.CreatedAt().Compare(b.CreatedAt()), cmp.Compare(a.ID(), b.ID()))
	}), nil
}

func (r userRepo) FindByID(ctx context.Context, id string) (domain.User, bool, error) {
	return lookup(r.s, r.s.users, id)
}

func (r userRepo) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	lower := strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if !u.Deleted() && u.Email() == lower {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (r userRepo) Save(ctx context.Context, u domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, existing := range r.s.users {
		if id != u.ID() && existing.Email() == u.Email() {
			return persistence.ErrDuplicate
		}
	}
	r.s.users[u.ID()] = u
	return nil
}

func (r userRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.Deleted() {
		return persistence.ErrNotFound
	}
	deleted, err := u.WithDeletedAt(at)
	if err != nil {
		return err
	}
	r.s.users[id] = deleted
	return nil
}

func (r userRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users), nil
}

type settingRepo struct{ s *Store }

func (r settingRepo) FindAll(ctx context.Context) ([]domain.SystemSetting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return collect(r.s.settings, nil, func(a, b domain.SystemSetting) int {
		return cmp.Compare(a.Key(), b.Key())
	}), nil
}

func (r settingRepo) FindByKey(ctx context.Context, key string) (domain.SystemSetting, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.settings[key]
	return v, ok, nil
}

// Save keys settings by name; an existing row keeps its id.
func (r settingRepo) Save(ctx context.Context, setting domain.SystemSetting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.settings[setting.Key()]; ok && existing.ID() != setting.ID() {
		in := setting.Input()
		in.ID = existing.ID()
		rekeyed, err := domain.NewSystemSetting(in)
		if err != nil {
			return err
		}
		setting = rekeyed
	}
	r.s.settings[setting.Key()] = setting
	return nil
}
