package sqlstore

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"github.com/example/equipment-reservation/internal/domain"
)

const (
	tableBuildings = "buildings"
	tableFloors    = "floors"
	tableRooms     = "rooms"
)

type buildingRow struct {
	ID      string         `db:"id"`
	Name    string         `db:"name"`
	Address sql.NullString `db:"address"`
}

func (r buildingRow) toDomain() (domain.Building, error) {
	return domain.NewBuilding(domain.BuildingInput{ID: r.ID, Name: r.Name, Address: nullString(r.Address)})
}

type buildingRepo struct{ s *Store }

func (r buildingRepo) query() *goqu.SelectDataset {
	return r.s.from(tableBuildings).Select("id", "name", "address")
}

func (r buildingRepo) FindAll(ctx context.Context) ([]domain.Building, error) {
	return selectAll(ctx, r.s, r.query().Order(goqu.C("name").Asc(), goqu.C("id").Asc()), buildingRow.toDomain)
}

func (r buildingRepo) FindByID(ctx context.Context, id string) (domain.Building, bool, error) {
	return selectOne(ctx, r.s, r.query().Where(goqu.Ex{"id": id}), buildingRow.toDomain)
}

func (r buildingRepo) Save(ctx context.Context, b domain.Building) error {
	return r.s.save(ctx, tableBuildings, b.ID(), goqu.Record{
		"id":      b.ID(),
		"name":    b.Name(),
		"address": optionalArg(b.Address()),
	})
}

func (r buildingRepo) Delete(ctx context.Context, id string) error {
	return r.s.deleteByID(ctx, tableBuildings, id)
}

type floorRow struct {
	ID          string        `db:"id"`
	Name        string        `db:"name"`
	BuildingID  string        `db:"building_id"`
	FloorNumber sql.NullInt64 `db:"floor_number"`
}

func (r floorRow) toDomain() (domain.Floor, error) {
	return domain.NewFloor(domain.FloorInput{
		ID:          r.ID,
		Name:        r.Name,
		BuildingID:  r.BuildingID,
		FloorNumber: nullInt(r.FloorNumber),
	})
}

type floorRepo struct{ s *Store }

// query orders numbered floors before unnumbered ones.
func (r floorRepo) query() *goqu.SelectDataset {
	return r.s.from(tableFloors).
		Select("id", "name", "building_id", "floor_number").
		Order(
			goqu.L("floor_number IS NULL").Asc(),
			goqu.C("floor_number").Asc(),
			goqu.C("name").Asc(),
			goqu.C("id").Asc(),
		)
}

func (r floorRepo) FindAll(ctx context.Context) ([]domain.Floor, error) {
	return selectAll(ctx, r.s, r.query(), floorRow.toDomain)
}

func (r floorRepo) FindByBuildingID(ctx context.Context, buildingID string) ([]domain.Floor, error) {
	return selectAll(ctx, r.s, r.query().Where(goqu.Ex{"building_id": buildingID}), floorRow.toDomain)
}

func (r floorRepo) FindByID(ctx context.Context, id string) (domain.Floor, bool, error) {
	return selectOne(ctx, r.s, r.query().Where(goqu.Ex{"id": id}), floorRow.toDomain)
}

func (r floorRepo) Save(ctx context.Context, f domain.Floor) error {
	return r.s.save(ctx, tableFloors, f.ID(), goqu.Record{
		"id":           f.ID(),
		"name":         f.Name(),
		"building_id":  f.BuildingID(),
		"floor_number": optionalArg(f.FloorNumber()),
	})
}

func (r floorRepo) Delete(ctx context.Context, id string) error {
	return r.s.deleteByID(ctx, tableFloors, id)
}

type roomRow struct {
	ID       string        `db:"id"`
	Name     string        `db:"name"`
	FloorID  string        `db:"floor_id"`
	Capacity sql.NullInt64 `db:"capacity"`
}

func (r roomRow) toDomain() (domain.Room, error) {
	return domain.NewRoom(domain.RoomInput{
		ID:       r.ID,
		Name:     r.Name,
		FloorID:  r.FloorID,
		Capacity: nullInt(r.Capacity),
	})
}

type roomRepo struct{ s *Store }

func (r roomRepo) query() *goqu.SelectDataset {
	return r.s.from(tableRooms).
		Select("id", "name", "floor_id", "capacity").
		Order(goqu.C("name").Asc(), goqu.C("id").Asc())
}

func (r roomRepo) FindAll(ctx context.Context) ([]domain.Room, error) {
	return selectAll(ctx, r.s, r.query(), roomRow.toDomain)
}

func (r roomRepo) FindByFloorID(ctx context.Context, floorID string) ([]domain.Room, error) {
	return selectAll(ctx, r.s, r.query().Where(goqu.Ex{"floor_id": floorID}), roomRow.toDomain)
}

func (r roomRepo) FindByID(ctx context.Context, id string) (domain.Room, bool, error) {
	return selectOne(ctx, r.s, r.query().Where(goqu.Ex{"id": id}), roomRow.toDomain)
}

func (r roomRepo) Save(ctx context.Context, room domain.Room) error {
	return r.s.save(ctx, tableRooms, room.ID(), goqu.Record{
		"id":       room.ID(),
		"name":     room.Name(),
		"floor_id": room.FloorID(),
		"capacity": optionalArg(room.Capacity()),
	})
}

func (r roomRepo) Delete(ctx context.Context, id string) error {
	return r.s.deleteByID(ctx, tableRooms, id)
}
