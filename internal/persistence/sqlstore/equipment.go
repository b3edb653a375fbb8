package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/example/equipment-reservation/internal/domain"
)

const (
	tableEquipment  = "equipment"
	tableViceAdmins = "equipment_vice_administrators"
	tableCategories = "equipment_categories"
)

var equipmentColumns = []string{
	"id", "name", "description", "category_major", "category_minor",
	"room_id", "running_state", "installation_date", "administrator_id",
}

type equipmentRow struct {
	ID               string         `db:"id"`
	Name             string         `db:"name"`
	Description      sql.NullString `db:"description"`
	CategoryMajor    sql.NullString `db:"category_major"`
	CategoryMinor    sql.NullString `db:"category_minor"`
	RoomID           sql.NullString `db:"room_id"`
	RunningState     string         `db:"running_state"`
	InstallationDate nullTime       `db:"installation_date"`
	AdministratorID  sql.NullString `db:"administrator_id"`
}

func (r equipmentRow) input() domain.EquipmentInput {
	return domain.EquipmentInput{
		ID:               r.ID,
		Name:             r.Name,
		Description:      nullString(r.Description),
		CategoryMajor:    nullString(r.CategoryMajor),
		CategoryMinor:    nullString(r.CategoryMinor),
		RoomID:           nullString(r.RoomID),
		RunningState:     r.RunningState,
		InstallationDate: r.InstallationDate.ptr(),
		AdministratorID:  nullString(r.AdministratorID),
	}
}

type viceAdminRow struct {
	EquipmentID string `db:"equipment_id"`
	UserID      string `db:"user_id"`
}

type equipmentRepo struct{ s *Store }

// columns qualifies the equipment columns with alias when one is given.
func (r equipmentRepo) columns(alias string) []any {
	cols := make([]any, len(equipmentColumns))
	for i, c := range equipmentColumns {
		if alias == "" {
			cols[i] = goqu.C(c)
		} else {
			cols[i] = goqu.I(alias + "." + c)
		}
	}
	return cols
}

func (r equipmentRepo) query() *goqu.SelectDataset {
	return r.s.from(tableEquipment).
		Select(r.columns("")...).
		Order(goqu.C("name").Asc(), goqu.C("id").Asc())
}

// load runs stmt and attaches the vice administrators of every row.
func (r equipmentRepo) load(ctx context.Context, stmt *goqu.SelectDataset) ([]domain.Equipment, error) {
	var rows []equipmentRow
	if err := r.s.query.Select(ctx, r.s.pool.DB(), &rows, stmt); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []domain.Equipment{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	var vice []viceAdminRow
	viceQuery := r.s.from(tableViceAdmins).
		Select("equipment_id", "user_id").
		Where(goqu.C("equipment_id").In(ids)).
		Order(goqu.C("equipment_id").Asc(), goqu.C("position").Asc())
	if err := r.s.query.Select(ctx, r.s.pool.DB(), &vice, viceQuery); err != nil {
		return nil, err
	}
	byEquipment := make(map[string][]string, len(rows))
	for _, v := range vice {
		byEquipment[v.EquipmentID] = append(byEquipment[v.EquipmentID], v.UserID)
	}

	out := make([]domain.Equipment, 0, len(rows))
	for _, row := range rows {
		in := row.input()
		in.ViceAdministratorIDs = byEquipment[row.ID]
		e, err := domain.NewEquipment(in)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r equipmentRepo) loadOne(ctx context.Context, stmt *goqu.SelectDataset) (domain.Equipment, bool, error) {
	found, err := r.load(ctx, stmt.Limit(1))
	if err != nil || len(found) == 0 {
		return domain.Equipment{}, false, err
	}
	return found[0], true, nil
}

func (r equipmentRepo) FindAll(ctx context.Context) ([]domain.Equipment, error) {
	return r.load(ctx, r.query())
}

func (r equipmentRepo) FindByRoomID(ctx context.Context, roomID string) ([]domain.Equipment, error) {
	return r.load(ctx, r.query().Where(goqu.Ex{"room_id": roomID}))
}

// FindRecentlyUsedByUserID ranks equipment by the latest start time among the
// user's reservations.
func (r equipmentRepo) FindRecentlyUsedByUserID(ctx context.Context, userID string, limit int) ([]domain.Equipment, error) {
	usage := r.s.from(tableReservations).
		Select(goqu.C("equipment_id"), goqu.MAX("start_time").As("last_used")).
		Where(goqu.Ex{"user_id": userID}).
		GroupBy("equipment_id")

	stmt := r.s.from(goqu.T(tableEquipment).As("e")).
		Select(r.columns("e")...).
		Join(usage.As("r"), goqu.On(goqu.I("r.equipment_id").Eq(goqu.I("e.id")))).
		Order(goqu.I("r.last_used").Desc(), goqu.I("e.id").Asc())
	if limit > 0 {
		stmt = stmt.Limit(uint(limit))
	}
	return r.load(ctx, stmt)
}

func (r equipmentRepo) FindByID(ctx context.Context, id string) (domain.Equipment, bool, error) {
	return r.loadOne(ctx, r.query().Where(goqu.Ex{"id": id}))
}

// Save writes the equipment row and replaces its vice administrator list in
// one transaction.
func (r equipmentRepo) Save(ctx context.Context, e domain.Equipment) error {
	installed, hasInstalled := e.InstallationDate()
	record := goqu.Record{
		"id":                e.ID(),
		"name":              e.Name(),
		"description":       optionalArg(e.Description()),
		"category_major":    optionalArg(e.CategoryMajor()),
		"category_minor":    optionalArg(e.CategoryMinor()),
		"room_id":           optionalArg(e.RoomID()),
		"running_state":     string(e.RunningState()),
		"installation_date": r.s.pool.nullableTimeArg(installed, hasInstalled),
		"administrator_id":  optionalArg(e.AdministratorID()),
	}

	return r.s.write(ctx, func(tx *sqlx.Tx) error {
		if err := r.s.upsert(ctx, tx, tableEquipment, goqu.Ex{"id": e.ID()}, record); err != nil {
			return err
		}
		reset := r.s.pool.dialect.Delete(tableViceAdmins).Prepared(true).Where(goqu.Ex{"equipment_id": e.ID()})
		if _, err := r.s.query.Exec(ctx, tx, reset); err != nil {
			return err
		}
		vice := e.ViceAdministratorIDs()
		if len(vice) == 0 {
			return nil
		}
		rows := make([]any, len(vice))
		for i, userID := range vice {
			rows[i] = goqu.Record{"equipment_id": e.ID(), "user_id": userID, "position": i}
		}
		insert := r.s.pool.dialect.Insert(tableViceAdmins).Prepared(true).Rows(rows...)
		_, err := r.s.query.Exec(ctx, tx, insert)
		return err
	})
}

func (r equipmentRepo) Delete(ctx context.Context, id string) error {
	return r.s.deleteByID(ctx, tableEquipment, id)
}

type categoryRow struct {
	ID            string `db:"id"`
	CategoryMajor string `db:"category_major"`
	CategoryMinor string `db:"category_minor"`
}

func (r categoryRow) toDomain() (domain.EquipmentCategory, error) {
	return domain.NewEquipmentCategory(domain.CategoryInput{
		ID:            r.ID,
		CategoryMajor: r.CategoryMajor,
		CategoryMinor: r.CategoryMinor,
	})
}

type categoryRepo struct{ s *Store }

func (r categoryRepo) query() *goqu.SelectDataset {
	return r.s.from(tableCategories).
		Select("id", "category_major", "category_minor").
		Order(goqu.C("category_major").Asc(), goqu.C("category_minor").Asc(), goqu.C("id").Asc())
}

func (r categoryRepo) FindAll(ctx context.Context) ([]domain.EquipmentCategory, error) {
	return selectAll(ctx, r.s, r.query(), categoryRow.toDomain)
}

func (r categoryRepo) FindByCategory(ctx context.Context, major, minor string) (domain.EquipmentCategory, bool, error) {
	stmt := r.query().Where(
		goqu.Func("LOWER", goqu.C("category_major")).Eq(strings.ToLower(strings.TrimSpace(major))),
		goqu.Func("LOWER", goqu.C("category_minor")).Eq(strings.ToLower(strings.TrimSpace(minor))),
	)
	return selectOne(ctx, r.s, stmt, categoryRow.toDomain)
}

func (r categoryRepo) FindByID(ctx context.Context, id string) (domain.EquipmentCategory, bool, error) {
	return selectOne(ctx, r.s, r.query().Where(goqu.Ex{"id": id}), categoryRow.toDomain)
}

func (r categoryRepo) Save(ctx context.Context, c domain.EquipmentCategory) error {
	return r.s.save(ctx, tableCategories, c.ID(), goqu.Record{
		"id":             c.ID(),
		"category_major": c.CategoryMajor(),
		"category_minor": c.CategoryMinor(),
	})
}

func (r categoryRepo) Delete(ctx context.Context, id string) error {
	return r.s.deleteByID(ctx, tableCategories, id)
}
