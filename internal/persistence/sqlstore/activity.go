package sqlstore

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"github.com/example/equipment-reservation/internal/domain"
)

const (
	tableMaintenance = "maintenance_records"
	tableComments    = "equipment_comments"
)

type maintenanceRow struct {
	ID          string        `db:"id"`
	EquipmentID string        `db:"equipment_id"`
	RecordDate  dbTime        `db:"record_date"`
	Description string        `db:"description"`
	PerformedBy string        `db:"performed_by"`
	Cost        sql.NullInt64 `db:"cost"`
}

func (r maintenanceRow) toDomain() (domain.MaintenanceRecord, error) {
	return domain.NewMaintenanceRecord(domain.MaintenanceInput{
		ID:          r.ID,
		EquipmentID: r.EquipmentID,
		RecordDate:  r.RecordDate.Time,
		Description: r.Description,
		PerformedBy: r.PerformedBy,
		Cost:        nullInt(r.Cost),
	})
}

type maintenanceRepo struct{ s *Store }

// query lists the newest records first.
func (r maintenanceRepo) query() *goqu.SelectDataset {
	return r.s.from(tableMaintenance).
		Select("id", "equipment_id", "record_date", "description", "performed_by", "cost").
		Order(goqu.C("record_date").Desc(), goqu.C("id").Asc())
}

func (r maintenanceRepo) FindAll(ctx context.Context) ([]domain.MaintenanceRecord, error) {
	return selectAll(ctx, r.s, r.query(), maintenanceRow.toDomain)
}

func (r maintenanceRepo) FindByEquipmentID(ctx context.Context, equipmentID string) ([]domain.MaintenanceRecord, error) {
	return selectAll(ctx, r.s, r.query().Where(goqu.Ex{"equipment_id": equipmentID}), maintenanceRow.toDomain)
}

func (r maintenanceRepo) FindByID(ctx context.Context, id string) (domain.MaintenanceRecord, bool, error) {
	return selectOne(ctx, r.s, r.query().Where(goqu.Ex{"id": id}), maintenanceRow.toDomain)
}

func (r maintenanceRepo) Save(ctx context.Context, m domain.MaintenanceRecord) error {
	return r.s.save(ctx, tableMaintenance, m.ID(), goqu.Record{
		"id":           m.ID(),
		"equipment_id": m.EquipmentID(),
		"record_date":  r.s.pool.timeArg(m.RecordDate()),
		"description":  m.Description(),
		"performed_by": m.PerformedBy(),
		"cost":         optionalArg(m.Cost()),
	})
}

func (r maintenanceRepo) Delete(ctx context.Context, id string) error {
	return r.s.deleteByID(ctx, tableMaintenance, id)
}

type commentRow struct {
	ID          string `db:"id"`
	EquipmentID string `db:"equipment_id"`
	UserID      string `db:"user_id"`
	Content     string `db:"content"`
	CreatedAt   dbTime `db:"created_at"`
}

func (r commentRow) toDomain() (domain.EquipmentComment, error) {
	return domain.NewEquipmentComment(domain.CommentInput{
		ID:          r.ID,
		EquipmentID: r.EquipmentID,
		UserID:      r.UserID,
		Content:     r.Content,
		CreatedAt:   r.CreatedAt.Time,
	})
}

type commentRepo struct{ s *Store }

func (r commentRepo) query() *goqu.SelectDataset {
	return r.s.from(tableComments).
		Select("id", "equipment_id", "user_id", "content", "created_at").
		Order(goqu.C("created_at").Asc(), goqu.C("id").Asc())
}

func (r commentRepo) FindAll(ctx context.Context) ([]domain.EquipmentComment, error) {
	return selectAll(ctx, r.s, r.query(), commentRow.toDomain)
}

func (r commentRepo) FindByEquipmentID(ctx context.Context, equipmentID string) ([]domain.EquipmentComment, error) {
	return selectAll(ctx, r.s, r.query().Where(goqu.Ex{"equipment_id": equipmentID}), commentRow.toDomain)
}

func (r commentRepo) FindByID(ctx context.Context, id string) (domain.EquipmentComment, bool, error) {
	return selectOne(ctx, r.s, r.query().Where(goqu.Ex{"id": id}), commentRow.toDomain)
}

func (r commentRepo) Save(ctx context.Context, c domain.EquipmentComment) error {
	return r.s.save(ctx, tableComments, c.ID(), goqu.Record{
		"id":           c.ID(),
		"equipment_id": c.EquipmentID(),
		"user_id":      c.UserID(),
		"content":      c.Content(),
		"created_at":   r.s.pool.timeArg(c.CreatedAt()),
	})
}

func (r commentRepo) Delete(ctx context.Context, id string) error {
	return r.s.deleteByID(ctx, tableComments, id)
}
