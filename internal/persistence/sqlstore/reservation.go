package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/persistence"
)

const tableReservations = "reservations"

type reservationRow struct {
	ID          string         `db:"id"`
	StartTime   dbTime         `db:"start_time"`
	EndTime     dbTime         `db:"end_time"`
	Comment     sql.NullString `db:"comment"`
	UserID      string         `db:"user_id"`
	EquipmentID string         `db:"equipment_id"`
}

func (r reservationRow) toDomain() (domain.Reservation, error) {
	return domain.NewReservation(domain.ReservationInput{
		ID:          r.ID,
		StartTime:   r.StartTime.Time,
		EndTime:     r.EndTime.Time,
		Comment:     nullString(r.Comment),
		UserID:      r.UserID,
		EquipmentID: r.EquipmentID,
	})
}

type reservationRepo struct{ s *Store }

func (r reservationRepo) query() *goqu.SelectDataset {
	return r.s.from(tableReservations).
		Select("id", "start_time", "end_time", "comment", "user_id", "equipment_id").
		Order(goqu.C("start_time").Asc(), goqu.C("id").Asc())
}

func (r reservationRepo) FindAll(ctx context.Context) ([]domain.Reservation, error) {
	return selectAll(ctx, r.s, r.query(), reservationRow.toDomain)
}

// FindByEquipmentAndDateRange returns reservations intersecting [from, to).
func (r reservationRepo) FindByEquipmentAndDateRange(ctx context.Context, equipmentID string, from, to time.Time) ([]domain.Reservation, error) {
	stmt := r.query().Where(
		goqu.C("equipment_id").Eq(equipmentID),
		goqu.C("start_time").Lt(r.s.pool.timeArg(to)),
		goqu.C("end_time").Gt(r.s.pool.timeArg(from)),
	)
	return selectAll(ctx, r.s, stmt, reservationRow.toDomain)
}

func (r reservationRepo) FindByUserID(ctx context.Context, userID string) ([]domain.Reservation, error) {
	return selectAll(ctx, r.s, r.query().Where(goqu.Ex{"user_id": userID}), reservationRow.toDomain)
}

func (r reservationRepo) FindByID(ctx context.Context, id string) (domain.Reservation, bool, error) {
	return selectOne(ctx, r.s, r.query().Where(goqu.Ex{"id": id}), reservationRow.toDomain)
}

// overlapGuard matches any other reservation of the same equipment that
// intersects the window of res.
func (r reservationRepo) overlapGuard(res domain.Reservation) *goqu.SelectDataset {
	return r.s.from(goqu.T(tableReservations).As("other")).
		Select(goqu.L("1")).
		Where(
			goqu.I("other.equipment_id").Eq(res.EquipmentID()),
			goqu.I("other.id").Neq(res.ID()),
			goqu.I("other.start_time").Lt(r.s.pool.timeArg(res.EndTime())),
			goqu.I("other.end_time").Gt(r.s.pool.timeArg(res.StartTime())),
		)
}

// Save writes the reservation only if no overlapping reservation exists. The
// overlap test is the WHERE clause of the INSERT or UPDATE statement; the
// schema trigger (SQLite) or exclusion constraint (Postgres) backs it up.
func (r reservationRepo) Save(ctx context.Context, res domain.Reservation) error {
	guard := goqu.L("NOT EXISTS ?", r.overlapGuard(res))
	timeType := r.s.pool.timeType()
	start := r.s.pool.timeArg(res.StartTime())
	end := r.s.pool.timeArg(res.EndTime())
	comment := optionalArg(res.Comment())

	return r.s.write(ctx, func(tx *sqlx.Tx) error {
		var existing int
		count := r.s.from(tableReservations).Select(goqu.COUNT("*")).Where(goqu.Ex{"id": res.ID()})
		if _, err := r.s.query.Get(ctx, tx, &existing, count); err != nil {
			return err
		}

		var stmt statement
		if existing > 0 {
			stmt = r.s.pool.dialect.Update(tableReservations).Prepared(true).
				Set(goqu.Record{
					"start_time":   start,
					"end_time":     end,
					"comment":      comment,
					"user_id":      res.UserID(),
					"equipment_id": res.EquipmentID(),
				}).
				Where(goqu.C("id").Eq(res.ID()), guard)
		} else {
			values := r.s.pool.dialect.Select(
				goqu.Cast(goqu.V(res.ID()), "TEXT"),
				goqu.Cast(goqu.V(start), timeType),
				goqu.Cast(goqu.V(end), timeType),
				goqu.Cast(goqu.V(comment), "TEXT"),
				goqu.Cast(goqu.V(res.UserID()), "TEXT"),
				goqu.Cast(goqu.V(res.EquipmentID()), "TEXT"),
			).Prepared(true).Where(guard)
			stmt = r.s.pool.dialect.Insert(tableReservations).Prepared(true).
				Cols("id", "start_time", "end_time", "comment", "user_id", "equipment_id").
				FromQuery(values)
		}

		affected, err := r.s.query.Exec(ctx, tx, stmt)
		if err != nil {
			return err
		}
		if affected == 0 {
			return persistence.ErrOverlap
		}
		return nil
	})
}

func (r reservationRepo) Delete(ctx context.Context, id string) error {
	return r.s.deleteByID(ctx, tableReservations, id)
}
