package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/example/equipment-reservation/internal/domain"
	"github.com/example/equipment-reservation/internal/persistence"
)

const (
	tableUsers    = "users"
	tableSettings = "system_settings"
)

type userRow struct {
	ID           string         `db:"id"`
	Email        string         `db:"email"`
	PasswordHash string         `db:"password_hash"`
	Name         sql.NullString `db:"name"`
	DisplayName  sql.NullString `db:"display_name"`
	Role         string         `db:"role"`
	CreatedAt    dbTime         `db:"created_at"`
	UpdatedAt    dbTime         `db:"updated_at"`
	DeletedAt    nullTime       `db:"deleted_at"`
}

func (r userRow) toDomain() (domain.User, error) {
	return domain.NewUser(domain.UserInput{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Name:         nullString(r.Name),
		DisplayName:  nullString(r.DisplayName),
		Role:         r.Role,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
		DeletedAt:    r.DeletedAt.ptr(),
	})
}

type userRepo struct{ s *Store }

func (r userRepo) query() *goqu.SelectDataset {
	return r.s.from(tableUsers).
		Select("id", "email", "password_hash", "name", "display_name", "role", "created_at", "updated_at", "deleted_at").
		Order(goqu.C("created_at").Asc(), goqu.C("id").Asc())
}

func (r userRepo) FindAll(ctx context.Context) ([]domain.User, error) {
	return selectAll(ctx, r.s, r.query().Where(goqu.C("deleted_at").IsNull()), userRow.toDomain)
}

// FindByID returns soft-deleted users too.
func (r userRepo) FindByID(ctx context.Context, id string) (domain.User, bool, error) {
	return selectOne(ctx, r.s, r.query().Where(goqu.Ex{"id": id}), userRow.toDomain)
}

func (r userRepo) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	stmt := r.query().Where(
		goqu.C("email").Eq(strings.ToLower(strings.TrimSpace(email))),
		goqu.C("deleted_at").IsNull(),
	)
	return selectOne(ctx, r.s, stmt, userRow.toDomain)
}

func (r userRepo) Save(ctx context.Context, u domain.User) error {
	deletedAt, deleted := u.DeletedAt()
	return r.s.save(ctx, tableUsers, u.ID(), goqu.Record{
		"id":            u.ID(),
		"email":         u.Email(),
		"password_hash": u.PasswordHash(),
		"name":          optionalArg(u.Name()),
		"display_name":  optionalArg(u.DisplayName()),
		"role":          string(u.Role()),
		"created_at":    r.s.pool.timeArg(u.CreatedAt()),
		"updated_at":    r.s.pool.timeArg(u.UpdatedAt()),
		"deleted_at":    r.s.pool.nullableTimeArg(deletedAt, deleted),
	})
}

// SoftDelete stamps deleted_at on a live user.
func (r userRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	return r.s.write(ctx, func(tx *sqlx.Tx) error {
		update := r.s.pool.dialect.Update(tableUsers).Prepared(true).
			Set(goqu.Record{
				"deleted_at": r.s.pool.timeArg(at),
				"updated_at": r.s.pool.timeArg(at),
			}).
			Where(goqu.C("id").Eq(id), goqu.C("deleted_at").IsNull())
		affected, err := r.s.query.Exec(ctx, tx, update)
		if err != nil {
			return err
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

func (r userRepo) Count(ctx context.Context) (int, error) {
	var n int
	_, err := r.s.query.Get(ctx, r.s.pool.DB(), &n, r.s.from(tableUsers).Select(goqu.COUNT("*")))
	return n, err
}

type settingRow struct {
	ID        string         `db:"id"`
	Key       string         `db:"setting_key"`
	Value     string         `db:"value"`
	UpdatedAt dbTime         `db:"updated_at"`
	UpdatedBy sql.NullString `db:"updated_by"`
}

func (r settingRow) toDomain() (domain.SystemSetting, error) {
	return domain.NewSystemSetting(domain.SettingInput{
		ID:        r.ID,
		Key:       r.Key,
		Value:     r.Value,
		UpdatedAt: r.UpdatedAt.Time,
		UpdatedBy: nullString(r.UpdatedBy),
	})
}

type settingRepo struct{ s *Store }

func (r settingRepo) query() *goqu.SelectDataset {
	return r.s.from(tableSettings).
		Select("id", "setting_key", "value", "updated_at", "updated_by").
		Order(goqu.C("setting_key").Asc())
}

func (r settingRepo) FindAll(ctx context.Context) ([]domain.SystemSetting, error) {
	return selectAll(ctx, r.s, r.query(), settingRow.toDomain)
}

func (r settingRepo) FindByKey(ctx context.Context, key string) (domain.SystemSetting, bool, error) {
	return selectOne(ctx, r.s, r.query().Where(goqu.Ex{"setting_key": key}), settingRow.toDomain)
}

// Save replaces the value stored under the setting's key. An existing row
// keeps its id.
func (r settingRepo) Save(ctx context.Context, setting domain.SystemSetting) error {
	updatedBy := optionalArg(setting.UpdatedBy())
	return r.s.write(ctx, func(tx *sqlx.Tx) error {
		update := r.s.pool.dialect.Update(tableSettings).Prepared(true).
			Set(goqu.Record{
				"value":      setting.Value(),
				"updated_at": r.s.pool.timeArg(setting.UpdatedAt()),
				"updated_by": updatedBy,
			}).
			Where(goqu.Ex{"setting_key": setting.Key()})
		affected, err := r.s.query.Exec(ctx, tx, update)
		if err != nil || affected > 0 {
			return err
		}
		insert := r.s.pool.dialect.Insert(tableSettings).Prepared(true).Rows(goqu.Record{
			"id":          setting.ID(),
			"setting_key": setting.Key(),
			"value":       setting.Value(),
			"updated_at":  r.s.pool.timeArg(setting.UpdatedAt()),
			"updated_by":  updatedBy,
		})
		_, err = r.s.query.Exec(ctx, tx, insert)
		return err
	})
}
