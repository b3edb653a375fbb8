// Package sqlstore implements the persistence repositories on top of SQLite
// (modernc.org/sqlite) or PostgreSQL (pgx). Statements are built with goqu so
// the same repository code serves both dialects; the schema for each backend
// lives in embedded migration scripts.
package sqlstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/example/equipment-reservation/internal/persistence"
	"github.com/example/equipment-reservation/internal/persistence/sqlstore/migration"
)

// Store owns the connection pool and hands out repositories bound to it.
type Store struct {
	pool   *ConnectionPool
	query  *QueryHelper
	retry  *RetryHelper
	logger *slog.Logger
}

// Open connects to the database described by config. Call Migrate before
// using the repositories on a fresh database.
func Open(ctx context.Context, config Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, err
	}
	mapper := NewErrorMapper()
	logger.InfoContext(ctx, "database connected", "driver", string(config.Driver))
	return &Store{
		pool:   pool,
		query:  NewQueryHelper(mapper),
		retry:  NewRetryHelper(DefaultRetryConfig(), mapper),
		logger: logger,
	}, nil
}

func (s *Store) migrations() migration.MigrationManager {
	return migration.NewMigrationManager(
		migration.NewFileScanner(),
		migration.NewExecutor(s.pool.DB()),
		migrationFiles,
		migrationDir(s.pool.Driver()),
		s.logger,
	)
}

// Migrate applies pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.migrations().RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}

// MigrationStatus reports applied and pending schema migrations.
func (s *Store) MigrationStatus(ctx context.Context) (*migration.MigrationStatus, error) {
	return s.migrations().GetMigrationStatus(ctx)
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
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

// from starts a prepared SELECT on table.
func (s *Store) from(table any) *goqu.SelectDataset {
	return s.pool.dialect.From(table).Prepared(true)
}

// write runs fn in a transaction, retrying while the database is busy.
func (s *Store) write(ctx context.Context, fn TransactionFunc) error {
	return s.retry.WithRetry(ctx, func() error {
		return s.pool.WithTransaction(ctx, fn)
	})
}

// upsert updates the row matched by key or inserts record when none exists.
func (s *Store) upsert(ctx context.Context, tx *sqlx.Tx, table string, key goqu.Ex, record goqu.Record) error {
	update := s.pool.dialect.Update(table).Prepared(true).Set(record).Where(key)
	affected, err := s.query.Exec(ctx, tx, update)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	insert := s.pool.dialect.Insert(table).Prepared(true).Rows(record)
	_, err = s.query.Exec(ctx, tx, insert)
	return err
}

// save upserts a single row keyed by id.
func (s *Store) save(ctx context.Context, table, id string, record goqu.Record) error {
	return s.write(ctx, func(tx *sqlx.Tx) error {
		return s.upsert(ctx, tx, table, goqu.Ex{"id": id}, record)
	})
}

// deleteByID removes the row with id, reporting ErrNotFound when nothing
// matched. Dependent rows are removed by the schema's ON DELETE rules.
func (s *Store) deleteByID(ctx context.Context, table, id string) error {
	return s.write(ctx, func(tx *sqlx.Tx) error {
		del := s.pool.dialect.Delete(table).Prepared(true).Where(goqu.Ex{"id": id})
		affected, err := s.query.Exec(ctx, tx, del)
		if err != nil {
			return err
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

// selectAll loads every row of stmt and converts it with convert.
func selectAll[R any, T any](ctx context.Context, s *Store, stmt *goqu.SelectDataset, convert func(R) (T, error)) ([]T, error) {
	var rows []R
	if err := s.query.Select(ctx, s.pool.DB(), &rows, stmt); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := convert(row)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: decode row: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// selectOne loads the first row of stmt.
func selectOne[R any, T any](ctx context.Context, s *Store, stmt *goqu.SelectDataset, convert func(R) (T, error)) (T, bool, error) {
	var (
		row  R
		zero T
	)
	found, err := s.query.Get(ctx, s.pool.DB(), &row, stmt.Limit(1))
	if err != nil || !found {
		return zero, false, err
	}
	v, err := convert(row)
	if err != nil {
		return zero, false, fmt.Errorf("sqlstore: decode row: %w", err)
	}
	return v, true, nil
}
