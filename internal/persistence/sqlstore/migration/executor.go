package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const createVersionTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version           TEXT PRIMARY KEY,
    applied_at        TEXT NOT NULL,
    checksum          TEXT NOT NULL DEFAULT '',
    execution_time_ms BIGINT NOT NULL DEFAULT 0
)`

// SQLExecutor applies migrations through database/sql. Placeholders are
// rebound for the connected driver, so one implementation serves SQLite and
// Postgres.
type SQLExecutor struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewExecutor creates an executor for db.
func NewExecutor(db *sqlx.DB) *SQLExecutor {
	return &SQLExecutor{db: db, now: time.Now}
}

// InitializeVersionTable creates schema_migrations when missing.
func (e *SQLExecutor) InitializeVersionTable(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, createVersionTableSQL); err != nil {
		return NewDatabaseError("", "create schema_migrations table", err)
	}
	return nil
}

// ApplyMigration executes the migration script and inserts its
// schema_migrations row in one transaction.
func (e *SQLExecutor) ApplyMigration(ctx context.Context, m Migration) (time.Duration, error) {
	started := e.now()

	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, NewDatabaseError(m.Version, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Scripts are executed whole because trigger bodies contain semicolons.
	if _, err = tx.ExecContext(ctx, m.SQL); err != nil {
		return 0, NewDatabaseError(m.Version, "execute script", err)
	}

	elapsed := e.now().Sub(started)
	insert := tx.Rebind(`INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`)
	if _, err = tx.ExecContext(ctx, insert, m.Version, e.now().UTC().Format(time.RFC3339), m.Checksum, elapsed.Milliseconds()); err != nil {
		return 0, NewDatabaseError(m.Version, "record migration", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, NewDatabaseError(m.Version, "commit transaction", err)
	}
	return elapsed, nil
}

type appliedRow struct {
	Version         string `db:"version"`
	AppliedAt       string `db:"applied_at"`
	Checksum        string `db:"checksum"`
	ExecutionTimeMS int64  `db:"execution_time_ms"`
}

// GetAppliedVersions returns applied migrations ordered by version.
func (e *SQLExecutor) GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error) {
	var rows []appliedRow
	err := e.db.SelectContext(ctx, &rows,
		`SELECT version, applied_at, checksum, execution_time_ms FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, NewDatabaseError("", "get applied versions", err)
	}

	applied := make([]AppliedMigration, 0, len(rows))
	for _, row := range rows {
		at, err := time.Parse(time.RFC3339, row.AppliedAt)
		if err != nil {
			return nil, NewDatabaseError(row.Version, "parse applied_at",
				fmt.Errorf("%w: %v", ErrVersionTableCorrupt, err))
		}
		applied = append(applied, AppliedMigration{
			Version:       row.Version,
			AppliedAt:     at,
			ExecutionTime: time.Duration(row.ExecutionTimeMS) * time.Millisecond,
			Checksum:      row.Checksum,
		})
	}
	return applied, nil
}
