package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/example/equipment-reservation/internal/persistence"
)

// ConnectionPool wraps the database handle together with the SQL dialect used
// to build statements for it.
type ConnectionPool struct {
	db      *sqlx.DB
	config  Config
	dialect goqu.DialectWrapper
}

// NewConnectionPool opens and pings a database described by config.
func NewConnectionPool(ctx context.Context, config Config) (*ConnectionPool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := config.ensureDirectory(); err != nil {
		return nil, err
	}

	db, err := sqlx.Open(config.driverName(), config.connectionString())
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s database: %w", config.Driver, err)
	}

	maxOpen := config.MaxOpenConns
	if config.Driver == DriverSQLite && config.inMemory() {
		// Every connection to :memory: is a separate database.
		maxOpen = 1
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping %s database: %w", config.Driver, err)
	}

	return &ConnectionPool{
		db:      db,
		config:  config,
		dialect: goqu.Dialect(config.goquDialect()),
	}, nil
}

// DB returns the underlying database handle.
func (cp *ConnectionPool) DB() *sqlx.DB {
	return cp.db
}

// Driver reports the backend the pool is connected to.
func (cp *ConnectionPool) Driver() Driver {
	return cp.config.Driver
}

// Close closes the connection pool.
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Ping tests the database connection.
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// TransactionFunc is executed by WithTransaction.
type TransactionFunc func(tx *sqlx.Tx) error

// WithTransaction runs fn inside a transaction, committing when fn returns
// nil and rolling back otherwise.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := cp.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit transaction: %w", err)
	}
	return nil
}

// timeArg converts t into the value the backend compares correctly. SQLite
// stores instants as fixed-width UTC text so that string ordering matches
// time ordering.
func (cp *ConnectionPool) timeArg(t time.Time) any {
	if cp.config.Driver == DriverPostgres {
		return t.UTC()
	}
	return formatTime(t)
}

func (cp *ConnectionPool) nullableTimeArg(t time.Time, ok bool) any {
	if !ok {
		return nil
	}
	return cp.timeArg(t)
}

// timeType is the column type instants are cast to inside SELECT lists.
func (cp *ConnectionPool) timeType() string {
	if cp.config.Driver == DriverPostgres {
		return "TIMESTAMPTZ"
	}
	return "TEXT"
}

// errBusy marks a transient lock error that is safe to retry.
var errBusy = errors.New("sqlstore: database busy")

// ErrorMapper translates driver errors into persistence sentinels.
type ErrorMapper struct{}

// NewErrorMapper creates a new error mapper.
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// Postgres SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
	pgExclusionViolation  = "23P01"
	pgSerialization       = "40001"
	pgDeadlock            = "40P01"
)

// overlapMarker is raised by the SQLite reservation triggers.
const overlapMarker = "RESERVATION_OVERLAP"

// MapError maps backend specific errors to persistence errors. Unknown
// errors are returned unchanged.
func (em *ErrorMapper) MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", persistence.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %v", persistence.ErrForeignKeyViolation, err)
		case pgCheckViolation, pgNotNullViolation:
			return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
		case pgExclusionViolation:
			return fmt.Errorf("%w: %v", persistence.ErrOverlap, err)
		case pgSerialization, pgDeadlock:
			return fmt.Errorf("%w: %v", errBusy, err)
		}
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, overlapMarker):
		return fmt.Errorf("%w: %v", persistence.ErrOverlap, err)
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrForeignKeyViolation, err)
	case containsAny(msg, "CHECK constraint failed", "NOT NULL constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	case containsAny(msg, "database is locked", "SQLITE_BUSY"):
		return fmt.Errorf("%w: %v", errBusy, err)
	}
	return err
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// RetryConfig configures retry behaviour for transient lock errors.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the retry policy used by Store writes.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  25 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryHelper re-runs operations that failed with a transient lock error.
type RetryHelper struct {
	config RetryConfig
	mapper *ErrorMapper
}

// NewRetryHelper creates a new retry helper.
func NewRetryHelper(config RetryConfig, mapper *ErrorMapper) *RetryHelper {
	return &RetryHelper{config: config, mapper: mapper}
}

// WithRetry executes fn, retrying while it reports a busy database. The
// returned error is already mapped.
func (rh *RetryHelper) WithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := rh.config.InitialDelay

	for attempt := 0; attempt <= rh.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * rh.config.BackoffFactor)
				if delay > rh.config.MaxDelay {
					delay = rh.config.MaxDelay
				}
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = rh.mapper.MapError(err)
		if !errors.Is(lastErr, errBusy) {
			return lastErr
		}
	}

	return fmt.Errorf("sqlstore: operation failed after %d retries: %w", rh.config.MaxRetries, lastErr)
}
