package sqlstore

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Driver names a supported database backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config describes how to reach the database.
type Config struct {
	Driver Driver
	// DSN is a file path (or file: URI) for SQLite and a connection URL for
	// Postgres.
	DSN string

	// SQLite only.
	BusyTimeout time.Duration
	JournalMode string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultSQLiteConfig returns a SQLite configuration for the database file at
// path.
func DefaultSQLiteConfig(path string) Config {
	return Config{
		Driver:          DriverSQLite,
		DSN:             path,
		BusyTimeout:     5 * time.Second,
		JournalMode:     "WAL",
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DefaultPostgresConfig returns a Postgres configuration for dsn.
func DefaultPostgresConfig(dsn string) Config {
	return Config{
		Driver:          DriverPostgres,
		DSN:             dsn,
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Validate reports configuration errors before any connection is attempted.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("sqlstore: unsupported driver %q", c.Driver)
	}
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("sqlstore: DSN cannot be empty")
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("sqlstore: BusyTimeout cannot be negative")
	}
	switch strings.ToUpper(c.JournalMode) {
	case "", "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF":
	default:
		return fmt.Errorf("sqlstore: invalid journal mode %q", c.JournalMode)
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 || c.ConnMaxLifetime < 0 {
		return fmt.Errorf("sqlstore: connection pool settings cannot be negative")
	}
	return nil
}

// driverName is the database/sql driver registered for the backend.
func (c Config) driverName() string {
	if c.Driver == DriverPostgres {
		return "pgx"
	}
	return "sqlite"
}

// goquDialect is the goqu dialect registered for the backend.
func (c Config) goquDialect() string {
	if c.Driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// connectionString appends per-connection pragmas to SQLite DSNs so every
// pooled connection enforces foreign keys.
func (c Config) connectionString() string {
	if c.Driver != DriverSQLite {
		return c.DSN
	}
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	if c.BusyTimeout > 0 {
		params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	}
	if c.JournalMode != "" && !c.inMemory() {
		params.Add("_pragma", fmt.Sprintf("journal_mode(%s)", strings.ToUpper(c.JournalMode)))
	}
	sep := "?"
	if strings.Contains(c.DSN, "?") {
		sep = "&"
	}
	return c.DSN + sep + params.Encode()
}

func (c Config) inMemory() bool {
	return c.DSN == ":memory:" || strings.Contains(c.DSN, "mode=memory")
}

// ensureDirectory creates the parent directory of a SQLite database file.
func (c Config) ensureDirectory() error {
	if c.Driver != DriverSQLite || c.inMemory() {
		return nil
	}
	path := strings.TrimPrefix(c.DSN, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("sqlstore: create database directory %s: %w", dir, err)
	}
	return nil
}
