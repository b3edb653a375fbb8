package migration

import (
	"context"
	"io/fs"
	"time"
)

// Migration is a single versioned schema change.
type Migration struct {
	Version     string // numeric, e.g. "001"
	Description string
	SQL         string
	FilePath    string
	Checksum    string // sha256 of SQL
}

// MigrationManager orchestrates the migration process.
type MigrationManager interface {
	// RunMigrations applies all pending migrations in version order.
	RunMigrations(ctx context.Context) error
	GetPendingMigrations(ctx context.Context) ([]Migration, error)
	GetMigrationStatus(ctx context.Context) (*MigrationStatus, error)
}

// FileScanner reads migration files from a file system.
type FileScanner interface {
	// ScanMigrations returns the migrations in dir sorted by version.
	ScanMigrations(fsys fs.FS, dir string) ([]Migration, error)
	// ValidateFileName checks the {version}_{description}.sql convention.
	ValidateFileName(filename string) error
	ParseMigrationFile(fsys fs.FS, path string) (*Migration, error)
}

// Executor applies migrations to a database.
type Executor interface {
	// InitializeVersionTable creates schema_migrations when missing.
	InitializeVersionTable(ctx context.Context) error
	// ApplyMigration runs the migration and records it atomically.
	ApplyMigration(ctx context.Context, migration Migration) (time.Duration, error)
	GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error)
}

// MigrationStatus summarises the migration state of a database.
type MigrationStatus struct {
	CurrentVersion    string
	PendingCount      int
	AppliedMigrations []AppliedMigration
	PendingMigrations []Migration
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}
