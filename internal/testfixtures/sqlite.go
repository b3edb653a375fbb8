package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/equipment-reservation/internal/persistence"
	"github.com/example/equipment-reservation/internal/persistence/memory"
	"github.com/example/equipment-reservation/internal/persistence/sqlstore"
)

// SQLiteHarness provides repository access backed by a temporary, migrated
// SQLite database for integration-style persistence tests.
type SQLiteHarness struct {
	persistence.Repositories
	Store *sqlstore.Store

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// will also register a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "reservations.db")
	ctx := context.Background()

	store, err := sqlstore.Open(ctx, sqlstore.DefaultSQLiteConfig(path), nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Repositories: store.Repositories(),
		Store:        store,
		cleanup: func() {
			_ = store.Close()
		},
	}
	tb.Cleanup(harness.Close)
	return harness
}

// Backend names a repository implementation for table-driven contract tests.
type Backend struct {
	Name string
	Open func(tb testing.TB) persistence.Repositories
}

// Backends returns every repository implementation: the in-memory store and
// a migrated SQLite database.
func Backends() []Backend {
	return []Backend{
		{
			Name: "memory",
			Open: func(testing.TB) persistence.Repositories {
				return memory.New().Repositories()
			},
		},
		{
			Name: "sqlite",
			Open: func(tb testing.TB) persistence.Repositories {
				return NewSQLiteHarness(tb).Repositories
			},
		},
	}
}
