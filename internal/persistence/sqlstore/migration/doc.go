// Package migration applies versioned schema changes to SQLite and Postgres
// databases.
//
// Migration files are read from an fs.FS (normally an embedded directory) and
// follow the naming convention {version}_{description}.sql, for example
// "001_initial_schema.sql". Versions must form a gap-free sequence. Each
// pending migration runs in its own transaction together with the
// schema_migrations row that records it, so a failed migration leaves no
// trace.
//
// Example usage:
//
//	executor := migration.NewExecutor(db)
//	manager := migration.NewMigrationManager(migration.NewFileScanner(), executor, files, "migrations/sqlite", logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
