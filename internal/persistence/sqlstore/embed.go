package sqlstore

import "embed"

// migrationFiles holds the schema scripts for every supported backend, one
// directory per driver.
//
//go:embed migrations
var migrationFiles embed.FS

func migrationDir(driver Driver) string {
	return "migrations/" + string(driver)
}
