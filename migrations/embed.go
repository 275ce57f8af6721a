// Package migrations embeds SQL migration files for database schema management.
// Each supported driver has its own directory of numbered up/down files.
package migrations

import "embed"

// FS holds the embedded SQL migration files.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Dir returns the directory inside FS holding migrations for driver.
func Dir(driver string) string {
	if driver == "sqlite" {
		return "sqlite"
	}
	return "postgres"
}
