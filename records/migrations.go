package records

import "embed"

// Migrations holds the SQL migrations of the records table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations holding the scripts.
const MigrationsDir = "migrations"
