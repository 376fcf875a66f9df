// Package associationdb holds all the migrations for the association database
package associationdb

import "github.com/uptrace/bun/migrate"

// Migrations is the ordered set of association database migrations.
var Migrations = migrate.NewMigrations()
