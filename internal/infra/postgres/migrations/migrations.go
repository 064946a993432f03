package migrations

import (
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations holds the catalog schema; each file registers one step named after it.
var Migrations = migrate.NewMigrations()

type countryRow struct {
	bun.BaseModel `bun:"table:countries"`

	Code    string `bun:"code,pk"`
	Name    string `bun:"name,notnull"`
	Capital string `bun:"capital,notnull"`
	Region  string `bun:"region,notnull"`
}
