package redshift

import (
	"fmt"

	gddl "dwh/internal/ddl"
	"dwh/internal/storage"
	"dwh/internal/storage/postgres"
	rsddl "dwh/internal/storage/redshift/ddl"
)

// Dialect renders Redshift SQL. Expressions are shared with Postgres; DDL
// keeps Redshift's native types and IDENTITY columns.
type Dialect struct {
	postgres.Dialect
}

var _ storage.Dialect = Dialect{}

func (Dialect) Name() string { return "redshift" }

func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) { return rsddl.BuildCreateTableSQL(t) }

func (Dialect) DropTableSQL(table string) string { return rsddl.BuildDropTableSQL(table) }

// DatePart returns EXTRACT as-is; Redshift already yields an integer.
func (Dialect) DatePart(part gddl.DatePart, expr string) string {
	return fmt.Sprintf("EXTRACT(%s FROM %s)", postgres.ExtractField(part), expr)
}

func (Dialect) CastFloat(expr string) string {
	return fmt.Sprintf("CAST(%s AS FLOAT)", expr)
}
