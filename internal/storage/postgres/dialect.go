package postgres

import (
	"fmt"

	gddl "dwh/internal/ddl"
	"dwh/internal/storage"
	pgddl "dwh/internal/storage/postgres/ddl"
)

// Dialect renders PostgreSQL DDL and expressions.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

func (Dialect) Name() string { return "postgres" }

func (Dialect) QuoteIdent(id string) string { return gddl.DoubleQuote(id) }

func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) { return pgddl.BuildCreateTableSQL(t) }

func (Dialect) DropTableSQL(table string) string { return pgddl.BuildDropTableSQL(table) }

// EpochMillisToTimestamp uses integer division so sub-second precision is
// dropped before the interval is added.
func (Dialect) EpochMillisToTimestamp(expr string) string {
	return fmt.Sprintf("TIMESTAMP 'epoch' + (%s / 1000) * INTERVAL '1 second'", expr)
}

// DatePart casts EXTRACT's numeric result to integer.
func (Dialect) DatePart(part gddl.DatePart, expr string) string {
	return fmt.Sprintf("CAST(EXTRACT(%s FROM %s) AS INTEGER)", ExtractField(part), expr)
}

func (Dialect) CastFloat(expr string) string {
	return fmt.Sprintf("CAST(%s AS DOUBLE PRECISION)", expr)
}

func (Dialect) TextEquals(a, b string) string { return a + " = " + b }

// ExtractField maps a DatePart to the EXTRACT field name understood by
// Postgres and Redshift.
func ExtractField(part gddl.DatePart) string {
	switch part {
	case gddl.PartWeekday:
		return "dow"
	default:
		return string(part)
	}
}
