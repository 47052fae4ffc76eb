package sqlite

import (
	"fmt"

	gddl "dwh/internal/ddl"
	"dwh/internal/storage"
	sqliteddl "dwh/internal/storage/sqlite/ddl"
)

// Dialect renders SQLite DDL and expressions. Timestamps are TEXT in
// "YYYY-MM-DD HH:MM:SS" form; %V needs SQLite 3.46 or newer.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

var strftimeFormats = map[gddl.DatePart]string{
	gddl.PartHour:    "%H",
	gddl.PartDay:     "%d",
	gddl.PartWeek:    "%V",
	gddl.PartMonth:   "%m",
	gddl.PartYear:    "%Y",
	gddl.PartWeekday: "%w",
}

func (Dialect) Name() string { return "sqlite" }

func (Dialect) QuoteIdent(id string) string { return gddl.DoubleQuote(id) }

func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) {
	return sqliteddl.BuildCreateTableSQL(t)
}

func (Dialect) DropTableSQL(table string) string { return sqliteddl.BuildDropTableSQL(table) }

func (Dialect) EpochMillisToTimestamp(expr string) string {
	return fmt.Sprintf("datetime(%s / 1000, 'unixepoch')", expr)
}

func (Dialect) DatePart(part gddl.DatePart, expr string) string {
	return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER)", strftimeFormats[part], expr)
}

func (Dialect) CastFloat(expr string) string { return fmt.Sprintf("CAST(%s AS REAL)", expr) }

// TextEquals relies on the default BINARY collation, which is case-sensitive.
func (Dialect) TextEquals(a, b string) string { return a + " = " + b }
