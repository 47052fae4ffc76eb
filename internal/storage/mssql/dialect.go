package mssql

import (
	"fmt"

	gddl "dwh/internal/ddl"
	"dwh/internal/storage"
	msddl "dwh/internal/storage/mssql/ddl"
)

// Dialect renders SQL Server DDL and expressions.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

var dateParts = map[gddl.DatePart]string{
	gddl.PartHour:  "HOUR",
	gddl.PartDay:   "DAY",
	gddl.PartWeek:  "ISO_WEEK",
	gddl.PartMonth: "MONTH",
	gddl.PartYear:  "YEAR",
}

func (Dialect) Name() string { return "mssql" }

func (Dialect) QuoteIdent(id string) string { return msddl.QuoteIdent(id) }

func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) { return msddl.BuildCreateTableSQL(t) }

func (Dialect) DropTableSQL(table string) string { return msddl.BuildDropTableSQL(table) }

// EpochMillisToTimestamp adds whole days, then the remaining seconds.
// DATEADD takes an INT, so a single seconds offset overflows after 2038.
func (Dialect) EpochMillisToTimestamp(expr string) string {
	return fmt.Sprintf("DATEADD(SECOND, CAST(%[1]s %% 86400000 / 1000 AS INT), "+
		"DATEADD(DAY, CAST(%[1]s / 86400000 AS INT), CAST('1970-01-01' AS DATETIME2(0))))", expr)
}

// DatePart normalizes WEEKDAY so Sunday is 0 whatever SET DATEFIRST says.
func (Dialect) DatePart(part gddl.DatePart, expr string) string {
	if part == gddl.PartWeekday {
		return fmt.Sprintf("(DATEPART(WEEKDAY, %s) + @@DATEFIRST - 1) %% 7", expr)
	}
	return fmt.Sprintf("DATEPART(%s, %s)", dateParts[part], expr)
}

func (Dialect) CastFloat(expr string) string { return fmt.Sprintf("CAST(%s AS FLOAT)", expr) }

// TextEquals compares with a binary collation and byte length, since the
// default collations ignore case and trailing spaces.
func (Dialect) TextEquals(a, b string) string {
	return fmt.Sprintf("(%s COLLATE Latin1_General_BIN2 = %s COLLATE Latin1_General_BIN2 AND DATALENGTH(%s) = DATALENGTH(%s))", a, b, a, b)
}
