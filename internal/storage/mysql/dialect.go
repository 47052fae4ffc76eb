package mysql

import (
	"fmt"

	gddl "dwh/internal/ddl"
	"dwh/internal/storage"
	myddl "dwh/internal/storage/mysql/ddl"
)

// Dialect renders MySQL 8 DDL and expressions.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

var dateFuncs = map[gddl.DatePart]string{
	gddl.PartHour:    "HOUR(%s)",
	gddl.PartDay:     "DAY(%s)",
	gddl.PartWeek:    "WEEK(%s, 3)", // mode 3 is ISO-8601
	gddl.PartMonth:   "MONTH(%s)",
	gddl.PartYear:    "YEAR(%s)",
	gddl.PartWeekday: "(DAYOFWEEK(%s) - 1)",
}

func (Dialect) Name() string { return "mysql" }

func (Dialect) QuoteIdent(id string) string { return myddl.QuoteIdent(id) }

func (Dialect) CreateTableSQL(t gddl.TableDef) (string, error) { return myddl.BuildCreateTableSQL(t) }

func (Dialect) DropTableSQL(table string) string { return myddl.BuildDropTableSQL(table) }

func (Dialect) EpochMillisToTimestamp(expr string) string {
	return fmt.Sprintf("TIMESTAMPADD(SECOND, %s DIV 1000, CAST('1970-01-01 00:00:00' AS DATETIME))", expr)
}

func (Dialect) DatePart(part gddl.DatePart, expr string) string {
	return fmt.Sprintf(dateFuncs[part], expr)
}

func (Dialect) CastFloat(expr string) string { return fmt.Sprintf("CAST(%s AS DOUBLE)", expr) }

// TextEquals compares binary strings; the default collations ignore case.
func (Dialect) TextEquals(a, b string) string {
	return fmt.Sprintf("CAST(%s AS BINARY) = CAST(%s AS BINARY)", a, b)
}
