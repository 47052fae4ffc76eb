// Package ddl contains MySQL-specific helpers for generating DDL.
package ddl

import (
	"strings"

	gddl "dwh/internal/ddl"
)

// MapType maps a logical column to a MySQL column type.
func MapType(c gddl.ColumnDef) string {
	if c.Identity {
		return "BIGINT AUTO_INCREMENT"
	}
	switch c.Type {
	case gddl.TypeVarchar:
		return "VARCHAR(256)"
	case gddl.TypeChar:
		return "CHAR(1)"
	case gddl.TypeText:
		return "TEXT"
	case gddl.TypeInt:
		return "INT"
	case gddl.TypeBigint:
		return "BIGINT"
	case gddl.TypeNumeric:
		return "DECIMAL(18, 5)"
	case gddl.TypeFloat:
		return "DOUBLE"
	case gddl.TypeTimestamp:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

// QuoteIdent quotes an identifier with backticks, doubling embedded ones.
func QuoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// BuildCreateTableSQL returns CREATE TABLE IF NOT EXISTS with backtick quoting.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableIfNotExistsSQL(gddl.Resolve(t, MapType), QuoteIdent)
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS.
func BuildDropTableSQL(table string) string {
	return gddl.BuildDropTableSQL(table, QuoteIdent)
}
