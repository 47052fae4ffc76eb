package ddl

import (
	gddl "dwh/internal/ddl"
)

// BuildCreateTableSQL returns a Postgres CREATE TABLE IF NOT EXISTS statement
// with double-quoted identifiers and logical types mapped by MapType.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableIfNotExistsSQL(gddl.Resolve(t, MapType), gddl.DoubleQuote)
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS with a quoted name.
func BuildDropTableSQL(table string) string {
	return gddl.BuildDropTableSQL(table, gddl.DoubleQuote)
}
