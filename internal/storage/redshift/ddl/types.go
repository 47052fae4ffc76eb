// Package ddl renders Redshift DDL. The logical type names are Redshift's
// own, so the mapping is the identity except for identity columns.
package ddl

import (
	gddl "dwh/internal/ddl"
)

// MapType maps a logical column to its Redshift SQL type.
func MapType(c gddl.ColumnDef) string {
	if c.Identity {
		return c.Type + " IDENTITY(1,1)"
	}
	return c.Type
}

// BuildCreateTableSQL returns CREATE TABLE IF NOT EXISTS with unquoted
// identifiers, matching the warehouse's reference DDL.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableIfNotExistsSQL(gddl.Resolve(t, MapType), nil)
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS.
func BuildDropTableSQL(table string) string {
	return gddl.BuildDropTableSQL(table, nil)
}
