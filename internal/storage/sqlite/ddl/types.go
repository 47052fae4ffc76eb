// Package ddl contains SQLite-specific helpers for generating DDL.
//
// SQLite types are affinities, so the mapping only needs to pick the right
// one per logical type. Timestamps are stored as ISO-8601 TEXT, which is what
// datetime() produces.
package ddl

import (
	gddl "dwh/internal/ddl"
)

// MapType maps a logical column to a SQLite column type.
//
//	varchar, char, text, timestamp -> TEXT
//	int, bigint, identity          -> INTEGER
//	numeric                        -> NUMERIC
//	float                          -> REAL
func MapType(c gddl.ColumnDef) string {
	if c.Identity {
		// A single-column INTEGER primary key aliases the rowid and is
		// assigned automatically.
		return "INTEGER"
	}
	switch c.Type {
	case gddl.TypeInt, gddl.TypeBigint:
		return "INTEGER"
	case gddl.TypeNumeric:
		return "NUMERIC"
	case gddl.TypeFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}
