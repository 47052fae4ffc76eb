// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import (
	gddl "dwh/internal/ddl"
)

// MapType maps a logical column to its Postgres SQL type.
//
//	varchar, char, text, int, bigint, numeric, timestamp -> same name
//	float                                                -> DOUBLE PRECISION
//	identity                                             -> BIGINT GENERATED BY DEFAULT AS IDENTITY
//
// Unknown logical types pass through unchanged.
func MapType(c gddl.ColumnDef) string {
	if c.Identity {
		return "BIGINT GENERATED BY DEFAULT AS IDENTITY"
	}
	if c.Type == gddl.TypeFloat {
		return "DOUBLE PRECISION"
	}
	return c.Type
}
