// Package ddl contains MSSQL-specific helpers for generating DDL.
package ddl

import (
	"strings"

	gddl "dwh/internal/ddl"
)

// MapType maps a logical column to a SQL Server column type. Lengths follow
// the Redshift defaults (varchar is 256 characters, char is 1).
//
//	varchar   -> NVARCHAR(256)
//	char      -> NCHAR(1)
//	text      -> NVARCHAR(MAX)
//	int       -> INT
//	bigint    -> BIGINT
//	numeric   -> DECIMAL(18, 5)
//	float     -> FLOAT
//	timestamp -> DATETIME2(0)
//	identity  -> BIGINT IDENTITY(1,1)
//
// Unknown kinds fall back to NVARCHAR(MAX).
func MapType(c gddl.ColumnDef) string {
	if c.Identity {
		return "BIGINT IDENTITY(1,1)"
	}
	switch c.Type {
	case gddl.TypeVarchar:
		return "NVARCHAR(256)"
	case gddl.TypeChar:
		return "NCHAR(1)"
	case gddl.TypeInt:
		return "INT"
	case gddl.TypeBigint:
		return "BIGINT"
	case gddl.TypeNumeric:
		return "DECIMAL(18, 5)"
	case gddl.TypeFloat:
		return "FLOAT"
	case gddl.TypeTimestamp:
		return "DATETIME2(0)"
	default:
		return "NVARCHAR(MAX)"
	}
}

// QuoteIdent quotes a SQL Server identifier using [brackets], escaping ].
func QuoteIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }
