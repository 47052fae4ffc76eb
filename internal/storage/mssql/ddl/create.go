package ddl

import (
	"fmt"
	"strings"

	gddl "dwh/internal/ddl"
)

// BuildCreateTableSQL returns an idempotent CREATE TABLE for SQL Server,
// which has no CREATE TABLE IF NOT EXISTS:
//
//	IF OBJECT_ID(N'[time]', N'U') IS NULL
//	CREATE TABLE [time] (...);
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	create, err := gddl.BuildCreateTableQuotedSQL(gddl.Resolve(t, MapType), QuoteIdent)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("IF OBJECT_ID(%s, N'U') IS NULL\n%s", objectName(t.FQN), create), nil
}

// BuildDropTableSQL returns DROP TABLE IF EXISTS (SQL Server 2016+).
func BuildDropTableSQL(table string) string {
	return gddl.BuildDropTableSQL(table, QuoteIdent)
}

func objectName(fqn string) string {
	q := gddl.QuoteFQN(strings.TrimSpace(fqn), QuoteIdent)
	return "N'" + strings.ReplaceAll(q, "'", "''") + "'"
}
