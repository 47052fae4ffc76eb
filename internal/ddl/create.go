// Package ddl defines a small, backend-agnostic model for SQL DDL and helpers
// to render CREATE/DROP TABLE statements from that model.
//
// BuildCreateTableSQL stays dialect-free: it does not quote identifiers and
// does not add IF NOT EXISTS. Backend-specific packages (for example
// internal/storage/postgres/ddl) render the idempotent variants through
// BuildCreateTableIfNotExistsSQL and BuildDropTableSQL, passing their own
// identifier quoting.
package ddl

import (
	"fmt"
	"strings"
)

// Quoter quotes a single identifier segment.
type Quoter func(id string) string

// BuildCreateTableSQL renders a generic CREATE TABLE statement from a TableDef.
//
// Rules:
//
//   - t.FQN must be non-empty; it is emitted verbatim as the table name.
//
//   - Each column must have a non-empty Name and SQLType.
//
//   - A column is rendered as:
//
//     <Name> <SQLType> [NOT NULL] [DEFAULT <Default>]
//
//     where NOT NULL is added when Nullable == false.
//
//   - Columns with PrimaryKey == true are collected and rendered as a separate
//     PRIMARY KEY (<col1>, <col2>, ...) clause at the end of the column list.
func BuildCreateTableSQL(t TableDef) (string, error) {
	return buildCreate(t, nil, false)
}

// BuildCreateTableIfNotExistsSQL renders CREATE TABLE IF NOT EXISTS with every
// identifier passed through quote. Primary-key columns keep declaration order.
func BuildCreateTableIfNotExistsSQL(t TableDef, quote Quoter) (string, error) {
	return buildCreate(t, quote, true)
}

// BuildCreateTableQuotedSQL renders a plain CREATE TABLE with quoted
// identifiers, for engines that lack IF NOT EXISTS and guard it themselves.
func BuildCreateTableQuotedSQL(t TableDef, quote Quoter) (string, error) {
	return buildCreate(t, quote, false)
}

// BuildDropTableSQL renders DROP TABLE IF EXISTS for a possibly dotted name.
func BuildDropTableSQL(fqn string, quote Quoter) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", QuoteFQN(fqn, quote))
}

func buildCreate(t TableDef, quote Quoter, ifNotExists bool) (string, error) {
	if quote == nil {
		quote = func(id string) string { return id }
	}

	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)

		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}

		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			// Default is emitted as raw SQL expression.
			sb.WriteString(def)
		}

		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, quote(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	head := "CREATE TABLE "
	if ifNotExists {
		head = "CREATE TABLE IF NOT EXISTS "
	}

	return fmt.Sprintf(
		"%s%s (\n  %s\n);",
		head,
		QuoteFQN(fqn, quote),
		strings.Join(cols, ",\n  "),
	), nil
}

// QuoteFQN quotes each dotted segment of name with quote. Empty segments are
// dropped. A nil quote returns the name unchanged.
func QuoteFQN(name string, quote Quoter) string {
	if quote == nil {
		return name
	}
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, quote(p))
	}
	return strings.Join(out, ".")
}

// DoubleQuote quotes an identifier ANSI-style, e.g.:
//
//	DoubleQuote(`pcv`)        => `"pcv"`
//	DoubleQuote(`weird"name`) => `"weird""name"`
func DoubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
