package ddl

// Logical column types. Table definitions are declared with these names and
// each backend dialect maps them to a concrete engine type (see the MapType
// functions under internal/storage/<backend>/ddl). The vocabulary matches the
// Redshift types used by the warehouse schema, so the Redshift mapping is the
// identity.
const (
	TypeVarchar   = "varchar"
	TypeChar      = "char"
	TypeText      = "text"
	TypeInt       = "int"
	TypeBigint    = "bigint"
	TypeNumeric   = "numeric"
	TypeFloat     = "float"
	TypeTimestamp = "timestamp"
)

// ColumnDef describes a single column in a table definition produced or
// consumed by ddl. It intentionally uses simple, database-agnostic fields.
//
// Fields:
//   - Name: logical column name (unquoted; quoting/escaping happens at render time)
//   - Type: logical type (one of the Type* constants)
//   - SQLType: target SQL type; filled in by a dialect via Resolve when empty
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Identity: whether the engine generates the value (surrogate id)
//   - Default: raw default expression (e.g., 'anon', CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	Type       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Identity   bool
	Default    string
}

// TableDef holds the fully-qualified table name (FQN) and an ordered list of
// columns. The FQN is expected in dotted form (e.g., "schema.table") and will
// be quoted/escaped by renderers as needed.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// ColumnNames returns the column names in declaration order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks up a column by name.
func (t TableDef) Column(name string) (ColumnDef, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// TypeMapper maps a logical column (including identity columns) to the SQL
// type of a specific engine.
type TypeMapper func(c ColumnDef) string

// Resolve returns a copy of t where every column without an explicit SQLType
// gets the type produced by mapType.
func Resolve(t TableDef, mapType TypeMapper) TableDef {
	out := TableDef{FQN: t.FQN, Columns: make([]ColumnDef, len(t.Columns))}
	for i, c := range t.Columns {
		if c.SQLType == "" && mapType != nil {
			c.SQLType = mapType(c)
		}
		out.Columns[i] = c
	}
	return out
}

// DatePart names a calendar component extracted from a timestamp.
type DatePart string

const (
	PartHour    DatePart = "hour"
	PartDay     DatePart = "day"
	PartWeek    DatePart = "week" // ISO-8601 week number
	PartMonth   DatePart = "month"
	PartYear    DatePart = "year"
	PartWeekday DatePart = "weekday" // 0 = Sunday
)

// DateParts lists the parts stored in the time dimension, in column order.
var DateParts = []DatePart{PartHour, PartDay, PartWeek, PartMonth, PartYear, PartWeekday}
