package storage

import (
	"fmt"
	"sync"

	"dwh/internal/ddl"
)

// Dialect renders the pieces of SQL that differ between warehouse engines:
// DDL types and quoting, and the handful of expressions the transform
// statements need.
type Dialect interface {
	Name() string

	// QuoteIdent quotes a single identifier segment.
	QuoteIdent(id string) string

	// CreateTableSQL renders an idempotent CREATE TABLE for t, mapping the
	// logical column types to engine types.
	CreateTableSQL(t ddl.TableDef) (string, error)

	// DropTableSQL renders an idempotent DROP TABLE.
	DropTableSQL(table string) string

	// EpochMillisToTimestamp converts a bigint millisecond epoch expression
	// to a UTC timestamp truncated to whole seconds.
	EpochMillisToTimestamp(expr string) string

	// DatePart extracts part from a timestamp expression as an integer.
	DatePart(part ddl.DatePart, expr string) string

	// CastFloat casts expr to the engine's double precision type.
	CastFloat(expr string) string

	// TextEquals is an exact, case-sensitive comparison of two text
	// expressions.
	TextEquals(a, b string) string
}

var (
	dialectMu sync.RWMutex
	dialects  = map[string]Dialect{}
)

// RegisterDialect registers (or replaces) the Dialect for a storage kind.
func RegisterDialect(kind string, d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialects[normalizeKind(kind)] = d
}

// DialectFor returns the Dialect registered for kind.
func DialectFor(kind string) (Dialect, error) {
	dialectMu.RLock()
	d, ok := dialects[normalizeKind(kind)]
	dialectMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q: no dialect registered", ErrUnknownKind, kind)
	}
	return d, nil
}
