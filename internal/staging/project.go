package staging

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"dwh/internal/ddl"
)

// projection maps one JSON record onto the columns of a staging table.
type projection struct {
	columns []string
	paths   []string // gjson path per column
	types   []string // logical type per column
}

// newPathProjection uses one compiled JSON path per column.
func newPathProjection(t ddl.TableDef, paths []string) (*projection, error) {
	if len(paths) != len(t.Columns) {
		return nil, fmt.Errorf("%s: %d jsonpaths for %d columns", t.FQN, len(paths), len(t.Columns))
	}
	p := &projection{columns: t.ColumnNames(), paths: paths, types: make([]string, len(t.Columns))}
	for i, c := range t.Columns {
		p.types[i] = c.Type
	}
	return p, nil
}

// newAutoProjection matches top-level keys to column names, case-sensitively.
func newAutoProjection(t ddl.TableDef) *projection {
	p := &projection{
		columns: t.ColumnNames(),
		paths:   make([]string, len(t.Columns)),
		types:   make([]string, len(t.Columns)),
	}
	for i, c := range t.Columns {
		p.paths[i] = gjson.Escape(c.Name)
		p.types[i] = c.Type
	}
	return p
}

// row projects one record. The record must be a JSON object.
func (p *projection) row(rec []byte) ([]any, error) {
	if r := gjson.ParseBytes(rec); !r.IsObject() {
		return nil, fmt.Errorf("record is a JSON %s, not an object", kindOf(r))
	}
	vals := gjson.GetManyBytes(rec, p.paths...)
	out := make([]any, len(vals))
	for i, v := range vals {
		x, err := coerce(v, p.types[i])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", p.columns[i], err)
		}
		out[i] = x
	}
	return out, nil
}

// coerce converts a JSON value to the Go value loaded into a column of the
// given logical type. Missing values and null become NULL; so does an empty
// string in a numeric column.
func coerce(v gjson.Result, typ string) (any, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}

	switch typ {
	case ddl.TypeInt, ddl.TypeBigint:
		switch v.Type {
		case gjson.Number:
			return parseInt(v.Raw, typ)
		case gjson.String:
			s := strings.TrimSpace(v.Str)
			if s == "" {
				return nil, nil
			}
			return parseInt(s, typ)
		}
		return nil, fmt.Errorf("cannot load JSON %s into %s", kindOf(v), typ)

	case ddl.TypeNumeric, ddl.TypeFloat:
		switch v.Type {
		case gjson.Number:
			return v.Num, nil
		case gjson.String:
			s := strings.TrimSpace(v.Str)
			if s == "" {
				return nil, nil
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
				return nil, fmt.Errorf("invalid %s %q", typ, v.Str)
			}
			return f, nil
		}
		return nil, fmt.Errorf("cannot load JSON %s into %s", kindOf(v), typ)

	default:
		switch v.Type {
		case gjson.String:
			return v.Str, nil
		case gjson.True, gjson.False:
			return strconv.FormatBool(v.Bool()), nil
		default:
			// numbers keep their source text; objects and arrays load as JSON
			return v.Raw, nil
		}
	}
}

func parseInt(s, typ string) (any, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// integral values written with an exponent or a zero fraction
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return nil, fmt.Errorf("invalid %s %q", typ, s)
		}
		n = int64(f)
	}
	if typ == ddl.TypeInt && (n < math.MinInt32 || n > math.MaxInt32) {
		return nil, fmt.Errorf("%s %d out of range", typ, n)
	}
	return n, nil
}

func kindOf(v gjson.Result) string {
	switch {
	case v.IsObject():
		return "object"
	case v.IsArray():
		return "array"
	}
	switch v.Type {
	case gjson.String:
		return "string"
	case gjson.Number:
		return "number"
	case gjson.True, gjson.False:
		return "boolean"
	default:
		return "null"
	}
}
