package staging

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseJSONPaths reads a JSON-paths document of the form
//
//	{"jsonpaths": ["$['artist']", "$.auth", "$.location.city", "$.tags[0]"]}
//
// and returns one gjson path per expression, in order.
func ParseJSONPaths(doc []byte) ([]string, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("jsonpaths: invalid JSON")
	}
	arr := gjson.GetBytes(doc, "jsonpaths")
	if !arr.IsArray() {
		return nil, fmt.Errorf(`jsonpaths: missing "jsonpaths" array`)
	}

	elems := arr.Array()
	out := make([]string, 0, len(elems))
	for i, v := range elems {
		if v.Type != gjson.String {
			return nil, fmt.Errorf("jsonpaths[%d]: expected string, got %s", i, v.Type)
		}
		p, err := compilePath(v.Str)
		if err != nil {
			return nil, fmt.Errorf("jsonpaths[%d]: %w", i, err)
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("jsonpaths: empty array")
	}
	return out, nil
}

// compilePath turns a JSONPath expression limited to member and index
// steps ($.a, $['a'], $["a"], [n]) into a gjson path.
func compilePath(expr string) (string, error) {
	s := strings.TrimSpace(expr)
	rest, ok := strings.CutPrefix(s, "$")
	if !ok {
		return "", fmt.Errorf("%q must start with $", expr)
	}

	var parts []string
	for rest != "" {
		switch {
		case rest[0] == '.':
			rest = rest[1:]
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			if end == 0 {
				return "", fmt.Errorf("%q: empty member name", expr)
			}
			parts = append(parts, gjson.Escape(rest[:end]))
			rest = rest[end:]

		case strings.HasPrefix(rest, "['"), strings.HasPrefix(rest, `["`):
			q := rest[1]
			end := strings.IndexByte(rest[2:], q)
			if end < 0 || !strings.HasPrefix(rest[2+end+1:], "]") {
				return "", fmt.Errorf("%q: unterminated bracket", expr)
			}
			name := rest[2 : 2+end]
			if name == "" {
				return "", fmt.Errorf("%q: empty member name", expr)
			}
			parts = append(parts, gjson.Escape(name))
			rest = rest[2+end+2:]

		case rest[0] == '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return "", fmt.Errorf("%q: unterminated index", expr)
			}
			idx := strings.TrimSpace(rest[1:end])
			if n, err := strconv.Atoi(idx); err != nil || n < 0 {
				return "", fmt.Errorf("%q: index %q is not a non-negative integer", expr, idx)
			}
			parts = append(parts, idx)
			rest = rest[end+1:]

		default:
			return "", fmt.Errorf("%q: unexpected %q", expr, rest)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%q selects the whole record", expr)
	}
	return strings.Join(parts, "."), nil
}
