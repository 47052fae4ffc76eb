package staging

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// eachRecord calls fn for every top-level JSON value in data. Objects may be
// concatenated, newline-delimited or pretty-printed across lines. A value
// that fails to decode is reported once through bad and decoding resumes
// after it (see skipValue). Returning an error from fn or bad stops the scan.
func eachRecord(data []byte, fn func(rec []byte) error, bad func(err error) error) error {
	off := 0
	for off < len(data) {
		dec := json.NewDecoder(bytes.NewReader(data[off:]))
		for {
			start := off + int(dec.InputOffset())
			var raw json.RawMessage
			err := dec.Decode(&raw)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				if berr := bad(err); berr != nil {
					return berr
				}
				for start < len(data) && isSpace(data[start]) {
					start++
				}
				off = skipValue(data, start)
				break
			}
			if err := fn(raw); err != nil {
				return err
			}
		}
	}
	return nil
}

// skipValue returns the offset just past the malformed value starting at
// start. Brackets are matched outside strings; an unterminated string ends
// at the line break. A value that never closes ends at the first line that
// opens a new object in column 0, or at the end of data. A bare token ends
// at its line break.
func skipValue(data []byte, start int) int {
	depth := 0
	inStr, esc := false, false
	for i := start; i < len(data); i++ {
		c := data[i]
		if inStr {
			switch {
			case esc:
				esc = false
				continue
			case c == '\\':
				esc = true
				continue
			case c == '"':
				inStr = false
				continue
			case c != '\n':
				continue
			}
			inStr = false
		}
		switch c {
		case '"':
			inStr = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth <= 0 {
				return i + 1
			}
		case '\n':
			if depth <= 0 || (i+1 < len(data) && data[i+1] == '{') {
				return i + 1
			}
		}
	}
	return len(data)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
