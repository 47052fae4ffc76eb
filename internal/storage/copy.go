package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// JSONAuto selects key-to-column matching instead of a JSON-paths file.
const JSONAuto = "auto"

// CopySpec describes one bulk copy from object storage into a staging table.
// It carries structured arguments only; backends render and escape them.
type CopySpec struct {
	Table     string // target table
	From      string // object prefix, e.g. s3://bucket/log_data
	IAMRole   string // role ARN the warehouse assumes to read From
	JSONPaths string // JSONAuto or the URI of a JSON-paths file
	MaxError  int    // malformed records tolerated before the copy fails
	Region    string // optional bucket region
}

// ObjectCopier is implemented by repositories whose engine reads object
// storage itself (Redshift COPY). Other backends are fed client-side.
type ObjectCopier interface {
	CopyFromObjectStore(ctx context.Context, spec CopySpec) (int64, error)
}

var (
	ErrInvalidCopySpec = errors.New("invalid copy spec")

	tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
	iamRoleRe   = regexp.MustCompile(`^arn:aws[a-zA-Z-]*:iam::\d{12}:role/[A-Za-z0-9+=,.@_/-]+$`)
	regionRe    = regexp.MustCompile(`^[a-z]{2}(-[a-z]+)+-\d+$`)
)

// IsAuto reports whether the copy uses 'auto' JSON shape inference.
func (s CopySpec) IsAuto() bool {
	return strings.EqualFold(strings.TrimSpace(s.JSONPaths), JSONAuto)
}

// Validate checks the fields every copy path needs.
func (s CopySpec) Validate() error {
	if !tableNameRe.MatchString(s.Table) {
		return fmt.Errorf("%w: table %q", ErrInvalidCopySpec, s.Table)
	}
	if strings.TrimSpace(s.From) == "" {
		return fmt.Errorf("%w: empty source for %s", ErrInvalidCopySpec, s.Table)
	}
	if strings.TrimSpace(s.JSONPaths) == "" {
		return fmt.Errorf("%w: empty json mode for %s (use %q or a JSON-paths URI)", ErrInvalidCopySpec, s.Table, JSONAuto)
	}
	if s.MaxError < 0 {
		return fmt.Errorf("%w: negative max error %d", ErrInvalidCopySpec, s.MaxError)
	}
	for name, v := range map[string]string{
		"source":    s.From,
		"jsonpaths": s.JSONPaths,
		"iam role":  s.IAMRole,
		"region":    s.Region,
	} {
		if err := checkLiteral(v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidCopySpec, name, err)
		}
	}
	return nil
}

// ValidateObjectStore additionally checks what a server-side copy needs:
// s3:// locations, a well-formed role ARN and region.
func (s CopySpec) ValidateObjectStore() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if !isS3URI(s.From) {
		return fmt.Errorf("%w: source %q is not an s3:// URI", ErrInvalidCopySpec, s.From)
	}
	if !s.IsAuto() && !isS3URI(s.JSONPaths) {
		return fmt.Errorf("%w: jsonpaths %q is not an s3:// URI", ErrInvalidCopySpec, s.JSONPaths)
	}
	if !iamRoleRe.MatchString(s.IAMRole) {
		return fmt.Errorf("%w: iam role %q is not a role ARN", ErrInvalidCopySpec, s.IAMRole)
	}
	if s.Region != "" && !regionRe.MatchString(s.Region) {
		return fmt.Errorf("%w: region %q", ErrInvalidCopySpec, s.Region)
	}
	return nil
}

// QuoteLiteral renders s as a standard SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func checkLiteral(v string) error {
	if strings.ContainsRune(v, '\\') {
		return errors.New("backslash not allowed")
	}
	for _, r := range v {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("control character %U not allowed", r)
		}
	}
	return nil
}

func isS3URI(s string) bool {
	rest, ok := strings.CutPrefix(s, "s3://")
	if !ok {
		return false
	}
	bucket, _, _ := strings.Cut(rest, "/")
	return bucket != ""
}
