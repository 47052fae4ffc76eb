// Package redshift implements the Amazon Redshift backend. It speaks the
// Postgres wire protocol through pgx in simple-protocol mode, loads staging
// tables with server-side COPY from S3 and falls back to multi-row INSERT
// for client-supplied rows, since Redshift has no COPY FROM STDIN.
package redshift

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	gddl "dwh/internal/ddl"
	"dwh/internal/logger"
	"dwh/internal/storage"
	"dwh/internal/storage/postgres"
)

// maxParams caps bind parameters per INSERT statement.
const maxParams = 32767

// session is the subset of *postgres.Repository used here.
type session interface {
	Exec(ctx context.Context, sql string) error
	ExecArgs(ctx context.Context, sql string, args ...any) (int64, error)
	QueryInt64(ctx context.Context, sql string) (int64, error)
}

// Repository is a Redshift-backed storage.Repository and storage.ObjectCopier.
type Repository struct {
	conn    session
	closeFn func()
}

var (
	_ storage.Repository   = (*Repository)(nil)
	_ storage.ObjectCopier = (*Repository)(nil)
)

// openSession is a test hook.
var openSession = func(ctx context.Context, dsn string) (session, func(), error) {
	r, closeFn, err := postgres.NewRepository(ctx, postgres.Config{DSN: dsn, SimpleProtocol: true})
	if err != nil {
		return nil, nil, err
	}
	return r, closeFn, nil
}

// NewRepository connects to the cluster described by dsn.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	conn, closeFn, err := openSession(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Repository{conn: conn, closeFn: closeFn}, nil
}

func (r *Repository) Exec(ctx context.Context, sql string) error {
	return r.conn.Exec(ctx, sql)
}

func (r *Repository) QueryInt64(ctx context.Context, sql string) (int64, error) {
	return r.conn.QueryInt64(ctx, sql)
}

// CopyFromObjectStore runs COPY ... FROM 's3://...' and returns the row
// count reported by the server.
func (r *Repository) CopyFromObjectStore(ctx context.Context, spec storage.CopySpec) (int64, error) {
	sql, err := BuildCopySQL(spec)
	if err != nil {
		return 0, err
	}
	logger.L().Debug("redshift copy",
		zap.String("table", spec.Table),
		zap.String("from", spec.From),
		zap.String("json", spec.JSONPaths),
		zap.Int("max_error", spec.MaxError),
	)
	n, err := r.conn.ExecArgs(ctx, sql)
	if err != nil {
		return 0, fmt.Errorf("copy %s from %s: %w", spec.Table, spec.From, err)
	}
	return n, nil
}

// CopyFrom inserts rows with parameterized multi-row INSERT statements.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("redshift: CopyFrom: columns must not be empty")
	}
	perStmt := maxParams / len(columns)
	if perStmt < 1 {
		perStmt = 1
	}

	var total int64
	for start := 0; start < len(rows); start += perStmt {
		end := min(start+perStmt, len(rows))
		chunk := rows[start:end]

		args := make([]any, 0, len(chunk)*len(columns))
		for i, row := range chunk {
			if len(row) != len(columns) {
				return total, fmt.Errorf("redshift: row %d has %d values, want %d", start+i, len(row), len(columns))
			}
			args = append(args, row...)
		}
		n, err := r.conn.ExecArgs(ctx, BuildInsertSQL(table, columns, len(chunk)), args...)
		total += n
		if err != nil {
			return total, fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	return total, nil
}

func (r *Repository) Close() {
	if r.closeFn != nil {
		r.closeFn()
	}
}

// BuildInsertSQL renders INSERT INTO table (cols) VALUES ($1, ...), (...)
// for nRows rows.
func BuildInsertSQL(table string, columns []string, nRows int) string {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(gddl.QuoteFQN(table, gddl.DoubleQuote))
	sb.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(gddl.DoubleQuote(c))
	}
	sb.WriteString(") VALUES ")

	p := 1
	for i := 0; i < nRows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := range columns {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(p))
			p++
		}
		sb.WriteByte(')')
	}
	return sb.String()
}
