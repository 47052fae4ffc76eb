// Package storage contains the warehouse contracts shared by every backend:
// the single-connection Repository, the backend factory, the SQL Dialect
// registry, the native object-store copy contract and the batched loader.
//
// Backends register themselves from init(); importing
// dwh/internal/storage/all makes every built-in kind available to New.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownKind is returned by New when no backend registered the kind.
var ErrUnknownKind = errors.New("storage: unknown kind")

// Repository is one warehouse session. Statements run serially on a single
// connection; implementations are not required to be safe for concurrent use.
type Repository interface {
	// Exec runs a statement that returns no rows (DDL, INSERT ... SELECT).
	Exec(ctx context.Context, sql string) error

	// QueryInt64 runs a single-row, single-column query such as COUNT(*).
	QueryInt64(ctx context.Context, sql string) (int64, error)

	// CopyFrom bulk-inserts rows aligned to columns into table using the
	// backend's fastest primitive and returns the number of rows written.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind string // redshift, postgres, sqlite, mssql, mysql
	DSN  string
}

// Factory opens a Repository for a registered kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	factoryMu sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the Factory for kind. Backends call it
// from init().
func Register(kind string, f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[normalizeKind(kind)] = f
}

// New opens a Repository for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	kind := normalizeKind(cfg.Kind)

	factoryMu.RLock()
	f, ok := factories[kind]
	factoryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %s)", ErrUnknownKind, cfg.Kind, strings.Join(Kinds(), ", "))
	}

	repo, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", kind, err)
	}
	return repo, nil
}

// Kinds lists the registered backend kinds in sorted order.
func Kinds() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}
