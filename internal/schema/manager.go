package schema

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dwh/internal/ddl"
	"dwh/internal/logger"
	"dwh/internal/storage"
)

// Manager drops and creates the warehouse tables on one repository.
type Manager struct {
	repo    storage.Repository
	dialect storage.Dialect
	tables  []ddl.TableDef
}

// TableCount is the row count of one table.
type TableCount struct {
	Table string
	Rows  int64
}

// NewManager returns a Manager for the tables in Tables().
func NewManager(repo storage.Repository, dialect storage.Dialect) *Manager {
	return &Manager{repo: repo, dialect: dialect, tables: Tables()}
}

// Reset drops every table and creates it again, leaving an empty schema.
// The first failing statement aborts the reset.
func (m *Manager) Reset(ctx context.Context) error {
	start := time.Now()
	if err := m.Drop(ctx); err != nil {
		return err
	}
	if err := m.Create(ctx); err != nil {
		return err
	}
	logger.L().Info("schema reset",
		zap.String("dialect", m.dialect.Name()),
		zap.Int("tables", len(m.tables)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Drop runs DROP TABLE IF EXISTS for every table.
func (m *Manager) Drop(ctx context.Context) error {
	for _, t := range m.tables {
		sql := m.dialect.DropTableSQL(t.FQN)
		logger.L().Debug("drop table", zap.String("table", t.FQN), zap.String("sql", sql))
		if err := m.repo.Exec(ctx, sql); err != nil {
			return fmt.Errorf("drop table %s: %w", t.FQN, err)
		}
	}
	return nil
}

// Create runs CREATE TABLE IF NOT EXISTS for every table.
func (m *Manager) Create(ctx context.Context) error {
	for _, t := range m.tables {
		sql, err := m.dialect.CreateTableSQL(t)
		if err != nil {
			return fmt.Errorf("render table %s: %w", t.FQN, err)
		}
		logger.L().Debug("create table", zap.String("table", t.FQN), zap.String("sql", sql))
		if err := m.repo.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create table %s: %w", t.FQN, err)
		}
	}
	return nil
}

// Counts returns COUNT(*) for every table, in Tables() order.
func (m *Manager) Counts(ctx context.Context) ([]TableCount, error) {
	out := make([]TableCount, 0, len(m.tables))
	for _, t := range m.tables {
		n, err := m.repo.QueryInt64(ctx, "SELECT COUNT(*) FROM "+ddl.QuoteFQN(t.FQN, m.dialect.QuoteIdent))
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", t.FQN, err)
		}
		out = append(out, TableCount{Table: t.FQN, Rows: n})
	}
	return out, nil
}
