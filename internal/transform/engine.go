package transform

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dwh/internal/logger"
	"dwh/internal/storage"
)

// Engine runs the transform statements serially on one repository.
type Engine struct {
	repo  storage.Repository
	dims  []Statement
	facts []Statement
}

// NewEngine renders the statements for d once.
func NewEngine(repo storage.Repository, d storage.Dialect) *Engine {
	return &Engine{
		repo:  repo,
		dims:  DimensionStatements(d),
		facts: FactStatements(d),
	}
}

// PopulateDimensions fills users, songs, artists and time from staging.
func (e *Engine) PopulateDimensions(ctx context.Context) error {
	return e.run(ctx, e.dims)
}

// PopulateFacts fills songplays from staging. It reads only the staging
// tables, so it does not depend on the dimensions being populated.
func (e *Engine) PopulateFacts(ctx context.Context) error {
	return e.run(ctx, e.facts)
}

func (e *Engine) run(ctx context.Context, stmts []Statement) error {
	for _, s := range stmts {
		start := time.Now()
		logger.L().Debug("transform", zap.String("step", s.Name), zap.String("sql", s.SQL))
		if err := e.repo.Exec(ctx, s.SQL); err != nil {
			return fmt.Errorf("populate %s: %w", s.Table, err)
		}
		logger.L().Info("populated",
			zap.String("table", s.Table),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return nil
}
