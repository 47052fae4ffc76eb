// Package pipeline runs a full warehouse load: reset the schema, bulk-load
// the staging tables, then populate the dimension and fact tables. Steps run
// strictly in order on one warehouse connection and the first failure ends
// the run.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dwh/internal/config"
	"dwh/internal/logger"
	"dwh/internal/metrics"
	"dwh/internal/objectstore"
	"dwh/internal/schema"
	"dwh/internal/staging"
	"dwh/internal/storage"
	"dwh/internal/transform"
)

// Step names, in execution order. They label logs, metrics and StepError.
const (
	StepResetSchema        = "reset_schema"
	StepLoadStaging        = "load_staging"
	StepPopulateDimensions = "populate_dimensions"
	StepPopulateFacts      = "populate_facts"
)

// StepError reports the step that failed a run.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return e.Step + ": " + e.Err.Error() }
func (e *StepError) Unwrap() error { return e.Err }

// Pipeline wires the schema manager, the staging loader and the transform
// engine over one repository.
type Pipeline struct {
	job    string
	schema *schema.Manager
	loader *staging.Loader
	engine *transform.Engine
}

// New returns a Pipeline. store is only read when repo cannot copy from
// object storage itself.
func New(job string, repo storage.Repository, d storage.Dialect, store objectstore.Store, opts staging.Options) *Pipeline {
	return &Pipeline{
		job:    job,
		schema: schema.NewManager(repo, d),
		loader: staging.NewLoader(repo, store, opts),
		engine: transform.NewEngine(repo, d),
	}
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

// Run executes reset_schema, load_staging, populate_dimensions and
// populate_facts. There is no retry or compensation: a failed run leaves the
// tables as the failing step left them, and the next run resets them.
func (p *Pipeline) Run(ctx context.Context, src staging.Source) error {
	log := logger.L().With(zap.String("job", p.job), zap.String("run_id", uuid.NewString()))
	start := time.Now()
	log.Info("run started",
		zap.String("log_data", src.LogDataPath),
		zap.String("song_data", src.SongDataPath),
	)

	steps := []step{
		{StepResetSchema, p.schema.Reset},
		{StepLoadStaging, func(ctx context.Context) error {
			results, err := p.loader.LoadStaging(ctx, src)
			for _, r := range results {
				metrics.RecordRejected(p.job, r.Table, int64(r.Rejected))
			}
			return err
		}},
		{StepPopulateDimensions, p.engine.PopulateDimensions},
		{StepPopulateFacts, p.engine.PopulateFacts},
	}

	for _, s := range steps {
		stepStart := time.Now()
		log.Info("step started", zap.String("step", s.name))

		err := s.run(ctx)
		elapsed := time.Since(stepStart)
		metrics.RecordStep(p.job, s.name, err, elapsed)
		if err != nil {
			log.Error("step failed",
				zap.String("step", s.name),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
			return &StepError{Step: s.name, Err: err}
		}
		log.Info("step done", zap.String("step", s.name), zap.Duration("elapsed", elapsed))
	}

	// Counts are informational; a failure here does not fail the run.
	counts, err := p.schema.Counts(ctx)
	if err != nil {
		log.Warn("row counts unavailable", zap.Error(err))
	}
	for _, c := range counts {
		metrics.RecordRow(p.job, c.Table, c.Rows)
		log.Info("table loaded", zap.String("table", c.Table), zap.Int64("rows", c.Rows))
	}

	log.Info("run done", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// newRepository is a test seam.
var newRepository = storage.New

// Run opens the warehouse described by cfg, runs the pipeline and closes
// the connection. The warehouse kind must be registered with package
// storage; binaries import dwh/internal/storage/all.
func Run(ctx context.Context, cfg config.Config) error {
	dsn, err := cfg.Warehouse.ConnString()
	if err != nil {
		return err
	}
	d, err := storage.DialectFor(cfg.Warehouse.Kind)
	if err != nil {
		return err
	}

	logger.L().Info("connecting",
		zap.String("kind", cfg.Warehouse.Kind),
		zap.String("dsn", logger.RedactDSN(dsn)),
	)
	repo, err := newRepository(ctx, storage.Config{Kind: cfg.Warehouse.Kind, DSN: dsn})
	if err != nil {
		return err
	}
	defer repo.Close()

	store := objectstore.NewMux(objectstore.S3Config{
		Region:       cfg.S3.Region,
		Endpoint:     cfg.S3.Endpoint,
		UsePathStyle: cfg.S3.UsePathStyle,
	})
	p := New(cfg.Job, repo, d, store, staging.Options{
		BatchSize:           cfg.Load.BatchSize,
		SongMaxErrors:       cfg.Load.SongMaxErrors,
		DownloadConcurrency: cfg.Load.DownloadConcurrency,
	})
	return p.Run(ctx, SourceFrom(cfg))
}

// SourceFrom builds the staging source of a run from cfg.
func SourceFrom(cfg config.Config) staging.Source {
	return staging.Source{
		LogDataPath:     cfg.S3.LogData,
		SongDataPath:    cfg.S3.SongData,
		LogJSONPathSpec: cfg.S3.LogJSONPath,
		CredentialRole:  cfg.IAMRole.ARN,
		Region:          cfg.S3.Region,
	}
}

// ResetSchema opens the warehouse described by cfg and drops and recreates
// every table.
func ResetSchema(ctx context.Context, cfg config.Config) error {
	dsn, err := cfg.Warehouse.ConnString()
	if err != nil {
		return err
	}
	d, err := storage.DialectFor(cfg.Warehouse.Kind)
	if err != nil {
		return err
	}
	repo, err := newRepository(ctx, storage.Config{Kind: cfg.Warehouse.Kind, DSN: dsn})
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := schema.NewManager(repo, d).Reset(ctx); err != nil {
		return &StepError{Step: StepResetSchema, Err: err}
	}
	return nil
}

// IsStep reports whether err is a StepError for step.
func IsStep(err error, step string) bool {
	var se *StepError
	return errors.As(err, &se) && se.Step == step
}
