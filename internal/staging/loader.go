// Package staging bulk-loads the raw JSON sources into the two staging
// tables. Warehouses that read object storage themselves (Redshift) get a
// single server-side COPY per table; every other backend is fed by a
// client-side copy that lists the source prefix, decodes the JSON records,
// projects them onto the staging columns and inserts them in batches.
package staging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dwh/internal/logger"
	"dwh/internal/objectstore"
	"dwh/internal/schema"
	"dwh/internal/storage"
)

// ErrTooManyErrors is returned when a client-side copy sees more malformed
// records than its MaxError allows.
var ErrTooManyErrors = errors.New("too many malformed records")

// Source holds the locations and credential of one staging load.
type Source struct {
	LogDataPath     string // prefix of the event log files
	SongDataPath    string // prefix of the song catalog files
	LogJSONPathSpec string // JSON-paths file for events, or "auto"
	CredentialRole  string // IAM role ARN the warehouse assumes
	Region          string // optional bucket region
}

// Options tunes the client-side copy.
type Options struct {
	BatchSize           int
	SongMaxErrors       int
	DownloadConcurrency int
}

// DefaultOptions returns the defaults used when a field is zero.
func DefaultOptions() Options {
	return Options{BatchSize: 1000, SongMaxErrors: 10, DownloadConcurrency: 8}
}

// Result summarizes one table load.
type Result struct {
	Table    string
	Rows     int64
	Rejected int
	Elapsed  time.Duration
}

// Loader fills staging_events and staging_songs.
type Loader struct {
	repo  storage.Repository
	store objectstore.Store
	opts  Options
}

// NewLoader returns a Loader. store is only used by the client-side path and
// may be nil when repo implements storage.ObjectCopier.
func NewLoader(repo storage.Repository, store objectstore.Store, opts Options) *Loader {
	def := DefaultOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.DownloadConcurrency <= 0 {
		opts.DownloadConcurrency = def.DownloadConcurrency
	}
	if opts.SongMaxErrors < 0 {
		opts.SongMaxErrors = def.SongMaxErrors
	}
	return &Loader{repo: repo, store: store, opts: opts}
}

// Specs returns the two copies of a staging load: events through the
// JSON-paths file with no tolerance for bad records, songs with 'auto'
// key matching and SongMaxErrors tolerance.
func (l *Loader) Specs(src Source) []storage.CopySpec {
	return []storage.CopySpec{
		{
			Table:     schema.StagingEvents,
			From:      src.LogDataPath,
			IAMRole:   src.CredentialRole,
			JSONPaths: src.LogJSONPathSpec,
			MaxError:  0,
			Region:    src.Region,
		},
		{
			Table:     schema.StagingSongs,
			From:      src.SongDataPath,
			IAMRole:   src.CredentialRole,
			JSONPaths: storage.JSONAuto,
			MaxError:  l.opts.SongMaxErrors,
			Region:    src.Region,
		},
	}
}

// LoadStaging copies events, then songs. The copies are independent
// statements and the first failure is returned.
func (l *Loader) LoadStaging(ctx context.Context, src Source) ([]Result, error) {
	specs := l.Specs(src)
	results := make([]Result, 0, len(specs))
	for _, spec := range specs {
		res, err := l.Copy(ctx, spec)
		if err != nil {
			return results, fmt.Errorf("load %s: %w", spec.Table, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Copy runs one bulk copy, natively when the repository supports it.
func (l *Loader) Copy(ctx context.Context, spec storage.CopySpec) (Result, error) {
	start := time.Now()
	log := logger.L().With(zap.String("table", spec.Table), zap.String("from", spec.From))

	var (
		res Result
		err error
	)
	if copier, ok := l.repo.(storage.ObjectCopier); ok {
		log.Info("server-side copy")
		res.Rows, err = copier.CopyFromObjectStore(ctx, spec)
	} else {
		log.Info("client-side copy", zap.Int("batch_size", l.opts.BatchSize))
		res, err = l.clientCopy(ctx, spec)
	}
	res.Table = spec.Table
	res.Elapsed = time.Since(start)
	if err != nil {
		log.Error("copy failed", zap.Error(err))
		return res, err
	}

	log.Info("copy done",
		zap.Int64("rows", res.Rows),
		zap.Int("rejected", res.Rejected),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

type fetched struct {
	obj  objectstore.Object
	data []byte
}

// clientCopy emulates COPY for backends that cannot read object storage.
//
// Stages:
//
//	dispatch  starts one download per object, with at most
//	          DownloadConcurrency in flight, and queues them in listing order
//	decode    splits objects into records and projects them onto columns
//	load      batches rows into repo.CopyFrom on the single connection
func (l *Loader) clientCopy(ctx context.Context, spec storage.CopySpec) (Result, error) {
	res := Result{Table: spec.Table}
	if err := spec.Validate(); err != nil {
		return res, err
	}
	if l.store == nil {
		return res, fmt.Errorf("%s: no object store configured for client-side copy", spec.Table)
	}
	if _, ok := schema.Table(spec.Table); !ok {
		return res, fmt.Errorf("%s is not a staging table", spec.Table)
	}

	proj, err := l.projection(ctx, spec)
	if err != nil {
		return res, err
	}
	objs, err := l.store.List(ctx, spec.From)
	if err != nil {
		return res, err
	}
	logger.L().Debug("objects listed", zap.String("table", spec.Table), zap.Int("objects", len(objs)))

	g, gctx := errgroup.WithContext(ctx)
	pending := make(chan chan fetched, l.opts.DownloadConcurrency)
	slots := make(chan struct{}, l.opts.DownloadConcurrency)
	rows := make(chan []any, l.opts.BatchSize)

	g.Go(func() error {
		defer close(pending)
		for _, o := range objs {
			fut := make(chan fetched, 1)
			select {
			case pending <- fut:
			case <-gctx.Done():
				return gctx.Err()
			}
			select {
			case slots <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			g.Go(func() error {
				defer func() { <-slots }()
				data, err := objectstore.ReadAll(gctx, l.store, o.URI)
				if err != nil {
					return err
				}
				fut <- fetched{obj: o, data: data}
				return nil
			})
		}
		return nil
	})

	g.Go(func() error {
		defer close(rows)
		for fut := range pending {
			var f fetched
			select {
			case f = <-fut:
			case <-gctx.Done():
				return gctx.Err()
			}
			err := eachRecord(f.data,
				func(rec []byte) error {
					row, err := proj.row(rec)
					if err != nil {
						return reject(&res, spec, f.obj, err)
					}
					select {
					case rows <- row:
						return nil
					case <-gctx.Done():
						return gctx.Err()
					}
				},
				func(err error) error { return reject(&res, spec, f.obj, err) },
			)
			if err != nil {
				return err
			}
		}
		return nil
	})

	g.Go(func() error {
		n, err := storage.LoadBatches(gctx, proj.columns, rows, l.opts.BatchSize,
			func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
				return l.repo.CopyFrom(ctx, spec.Table, cols, batch)
			})
		res.Rows = n
		return err
	})

	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, nil
}

// reject counts one malformed record and fails once MaxError is exceeded.
func reject(res *Result, spec storage.CopySpec, obj objectstore.Object, cause error) error {
	res.Rejected++
	logger.L().Warn("malformed record",
		zap.String("table", spec.Table),
		zap.String("object", obj.URI),
		zap.Int("rejected", res.Rejected),
		zap.Error(cause),
	)
	if res.Rejected > spec.MaxError {
		return fmt.Errorf("%w: %d in %s (max %d), last in %s: %v",
			ErrTooManyErrors, res.Rejected, spec.From, spec.MaxError, obj.URI, cause)
	}
	return nil
}

func (l *Loader) projection(ctx context.Context, spec storage.CopySpec) (*projection, error) {
	table, _ := schema.Table(spec.Table)
	if spec.IsAuto() {
		return newAutoProjection(table), nil
	}
	doc, err := objectstore.ReadAll(ctx, l.store, spec.JSONPaths)
	if err != nil {
		return nil, fmt.Errorf("read jsonpaths: %w", err)
	}
	paths, err := ParseJSONPaths(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.JSONPaths, err)
	}
	return newPathProjection(table, paths)
}
