package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dwh/internal/config"
	"dwh/internal/metrics"
	"dwh/internal/objectstore"
	"dwh/internal/staging"
	"dwh/internal/storage"
	_ "dwh/internal/storage/sqlite"
)

const testdata = "../staging/testdata"

type counterCall struct {
	name   string
	delta  float64
	labels metrics.Labels
}

// recordingBackend captures metric calls. Tests that install it must not run
// in parallel since the metrics backend is process-global.
type recordingBackend struct {
	mu       sync.Mutex
	counters []counterCall
}

func (b *recordingBackend) IncCounter(name string, delta float64, labels metrics.Labels) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.counters = append(b.counters, counterCall{name, delta, labels})
}
func (b *recordingBackend) ObserveHistogram(string, float64, metrics.Labels) {}
func (b *recordingBackend) Flush() error                                     { return nil }

func (b *recordingBackend) steps() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := map[string]string{}
	for _, c := range b.counters {
		if c.name == metrics.StepTotal {
			out[c.labels["step"]] = c.labels["status"]
		}
	}
	return out
}

func (b *recordingBackend) rows(table string) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.counters {
		if c.name == metrics.TableRowsTotal && c.labels["table"] == table {
			return c.delta
		}
	}
	return 0
}

func installBackend(t *testing.T) *recordingBackend {
	t.Helper()
	b := &recordingBackend{}
	metrics.SetBackend(b)
	t.Cleanup(func() { metrics.SetBackend(&recordingBackend{}) })
	return b
}

func sqliteConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Job:       "sparkify_dwh",
		Warehouse: config.Warehouse{Kind: "sqlite", DSN: filepath.Join(t.TempDir(), "dwh.db")},
		S3: config.S3{
			LogData:     filepath.Join(testdata, "log_data"),
			LogJSONPath: filepath.Join(testdata, "log_json_path.json"),
			SongData:    filepath.Join(testdata, "song_data"),
		},
		Load: config.LoadOptions{BatchSize: 2, SongMaxErrors: 10, DownloadConcurrency: 2},
	}
}

func count(t *testing.T, dsn, table string) int64 {
	t.Helper()
	repo, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("open %s: %v", dsn, err)
	}
	defer repo.Close()
	n, err := repo.QueryInt64(context.Background(), `SELECT COUNT(*) FROM "`+table+`"`)
	if err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestRun_SQLite(t *testing.T) {
	b := installBackend(t)
	cfg := sqliteConfig(t)

	require.NoError(t, Run(context.Background(), cfg))

	dsn := cfg.Warehouse.DSN
	want := map[string]int64{
		"staging_events": 3,
		"staging_songs":  2,
		"users":          1, // both of Lily's events carry the same tuple
		"songs":          2,
		"artists":        2,
		"time":           3,
		"songplays":      1, // the lowercase "elena" play has no catalog match
	}
	for table, n := range want {
		assert.Equal(t, n, count(t, dsn, table), table)
		assert.EqualValues(t, n, b.rows(table), table)
	}

	assert.Equal(t, map[string]string{
		StepResetSchema:        "success",
		StepLoadStaging:        "success",
		StepPopulateDimensions: "success",
		StepPopulateFacts:      "success",
	}, b.steps())
}

func TestRun_Rerun(t *testing.T) {
	installBackend(t)
	cfg := sqliteConfig(t)

	require.NoError(t, Run(context.Background(), cfg))
	require.NoError(t, Run(context.Background(), cfg))

	// the reset step makes reruns start from empty tables
	assert.EqualValues(t, 1, count(t, cfg.Warehouse.DSN, "songplays"))
	assert.EqualValues(t, 3, count(t, cfg.Warehouse.DSN, "staging_events"))
}

func TestRun_StagingFailureStops(t *testing.T) {
	b := installBackend(t)
	cfg := sqliteConfig(t)
	cfg.S3.SongData = filepath.Join(t.TempDir(), "nothing_here")

	err := Run(context.Background(), cfg)
	require.Error(t, err)

	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StepLoadStaging, se.Step)
	assert.ErrorIs(t, err, objectstore.ErrNoObjects)
	assert.True(t, IsStep(err, StepLoadStaging))
	assert.Contains(t, err.Error(), "load_staging: load staging_songs:")

	assert.Equal(t, map[string]string{
		StepResetSchema: "success",
		StepLoadStaging: "failure",
	}, b.steps())

	// events were loaded before songs failed; nothing was transformed
	assert.EqualValues(t, 3, count(t, cfg.Warehouse.DSN, "staging_events"))
	assert.EqualValues(t, 0, count(t, cfg.Warehouse.DSN, "users"))
}

type failingRepo struct{ err error }

func (r failingRepo) Exec(context.Context, string) error                { return r.err }
func (r failingRepo) QueryInt64(context.Context, string) (int64, error) { return 0, r.err }
func (r failingRepo) CopyFrom(context.Context, string, []string, [][]any) (int64, error) {
	return 0, r.err
}
func (r failingRepo) Close() {}

func TestPipeline_ResetFailureStops(t *testing.T) {
	b := installBackend(t)
	boom := errors.New("permission denied for schema public")
	d, err := storage.DialectFor("sqlite")
	require.NoError(t, err)

	p := New("sparkify_dwh", failingRepo{err: boom}, d, objectstore.NewLocal(), staging.Options{})
	err = p.Run(context.Background(), staging.Source{})

	require.ErrorIs(t, err, boom)
	assert.True(t, IsStep(err, StepResetSchema))
	assert.Equal(t, "reset_schema: drop table staging_events: permission denied for schema public", err.Error())
	assert.Equal(t, map[string]string{StepResetSchema: "failure"}, b.steps())
}

func TestRun_OpenFailure(t *testing.T) {
	boom := errors.New("connection refused")
	orig := newRepository
	newRepository = func(context.Context, storage.Config) (storage.Repository, error) { return nil, boom }
	t.Cleanup(func() { newRepository = orig })

	err := Run(context.Background(), sqliteConfig(t))
	assert.ErrorIs(t, err, boom)
}

func TestRun_UnknownKind(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Warehouse.Kind = "oracle"
	err := Run(context.Background(), cfg)
	assert.ErrorIs(t, err, storage.ErrUnknownKind)
}

func TestResetSchema(t *testing.T) {
	cfg := sqliteConfig(t)
	require.NoError(t, ResetSchema(context.Background(), cfg))
	require.NoError(t, ResetSchema(context.Background(), cfg), "reset is repeatable")
	for _, table := range []string{"staging_events", "staging_songs", "songplays", "users", "songs", "artists", "time"} {
		assert.Zero(t, count(t, cfg.Warehouse.DSN, table), table)
	}
}

func TestSourceFrom(t *testing.T) {
	t.Parallel()
	cfg := config.Config{
		IAMRole: config.IAMRole{ARN: "arn:aws:iam::123456789012:role/dwhRole"},
		S3: config.S3{
			LogData:     "s3://udacity-dend/log_data",
			LogJSONPath: "s3://udacity-dend/log_json_path.json",
			SongData:    "s3://udacity-dend/song_data",
			Region:      "us-west-2",
		},
	}
	assert.Equal(t, staging.Source{
		LogDataPath:     "s3://udacity-dend/log_data",
		SongDataPath:    "s3://udacity-dend/song_data",
		LogJSONPathSpec: "s3://udacity-dend/log_json_path.json",
		CredentialRole:  "arn:aws:iam::123456789012:role/dwhRole",
		Region:          "us-west-2",
	}, SourceFrom(cfg))
}
