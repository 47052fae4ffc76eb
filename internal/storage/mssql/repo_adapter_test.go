package mssql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gddl "dwh/internal/ddl"
	"dwh/internal/storage"
)

// TestStorageRegistrationUsesNewRepositoryHook verifies that the "mssql"
// backend registered in init() uses the newRepository hook and propagates
// Close.
func TestStorageRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var (
		gotCfg   Config
		closed   bool
		fakeRepo = &Repository{}
	)
	newRepository = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return fakeRepo, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "mssql", DSN: "sqlserver://sa@localhost?database=dwh"})
	require.NoError(t, err)
	assert.Equal(t, "sqlserver://sa@localhost?database=dwh", gotCfg.DSN)

	w, ok := repo.(*wrappedRepo)
	require.True(t, ok)
	assert.Same(t, fakeRepo, w.Repository)

	repo.Close()
	assert.True(t, closed)
}

func TestNewRepository_RejectsBadDSN(t *testing.T) {
	t.Parallel()

	_, _, err := NewRepository(context.Background(), Config{DSN: "sqlserver://sa@localhost:notaport"})
	assert.ErrorContains(t, err, "mssql dsn")
}

func TestDialectExpressions(t *testing.T) {
	t.Parallel()

	d := Dialect{}
	assert.Equal(t, "DATEPART(ISO_WEEK, x)", d.DatePart(gddl.PartWeek, "x"))
	assert.Equal(t, "(DATEPART(WEEKDAY, x) + @@DATEFIRST - 1) % 7", d.DatePart(gddl.PartWeekday, "x"))
	assert.Equal(t, "DATEADD(SECOND, CAST(ts % 86400000 / 1000 AS INT), "+
		"DATEADD(DAY, CAST(ts / 86400000 AS INT), CAST('1970-01-01' AS DATETIME2(0))))", d.EpochMillisToTimestamp("ts"))
	assert.Equal(t,
		"(ev.song COLLATE Latin1_General_BIN2 = sg.title COLLATE Latin1_General_BIN2 AND DATALENGTH(ev.song) = DATALENGTH(sg.title))",
		d.TextEquals("ev.song", "sg.title"))
	assert.Equal(t, "[songplays]", d.QuoteIdent("songplays"))
}
