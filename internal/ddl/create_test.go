package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty FQN",
			def:         TableDef{Columns: []ColumnDef{{Name: "id", SQLType: "int"}}},
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns",
			def:         TableDef{FQN: "users"},
			errContains: "at least one column is required",
		},
		{
			name:        "column without name",
			def:         TableDef{FQN: "users", Columns: []ColumnDef{{SQLType: "int"}}},
			errContains: "column with empty name",
		},
		{
			name:        "column without type",
			def:         TableDef{FQN: "users", Columns: []ColumnDef{{Name: "user_id"}}},
			errContains: "missing SQLType",
		},
		{
			name: "primary key and nullable columns",
			def: TableDef{
				FQN: "users",
				Columns: []ColumnDef{
					{Name: "user_id", SQLType: "int", PrimaryKey: true},
					{Name: "first_name", SQLType: "varchar", Nullable: true},
				},
			},
			wantSQL: "CREATE TABLE users (\n  user_id int NOT NULL,\n  first_name varchar,\n  PRIMARY KEY (user_id)\n);",
		},
		{
			name: "trimmed names and default",
			def: TableDef{
				FQN: "  public.time  ",
				Columns: []ColumnDef{
					{Name: " hour ", SQLType: " int ", Default: " 0 "},
				},
			},
			wantSQL: "CREATE TABLE public.time (\n  hour int NOT NULL DEFAULT 0\n);",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := BuildCreateTableSQL(tt.def)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, got)
		})
	}
}

func TestBuildCreateTableIfNotExistsSQL_Quotes(t *testing.T) {
	t.Parallel()

	def := TableDef{
		FQN: "public.time",
		Columns: []ColumnDef{
			{Name: "start_time", SQLType: "timestamp", PrimaryKey: true},
			{Name: "we\"ird", SQLType: "int", Nullable: true},
		},
	}

	got, err := BuildCreateTableIfNotExistsSQL(def, DoubleQuote)
	require.NoError(t, err)
	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS \"public\".\"time\" (\n  \"start_time\" timestamp NOT NULL,\n  \"we\"\"ird\" int,\n  PRIMARY KEY (\"start_time\")\n);",
		got)
}

func TestBuildDropTableSQL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `DROP TABLE IF EXISTS "songplays";`, BuildDropTableSQL("songplays", DoubleQuote))
	assert.Equal(t, `DROP TABLE IF EXISTS dbo.songs;`, BuildDropTableSQL("dbo.songs", nil))
}

func TestResolveKeepsExplicitTypes(t *testing.T) {
	t.Parallel()

	def := TableDef{
		FQN: "songplays",
		Columns: []ColumnDef{
			{Name: "songplay_id", Type: TypeBigint, Identity: true},
			{Name: "level", Type: TypeVarchar},
			{Name: "custom", Type: TypeVarchar, SQLType: "varchar(16)"},
		},
	}

	got := Resolve(def, func(c ColumnDef) string {
		if c.Identity {
			return "identity"
		}
		return "mapped_" + c.Type
	})

	assert.Equal(t, []string{"identity", "mapped_varchar", "varchar(16)"},
		[]string{got.Columns[0].SQLType, got.Columns[1].SQLType, got.Columns[2].SQLType})
	assert.Empty(t, def.Columns[0].SQLType, "input must not be mutated")
	assert.Equal(t, []string{"songplay_id", "level", "custom"}, got.ColumnNames())

	c, ok := got.Column("level")
	require.True(t, ok)
	assert.Equal(t, TypeVarchar, c.Type)
	_, ok = got.Column("missing")
	assert.False(t, ok)
}

var benchmarkSink string

func BenchmarkBuildCreateTableIfNotExistsSQL(b *testing.B) {
	def := TableDef{
		FQN: "staging_events",
		Columns: []ColumnDef{
			{Name: "artist", SQLType: "varchar", Nullable: true},
			{Name: "ts", SQLType: "bigint", Nullable: true},
			{Name: "userid", SQLType: "int", Nullable: true},
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sql, err := BuildCreateTableIfNotExistsSQL(def, DoubleQuote)
		if err != nil {
			b.Fatalf("BuildCreateTableIfNotExistsSQL() error = %v", err)
		}
		benchmarkSink = sql
	}
}
