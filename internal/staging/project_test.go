package staging

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"dwh/internal/ddl"
	"dwh/internal/schema"
)

func TestCompilePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr    string
		want    string
		wantErr bool
	}{
		{expr: "$['artist']", want: "artist"},
		{expr: `$["userId"]`, want: "userId"},
		{expr: "$.auth", want: "auth"},
		{expr: "$.location.city", want: "location.city"},
		{expr: "$.tags[0]", want: "tags.0"},
		{expr: "$['a.b']", want: `a\.b`},
		{expr: " $['song'] ", want: "song"},
		{expr: "artist", wantErr: true},
		{expr: "$", wantErr: true},
		{expr: "$.", wantErr: true},
		{expr: "$['artist'", wantErr: true},
		{expr: "$[x]", wantErr: true},
		{expr: "$[-1]", wantErr: true},
		{expr: "$['']", wantErr: true},
		{expr: "$..artist", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			got, err := compilePath(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSONPaths(t *testing.T) {
	t.Parallel()

	doc, err := os.ReadFile("testdata/log_json_path.json")
	require.NoError(t, err)
	paths, err := ParseJSONPaths(doc)
	require.NoError(t, err)

	events, _ := schema.Table(schema.StagingEvents)
	require.Len(t, paths, len(events.Columns))
	assert.Equal(t, "artist", paths[0])
	assert.Equal(t, "userId", paths[17])

	for _, bad := range []string{
		`not json`,
		`{"paths": []}`,
		`{"jsonpaths": []}`,
		`{"jsonpaths": [1]}`,
		`{"jsonpaths": ["artist"]}`,
	} {
		_, err := ParseJSONPaths([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestCoerce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		json    string
		typ     string
		want    any
		wantErr bool
	}{
		{"missing", `{}`, ddl.TypeInt, nil, false},
		{"null", `{"v": null}`, ddl.TypeVarchar, nil, false},
		{"int number", `{"v": 818}`, ddl.TypeInt, int64(818), false},
		{"int string", `{"v": "15"}`, ddl.TypeInt, int64(15), false},
		{"int empty string", `{"v": ""}`, ddl.TypeInt, nil, false},
		{"int zero fraction", `{"v": 5.0}`, ddl.TypeInt, int64(5), false},
		{"int fraction", `{"v": 5.5}`, ddl.TypeInt, nil, true},
		{"int overflow", `{"v": 3000000000}`, ddl.TypeInt, nil, true},
		{"bigint ts", `{"v": 1541990258796}`, ddl.TypeBigint, int64(1541990258796), false},
		{"int bool", `{"v": true}`, ddl.TypeInt, nil, true},
		{"numeric", `{"v": 269.58322}`, ddl.TypeNumeric, 269.58322, false},
		{"float exponent", `{"v": 1.540235750796e12}`, ddl.TypeFloat, 1540235750796.0, false},
		{"float string", `{"v": " 35.14968 "}`, ddl.TypeFloat, 35.14968, false},
		{"float empty", `{"v": ""}`, ddl.TypeFloat, nil, false},
		{"float garbage", `{"v": "north"}`, ddl.TypeFloat, nil, true},
		{"float object", `{"v": {}}`, ddl.TypeNumeric, nil, true},
		{"varchar", `{"v": "Setanta matins"}`, ddl.TypeVarchar, "Setanta matins", false},
		{"varchar keeps spaces", `{"v": " Elena "}`, ddl.TypeVarchar, " Elena ", false},
		{"varchar from number", `{"v": 49.80388}`, ddl.TypeVarchar, "49.80388", false},
		{"varchar from bool", `{"v": false}`, ddl.TypeVarchar, "false", false},
		{"text from array", `{"v": [1, 2]}`, ddl.TypeText, "[1, 2]", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := coerce(gjson.Get(tt.json, "v"), tt.typ)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProjection_Row(t *testing.T) {
	t.Parallel()

	songs, _ := schema.Table(schema.StagingSongs)
	p := newAutoProjection(songs)

	row, err := p.row([]byte(`{"num_songs": 1, "Artist_Name": "ignored", "artist_name": "Elena", "song_id": "SOAFBCP12A8C13CC7D", "extra": 1}`))
	require.NoError(t, err)
	require.Len(t, row, len(songs.Columns))
	assert.Equal(t, int64(1), row[0])
	assert.Equal(t, "Elena", row[5], "keys match columns case-sensitively")
	assert.Equal(t, "SOAFBCP12A8C13CC7D", row[6])
	assert.Nil(t, row[7])

	_, err = p.row([]byte(`[{"song_id": "x"}]`))
	assert.ErrorContains(t, err, "array")

	_, err = newPathProjection(songs, []string{"a"})
	assert.Error(t, err)
}

func TestEachRecord(t *testing.T) {
	t.Parallel()

	data := []byte(`{"a": 1}
{"a": 2}{"a": 3}
{"a": oops}
{
  "a": 4
}
{"a": 5`)

	var got []string
	var bad []error
	err := eachRecord(data,
		func(rec []byte) error { got = append(got, gjson.GetBytes(rec, "a").Raw); return nil },
		func(err error) error { bad = append(bad, err); return nil },
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4"}, got)
	assert.Len(t, bad, 2, "the invalid line and the truncated tail")

	stop := errors.New("stop")
	err = eachRecord(data,
		func([]byte) error { return nil },
		func(error) error { return stop },
	)
	assert.ErrorIs(t, err, stop)

	require.NoError(t, eachRecord(nil, func([]byte) error { return nil }, func(error) error { return nil }))
}

func TestEachRecord_MalformedMultiLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want []string
		bad  int
	}{
		{
			name: "pretty-printed bad value",
			data: `{
  "a": 1,
  "b": nineteen,
  "c": {
    "d": "x}y",
    "e": [1, 2]
  },
  "f": "g"
}
{"a": 2}
`,
			want: []string{"2"},
			bad:  1,
		},
		{
			name: "truncated pretty value",
			data: `{
  "a": 1,
  "b": 
{"a": 2}
{"a": 3}`,
			want: []string{"2", "3"},
			bad:  1,
		},
		{
			name: "unterminated string",
			data: "{\"a\": \"open\n}\n{\"a\": 2}\n",
			want: []string{"2"},
			bad:  1,
		},
		{
			name: "bare token",
			data: "oops\n{\"a\": 2}",
			want: []string{"2"},
			bad:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got []string
			bad := 0
			err := eachRecord([]byte(tt.data),
				func(rec []byte) error { got = append(got, gjson.GetBytes(rec, "a").Raw); return nil },
				func(error) error { bad++; return nil },
			)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.bad, bad)
		})
	}
}
