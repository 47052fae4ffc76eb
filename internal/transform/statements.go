// Package transform reshapes the staging tables into the star schema with
// set-based INSERT ... SELECT statements rendered for a storage.Dialect.
package transform

import (
	"fmt"
	"strings"

	"dwh/internal/ddl"
	"dwh/internal/schema"
	"dwh/internal/storage"
)

// Statement is one rendered transform step.
type Statement struct {
	Name  string // step name used in logs and errors
	Table string // target table
	SQL   string
}

// DimensionStatements renders the users, songs, artists and time inserts,
// in that order. Each deduplicates on the full projected tuple.
func DimensionStatements(d storage.Dialect) []Statement {
	q := quoter(d)
	return []Statement{
		{
			Name:  "users",
			Table: schema.Users,
			SQL: fmt.Sprintf(`INSERT INTO %s (%s)
SELECT DISTINCT %s
FROM %s
WHERE %s IS NOT NULL;`,
				q(schema.Users), q("user_id", "first_name", "last_name", "gender", "level"),
				q("userid", "firstname", "lastname", "gender", "level"),
				q(schema.StagingEvents), q("userid")),
		},
		{
			Name:  "songs",
			Table: schema.Songs,
			SQL: fmt.Sprintf(`INSERT INTO %s (%s)
SELECT DISTINCT %s
FROM %s
WHERE %s IS NOT NULL;`,
				q(schema.Songs), q("song_id", "title", "artist_id", "year", "duration"),
				q("song_id", "title", "artist_id", "year", "duration"),
				q(schema.StagingSongs), q("song_id")),
		},
		{
			Name:  "artists",
			Table: schema.Artists,
			SQL: fmt.Sprintf(`INSERT INTO %s (%s)
SELECT DISTINCT %s, %s, %s, %s, %s
FROM %s
WHERE %s IS NOT NULL;`,
				q(schema.Artists), q("artist_id", "name", "location", "latitude", "longitude"),
				q("artist_id"), q("artist_name"), q("artist_location"),
				d.CastFloat(q("artist_latitude")), d.CastFloat(q("artist_longitude")),
				q(schema.StagingSongs), q("artist_id")),
		},
		timeStatement(d),
	}
}

// timeStatement converts ts once in a derived table and extracts every
// calendar part from the converted value.
func timeStatement(d storage.Dialect) Statement {
	q := quoter(d)
	start := q("start_time")

	cols := []string{start}
	sel := []string{start}
	for _, p := range ddl.DateParts {
		cols = append(cols, q(string(p)))
		sel = append(sel, d.DatePart(p, start))
	}

	return Statement{
		Name:  "time",
		Table: schema.Time,
		SQL: fmt.Sprintf(`INSERT INTO %s (%s)
SELECT DISTINCT %s
FROM (
  SELECT %s AS %s
  FROM %s
  WHERE %s IS NOT NULL
) AS t;`,
			q(schema.Time), strings.Join(cols, ", "),
			strings.Join(sel, ", "),
			d.EpochMillisToTimestamp(q("ts")), start,
			q(schema.StagingEvents),
			q("ts")),
	}
}

// FactStatements renders the songplays insert: an inner join of events to
// the song catalog on exact title and artist name.
func FactStatements(d storage.Dialect) []Statement {
	q := quoter(d)
	ev := func(c string) string { return "ev." + q(c) }
	sg := func(c string) string { return "sg." + q(c) }

	return []Statement{{
		Name:  "songplays",
		Table: schema.Songplays,
		SQL: fmt.Sprintf(`INSERT INTO %s (%s)
SELECT %s, %s, %s, %s, %s, %s, %s, %s
FROM %s ev
JOIN %s sg ON %s AND %s;`,
			q(schema.Songplays),
			q("start_time", "user_id", "level", "song_id", "artist_id", "session_id", "location", "user_agent"),
			d.EpochMillisToTimestamp(ev("ts")), ev("userid"), ev("level"),
			sg("song_id"), sg("artist_id"),
			ev("sessionid"), ev("location"), ev("useragent"),
			q(schema.StagingEvents),
			q(schema.StagingSongs),
			d.TextEquals(ev("song"), sg("title")),
			d.TextEquals(ev("artist"), sg("artist_name"))),
	}}
}

// Statements returns the dimension statements followed by the fact
// statements.
func Statements(d storage.Dialect) []Statement {
	return append(DimensionStatements(d), FactStatements(d)...)
}

// quoter returns a function that quotes identifiers with the dialect and
// joins several with ", ".
func quoter(d storage.Dialect) func(ids ...string) string {
	return func(ids ...string) string {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = d.QuoteIdent(id)
		}
		return strings.Join(out, ", ")
	}
}
