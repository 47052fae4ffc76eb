// Package schema owns the warehouse table definitions and the reset that
// drops and recreates them before every run.
package schema

import "dwh/internal/ddl"

// Table names.
const (
	StagingEvents = "staging_events"
	StagingSongs  = "staging_songs"
	Songplays     = "songplays"
	Users         = "users"
	Songs         = "songs"
	Artists       = "artists"
	Time          = "time"
)

func col(name, typ string) ddl.ColumnDef {
	return ddl.ColumnDef{Name: name, Type: typ, Nullable: true}
}

func key(name, typ string) ddl.ColumnDef {
	return ddl.ColumnDef{Name: name, Type: typ, PrimaryKey: true}
}

func notNull(name, typ string) ddl.ColumnDef {
	return ddl.ColumnDef{Name: name, Type: typ}
}

// Tables returns the seven table definitions in drop/create order. Staging
// tables carry no constraints; they mirror the source JSON as loaded.
func Tables() []ddl.TableDef {
	return []ddl.TableDef{
		{FQN: StagingEvents, Columns: []ddl.ColumnDef{
			col("artist", ddl.TypeVarchar),
			col("auth", ddl.TypeVarchar),
			col("firstname", ddl.TypeVarchar),
			col("gender", ddl.TypeChar),
			col("iteminsession", ddl.TypeInt),
			col("lastname", ddl.TypeVarchar),
			col("length", ddl.TypeNumeric),
			col("level", ddl.TypeVarchar),
			col("location", ddl.TypeVarchar),
			col("method", ddl.TypeVarchar),
			col("page", ddl.TypeVarchar),
			col("registration", ddl.TypeFloat),
			col("sessionid", ddl.TypeInt),
			col("song", ddl.TypeVarchar),
			col("status", ddl.TypeInt),
			col("ts", ddl.TypeBigint),
			col("useragent", ddl.TypeVarchar),
			col("userid", ddl.TypeInt),
		}},
		{FQN: StagingSongs, Columns: []ddl.ColumnDef{
			col("num_songs", ddl.TypeInt),
			col("artist_id", ddl.TypeVarchar),
			col("artist_latitude", ddl.TypeVarchar),
			col("artist_longitude", ddl.TypeVarchar),
			col("artist_location", ddl.TypeText),
			col("artist_name", ddl.TypeText),
			col("song_id", ddl.TypeVarchar),
			col("title", ddl.TypeVarchar),
			col("duration", ddl.TypeNumeric),
			col("year", ddl.TypeInt),
		}},
		{FQN: Songplays, Columns: []ddl.ColumnDef{
			{Name: "songplay_id", Type: ddl.TypeBigint, PrimaryKey: true, Identity: true},
			notNull("start_time", ddl.TypeTimestamp),
			notNull("user_id", ddl.TypeInt),
			notNull("level", ddl.TypeVarchar),
			notNull("song_id", ddl.TypeVarchar),
			notNull("artist_id", ddl.TypeVarchar),
			col("session_id", ddl.TypeInt),
			col("location", ddl.TypeVarchar),
			col("user_agent", ddl.TypeVarchar),
		}},
		{FQN: Users, Columns: []ddl.ColumnDef{
			key("user_id", ddl.TypeInt),
			col("first_name", ddl.TypeVarchar),
			col("last_name", ddl.TypeVarchar),
			col("gender", ddl.TypeChar),
			col("level", ddl.TypeVarchar),
		}},
		{FQN: Songs, Columns: []ddl.ColumnDef{
			key("song_id", ddl.TypeVarchar),
			col("title", ddl.TypeVarchar),
			col("artist_id", ddl.TypeVarchar),
			col("year", ddl.TypeInt),
			col("duration", ddl.TypeNumeric),
		}},
		{FQN: Artists, Columns: []ddl.ColumnDef{
			key("artist_id", ddl.TypeVarchar),
			col("name", ddl.TypeText),
			col("location", ddl.TypeText),
			col("latitude", ddl.TypeFloat),
			col("longitude", ddl.TypeFloat),
		}},
		{FQN: Time, Columns: []ddl.ColumnDef{
			key("start_time", ddl.TypeTimestamp),
			notNull("hour", ddl.TypeInt),
			notNull("day", ddl.TypeInt),
			notNull("week", ddl.TypeInt),
			notNull("month", ddl.TypeInt),
			notNull("year", ddl.TypeInt),
			notNull("weekday", ddl.TypeInt),
		}},
	}
}

// Table returns the definition named name.
func Table(name string) (ddl.TableDef, bool) {
	for _, t := range Tables() {
		if t.FQN == name {
			return t, true
		}
	}
	return ddl.TableDef{}, false
}
