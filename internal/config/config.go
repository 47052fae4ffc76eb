// Package config loads the warehouse ETL configuration from a YAML file and
// the environment.
//
// Every field can be set from YAML or overridden by its DWH_* variable. The
// database password is read from DWH_DB_PASSWORD only and never from a file.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the full run configuration.
type Config struct {
	Job       string      `yaml:"job" env:"DWH_JOB" env-default:"sparkify_dwh"`
	Warehouse Warehouse   `yaml:"warehouse"`
	IAMRole   IAMRole     `yaml:"iam_role"`
	S3        S3          `yaml:"s3"`
	Load      LoadOptions `yaml:"load"`
	Log       Log         `yaml:"log"`
	Metrics   Metrics     `yaml:"metrics"`
}

// Warehouse describes the target database. DSN, when set, wins over the
// individual connection fields.
type Warehouse struct {
	Kind     string `yaml:"kind" env:"DWH_KIND" env-default:"redshift"`
	DSN      string `yaml:"dsn" env:"DWH_DSN"`
	Host     string `yaml:"host" env:"DWH_HOST"`
	Port     int    `yaml:"port" env:"DWH_PORT"`
	Database string `yaml:"database" env:"DWH_DB_NAME"`
	User     string `yaml:"user" env:"DWH_DB_USER"`
	Password string `yaml:"-" env:"DWH_DB_PASSWORD"`
	SSLMode  string `yaml:"sslmode" env:"DWH_SSLMODE"`
}

// IAMRole is the role the warehouse assumes to read object storage.
type IAMRole struct {
	ARN string `yaml:"arn" env:"DWH_IAM_ROLE_ARN"`
}

// S3 holds the source locations and the client settings used when the
// warehouse cannot read object storage itself.
type S3 struct {
	LogData      string `yaml:"log_data" env:"DWH_LOG_DATA" env-default:"s3://udacity-dend/log_data"`
	LogJSONPath  string `yaml:"log_jsonpath" env:"DWH_LOG_JSONPATH" env-default:"s3://udacity-dend/log_json_path.json"`
	SongData     string `yaml:"song_data" env:"DWH_SONG_DATA" env-default:"s3://udacity-dend/song_data"`
	Region       string `yaml:"region" env:"DWH_S3_REGION" env-default:"us-west-2"`
	Endpoint     string `yaml:"endpoint" env:"DWH_S3_ENDPOINT"`
	UsePathStyle bool   `yaml:"use_path_style" env:"DWH_S3_PATH_STYLE"`
}

// LoadOptions tunes the client-side staging copy.
type LoadOptions struct {
	BatchSize           int `yaml:"batch_size" env:"DWH_BATCH_SIZE" env-default:"1000"`
	SongMaxErrors       int `yaml:"song_max_errors" env:"DWH_SONG_MAX_ERRORS" env-default:"10"`
	DownloadConcurrency int `yaml:"download_concurrency" env:"DWH_DOWNLOAD_CONCURRENCY" env-default:"8"`
}

type Log struct {
	Level  string `yaml:"level" env:"DWH_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"DWH_LOG_FORMAT" env-default:"json"`
}

type Metrics struct {
	Backend        string `yaml:"backend" env:"DWH_METRICS_BACKEND" env-default:"none"`
	PushgatewayURL string `yaml:"pushgateway_url" env:"PUSHGATEWAY_URL" env-default:"http://localhost:9091"`
	DatadogAddr    string `yaml:"datadog_addr" env:"DD_AGENT_ADDR" env-default:"127.0.0.1:8125"`
}

// defaultPorts is used when warehouse.port is zero.
var defaultPorts = map[string]int{
	"redshift": 5439,
	"postgres": 5432,
	"mssql":    1433,
	"mysql":    3306,
}

// Load reads path (when non-empty) and then applies environment overrides.
// With an empty path only the environment and defaults are used.
func Load(path string) (*Config, error) {
	var cfg Config
	if strings.TrimSpace(path) == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read config from environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg.Warehouse.Kind = strings.ToLower(strings.TrimSpace(cfg.Warehouse.Kind))
	cfg.Metrics.Backend = strings.ToLower(strings.TrimSpace(cfg.Metrics.Backend))
	return &cfg, nil
}

// ConnString returns the driver DSN for the warehouse. An explicit DSN is
// returned unchanged; otherwise one is assembled from the connection fields
// in the format the kind's driver expects.
func (w Warehouse) ConnString() (string, error) {
	if dsn := strings.TrimSpace(w.DSN); dsn != "" {
		return dsn, nil
	}

	kind := strings.ToLower(strings.TrimSpace(w.Kind))
	if kind == "sqlite" {
		if w.Database == "" {
			return "", fmt.Errorf("warehouse: sqlite needs dsn or database")
		}
		return w.Database, nil
	}

	if w.Host == "" {
		return "", fmt.Errorf("warehouse: %s needs dsn or host", kind)
	}
	port := w.Port
	if port == 0 {
		port = defaultPorts[kind]
	}
	addr := net.JoinHostPort(w.Host, strconv.Itoa(port))

	switch kind {
	case "redshift", "postgres":
		u := url.URL{Scheme: "postgres", Host: addr, Path: "/" + w.Database}
		u.User = userInfo(w.User, w.Password)
		sslmode := w.SSLMode
		if sslmode == "" && kind == "redshift" {
			sslmode = "require"
		}
		if sslmode != "" {
			u.RawQuery = url.Values{"sslmode": {sslmode}}.Encode()
		}
		return u.String(), nil

	case "mssql":
		u := url.URL{Scheme: "sqlserver", Host: addr}
		u.User = userInfo(w.User, w.Password)
		if w.Database != "" {
			u.RawQuery = url.Values{"database": {w.Database}}.Encode()
		}
		return u.String(), nil

	case "mysql":
		mc := mysql.NewConfig()
		mc.User = w.User
		mc.Passwd = w.Password
		mc.Net = "tcp"
		mc.Addr = addr
		mc.DBName = w.Database
		return mc.FormatDSN(), nil

	default:
		return "", fmt.Errorf("warehouse: unsupported kind %q", w.Kind)
	}
}

func userInfo(user, password string) *url.Userinfo {
	switch {
	case user == "":
		return nil
	case password == "":
		return url.User(user)
	default:
		return url.UserPassword(user, password)
	}
}
