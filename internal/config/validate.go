package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"dwh/internal/storage"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "warehouse.kind",
// "s3.log_jsonpath"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	return slices.ContainsFunc(issues, func(i Issue) bool { return i.Severity == SeverityError })
}

var (
	logLevels      = []string{"debug", "info", "warn", "error"}
	logFormats     = []string{"json", "console"}
	metricBackends = []string{"none", "pushgateway", "datadog"}
)

// Validate performs static validation of a loaded Config. It does not
// connect anywhere. Warehouse kinds are checked against the backends
// registered with package storage, so callers should import storage/all.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and log lines",
		})
	}
	issues = append(issues, validateWarehouse(c.Warehouse)...)
	issues = append(issues, validateSources(c)...)
	issues = append(issues, validateLoad(c.Load)...)
	issues = append(issues, validateLog(c.Log)...)
	issues = append(issues, validateMetrics(c.Metrics)...)

	return issues
}

func validateWarehouse(w Warehouse) []Issue {
	var issues []Issue

	kind := strings.ToLower(strings.TrimSpace(w.Kind))
	if !slices.Contains(storage.Kinds(), kind) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "warehouse.kind",
			Message:  fmt.Sprintf("unsupported kind %q (supported: %s)", w.Kind, strings.Join(storage.Kinds(), ", ")),
		})
		return issues
	}

	if _, err := w.ConnString(); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "warehouse",
			Message:  err.Error(),
		})
	}
	if w.DSN == "" && kind != "sqlite" && w.Password == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "warehouse.password",
			Message:  "DWH_DB_PASSWORD is not set; connecting without a password",
		})
	}
	if w.Port < 0 || w.Port > 65535 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "warehouse.port",
			Message:  fmt.Sprintf("port %d out of range", w.Port),
		})
	}
	return issues
}

// validateSources checks the two staging copies the way the loader will
// build them. Redshift reads S3 itself and needs the role ARN; every other
// kind copies client-side and accepts local paths.
func validateSources(c Config) []Issue {
	var issues []Issue
	native := strings.EqualFold(strings.TrimSpace(c.Warehouse.Kind), "redshift")

	specs := []struct {
		path string
		spec storage.CopySpec
	}{
		{"s3.log_data", storage.CopySpec{
			Table:     "staging_events",
			From:      c.S3.LogData,
			IAMRole:   c.IAMRole.ARN,
			JSONPaths: c.S3.LogJSONPath,
			Region:    c.S3.Region,
		}},
		{"s3.song_data", storage.CopySpec{
			Table:     "staging_songs",
			From:      c.S3.SongData,
			IAMRole:   c.IAMRole.ARN,
			JSONPaths: storage.JSONAuto,
			MaxError:  c.Load.SongMaxErrors,
			Region:    c.S3.Region,
		}},
	}
	for _, s := range specs {
		validate := s.spec.Validate
		if native {
			validate = s.spec.ValidateObjectStore
		}
		if err := validate(); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     s.path,
				Message:  strings.TrimPrefix(err.Error(), storage.ErrInvalidCopySpec.Error()+": "),
			})
		}
	}

	if strings.EqualFold(strings.TrimSpace(c.S3.LogJSONPath), storage.JSONAuto) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "s3.log_jsonpath",
			Message:  "event log keys do not match staging_events columns; 'auto' will leave most columns NULL",
		})
	}
	if !native && c.IAMRole.ARN != "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "iam_role.arn",
			Message:  fmt.Sprintf("ignored for warehouse kind %q; objects are read with the local AWS credentials", c.Warehouse.Kind),
		})
	}
	if c.S3.Endpoint != "" {
		u, err := url.Parse(c.S3.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "s3.endpoint",
				Message:  fmt.Sprintf("invalid endpoint URL %q: want http(s)://host[:port]", c.S3.Endpoint),
			})
		}
	}
	return issues
}

func validateLoad(l LoadOptions) []Issue {
	var issues []Issue
	if l.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "load.batch_size",
			Message:  "batch_size must be > 0",
		})
	}
	if l.SongMaxErrors < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "load.song_max_errors",
			Message:  "song_max_errors must be >= 0",
		})
	}
	if l.DownloadConcurrency <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "load.download_concurrency",
			Message:  "download_concurrency must be > 0",
		})
	}
	return issues
}

func validateLog(l Log) []Issue {
	var issues []Issue
	if !slices.Contains(logLevels, strings.ToLower(l.Level)) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "log.level",
			Message:  fmt.Sprintf("unknown level %q (want one of %s)", l.Level, strings.Join(logLevels, ", ")),
		})
	}
	if !slices.Contains(logFormats, strings.ToLower(l.Format)) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "log.format",
			Message:  fmt.Sprintf("unknown format %q (want json or console)", l.Format),
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	backend := strings.ToLower(strings.TrimSpace(m.Backend))
	switch {
	case !slices.Contains(metricBackends, backend):
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown backend %q (want one of %s)", m.Backend, strings.Join(metricBackends, ", ")),
		})
	case backend == "pushgateway" && strings.TrimSpace(m.PushgatewayURL) == "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.pushgateway_url",
			Message:  "pushgateway backend needs PUSHGATEWAY_URL",
		})
	case backend == "datadog" && strings.TrimSpace(m.DatadogAddr) == "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.datadog_addr",
			Message:  "datadog backend needs DD_AGENT_ADDR",
		})
	}
	return issues
}
