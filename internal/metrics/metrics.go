// Package metrics provides a small, backend-agnostic abstraction for recording
// warehouse run metrics.
//
// A global, pluggable backend defaults to a no-op implementation, so metrics
// are always safe to call even when no real backend is configured. Concrete
// systems live in subpackages (prompush, datadog).
package metrics

import "time"

// Metric names.
const (
	StepTotal      = "dwh_step_total"
	StepDuration   = "dwh_step_duration_seconds"
	TableRowsTotal = "dwh_table_rows_total"
	RejectedTotal  = "dwh_rejected_records_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one run step and records its duration, labeled with
// success or failure.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow adds the number of rows a run left in table.
func RecordRow(job, table string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(TableRowsTotal, float64(delta), Labels{
		"job":   job,
		"table": table,
	})
}

// RecordRejected adds malformed source records skipped while loading table.
func RecordRejected(job, table string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RejectedTotal, float64(delta), Labels{
		"job":   job,
		"table": table,
	})
}
