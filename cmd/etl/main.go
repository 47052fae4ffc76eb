// Command etl runs a full warehouse load: it resets the schema, bulk-loads
// the staging tables from object storage and populates the star schema.
//
// Usage:
//
//	etl -config dwh.yaml [-validate] [-v] [-metrics-backend pushgateway]
//
// Every setting can also come from the environment (DWH_*); the database
// password is read from DWH_DB_PASSWORD only.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"dwh/internal/config"
	"dwh/internal/logger"
	"dwh/internal/pipeline"

	// register all backends with the storage factory; the config picks one.
	_ "dwh/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process exit. It returns 0 on success, 1 when the
// configuration or the load fails and 2 on bad flags.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("etl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cfgPath           string
		metricsBackendFlg string
		validate          bool
		verbose           bool
	)
	fs.StringVar(&cfgPath, "config", "", "YAML config path (empty: environment only)")
	fs.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend: none, pushgateway or datadog (overrides config)")
	fs.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&verbose, "v", false, "enable debug logs")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if metricsBackendFlg != "" {
		cfg.Metrics.Backend = strings.ToLower(strings.TrimSpace(metricsBackendFlg))
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	issues := config.Validate(*cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fmt.Fprintf(stderr, "configuration is invalid: %s\n", describe(cfgPath))
		return 1
	}
	if validate {
		fmt.Fprintf(stderr, "configuration is valid: %s\n", describe(cfgPath))
		return 0
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	flush := setupMetrics(cfg.Job, cfg.Metrics)
	defer flush()

	start := time.Now()
	if err := pipeline.Run(ctx, *cfg); err != nil {
		logger.L().Error("run failed", zap.Error(err))
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger.L().Info("completed", zap.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))
	return 0
}

func describe(cfgPath string) string {
	if cfgPath == "" {
		return "(environment)"
	}
	return cfgPath
}
