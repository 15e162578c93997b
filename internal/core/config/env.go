package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Pattern: BACKREFS_[SECTION]_[KEY].
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Paths.ProjectRoot, "BACKREFS_PATHS_PROJECT_ROOT")
	setEnvString(&cfg.Paths.StateDir, "BACKREFS_PATHS_STATE_DIR")
	setEnvString(&cfg.Paths.DatabaseDir, "BACKREFS_PATHS_DATABASE_DIR")

	setEnvString(&cfg.DB.Driver, "BACKREFS_DB_DRIVER")
	setEnvString(&cfg.DB.Path, "BACKREFS_DB_PATH")
	setEnvString(&cfg.DB.SpoolPath, "BACKREFS_DB_SPOOL_PATH")
	setEnvDuration(&cfg.DB.BusyTimeout, "BACKREFS_DB_BUSY_TIMEOUT")

	setEnvString(&cfg.Language.Level, "BACKREFS_LANGUAGE_LEVEL")

	setEnvDuration(&cfg.Watch.Debounce, "BACKREFS_WATCH_DEBOUNCE")

	setEnvInt(&cfg.Queue.Capacity, "BACKREFS_QUEUE_CAPACITY")
	setEnvInt(&cfg.Queue.BatchSize, "BACKREFS_QUEUE_BATCH_SIZE")

	setEnvInt(&cfg.Scan.Workers, "BACKREFS_SCAN_WORKERS")
	setEnvFloat64(&cfg.Scan.RatePerSec, "BACKREFS_SCAN_RATE_PER_SEC")
	setEnvBool(&cfg.Scan.FailOnFatal, "BACKREFS_SCAN_FAIL_ON_FATAL")

	setEnvBool(&cfg.Observability.Enabled, "BACKREFS_OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observability.Port, "BACKREFS_OBSERVABILITY_PORT")
	setEnvString(&cfg.Observability.OTLPEndpoint, "BACKREFS_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "BACKREFS_OBSERVABILITY_ENABLE_TRACING")
	setEnvBool(&cfg.Observability.EnableMetrics, "BACKREFS_OBSERVABILITY_ENABLE_METRICS")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
