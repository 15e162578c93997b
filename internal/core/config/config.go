// Package config loads and validates the backrefs.toml configuration file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	DB            Database      `toml:"db"`
	Language      Language      `toml:"language"`
	WatchPaths    []string      `toml:"watch_paths"`
	Exclude       Exclude       `toml:"exclude"`
	Watch         Watch         `toml:"watch"`
	Queue         Queue         `toml:"queue"`
	Scan          Scan          `toml:"scan"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	StateDir    string `toml:"state_dir"`
	DatabaseDir string `toml:"database_dir"`
}

type Database struct {
	Driver      string        `toml:"driver"`
	Path        string        `toml:"path"`
	SpoolPath   string        `toml:"spool_path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

// Language selects the source-level scanner variant.
type Language struct {
	Level string `toml:"level"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Queue struct {
	Capacity  int           `toml:"capacity"`
	BatchSize int           `toml:"batch_size"`
	BatchWait time.Duration `toml:"batch_wait"`
}

type Scan struct {
	Workers     int     `toml:"workers"`
	RatePerSec  float64 `toml:"rate_per_sec"`
	RateBurst   int     `toml:"rate_burst"`
	FailOnFatal bool    `toml:"fail_on_fatal"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Port          int    `toml:"port"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
	EnableMetrics bool   `toml:"enable_metrics"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateDatabase(&cfg); err != nil {
		return nil, err
	}
	if err := validateLanguage(&cfg); err != nil {
		return nil, err
	}
	if err := validateQueue(&cfg); err != nil {
		return nil, err
	}
	if err := validateScan(&cfg); err != nil {
		return nil, err
	}
	if err := validateObservability(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no backrefs.toml exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = "data/state"
	}
	if strings.TrimSpace(cfg.Paths.DatabaseDir) == "" {
		cfg.Paths.DatabaseDir = "data/database"
	}

	if strings.TrimSpace(cfg.DB.Driver) == "" {
		cfg.DB.Driver = "sqlite"
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "backrefs.db"
	}
	if strings.TrimSpace(cfg.DB.SpoolPath) == "" {
		cfg.DB.SpoolPath = "spool.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}

	if strings.TrimSpace(cfg.Language.Level) == "" {
		cfg.Language.Level = "java8"
	}

	if len(cfg.WatchPaths) == 0 {
		cfg.WatchPaths = []string{"."}
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}

	if cfg.Queue.Capacity <= 0 {
		cfg.Queue.Capacity = 1024
	}
	if cfg.Queue.BatchSize <= 0 {
		cfg.Queue.BatchSize = 64
	}
	if cfg.Queue.BatchWait <= 0 {
		cfg.Queue.BatchWait = 250 * time.Millisecond
	}

	if cfg.Scan.Workers <= 0 {
		cfg.Scan.Workers = 4
	}
	if cfg.Scan.RatePerSec <= 0 {
		cfg.Scan.RatePerSec = 200
	}
	if cfg.Scan.RateBurst <= 0 {
		cfg.Scan.RateBurst = 50
	}

	if cfg.Observability.Port == 0 {
		cfg.Observability.Port = 9464
	}
	if cfg.Observability.Enabled && !cfg.Observability.EnableMetrics && !cfg.Observability.EnableTracing {
		cfg.Observability.EnableMetrics = true
	}
}

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	driver := strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	if driver != "sqlite" {
		return fmt.Errorf("db.driver must be sqlite, got %q", cfg.DB.Driver)
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	if strings.TrimSpace(cfg.DB.SpoolPath) == "" {
		return fmt.Errorf("db.spool_path must not be empty")
	}
	return nil
}

func validateLanguage(cfg *Config) error {
	level := strings.ToLower(strings.TrimSpace(cfg.Language.Level))
	switch level {
	case "base", "java8":
		cfg.Language.Level = level
		return nil
	default:
		return fmt.Errorf("language.level must be one of: base, java8")
	}
}

func validateQueue(cfg *Config) error {
	if cfg.Queue.Capacity < 1 {
		return fmt.Errorf("queue.capacity must be >= 1")
	}
	if cfg.Queue.BatchSize < 1 {
		return fmt.Errorf("queue.batch_size must be >= 1")
	}
	if cfg.Queue.BatchSize > cfg.Queue.Capacity {
		return fmt.Errorf("queue.batch_size %d exceeds queue.capacity %d", cfg.Queue.BatchSize, cfg.Queue.Capacity)
	}
	return nil
}

func validateScan(cfg *Config) error {
	if cfg.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be >= 1")
	}
	if cfg.Scan.RatePerSec <= 0 {
		return fmt.Errorf("scan.rate_per_sec must be > 0")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if !cfg.Observability.Enabled {
		return nil
	}
	if cfg.Observability.Port < 1 || cfg.Observability.Port > 65535 {
		return fmt.Errorf("observability.port must be a valid tcp port, got %d", cfg.Observability.Port)
	}
	if cfg.Observability.EnableTracing && strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		return fmt.Errorf("observability.otlp_endpoint must not be empty when tracing is enabled")
	}
	return nil
}
