package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backrefs.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `version = 1`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DB.Driver != "sqlite" || cfg.DB.Path != "backrefs.db" {
		t.Errorf("db defaults = %+v", cfg.DB)
	}
	if cfg.Language.Level != "java8" {
		t.Errorf("language.level default = %q, want java8", cfg.Language.Level)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("watch.debounce default = %v", cfg.Watch.Debounce)
	}
	if cfg.Queue.Capacity != 1024 || cfg.Queue.BatchSize != 64 {
		t.Errorf("queue defaults = %+v", cfg.Queue)
	}
	if cfg.Scan.Workers != 4 {
		t.Errorf("scan.workers default = %d", cfg.Scan.Workers)
	}
	if len(cfg.WatchPaths) != 1 || cfg.WatchPaths[0] != "." {
		t.Errorf("watch_paths default = %v", cfg.WatchPaths)
	}
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
version = 1
watch_paths = ["src/main/java", "src/test/java"]

[language]
level = "base"

[db]
path = "refs.db"

[watch]
debounce = "250ms"

[exclude]
dirs = ["target", "build"]
files = ["*Generated.java"]

[scan]
workers = 8
fail_on_fatal = true

[observability]
enabled = true
port = 9500
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Language.Level != "base" {
		t.Errorf("language.level = %q", cfg.Language.Level)
	}
	if cfg.DB.Path != "refs.db" {
		t.Errorf("db.path = %q", cfg.DB.Path)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("watch.debounce = %v", cfg.Watch.Debounce)
	}
	if len(cfg.Exclude.Dirs) != 2 || cfg.Exclude.Dirs[0] != "target" {
		t.Errorf("exclude.dirs = %v", cfg.Exclude.Dirs)
	}
	if !cfg.Scan.FailOnFatal || cfg.Scan.Workers != 8 {
		t.Errorf("scan = %+v", cfg.Scan)
	}
	if !cfg.Observability.Enabled || cfg.Observability.Port != 9500 {
		t.Errorf("observability = %+v", cfg.Observability)
	}
	if !cfg.Observability.EnableMetrics {
		t.Error("enabling observability without explicit flags should turn metrics on")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"bad version":      `version = 3`,
		"bad driver":       "[db]\ndriver = \"postgres\"",
		"bad level":        "[language]\nlevel = \"java25\"",
		"batch > capacity": "[queue]\ncapacity = 2\nbatch_size = 10",
		"bad port":         "[observability]\nenabled = true\nport = 70000",
		"tracing endpoint": "[observability]\nenabled = true\nenable_tracing = true",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Errorf("config %q should fail validation", body)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BACKREFS_LANGUAGE_LEVEL", "base")
	t.Setenv("BACKREFS_SCAN_WORKERS", "2")
	t.Setenv("BACKREFS_WATCH_DEBOUNCE", "1s")

	cfg := Default()
	ApplyEnvOverrides(cfg)

	if cfg.Language.Level != "base" {
		t.Errorf("language.level = %q", cfg.Language.Level)
	}
	if cfg.Scan.Workers != 2 {
		t.Errorf("scan.workers = %d", cfg.Scan.Workers)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("watch.debounce = %v", cfg.Watch.Debounce)
	}
}
