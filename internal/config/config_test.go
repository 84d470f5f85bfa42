package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_DefaultsWithMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("missing file must not fail: %v", err)
	}

	if cfg.Service.Port != 8001 {
		t.Errorf("default port = %d, want 8001", cfg.Service.Port)
	}
	if cfg.Prediction.SecondaryThreshold != 0.35 {
		t.Errorf("default secondary threshold = %v, want 0.35", cfg.Prediction.SecondaryThreshold)
	}
	if cfg.Prediction.DefaultTopK != 3 || cfg.Prediction.TopKCap != 5 {
		t.Errorf("default top-k bounds = %d/%d, want 3/5", cfg.Prediction.DefaultTopK, cfg.Prediction.TopKCap)
	}
	if cfg.Prediction.PriorityFallback != "low" {
		t.Errorf("default priority fallback = %q, want low", cfg.Prediction.PriorityFallback)
	}
	if cfg.History.Enabled {
		t.Error("history must default to disabled")
	}
	if cfg.History.Driver != "sqlite3" {
		t.Errorf("default history driver = %q, want sqlite3", cfg.History.Driver)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
service:
  port: 9000
  batch_limit: 25
prediction:
  secondary_threshold: 0.5
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Service.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Service.Port)
	}
	if cfg.Service.BatchLimit != 25 {
		t.Errorf("batch_limit = %d, want 25", cfg.Service.BatchLimit)
	}
	if cfg.Prediction.SecondaryThreshold != 0.5 {
		t.Errorf("secondary_threshold = %v, want 0.5", cfg.Prediction.SecondaryThreshold)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
	// untouched sections keep defaults
	if cfg.Models.Dir != "models" {
		t.Errorf("models dir = %q, want models", cfg.Models.Dir)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ML_SERVICE_PORT", "7777")
	t.Setenv("ML_MODELS_DIR", "/srv/models")
	t.Setenv("APP_DEBUG", "true")
	t.Setenv("ML_HISTORY_ENABLED", "1")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Service.Port != 7777 {
		t.Errorf("env port override lost: %d", cfg.Service.Port)
	}
	if cfg.Models.Dir != "/srv/models" {
		t.Errorf("env models dir override lost: %q", cfg.Models.Dir)
	}
	if !cfg.Service.Debug {
		t.Error("APP_DEBUG=true must enable debug")
	}
	if !cfg.History.Enabled {
		t.Error("ML_HISTORY_ENABLED=1 must enable history")
	}
}
