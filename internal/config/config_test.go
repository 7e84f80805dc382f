package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"basic_config": {"server_address": ":9000"},
		"databases": {"sqlite3": {"dsn": "data/app.db"}},
		"openai": {"api_key": "file-key"}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("OPENAI_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.BasicConfig.ServerAddress != ":9000" {
		t.Errorf("server address = %q", cfg.BasicConfig.ServerAddress)
	}
	if cfg.OpenAI.APIKey != "env-key" {
		t.Errorf("expected env to override file key, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.DefaultModel != DefaultBaseModel {
		t.Errorf("default model = %q", cfg.OpenAI.DefaultModel)
	}
	if cfg.OpenAI.DefaultEpochs != DefaultEpochs {
		t.Errorf("default epochs = %d", cfg.OpenAI.DefaultEpochs)
	}
	if cfg.BasicConfig.MaxUploadMB != 10 {
		t.Errorf("max upload = %d", cfg.BasicConfig.MaxUploadMB)
	}

	// Relative sqlite DSN is resolved next to the config file.
	dsn := cfg.Databases["sqlite3"].DSN
	if !filepath.IsAbs(dsn) || filepath.Dir(filepath.Dir(dsn)) != dir {
		t.Errorf("sqlite dsn not resolved relative to config dir: %q", dsn)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
