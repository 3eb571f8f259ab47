package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.DefaultSession = "work"
	cfg.ReplyDelay = Duration{250 * time.Millisecond}
	cfg.SimulateReplies = false
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.DefaultSession != "work" {
		t.Errorf("DefaultSession = %q, want %q", loaded.DefaultSession, "work")
	}
	if loaded.ReplyDelay.Duration != 250*time.Millisecond {
		t.Errorf("ReplyDelay = %v", loaded.ReplyDelay)
	}
	if loaded.SimulateReplies {
		t.Error("SimulateReplies should stay false")
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("log_level = \"debug\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if !cfg.SimulateReplies || !cfg.SeedDemo || cfg.ReplyDelay.Duration != time.Second {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.toml")
	if err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestResolveEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "LNF_REPLY_DELAY=10ms\nLNF_SEED_DEMO=false\nLNF_METRICS_ADDR=127.0.0.1:9100\n"
	if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvMetricsAddr, "127.0.0.1:9200")

	cfg, err := Resolve(filepath.Join(dir, "missing.toml"), envPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ReplyDelay.Duration != 10*time.Millisecond {
		t.Errorf("ReplyDelay = %v", cfg.ReplyDelay)
	}
	if cfg.SeedDemo {
		t.Error("SeedDemo should be false from .env")
	}
	if cfg.MetricsAddr != "127.0.0.1:9200" {
		t.Errorf("MetricsAddr = %q, process env should win", cfg.MetricsAddr)
	}
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		EnvSimulateReplies: "maybe",
		EnvReplyDelay:      "soon",
	}
	for key, value := range tests {
		cfg := Default()
		if err := cfg.ApplyEnv(map[string]string{key: value}); err == nil {
			t.Errorf("%s=%s: expected error", key, value)
		}
	}
}

func TestSavePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permission = %o, want 0600", perm)
	}
}
