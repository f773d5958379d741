package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("expected gemini provider, got %q", cfg.LLM.Provider)
	}
	if cfg.Agent.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", cfg.Agent.Temperature)
	}
	if cfg.Agent.RoundTimeout != 30*time.Second {
		t.Errorf("expected 30s round timeout, got %v", cfg.Agent.RoundTimeout)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected :8080, got %q", cfg.Server.Addr)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hrbot.yaml")
	data := []byte("log:\n  level: debug\nllm:\n  provider: mock\nagent:\n  max_attempts: 3\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Log.Level)
	}
	if cfg.LLM.Provider != "mock" {
		t.Errorf("expected mock provider, got %q", cfg.LLM.Provider)
	}
	if cfg.Agent.MaxAttempts != 3 {
		t.Errorf("expected 3 attempts, got %d", cfg.Agent.MaxAttempts)
	}
	// Untouched keys keep their defaults.
	if cfg.DB.Path != "hrbot.db" {
		t.Errorf("expected default db path, got %q", cfg.DB.Path)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HRBOT_LLM_MODEL", "gemini-2.0-pro")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LLM.Model != "gemini-2.0-pro" {
		t.Errorf("expected env override, got %q", cfg.LLM.Model)
	}
}
