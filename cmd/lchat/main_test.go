package main

import (
	"testing"

	"lchat/internal/app"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("LCHAT_SERVER_URL", "http://localhost:8080")
	t.Setenv("LCHAT_MODEL", "qwen2.5")
	t.Setenv("LCHAT_STORAGE_PATH", "/tmp/lchat-test")

	cfg := app.DefaultConfig()
	applyEnvOverrides(&cfg)

	if cfg.ServerBaseURL != "http://localhost:8080" {
		t.Fatalf("server url = %q", cfg.ServerBaseURL)
	}
	if cfg.Model != "qwen2.5" {
		t.Fatalf("model = %q", cfg.Model)
	}
	if cfg.StoragePath != "/tmp/lchat-test" {
		t.Fatalf("storage path = %q", cfg.StoragePath)
	}
}

func TestApplyEnvOverridesKeepsConfigWhenUnset(t *testing.T) {
	t.Setenv("LCHAT_SERVER_URL", "")
	t.Setenv("LCHAT_MODEL", "  ")

	cfg := app.DefaultConfig()
	want := cfg
	applyEnvOverrides(&cfg)

	if cfg != want {
		t.Fatalf("config changed by blank env: %#v", cfg)
	}
}
