package config

import "testing"

func TestDefaultHasSaneFallbacks(t *testing.T) {
	cfg := Default()
	if cfg.MongoURI == "" {
		t.Error("Default() should set a MongoURI fallback")
	}
	if cfg.MongoDB == "" {
		t.Error("Default() should set a MongoDB fallback")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Default().LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoadWithoutRCFileReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load() with no rc file = %+v, want %+v", cfg, Default())
	}
}
