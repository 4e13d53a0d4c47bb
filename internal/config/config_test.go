package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.TokenTTL)
	}
	if cfg.Debug {
		t.Error("Debug should default to false")
	}
}

func TestParseBool(t *testing.T) {
	t.Setenv("SOME_FLAG", "true")
	if !ParseBool("SOME_FLAG", false) {
		t.Error("expected true for SOME_FLAG=true")
	}
	t.Setenv("SOME_FLAG", "not-a-bool")
	if !ParseBool("SOME_FLAG", true) {
		t.Error("invalid value should fall back to the default")
	}
	if ParseBool("SOME_UNSET_FLAG", false) {
		t.Error("unset var should use the default")
	}
}
