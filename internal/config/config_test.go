package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	if cfg.Loop.TickRate != 60 {
		t.Fatalf("expected 60 Hz tick rate, got %d", cfg.Loop.TickRate)
	}
	if cfg.Loop.EnemyRefresh != 2*time.Second {
		t.Fatalf("expected 2s enemy refresh, got %s", cfg.Loop.EnemyRefresh)
	}
}

func TestLoadAppliesDefaultsForAbsentKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "server.toml")
	body := "[server]\nbind_address = \":9090\"\n\n[loop]\ntick_rate = 30\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Server.BindAddress != ":9090" {
		t.Fatalf("expected overridden bind address, got %q", cfg.Server.BindAddress)
	}
	if cfg.Loop.TickRate != 30 {
		t.Fatalf("expected overridden tick rate, got %d", cfg.Loop.TickRate)
	}
	if cfg.Loop.BroadcastRate != 30 {
		t.Fatalf("expected default broadcast rate to survive, got %d", cfg.Loop.BroadcastRate)
	}
	if cfg.World.InterestRadius != 5500 {
		t.Fatalf("expected default interest radius, got %f", cfg.World.InterestRadius)
	}
}

func TestLoadRejectsBrokenRates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte("[loop]\ntick_rate = 0\n"), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected zero tick_rate to be rejected")
	}
}
