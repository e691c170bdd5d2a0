package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %q", cfg.Port)
	}
	if cfg.AcceptanceThreshold != 0.75 {
		t.Errorf("expected default acceptance threshold 0.75, got %v", cfg.AcceptanceThreshold)
	}
	if cfg.FuzzyFloor != 0.6 {
		t.Errorf("expected default fuzzy floor 0.6, got %v", cfg.FuzzyFloor)
	}
	if cfg.StageRetries != 3 {
		t.Errorf("expected default stage retries 3, got %d", cfg.StageRetries)
	}
	if cfg.StageTimeout != 30*time.Second {
		t.Errorf("expected default stage timeout 30s, got %v", cfg.StageTimeout)
	}
	if cfg.BatchWorkers != 4 {
		t.Errorf("expected default batch workers 4, got %d", cfg.BatchWorkers)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode by default")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			AcceptanceThreshold: 0.75,
			FuzzyFloor:          0.6,
			MaxWindow:           2000,
			WindowOverlap:       200,
			StageRetries:        3,
			BatchWorkers:        4,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"threshold above one", func(c *Config) { c.AcceptanceThreshold = 1.5 }, true},
		{"negative fuzzy floor", func(c *Config) { c.FuzzyFloor = -0.1 }, true},
		{"zero window", func(c *Config) { c.MaxWindow = 0 }, true},
		{"overlap exceeds window", func(c *Config) { c.WindowOverlap = 2000 }, true},
		{"zero retries", func(c *Config) { c.StageRetries = 0 }, true},
		{"zero workers", func(c *Config) { c.BatchWorkers = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
