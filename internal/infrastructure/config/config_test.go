package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.MaxBodyBytes != 1<<20 {
		t.Errorf("Server.MaxBodyBytes = %d, want %d", cfg.Server.MaxBodyBytes, 1<<20)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.Matching.DefaultLimit != 20 || cfg.Matching.DefaultMaxMissing != 2 {
		t.Errorf("Matching = %+v, want 20/2", cfg.Matching)
	}
	if cfg.DedupWindow != time.Second {
		t.Errorf("DedupWindow = %v, want 1s", cfg.DedupWindow)
	}
	if cfg.Cache.TTL != 10*time.Minute || cfg.RateLimit.Window != time.Minute {
		t.Errorf("durations = %v / %v", cfg.Cache.TTL, cfg.RateLimit.Window)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour || cfg.Auth.Issuer != "recipe-matcher" {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DB_SEED_FILE", "data/seed.json")
	t.Setenv("APP_MATCHING_DEFAULT_LIMIT", "5")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Database.Driver != "memory" || cfg.Database.SeedFile != "data/seed.json" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Matching.DefaultLimit != 5 {
		t.Errorf("Matching.DefaultLimit = %d, want 5", cfg.Matching.DefaultLimit)
	}
	if cfg.RateLimit.Enabled {
		t.Error("RateLimit.Enabled = true, want false")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing secret", map[string]string{}, "jwt_secret"},
		{"memory without seed", map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "memory"}, "seed_file"},
		{"unknown driver", map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "mysql"}, "unsupported database driver"},
		{"unknown cache backend", map[string]string{"JWT_SECRET": "s", "CACHE_BACKEND": "memcached"}, "unsupported cache backend"},
		{"fdc without key", map[string]string{"JWT_SECRET": "s", "FDC_ENABLED": "true"}, "api_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			if err == nil {
				t.Fatal("LoadConfig() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
