// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

package config

import (
	"errors"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Supabase.URL = "https://example.supabase.co"
	cfg.Supabase.Key = "service-key"
	return cfg
}

func TestValidateRequiresSupabaseCredentials(t *testing.T) {
	tests := []struct {
		name string
		url  string
		key  string
	}{
		{"both missing", "", ""},
		{"url missing", "", "key"},
		{"key missing", "https://example.supabase.co", ""},
		{"whitespace only", "   ", "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Supabase.URL = tt.url
			cfg.Supabase.Key = tt.key

			err := cfg.Validate()
			if !errors.Is(err, ErrMissingSupabaseCredentials) {
				t.Errorf("Validate() = %v, want ErrMissingSupabaseCredentials", err)
			}
		})
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsNonHTTPURL(t *testing.T) {
	cfg := validConfig()
	cfg.Supabase.URL = "postgres://example.supabase.co"

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for non-http URL")
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.Server.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate() = nil for port %d, want error", port)
		}
	}
}

func TestValidateRejectsUnknownDefaultProject(t *testing.T) {
	cfg := validConfig()
	cfg.Dashboard.DefaultIncluded = []string{"not_in_universe"}

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for default outside universe")
	}
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("Cache.TTL = %s, want 10m", cfg.Cache.TTL)
	}
	if len(cfg.Dashboard.ProjectUniverse) != 3 {
		t.Errorf("ProjectUniverse = %v, want 3 entries", cfg.Dashboard.ProjectUniverse)
	}
	if got := cfg.Server.Addr(); got != "0.0.0.0:8501" {
		t.Errorf("Addr() = %q, want 0.0.0.0:8501", got)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"SUPABASE_URL", "supabase.url"},
		{"SUPABASE_KEY", "supabase.key"},
		{"SERVER_PORT", "server.port"},
		{"CACHE_TTL", "cache.ttl"},
		{"LOG_LEVEL", "logging.level"},
		{"DASHBOARD_PROJECT_UNIVERSE", "dashboard.project_universe"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.input); got != tt.expected {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
