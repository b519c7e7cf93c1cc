// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

// Package config provides centralized configuration for the dashboard service.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// The Supabase URL and service key are the only required settings. They carry
// the backend endpoint and access credential and have no default: a missing
// value is a startup-fatal condition with remediation instructions, never a
// silent fallback.
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment
// variables and an optional config file.
type Config struct {
	Supabase  SupabaseConfig  `koanf:"supabase"`
	Server    ServerConfig    `koanf:"server"`
	Cache     CacheConfig     `koanf:"cache"`
	Dashboard DashboardConfig `koanf:"dashboard"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// SupabaseConfig carries the hosted backend endpoint and credential.
// Both fields are required; Validate reports a fatal error when absent.
type SupabaseConfig struct {
	URL string `koanf:"url"`
	Key string `koanf:"key"`

	// Timeout bounds each RPC round trip.
	Timeout time.Duration `koanf:"timeout"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`
}

// CacheConfig holds result cache settings for the query gateway.
type CacheConfig struct {
	// TTL is how long a successful (procedure, params) result is reused.
	TTL time.Duration `koanf:"ttl"`
}

// DashboardConfig holds the selector universe for the dashboard.
type DashboardConfig struct {
	// ProjectUniverse is the fixed set of known project identifiers the
	// inclusion multi-select operates over. Projects NOT included by the
	// user become the filter_out_projects denylist sent to the backend.
	ProjectUniverse []string `koanf:"project_universe"`

	// DefaultIncluded is the default selection when a request does not
	// name any projects.
	DefaultIncluded []string `koanf:"default_included"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

// ErrMissingSupabaseCredentials indicates the backend endpoint or key is
// not configured. Callers should print remediation instructions and exit.
var ErrMissingSupabaseCredentials = errors.New("supabase credentials not configured")

// RemediationText is the user-facing instruction printed when the backend
// credentials are missing. Mirrors the setup instructions in the README.
const RemediationText = `Supabase credentials not found.

Set the following environment variables (or add them to a .env file):

    SUPABASE_URL="https://<project>.supabase.co"
    SUPABASE_KEY="<service-role-or-anon-key>"

Alternatively, add a supabase section to config.yaml:

    supabase:
      url: "https://<project>.supabase.co"
      key: "<service-role-or-anon-key>"
`

// Validate checks the loaded configuration for fatal problems.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Supabase.URL) == "" || strings.TrimSpace(c.Supabase.Key) == "" {
		return ErrMissingSupabaseCredentials
	}
	if !strings.HasPrefix(c.Supabase.URL, "http://") && !strings.HasPrefix(c.Supabase.URL, "https://") {
		return fmt.Errorf("supabase.url must be an http(s) URL, got %q", c.Supabase.URL)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	if len(c.Dashboard.ProjectUniverse) == 0 {
		return errors.New("dashboard.project_universe must not be empty")
	}
	universe := make(map[string]struct{}, len(c.Dashboard.ProjectUniverse))
	for _, p := range c.Dashboard.ProjectUniverse {
		universe[p] = struct{}{}
	}
	for _, p := range c.Dashboard.DefaultIncluded {
		if _, ok := universe[p]; !ok {
			return fmt.Errorf("dashboard.default_included contains %q which is not in project_universe", p)
		}
	}
	return nil
}

// Addr returns the host:port address for the HTTP listener.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
