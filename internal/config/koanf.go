// Cactus Performance Dashboard - Analytics Service
// Copyright 2026 rshemet
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rshemet/cactus-dashboard

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cactus-dashboard/config.yaml",
	"/etc/cactus-dashboard/config.yml",
}

// ConfigPathEnvVar is the environment variable that overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all optional settings populated.
// The Supabase URL and key deliberately have no default.
func defaultConfig() *Config {
	return &Config{
		Supabase: SupabaseConfig{
			URL:     "",
			Key:     "",
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8501,
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		Dashboard: DashboardConfig{
			ProjectUniverse: []string{"kin_ai", "cactus_chat", "other"},
			DefaultIncluded: []string{"other"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence: ENV > File > Defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// SUPABASE_URL -> supabase.url, CACHE_TTL -> cache.ttl, ...
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Comma-separated env values for slice fields
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile searches for a config file, honoring CONFIG_PATH first.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps recognized environment variables to koanf config paths.
// Only mapped variables are loaded, so unrelated process environment does
// not leak into the configuration.
var envMappings = map[string]string{
	"supabase_url":     "supabase.url",
	"supabase_key":     "supabase.key",
	"supabase_timeout": "supabase.timeout",

	"server_host":    "server.host",
	"server_port":    "server.port",
	"server_timeout": "server.timeout",

	"cache_ttl": "cache.ttl",

	"dashboard_project_universe": "dashboard.project_universe",
	"dashboard_default_included": "dashboard.default_included",

	"log_level":  "logging.level",
	"log_format": "logging.format",
}

// envTransformFunc transforms environment variable names to koanf config
// paths. Unrecognized variables are dropped (empty return).
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if path, ok := envMappings[key]; ok {
		return path
	}
	return ""
}

// sliceFields lists config paths that accept comma-separated env values.
var sliceFields = []string{
	"dashboard.project_universe",
	"dashboard.default_included",
}

// processSliceFields converts comma-separated string values into string
// slices for the fields that expect them. Values that already arrived as
// slices (from YAML or defaults) are left untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceFields {
		raw := k.Get(path)
		s, ok := raw.(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				values = append(values, trimmed)
			}
		}
		if err := k.Set(path, values); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
