// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

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

// DefaultConfigPaths lists where config files are searched, in order. The
// first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/amica/config.yaml",
	"/etc/amica/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "AMICA_CONFIG"

// envPrefix namespaces Amica's environment variables:
// AMICA_SERVER_PORT -> server.port.
const envPrefix = "AMICA_"

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Cache: CacheConfig{
			MessageCapacity: 1024,
			MessageTTL:      time.Minute,
			MediaCapacity:   256,
			MediaTTL:        5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Window:    time.Minute,
			MaxEvents: 60,
		},
		Upload: UploadConfig{
			DefaultChunkSize: 1 << 20,
			MaxFileSize:      256 << 20,
			SessionTimeout:   15 * time.Minute,
		},
		Typing: TypingConfig{
			TTL: 5 * time.Second,
		},
		Media: MediaConfig{
			MaxWidth:        1920,
			MaxHeight:       1080,
			Quality:         85,
			ThumbDim:        320,
			ThumbByteBudget: 64 * 1024,
		},
		Store: StoreConfig{
			Path: "/data/amica/store",
		},
		Blob: BlobConfig{
			Path:             "/data/amica/blobs",
			BreakerThreshold: 5,
			BreakerTimeout:   30 * time.Second,
		},
		NATS: NATSConfig{
			Enabled: false,
			URL:     "nats://127.0.0.1:4222",
		},
		API: APIConfig{
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 600,
			RateLimitWindow:   time.Minute,
		},
		Sweep: SweepConfig{
			Interval: 30 * time.Second,
		},
	}
}

// Load reads configuration in layers, later layers overriding earlier:
//  1. built-in defaults
//  2. optional YAML config file
//  3. AMICA_-prefixed environment variables
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
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

// envTransform maps AMICA_SECTION_KEY_NAME to section.key_name. The first
// underscore separates the section; the rest of the name keeps its
// underscores.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	// Two-word sections need explicit mapping; everything else splits on
	// the first underscore.
	for _, section := range []string{"rate_limit"} {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}

	parts := strings.SplitN(key, "_", 2)
	if len(parts) != 2 {
		return key
	}
	return parts[0] + "." + parts[1]
}

// sliceConfigPaths lists paths parsed as comma-separated slices when they
// arrive as env var strings.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated strings into slices for the
// known slice paths. YAML-sourced values are already slices and pass
// through.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}
