// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Amica server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Cache     CacheConfig     `koanf:"cache"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Upload    UploadConfig    `koanf:"upload"`
	Typing    TypingConfig    `koanf:"typing"`
	Media     MediaConfig     `koanf:"media"`
	Store     StoreConfig     `koanf:"store"`
	Blob      BlobConfig      `koanf:"blob"`
	NATS      NATSConfig      `koanf:"nats"`
	API       APIConfig       `koanf:"api"`
	Sweep     SweepConfig     `koanf:"sweep"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds zerolog settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// CacheConfig holds TTL cache settings for the message and media caches.
type CacheConfig struct {
	MessageCapacity int           `koanf:"message_capacity"`
	MessageTTL      time.Duration `koanf:"message_ttl"`
	MediaCapacity   int           `koanf:"media_capacity"`
	MediaTTL        time.Duration `koanf:"media_ttl"`
}

// RateLimitConfig holds the per-user message send limiter settings.
type RateLimitConfig struct {
	Window    time.Duration `koanf:"window"`
	MaxEvents int           `koanf:"max_events"`
}

// UploadConfig holds chunked upload session settings.
type UploadConfig struct {
	DefaultChunkSize int64         `koanf:"default_chunk_size"`
	MaxFileSize      int64         `koanf:"max_file_size"`
	SessionTimeout   time.Duration `koanf:"session_timeout"`
}

// TypingConfig holds typing indicator settings.
type TypingConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// MediaConfig holds media pipeline bounds.
type MediaConfig struct {
	MaxWidth        int `koanf:"max_width"`
	MaxHeight       int `koanf:"max_height"`
	Quality         int `koanf:"quality"`
	ThumbDim        int `koanf:"thumb_dim"`
	ThumbByteBudget int `koanf:"thumb_byte_budget"`
}

// StoreConfig holds record store settings.
type StoreConfig struct {
	// Path is the BadgerDB directory. Empty selects the in-memory store.
	Path string `koanf:"path"`
}

// BlobConfig holds blob store settings.
type BlobConfig struct {
	// Path is the filesystem blob directory. Empty selects the in-memory
	// store.
	Path string `koanf:"path"`

	// BreakerThreshold is the consecutive-failure count that opens the
	// circuit breaker around the blob backend.
	BreakerThreshold uint32 `koanf:"breaker_threshold"`

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// NATSConfig holds the optional cross-node event relay settings.
type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
}

// APIConfig holds the HTTP surface settings.
type APIConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// SweepConfig holds the shared expiry sweep interval.
type SweepConfig struct {
	Interval time.Duration `koanf:"interval"`
}

// Validate checks cross-field constraints that the type system cannot.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %s", c.RateLimit.Window)
	}
	if c.RateLimit.MaxEvents <= 0 {
		return fmt.Errorf("rate_limit.max_events must be positive, got %d", c.RateLimit.MaxEvents)
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload.max_file_size must be positive, got %d", c.Upload.MaxFileSize)
	}
	if c.Upload.DefaultChunkSize <= 0 {
		return fmt.Errorf("upload.default_chunk_size must be positive, got %d", c.Upload.DefaultChunkSize)
	}
	if c.Upload.DefaultChunkSize > c.Upload.MaxFileSize {
		return fmt.Errorf("upload.default_chunk_size (%d) exceeds upload.max_file_size (%d)",
			c.Upload.DefaultChunkSize, c.Upload.MaxFileSize)
	}
	if c.Typing.TTL <= 0 {
		return fmt.Errorf("typing.ttl must be positive, got %s", c.Typing.TTL)
	}
	if c.Media.Quality < 1 || c.Media.Quality > 100 {
		return fmt.Errorf("media.quality must be in 1..100, got %d", c.Media.Quality)
	}
	if c.Sweep.Interval <= 0 {
		return fmt.Errorf("sweep.interval must be positive, got %s", c.Sweep.Interval)
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when nats.enabled is true")
	}
	return nil
}
