// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package blob

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/amica-social/amica/internal/logging"
)

// BreakerConfig holds circuit breaker settings for a wrapped blob store.
type BreakerConfig struct {
	// Name identifies the breaker in logs.
	Name string

	// FailureThreshold is the number of consecutive failures that trips the
	// breaker. Default: 5
	FailureThreshold uint32

	// Timeout is how long the breaker stays open before probing again.
	// Default: 30s
	Timeout time.Duration
}

// BreakerStore wraps a blob Store with a circuit breaker so a failing
// backend degrades fast instead of stacking up blocked requests.
//
// ErrNotFound is not counted as a failure: an absent blob is a normal
// outcome, not a backend fault.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker[[]byte]
}

// NewBreakerStore wraps the given store with a circuit breaker.
func NewBreakerStore(inner Store, cfg BreakerConfig) *BreakerStore {
	if cfg.Name == "" {
		cfg.Name = "blob-store"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("blob store circuit breaker state change")
		},
	}

	return &BreakerStore{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// Put stores bytes through the breaker.
func (s *BreakerStore) Put(ctx context.Context, data []byte) (string, error) {
	var url string
	_, err := s.cb.Execute(func() ([]byte, error) {
		var err error
		url, err = s.inner.Put(ctx, data)
		return nil, err
	})
	return url, err
}

// Get fetches bytes through the breaker.
func (s *BreakerStore) Get(ctx context.Context, url string) ([]byte, error) {
	return s.cb.Execute(func() ([]byte, error) {
		return s.inner.Get(ctx, url)
	})
}

// Delete removes a blob through the breaker.
func (s *BreakerStore) Delete(ctx context.Context, url string) error {
	_, err := s.cb.Execute(func() ([]byte, error) {
		return nil, s.inner.Delete(ctx, url)
	})
	return err
}

// State returns the breaker state for health reporting.
func (s *BreakerStore) State() string {
	return s.cb.State().String()
}
