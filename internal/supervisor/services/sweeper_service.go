// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/amica-social/amica/internal/logging"
	"github.com/amica-social/amica/internal/metrics"
)

// SweepTarget is one component whose expired entries the sweeper reclaims.
// The function returns how many entries were removed.
type SweepTarget struct {
	Name  string
	Sweep func(now time.Time) int
}

// SweeperService runs the shared expiry sweep on a fixed interval. All
// TTL-bearing components (caches, rate limiter windows, typing states,
// upload sessions) are swept from this single supervised loop instead of
// each owning a timer.
//
// A failing target is logged and retried on the next tick; it never stops
// the sweep of the remaining targets and never crashes the service.
type SweeperService struct {
	interval time.Duration
	targets  []SweepTarget
	name     string
}

// NewSweeperService creates a sweeper over the given targets.
//
// Parameters:
//   - interval: time between sweep passes; defaults to 30s when <= 0
//   - targets: components to sweep each pass, in order
//
// Returns a service for supervision; it owns no goroutines until Serve.
func NewSweeperService(interval time.Duration, targets []SweepTarget) *SweeperService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &SweeperService{
		interval: interval,
		targets:  targets,
		name:     "expiry-sweeper",
	}
}

// Serve implements suture.Service. Runs sweep passes every interval until
// the context is canceled.
func (s *SweeperService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logging.Info().
		Dur("interval", s.interval).
		Int("targets", len(s.targets)).
		Msg("expiry sweeper started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("expiry sweeper stopped")
			return ctx.Err()
		case now := <-ticker.C:
			s.sweepAll(now)
		}
	}
}

// sweepAll runs one pass over every target, isolating per-target failures.
func (s *SweeperService) sweepAll(now time.Time) {
	for _, target := range s.targets {
		removed, err := s.sweepOne(target, now)
		if err != nil {
			logging.Error().
				Err(err).
				Str("target", target.Name).
				Msg("sweep target failed, retrying next tick")
			continue
		}
		if removed > 0 {
			logging.Debug().
				Str("target", target.Name).
				Int("removed", removed).
				Msg("sweep pass reclaimed entries")
		}
	}
}

// sweepOne runs a single target with panic containment so one broken
// target cannot take down the sweep loop.
func (s *SweeperService) sweepOne(target SweepTarget, now time.Time) (removed int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep panic: %v", r)
		}
	}()

	start := time.Now()
	removed = target.Sweep(now)
	metrics.RecordSweep(target.Name, time.Since(start), removed)
	return removed, nil
}

// String implements fmt.Stringer for suture logging.
func (s *SweeperService) String() string {
	return s.name
}
