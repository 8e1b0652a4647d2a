// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package ratelimit

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/amica-social/amica/internal/metrics"
)

// Config holds rate limiter configuration.
type Config struct {
	// Window is the fixed window duration (e.g. one minute).
	Window time.Duration

	// MaxEvents is the number of events permitted per user per window.
	MaxEvents int
}

// DefaultConfig returns limits suitable for message sends.
func DefaultConfig() Config {
	return Config{
		Window:    time.Minute,
		MaxEvents: 60,
	}
}

// window tracks a single user's current fixed window.
type window struct {
	count       int
	windowStart time.Time
}

// shardCount is the number of independently locked user-map shards.
const shardCount = 32

// shard holds the windows for a slice of the user space under its own lock.
type shard struct {
	mu    sync.Mutex
	users map[string]*window
}

// Limiter is a fixed-window, per-user rate limiter gating write-heavy
// operations. Windows are independent per user; checking one user never
// touches another user's state.
//
// The user map is sharded by a hash of the user ID so concurrent Allow
// calls for unrelated users take different locks.
//
// A fixed window (rather than a token bucket) keeps the per-user state to a
// counter and a timestamp, which is all message-send gating needs.
type Limiter struct {
	shards  [shardCount]shard
	cfg     Config
	nowFunc func() time.Time // overridable for tests
}

// New creates a rate limiter with the given configuration.
// Zero or negative config values fall back to defaults.
func New(cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = DefaultConfig().MaxEvents
	}

	l := &Limiter{
		cfg:     cfg,
		nowFunc: time.Now,
	}
	for i := range l.shards {
		l.shards[i].users = make(map[string]*window)
	}
	return l
}

// shardFor returns the shard owning the given user ID.
func (l *Limiter) shardFor(userID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return &l.shards[h.Sum32()%shardCount]
}

// Allow reports whether the user may perform another event in the current
// window, incrementing the counter when it does.
//
// The first event for a user always succeeds and starts a new window. Once
// the wall clock passes windowStart + Window, the next event resets the
// window with count = 1. At the limit, Allow returns false without
// incrementing beyond MaxEvents.
func (l *Limiter) Allow(userID string) bool {
	s := l.shardFor(userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := l.nowFunc()

	w, exists := s.users[userID]
	if !exists {
		s.users[userID] = &window{count: 1, windowStart: now}
		metrics.RateLimitTrackedUsers.Inc()
		metrics.RecordRateLimitDecision(true)
		return true
	}

	if now.Sub(w.windowStart) >= l.cfg.Window {
		// Window rolled over: fresh window with this event as its first.
		w.count = 1
		w.windowStart = now
		metrics.RecordRateLimitDecision(true)
		return true
	}

	if w.count >= l.cfg.MaxEvents {
		metrics.RecordRateLimitDecision(false)
		return false
	}

	w.count++
	metrics.RecordRateLimitDecision(true)
	return true
}

// Tracked returns the number of users with a retained window.
func (l *Limiter) Tracked() int {
	total := 0
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		total += len(s.users)
		s.mu.Unlock()
	}
	return total
}

// Sweep removes windows that have been stale for at least twice the window
// size and returns the number removed. Stale windows are harmless drift, not
// a leak, but sweeping keeps long-tail users from accumulating. Runs on the
// shared sweep interval, locking one shard at a time so live traffic on
// other shards is never stalled.
func (l *Limiter) Sweep(now time.Time) int {
	removed := 0
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		for userID, w := range s.users {
			if now.Sub(w.windowStart) >= 2*l.cfg.Window {
				delete(s.users, userID)
				removed++
			}
		}
		s.mu.Unlock()
	}
	metrics.RateLimitTrackedUsers.Sub(float64(removed))
	return removed
}
