// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package typing

import (
	"sort"
	"sync"
	"time"

	"github.com/amica-social/amica/internal/metrics"
)

// Config holds typing tracker configuration.
type Config struct {
	// TTL is how long a typing signal stays live without a refresh.
	// Default: 5 seconds.
	TTL time.Duration
}

// DefaultConfig returns the default typing indicator TTL.
func DefaultConfig() Config {
	return Config{TTL: 5 * time.Second}
}

// state is one user's live typing signal in one conversation.
type state struct {
	expiresAt time.Time
}

// Tracker holds ephemeral per-conversation typing indicators.
//
// Expiry uses a deadline per state plus the shared periodic sweep instead of
// one timer object per signal: refreshing a signal just moves its deadline,
// so repeated SetTyping calls cannot leak timers. Reads filter lazily
// against the clock, so an expired signal disappears from AnyoneTyping
// immediately, not only at the next sweep.
type Tracker struct {
	mu sync.RWMutex
	// conversations maps conversationID -> userID -> state.
	conversations map[string]map[string]*state
	cfg           Config
	nowFunc       func() time.Time // overridable for tests
}

// NewTracker creates a typing tracker with the given configuration.
func NewTracker(cfg Config) *Tracker {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}

	return &Tracker{
		conversations: make(map[string]map[string]*state),
		cfg:           cfg,
		nowFunc:       time.Now,
	}
}

// SetTyping records or clears a user's typing signal in a conversation.
//
// isTyping true creates or refreshes the signal with a fresh deadline;
// isTyping false clears it immediately.
func (t *Tracker) SetTyping(conversationID, userID string, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	users := t.conversations[conversationID]

	if !isTyping {
		if users != nil {
			delete(users, userID)
			if len(users) == 0 {
				delete(t.conversations, conversationID)
			}
		}
		t.updateGaugeLocked()
		return
	}

	if users == nil {
		users = make(map[string]*state)
		t.conversations[conversationID] = users
	}
	users[userID] = &state{expiresAt: t.nowFunc().Add(t.cfg.TTL)}
	t.updateGaugeLocked()
}

// AnyoneTyping returns the users currently typing in a conversation,
// excluding the given user (pass "" to exclude nobody). Expired signals are
// filtered out even if the sweep has not run yet. The result is sorted for
// deterministic output.
func (t *Tracker) AnyoneTyping(conversationID, excludingUserID string) []string {
	now := t.nowFunc()

	t.mu.RLock()
	users := t.conversations[conversationID]
	typing := make([]string, 0, len(users))
	for userID, st := range users {
		if userID == excludingUserID {
			continue
		}
		if now.Before(st.expiresAt) {
			typing = append(typing, userID)
		}
	}
	t.mu.RUnlock()

	sort.Strings(typing)
	return typing
}

// Sweep removes expired typing states and empty conversations, returning the
// number of states removed. Runs on the shared sweep interval.
func (t *Tracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for conversationID, users := range t.conversations {
		for userID, st := range users {
			if !now.Before(st.expiresAt) {
				delete(users, userID)
				removed++
			}
		}
		if len(users) == 0 {
			delete(t.conversations, conversationID)
		}
	}
	t.updateGaugeLocked()
	return removed
}

// updateGaugeLocked refreshes the live-state gauge.
// Must be called with the lock held.
func (t *Tracker) updateGaugeLocked() {
	total := 0
	for _, users := range t.conversations {
		total += len(users)
	}
	metrics.TypingStatesActive.Set(float64(total))
}
