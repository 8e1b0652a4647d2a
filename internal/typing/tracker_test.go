// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package typing

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetTypingAndQuery(t *testing.T) {
	tr := NewTracker(Config{TTL: time.Second})

	tr.SetTyping("conv1", "alice", true)
	tr.SetTyping("conv1", "bob", true)
	tr.SetTyping("conv2", "carol", true)

	assert.Equal(t, []string{"alice", "bob"}, tr.AnyoneTyping("conv1", ""))
	assert.Equal(t, []string{"bob"}, tr.AnyoneTyping("conv1", "alice"))
	assert.Equal(t, []string{"carol"}, tr.AnyoneTyping("conv2", ""))
	assert.Empty(t, tr.AnyoneTyping("conv3", ""))
}

func TestExplicitStopClearsImmediately(t *testing.T) {
	tr := NewTracker(Config{TTL: time.Minute})

	tr.SetTyping("conv1", "alice", true)
	tr.SetTyping("conv1", "alice", false)

	assert.Empty(t, tr.AnyoneTyping("conv1", ""))

	// Stopping a user who never started is a no-op.
	tr.SetTyping("conv1", "bob", false)
}

func TestSignalExpiresAfterTTL(t *testing.T) {
	tr := NewTracker(Config{TTL: 60 * time.Millisecond})

	tr.SetTyping("conv1", "alice", true)
	assert.Equal(t, []string{"alice"}, tr.AnyoneTyping("conv1", ""))

	time.Sleep(90 * time.Millisecond)

	// Expired signals disappear from reads even before any sweep runs.
	assert.Empty(t, tr.AnyoneTyping("conv1", ""))
}

func TestRefreshExtendsDeadline(t *testing.T) {
	tr := NewTracker(Config{TTL: 100 * time.Millisecond})

	tr.SetTyping("conv1", "alice", true)
	time.Sleep(60 * time.Millisecond)
	tr.SetTyping("conv1", "alice", true) // refresh
	time.Sleep(60 * time.Millisecond)    // 120ms after first signal, 60ms after refresh

	assert.Equal(t, []string{"alice"}, tr.AnyoneTyping("conv1", ""),
		"refreshed signal must outlive the original deadline")
}

func TestSweepRemovesExpiredStates(t *testing.T) {
	tr := NewTracker(Config{TTL: 50 * time.Millisecond})

	tr.SetTyping("conv1", "alice", true)
	tr.SetTyping("conv1", "bob", true)
	time.Sleep(70 * time.Millisecond)
	tr.SetTyping("conv2", "carol", true) // still live

	removed := tr.Sweep(time.Now())
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"carol"}, tr.AnyoneTyping("conv2", ""))
}

func TestConcurrentSetTypingSameUser(t *testing.T) {
	tr := NewTracker(Config{TTL: time.Second})

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				tr.SetTyping("conv1", "alice", i%2 == 0)
			}
			// End on a started signal so the final state is deterministic
			// per goroutine.
			tr.SetTyping("conv1", "alice", true)
		}(g)
	}
	wg.Wait()

	assert.Equal(t, []string{"alice"}, tr.AnyoneTyping("conv1", ""))
}

func TestConcurrentDistinctConversations(t *testing.T) {
	tr := NewTracker(Config{TTL: time.Minute})

	var wg sync.WaitGroup
	for c := 0; c < 8; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			conv := fmt.Sprintf("conv%d", c)
			for u := 0; u < 20; u++ {
				tr.SetTyping(conv, fmt.Sprintf("user%d", u), true)
			}
		}(c)
	}
	wg.Wait()

	for c := 0; c < 8; c++ {
		assert.Len(t, tr.AnyoneTyping(fmt.Sprintf("conv%d", c), ""), 20)
	}
}
