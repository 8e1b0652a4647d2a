// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient builds a client without a websocket connection; the hub
// only touches id and send.
func newTestClient(buffer int) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		send: make(chan Event, buffer),
	}
}

// startHub runs the hub until the test ends.
func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub, cancel
}

// waitForClients polls until the hub reports n clients.
func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for hub.ClientCount() != n {
		select {
		case <-deadline:
			t.Fatalf("hub never reached %d clients (have %d)", n, hub.ClientCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestHubBroadcastsToRegisteredClients(t *testing.T) {
	hub, _ := startHub(t)

	c1 := newTestClient(8)
	c2 := newTestClient(8)
	hub.Register <- c1
	hub.Register <- c2
	waitForClients(t, hub, 2)

	hub.PublishMessage(MessageEvent{
		ConversationID: "c1",
		MessageID:      "m1",
		SenderID:       "u1",
		Body:           "hello",
		Timestamp:      time.Now(),
	})

	for _, c := range []*Client{c1, c2} {
		select {
		case ev := <-c.send:
			assert.Equal(t, EventTypeMessage, ev.Type)
			msg, ok := ev.Data.(MessageEvent)
			require.True(t, ok)
			assert.Equal(t, "m1", msg.MessageID)
		case <-time.After(2 * time.Second):
			t.Fatal("client never received broadcast")
		}
	}
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub, _ := startHub(t)

	c := newTestClient(8)
	hub.Register <- c
	waitForClients(t, hub, 1)

	hub.Unregister <- c
	waitForClients(t, hub, 0)

	// Channel is closed on unregister.
	_, ok := <-c.send
	assert.False(t, ok)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, _ := startHub(t)

	slow := newTestClient(1)
	fast := newTestClient(8)
	hub.Register <- slow
	hub.Register <- fast
	waitForClients(t, hub, 2)

	// Fill the slow client's queue, then publish once more; the slow client
	// must be dropped while the fast one keeps receiving.
	hub.PublishTyping(TypingEvent{ConversationID: "c1", UserID: "u1", Typing: true})
	hub.PublishTyping(TypingEvent{ConversationID: "c1", UserID: "u2", Typing: true})
	waitForClients(t, hub, 1)

	received := 0
	for {
		select {
		case _, ok := <-fast.send:
			if !ok {
				t.Fatal("fast client was dropped")
			}
			received++
			if received == 2 {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("fast client received %d of 2 events", received)
		}
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	c := newTestClient(8)
	hub.Register <- c
	waitForClients(t, hub, 1)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("hub never stopped")
	}

	_, ok := <-c.send
	assert.False(t, ok)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubPublishNeverBlocks(t *testing.T) {
	// No Run loop draining the broadcast queue: publishes beyond the queue
	// size must drop, not block.
	hub := NewHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.PublishTyping(TypingEvent{ConversationID: "c1", UserID: "u1", Typing: true})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on full broadcast queue")
	}
}

func TestFanoutAndNoop(t *testing.T) {
	var got []string
	rec := recordingPublisher{events: &got}
	f := Fanout{NoopPublisher{}, rec, rec}

	f.PublishMessage(MessageEvent{MessageID: "m1"})
	f.PublishTyping(TypingEvent{UserID: "u1"})

	assert.Equal(t, []string{"message", "message", "typing", "typing"}, got)
}

type recordingPublisher struct {
	events *[]string
}

func (r recordingPublisher) PublishMessage(MessageEvent) {
	*r.events = append(*r.events, "message")
}

func (r recordingPublisher) PublishTyping(TypingEvent) {
	*r.events = append(*r.events, "typing")
}
