// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package realtime

import (
	"context"
	"sort"
	"sync"

	"github.com/amica-social/amica/internal/logging"
	"github.com/amica-social/amica/internal/metrics"
)

// Hub maintains the set of connected websocket clients and broadcasts
// events to them. It implements Publisher for in-process fan-out.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Event
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub with no connected clients. Run must be called before
// clients are registered.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run processes client lifecycle events and broadcasts until the context is
// canceled. Designed for suture supervision: on cancellation all clients are
// closed and ctx.Err() is returned so the supervisor sees a clean stop.
//
// Lifecycle events are drained before broadcasts so client membership is
// consistent when a broadcast is delivered.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Lifecycle first, non-blocking.
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

// PublishMessage queues a message event for broadcast. Drops the event if
// the broadcast queue is full rather than blocking the caller.
func (h *Hub) PublishMessage(ev MessageEvent) {
	h.publish(Event{Type: EventTypeMessage, Data: ev})
}

// PublishTyping queues a typing event for broadcast.
func (h *Hub) PublishTyping(ev TypingEvent) {
	h.publish(Event{Type: EventTypeTyping, Data: ev})
}

func (h *Hub) publish(ev Event) {
	select {
	case h.broadcast <- ev:
	default:
		logging.Warn().Str("event_type", ev.Type).Msg("broadcast queue full, dropping event")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(n))
	logging.Info().Int("total_clients", n).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(n))
	logging.Info().Int("total_clients", n).Msg("websocket client disconnected")
}

// deliver sends an event to all clients in ID order. Clients whose send
// queue is full are dropped: a slow reader must not stall the hub.
func (h *Hub) deliver(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- ev:
			metrics.WSMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		logging.Warn().Uint64("client_id", client.id).Msg("dropping slow websocket client")
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

// shutdown closes every client and logs the stop. Context cancellation is
// the normal path here, so no error field is logged.
func (h *Hub) shutdown(ctx context.Context) {
	h.mu.Lock()
	closed := len(h.clients)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WSConnections.Set(0)

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "realtime-hub").
		Str("reason", reason).
		Int("clients_closed", closed).
		Msg("realtime hub stopped")
}
