// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package realtime

import "time"

// Event types for realtime fan-out
const (
	EventTypeMessage = "message"
	EventTypeTyping  = "typing"
	EventTypePing    = "ping"
	EventTypePong    = "pong"
)

// Event is the envelope carried over the realtime transport.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// MessageEvent notifies participants of a new message in a conversation.
type MessageEvent struct {
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body,omitempty"`
	MediaIDs       []string  `json:"media_ids,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// TypingEvent notifies participants of a typing state change.
type TypingEvent struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Typing         bool   `json:"typing"`
}

// Publisher fans events out to connected peers. Delivery is fire-and-forget:
// implementations never block the caller and never surface delivery errors.
type Publisher interface {
	PublishMessage(ev MessageEvent)
	PublishTyping(ev TypingEvent)
}

// NoopPublisher discards all events. Used when realtime delivery is
// disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishMessage(MessageEvent) {}
func (NoopPublisher) PublishTyping(TypingEvent)   {}

// Fanout publishes each event to every wrapped publisher in order.
type Fanout []Publisher

func (f Fanout) PublishMessage(ev MessageEvent) {
	for _, p := range f {
		p.PublishMessage(ev)
	}
}

func (f Fanout) PublishTyping(ev TypingEvent) {
	for _, p := range f {
		p.PublishTyping(ev)
	}
}
