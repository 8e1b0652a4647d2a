// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package realtime

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/amica-social/amica/internal/logging"
)

// NATS subject templates for cross-node event fan-out
const (
	subjectMessageFmt = "amica.events.message.%s"
	subjectTypingFmt  = "amica.events.typing.%s"
)

// NATSPublisher relays realtime events onto NATS subjects so other nodes
// can forward them to their own websocket clients. Publishing is
// best-effort: NATS errors are logged and dropped, never returned.
type NATSPublisher struct {
	nc *nats.Conn
}

// NewNATSPublisher wraps an established NATS connection. The caller owns
// the connection's lifecycle.
func NewNATSPublisher(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: nc}
}

// Connect dials NATS and returns a publisher on the connection. The
// connection reconnects indefinitely with the client's default backoff.
func Connect(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logging.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats at %s: %w", url, err)
	}
	return &NATSPublisher{nc: nc}, nil
}

// PublishMessage relays a message event, keyed by conversation.
func (p *NATSPublisher) PublishMessage(ev MessageEvent) {
	p.publish(fmt.Sprintf(subjectMessageFmt, ev.ConversationID), Event{Type: EventTypeMessage, Data: ev})
}

// PublishTyping relays a typing event, keyed by conversation.
func (p *NATSPublisher) PublishTyping(ev TypingEvent) {
	p.publish(fmt.Sprintf(subjectTypingFmt, ev.ConversationID), Event{Type: EventTypeTyping, Data: ev})
}

func (p *NATSPublisher) publish(subject string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logging.Error().Err(err).Str("subject", subject).Msg("failed to marshal realtime event")
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		logging.Warn().Err(err).Str("subject", subject).Msg("failed to publish realtime event")
	}
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		logging.Warn().Err(err).Msg("nats drain failed")
	}
}
