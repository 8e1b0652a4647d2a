// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// User is a registered account.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Message is a single message within a conversation. MediaIDs reference
// Media records attached to the message.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body,omitempty"`
	MediaIDs       []string  `json:"media_ids,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Media describes a stored media object. URL and ThumbnailURL address blobs
// in the blob store; Width and Height are zero for non-image media.
type Media struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Mime         string    `json:"mime"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists users, messages, and media records.
//
// Implementations must be safe for concurrent use. Calls are suspension
// points: callers must not hold component locks across them.
type Store interface {
	// CreateUser stores a new user record.
	CreateUser(ctx context.Context, user *User) error

	// GetUser retrieves a user by ID, or ErrNotFound.
	GetUser(ctx context.Context, id string) (*User, error)

	// CreateMessage stores a new message and indexes it under its
	// conversation.
	CreateMessage(ctx context.Context, msg *Message) error

	// GetMessage retrieves a message by ID, or ErrNotFound.
	GetMessage(ctx context.Context, id string) (*Message, error)

	// ListMessages returns up to limit messages in a conversation, newest
	// first. A limit <= 0 uses a default of 50.
	ListMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error)

	// CreateMedia stores a new media record.
	CreateMedia(ctx context.Context, media *Media) error

	// GetMedia retrieves a media record by ID, or ErrNotFound.
	GetMedia(ctx context.Context, id string) (*Media, error)

	// DeleteMedia removes a media record. Deleting an absent record is a
	// no-op.
	DeleteMedia(ctx context.Context, id string) error

	// Close releases underlying resources.
	Close() error
}

// defaultListLimit bounds ListMessages when the caller passes no limit.
const defaultListLimit = 50
