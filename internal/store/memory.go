// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package store

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an in-memory Store for tests and ephemeral deployments.
// Records are copied on write and on read so callers cannot alias internal
// state.
type MemStore struct {
	mu       sync.RWMutex
	users    map[string]User
	messages map[string]Message
	convs    map[string][]string
	media    map[string]Media
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		users:    make(map[string]User),
		messages: make(map[string]Message),
		convs:    make(map[string][]string),
		media:    make(map[string]Media),
	}
}

// Close is a no-op.
func (s *MemStore) Close() error { return nil }

// CreateUser stores a user record.
func (s *MemStore) CreateUser(ctx context.Context, user *User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.users[user.ID] = *user
	s.mu.Unlock()
	return nil
}

// GetUser retrieves a user by ID.
func (s *MemStore) GetUser(ctx context.Context, id string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	user, ok := s.users[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

// CreateMessage stores a message and appends it to its conversation.
func (s *MemStore) CreateMessage(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cp := *msg
	cp.MediaIDs = append([]string(nil), msg.MediaIDs...)

	s.mu.Lock()
	s.messages[cp.ID] = cp
	s.convs[cp.ConversationID] = append(s.convs[cp.ConversationID], cp.ID)
	s.mu.Unlock()
	return nil
}

// GetMessage retrieves a message by ID.
func (s *MemStore) GetMessage(ctx context.Context, id string) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	msg, ok := s.messages[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	msg.MediaIDs = append([]string(nil), msg.MediaIDs...)
	return &msg, nil
}

// ListMessages returns up to limit messages in a conversation, newest first.
func (s *MemStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	s.mu.RLock()
	ids := append([]string(nil), s.convs[conversationID]...)
	msgs := make([]*Message, 0, len(ids))
	for _, id := range ids {
		if msg, ok := s.messages[id]; ok {
			cp := msg
			cp.MediaIDs = append([]string(nil), msg.MediaIDs...)
			msgs = append(msgs, &cp)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
	})
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

// CreateMedia stores a media record.
func (s *MemStore) CreateMedia(ctx context.Context, media *Media) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.media[media.ID] = *media
	s.mu.Unlock()
	return nil
}

// GetMedia retrieves a media record by ID.
func (s *MemStore) GetMedia(ctx context.Context, id string) (*Media, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	media, ok := s.media[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &media, nil
}

// DeleteMedia removes a media record. Absent records are a no-op.
func (s *MemStore) DeleteMedia(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.media, id)
	s.mu.Unlock()
	return nil
}
