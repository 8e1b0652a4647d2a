// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package blob

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-memory blob store for tests and ephemeral deployments.
type MemStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemStore creates an empty in-memory blob store.
func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

// Put stores a copy of the bytes under a fresh URL.
func (s *MemStore) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	url := "mem://" + uuid.New().String()
	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.blobs[url] = buf
	s.mu.Unlock()
	return url, nil
}

// Get returns a copy of the stored bytes, or ErrNotFound.
func (s *MemStore) Get(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, ok := s.blobs[url]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Delete removes the blob. Absent blobs are a no-op.
func (s *MemStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.blobs, url)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored blobs.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
