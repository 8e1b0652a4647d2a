// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestBadger returns a BadgerStore on an in-memory database, closed when
// the test ends.
func openTestBadger(t *testing.T) *BadgerStore {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)

	s := NewBadgerStore(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// storeImpls runs a subtest against every Store implementation.
func storeImpls(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()

	t.Run("badger", func(t *testing.T) {
		fn(t, openTestBadger(t))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemStore())
	})
}

func TestUserRoundTrip(t *testing.T) {
	storeImpls(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		user := &User{
			ID:          "u1",
			Username:    "ada",
			DisplayName: "Ada L.",
			CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		}
		require.NoError(t, s.CreateUser(ctx, user))

		got, err := s.GetUser(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, user.Username, got.Username)
		assert.Equal(t, user.DisplayName, got.DisplayName)

		_, err = s.GetUser(ctx, "absent")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMessageRoundTrip(t *testing.T) {
	storeImpls(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		msg := &Message{
			ID:             "m1",
			ConversationID: "c1",
			SenderID:       "u1",
			Body:           "hello",
			MediaIDs:       []string{"md1", "md2"},
			CreatedAt:      time.Now().UTC().Truncate(time.Millisecond),
		}
		require.NoError(t, s.CreateMessage(ctx, msg))

		got, err := s.GetMessage(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, "hello", got.Body)
		assert.Equal(t, []string{"md1", "md2"}, got.MediaIDs)

		_, err = s.GetMessage(ctx, "absent")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListMessagesNewestFirst(t *testing.T) {
	storeImpls(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Now().UTC().Truncate(time.Millisecond)

		for i := 0; i < 5; i++ {
			msg := &Message{
				ID:             fmt.Sprintf("m%d", i),
				ConversationID: "c1",
				SenderID:       "u1",
				Body:           fmt.Sprintf("msg %d", i),
				CreatedAt:      base.Add(time.Duration(i) * time.Second),
			}
			require.NoError(t, s.CreateMessage(ctx, msg))
		}
		// Different conversation; must not leak into c1 listings.
		require.NoError(t, s.CreateMessage(ctx, &Message{
			ID:             "other",
			ConversationID: "c2",
			SenderID:       "u2",
			CreatedAt:      base,
		}))

		msgs, err := s.ListMessages(ctx, "c1", 3)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, "m4", msgs[0].ID)
		assert.Equal(t, "m3", msgs[1].ID)
		assert.Equal(t, "m2", msgs[2].ID)

		// Zero limit falls back to the default and returns all five.
		all, err := s.ListMessages(ctx, "c1", 0)
		require.NoError(t, err)
		assert.Len(t, all, 5)

		empty, err := s.ListMessages(ctx, "c3", 10)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestMediaRoundTrip(t *testing.T) {
	storeImpls(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		media := &Media{
			ID:           "md1",
			OwnerID:      "u1",
			Mime:         "image/jpeg",
			Size:         1024,
			URL:          "file://abc",
			ThumbnailURL: "file://abc-thumb",
			Width:        800,
			Height:       600,
			CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
		}
		require.NoError(t, s.CreateMedia(ctx, media))

		got, err := s.GetMedia(ctx, "md1")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", got.Mime)
		assert.Equal(t, 800, got.Width)

		require.NoError(t, s.DeleteMedia(ctx, "md1"))
		_, err = s.GetMedia(ctx, "md1")
		assert.ErrorIs(t, err, ErrNotFound)

		// Deleting again is a no-op.
		assert.NoError(t, s.DeleteMedia(ctx, "md1"))
	})
}

func TestContextCancellation(t *testing.T) {
	storeImpls(t, func(t *testing.T, s Store) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, s.CreateUser(ctx, &User{ID: "u1"}), context.Canceled)
		_, err := s.ListMessages(ctx, "c1", 10)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
