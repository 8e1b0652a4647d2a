// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/amica-social/amica/internal/logging"
)

// Key prefixes for BadgerDB storage
const (
	userKeyPrefix    = "user:"
	messageKeyPrefix = "msg:"
	convKeyPrefix    = "conv:"
	mediaKeyPrefix   = "media:"
)

// BadgerStore implements Store on an embedded BadgerDB. Records are encoded
// with goccy/go-json. Messages carry a secondary conversation index keyed by
// creation time so listing is a bounded prefix scan.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a BadgerDB at the given path and returns a
// store backed by it. Badger's own logger is silenced; open and close are
// logged through the application logger instead.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}

	logging.Info().Str("path", path).Msg("opened badger store")
	return &BadgerStore{db: db}, nil
}

// NewBadgerStore wraps an already-open BadgerDB. The caller retains
// ownership of the database; Close on the returned store closes it.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// CreateUser stores a user record.
func (s *BadgerStore) CreateUser(ctx context.Context, user *User) error {
	return s.put(ctx, userKeyPrefix+user.ID, user)
}

// GetUser retrieves a user by ID.
func (s *BadgerStore) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	if err := s.get(ctx, userKeyPrefix+id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateMessage stores a message and its conversation index entry in one
// transaction.
func (s *BadgerStore) CreateMessage(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		msgKey := []byte(messageKeyPrefix + msg.ID)
		if err := txn.Set(msgKey, data); err != nil {
			return fmt.Errorf("set message: %w", err)
		}

		// Index key sorts by creation time within the conversation; the ID
		// suffix keeps same-instant messages distinct.
		idxKey := []byte(convIndexKey(msg.ConversationID, msg))
		if err := txn.Set(idxKey, []byte(msg.ID)); err != nil {
			return fmt.Errorf("set conversation index: %w", err)
		}

		return nil
	})
}

// GetMessage retrieves a message by ID.
func (s *BadgerStore) GetMessage(ctx context.Context, id string) (*Message, error) {
	var msg Message
	if err := s.get(ctx, messageKeyPrefix+id, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessages returns up to limit messages in a conversation, newest first.
func (s *BadgerStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(convKeyPrefix + conversationID + ":")
		// Reverse iteration seeks to the last key under the prefix.
		seek := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(ids) < limit; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan conversation index: %w", err)
	}

	msgs := make([]*Message, 0, len(ids))
	for _, id := range ids {
		msg, err := s.GetMessage(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// Index entry outlived its message; skip.
			continue
		}
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// CreateMedia stores a media record.
func (s *BadgerStore) CreateMedia(ctx context.Context, media *Media) error {
	return s.put(ctx, mediaKeyPrefix+media.ID, media)
}

// GetMedia retrieves a media record by ID.
func (s *BadgerStore) GetMedia(ctx context.Context, id string) (*Media, error) {
	var media Media
	if err := s.get(ctx, mediaKeyPrefix+id, &media); err != nil {
		return nil, err
	}
	return &media, nil
}

// DeleteMedia removes a media record. Absent records are a no-op.
func (s *BadgerStore) DeleteMedia(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(mediaKeyPrefix + id))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete media: %w", err)
		}
		return nil
	})
}

// put marshals a record and writes it under key.
func (s *BadgerStore) put(ctx context.Context, key string, record any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get reads and unmarshals the record under key, mapping absent keys to
// ErrNotFound.
func (s *BadgerStore) get(ctx context.Context, key string, record any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get record: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, record)
		})
	})
}

// convIndexKey builds the secondary index key for a message. Zero-padded
// nanosecond timestamps sort lexicographically in creation order.
func convIndexKey(conversationID string, msg *Message) string {
	return fmt.Sprintf("%s%s:%020d:%s", convKeyPrefix, conversationID, msg.CreatedAt.UnixNano(), msg.ID)
}
