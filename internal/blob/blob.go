// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package blob

import (
	"context"
	"errors"
)

// ErrNotFound indicates the URL references no stored blob.
var ErrNotFound = errors.New("blob not found")

// Store persists opaque byte blobs and addresses them by URL.
//
// Implementations may be a local directory, an S3-compatible service, or an
// in-memory map for tests. Calls are suspension points: callers must not
// hold cache or session locks across them.
type Store interface {
	// Put stores the bytes and returns the blob's URL.
	Put(ctx context.Context, data []byte) (string, error)

	// Get returns the bytes for a URL, or ErrNotFound.
	Get(ctx context.Context, url string) ([]byte, error)

	// Delete removes the blob. Deleting an absent blob is a no-op.
	Delete(ctx context.Context, url string) error
}
