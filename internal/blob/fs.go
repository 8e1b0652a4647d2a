// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// urlScheme prefixes filesystem blob URLs so they are distinguishable from
// remote store URLs.
const urlScheme = "file://"

// FSStore stores blobs as files under a base directory. Blob names are
// UUIDs, sharded into two-character prefix directories to keep directory
// fanout bounded.
type FSStore struct {
	baseDir string
}

// NewFSStore creates a filesystem blob store rooted at baseDir, creating the
// directory if needed.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FSStore{baseDir: baseDir}, nil
}

// Put writes the bytes to a fresh file and returns its file:// URL.
func (s *FSStore) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.New().String()
	dir := filepath.Join(s.baseDir, name[:2])
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create shard dir: %w", err)
	}

	path := filepath.Join(dir, name)
	// Write to a temp file then rename so readers never see partial blobs.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publish blob: %w", err)
	}

	return urlScheme + name, nil
}

// Get reads the bytes for a file:// URL.
func (s *FSStore) Get(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.resolve(url)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// Delete removes the blob file. Absent blobs are a no-op.
func (s *FSStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.resolve(url)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// resolve maps a blob URL back to its file path, rejecting anything that
// could escape the base directory.
func (s *FSStore) resolve(url string) (string, error) {
	name, ok := strings.CutPrefix(url, urlScheme)
	if !ok || name == "" {
		return "", ErrNotFound
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", ErrNotFound
	}
	if len(name) < 2 {
		return "", ErrNotFound
	}
	return filepath.Join(s.baseDir, name[:2], name), nil
}
