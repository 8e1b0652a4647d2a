// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package upload

import "errors"

// Sentinel errors returned by the session manager. The API layer maps these
// to user-facing responses; none of them are internal faults.
var (
	// ErrSessionNotFound indicates the session ID is unknown or already swept.
	ErrSessionNotFound = errors.New("upload session not found")

	// ErrSessionClosed indicates the session is in a terminal state and
	// accepts no further chunks.
	ErrSessionClosed = errors.New("upload session closed")

	// ErrInvalidSize indicates a non-positive total or chunk size.
	ErrInvalidSize = errors.New("invalid upload size")

	// ErrUploadTooLarge indicates the declared total size exceeds the
	// configured maximum.
	ErrUploadTooLarge = errors.New("upload exceeds maximum allowed size")

	// ErrChunkIndexOutOfRange indicates a chunk index outside
	// [0, expectedChunkCount).
	ErrChunkIndexOutOfRange = errors.New("chunk index out of range")

	// ErrChunkSizeMismatch indicates a chunk whose byte length does not match
	// the session's chunk size (or the final remainder).
	ErrChunkSizeMismatch = errors.New("chunk size mismatch")

	// ErrIncompleteUpload indicates assembly was attempted while chunks are
	// still missing. Complete re-checks coverage defensively and fails loudly
	// rather than producing corrupt output.
	ErrIncompleteUpload = errors.New("upload incomplete: missing chunks")

	// ErrNotReady indicates Complete was called before every chunk arrived.
	ErrNotReady = errors.New("upload session not ready for completion")
)
