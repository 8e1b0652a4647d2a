// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package upload

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amica-social/amica/internal/logging"
	"github.com/amica-social/amica/internal/metrics"
)

// Config holds session manager configuration.
type Config struct {
	// DefaultChunkSize is used when Start is called without a chunk size.
	// Default: 1 MiB
	DefaultChunkSize int64

	// MaxFileSize caps the declared total size of an upload.
	// Default: 256 MiB
	MaxFileSize int64

	// SessionTimeout is the inactivity duration after which an active
	// session expires. Default: 15 minutes
	SessionTimeout time.Duration
}

// DefaultConfig returns production defaults for the session manager.
func DefaultConfig() Config {
	return Config{
		DefaultChunkSize: 1 << 20,
		MaxFileSize:      256 << 20,
		SessionTimeout:   15 * time.Minute,
	}
}

// Manager tracks in-flight chunked uploads: it allocates sessions, accepts
// out-of-order chunks, detects completion, assembles the final buffer, and
// expires abandoned sessions.
//
// Locking is two-level: the manager map is guarded by an RWMutex used only
// for session lookup and insertion, and each session carries its own mutex
// for chunk mutation. Concurrent operations on distinct sessions never
// contend; concurrent PutChunk calls on the same session serialize on the
// session mutex, so the chunk map cannot be corrupted and a racing Cancel
// resolves deterministically (whichever acquires the session mutex first
// wins).
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      Config
	nowFunc  func() time.Time // overridable for tests
}

// NewManager creates a session manager with the given configuration.
// Zero config values fall back to defaults.
func NewManager(cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.DefaultChunkSize <= 0 {
		cfg.DefaultChunkSize = def.DefaultChunkSize
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = def.MaxFileSize
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = def.SessionTimeout
	}

	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		nowFunc:  time.Now,
	}
}

// Start allocates a new upload session in the active state and returns its
// opaque session ID.
//
// chunkSize <= 0 selects the configured default. Fails with ErrInvalidSize
// for a non-positive total size and ErrUploadTooLarge when the declared
// total exceeds the configured maximum.
func (m *Manager) Start(ownerID, filename string, totalSize, chunkSize int64) (string, error) {
	if totalSize <= 0 {
		return "", ErrInvalidSize
	}
	if totalSize > m.cfg.MaxFileSize {
		return "", ErrUploadTooLarge
	}
	if chunkSize <= 0 {
		chunkSize = m.cfg.DefaultChunkSize
	}

	now := m.nowFunc()
	expected := int((totalSize + chunkSize - 1) / chunkSize)

	s := &Session{
		id:             uuid.New().String(),
		ownerID:        ownerID,
		filename:       filename,
		totalSize:      totalSize,
		chunkSize:      chunkSize,
		expectedChunks: expected,
		chunks:         make(map[int][]byte, expected),
		state:          StateActive,
		createdAt:      now,
		lastActivity:   now,
		lastChunkAt:    now,
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	metrics.UploadSessionsActive.Inc()
	logging.Info().
		Str("session", s.id).
		Str("owner", ownerID).
		Str("filename", filename).
		Int64("total_size", totalSize).
		Int("expected_chunks", expected).
		Msg("upload session started")

	return s.id, nil
}

// PutChunk stores the bytes for one chunk index and returns a progress
// snapshot.
//
// Fails with ErrSessionNotFound for an unknown session, ErrSessionClosed for
// any terminal state, ErrChunkIndexOutOfRange for an index outside
// [0, expectedChunks), and ErrChunkSizeMismatch when the byte length does
// not match the chunk size (final chunk: the remainder).
//
// Resubmitting an already-accepted index is an idempotent no-op: the first
// bytes win regardless of the new payload, the received count is unchanged,
// and the call succeeds. When the last missing chunk arrives the session
// transitions to completing synchronously within this call.
func (m *Manager) PutChunk(sessionID string, index int, data []byte) (Progress, error) {
	s, ok := m.lookup(sessionID)
	if !ok {
		return Progress{}, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.terminal() {
		return Progress{}, ErrSessionClosed
	}
	if index < 0 || index >= s.expectedChunks {
		return s.snapshotLocked(), ErrChunkIndexOutOfRange
	}
	if int64(len(data)) != s.chunkLength(index) {
		return s.snapshotLocked(), ErrChunkSizeMismatch
	}

	now := m.nowFunc()
	s.lastActivity = now

	if _, dup := s.chunks[index]; dup {
		// Idempotent resubmission: first write wins.
		return s.snapshotLocked(), nil
	}

	// Copy so the caller may reuse its buffer.
	buf := make([]byte, len(data))
	copy(buf, data)
	s.chunks[index] = buf
	s.uploadedBytes += int64(len(buf))
	s.throughput.observe(len(buf), now.Sub(s.lastChunkAt))
	s.lastChunkAt = now

	metrics.UploadChunksReceived.Inc()
	metrics.UploadBytesReceived.Add(float64(len(buf)))

	if len(s.chunks) == s.expectedChunks {
		s.state = StateCompleting
		logging.Debug().
			Str("session", s.id).
			Int("chunks", s.expectedChunks).
			Msg("all chunks received, session completing")
	}

	return s.snapshotLocked(), nil
}

// Completed is the result of a successful Complete call. Data ownership
// transfers to the caller.
type Completed struct {
	Data     []byte
	OwnerID  string
	Filename string
}

// Complete assembles the uploaded file and returns the buffer, transferring
// ownership of the bytes to the caller. Valid only from the completing
// state; fails with ErrNotReady from active and ErrSessionClosed from
// terminal states. Coverage is re-verified defensively before concatenation.
// Chunk buffers are released once the assembled result exists.
func (m *Manager) Complete(sessionID string) (*Completed, error) {
	s, ok := m.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateCompleting:
		// proceed
	case StateActive:
		return nil, ErrNotReady
	default:
		return nil, ErrSessionClosed
	}

	// Defensive re-check: assembling with missing chunks must fail loudly
	// rather than silently producing corrupt output.
	for i := 0; i < s.expectedChunks; i++ {
		if _, ok := s.chunks[i]; !ok {
			logging.Error().
				Str("session", s.id).
				Int("missing_index", i).
				Msg("completing session is missing a chunk")
			return nil, ErrIncompleteUpload
		}
	}

	assembled := make([]byte, 0, s.totalSize)
	for i := 0; i < s.expectedChunks; i++ {
		assembled = append(assembled, s.chunks[i]...)
	}

	s.state = StateCompleted
	s.lastActivity = m.nowFunc()
	s.releaseLocked()

	metrics.RecordUploadOutcome("completed")
	logging.Info().
		Str("session", s.id).
		Str("owner", s.ownerID).
		Int64("bytes", int64(len(assembled))).
		Msg("upload session completed")

	return &Completed{Data: assembled, OwnerID: s.ownerID, Filename: s.filename}, nil
}

// Cancel moves an active or completing session to cancelled and releases its
// buffers. Returns false when the session is unknown or already terminal.
func (m *Manager) Cancel(sessionID string) bool {
	s, ok := m.lookup(sessionID)
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive && s.state != StateCompleting {
		return false
	}

	s.state = StateCancelled
	s.lastActivity = m.nowFunc()
	s.releaseLocked()

	metrics.RecordUploadOutcome("cancelled")
	logging.Info().Str("session", s.id).Str("owner", s.ownerID).Msg("upload session cancelled")
	return true
}

// Progress returns a progress snapshot, or false when the session is unknown
// or already swept.
func (m *Manager) Progress(sessionID string) (Progress, bool) {
	s, ok := m.lookup(sessionID)
	if !ok {
		return Progress{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), true
}

// Len returns the number of tracked sessions, terminal tombstones included.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SweepExpired expires active sessions idle longer than the session timeout,
// releasing their buffers, and removes terminal sessions that have lingered
// past the same timeout. Returns the number of sessions expired.
//
// Safe to run concurrently with PutChunk/Complete on other sessions: state
// transitions take the per-session mutex, so a session observed mid-
// completion is either still completing (not active, skipped) or already
// terminal. A session whose lastActivity is within the timeout is never
// touched.
func (m *Manager) SweepExpired(now time.Time) int {
	m.mu.RLock()
	candidates := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		candidates = append(candidates, s)
	}
	m.mu.RUnlock()

	expired := 0
	var remove []string

	for _, s := range candidates {
		s.mu.Lock()
		idle := now.Sub(s.lastActivity)
		switch s.state {
		case StateActive:
			if idle > m.cfg.SessionTimeout {
				s.state = StateExpired
				s.releaseLocked()
				expired++
				remove = append(remove, s.id)
				metrics.RecordUploadOutcome("expired")
				logging.Info().
					Str("session", s.id).
					Str("owner", s.ownerID).
					Dur("idle", idle).
					Msg("upload session expired")
			}
		case StateCompleting:
			// A completing session still holds the full chunk buffer. Give
			// the caller twice the timeout to invoke Complete before the
			// memory is reclaimed.
			if idle > 2*m.cfg.SessionTimeout {
				s.state = StateExpired
				s.releaseLocked()
				expired++
				remove = append(remove, s.id)
				metrics.RecordUploadOutcome("expired")
				logging.Warn().
					Str("session", s.id).
					Str("owner", s.ownerID).
					Msg("completing session abandoned, expired")
			}
		default:
			// Terminal tombstones are kept briefly so late PutChunk calls
			// observe SessionClosed rather than NotFound, then reclaimed.
			if idle > m.cfg.SessionTimeout {
				remove = append(remove, s.id)
			}
		}
		s.mu.Unlock()
	}

	if len(remove) > 0 {
		m.mu.Lock()
		for _, id := range remove {
			delete(m.sessions, id)
		}
		m.mu.Unlock()
	}

	return expired
}

// lookup finds a session by ID under the read lock.
func (m *Manager) lookup(sessionID string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	return s, ok
}
