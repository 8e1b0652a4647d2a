// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package upload

import (
	"sync"
	"time"
)

// State represents the lifecycle state of an upload session.
type State uint8

const (
	// StateActive indicates the session is accepting chunks.
	StateActive State = iota
	// StateCompleting indicates every chunk has arrived and the session is
	// awaiting assembly.
	StateCompleting
	// StateCompleted indicates the assembled buffer was handed to the caller.
	StateCompleted
	// StateCancelled indicates the session was cancelled explicitly.
	StateCancelled
	// StateExpired indicates the session timed out without activity.
	StateExpired
)

// String returns a human-readable state name for logs and progress snapshots.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCompleting:
		return "completing"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// terminal reports whether no further chunk acceptance is possible.
func (s State) terminal() bool {
	return s != StateActive
}

// throughputSamples is the window length for the chunk throughput moving
// average used for ETA estimation.
const throughputSamples = 8

// throughputWindow is a fixed-size ring of recent per-chunk transfer rates.
type throughputWindow struct {
	rates [throughputSamples]float64 // bytes per second
	next  int
	count int
}

// observe records one chunk's transfer rate.
func (w *throughputWindow) observe(bytes int, elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	w.rates[w.next] = float64(bytes) / elapsed.Seconds()
	w.next = (w.next + 1) % throughputSamples
	if w.count < throughputSamples {
		w.count++
	}
}

// average returns the mean rate over the window, or 0 with no samples.
func (w *throughputWindow) average() float64 {
	if w.count == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < w.count; i++ {
		sum += w.rates[i]
	}
	return sum / float64(w.count)
}

// Session tracks one in-flight chunked upload. Sessions are owned exclusively
// by the Manager; callers interact through Manager operations and receive
// Progress snapshots, never the session itself.
type Session struct {
	mu sync.Mutex

	id             string
	ownerID        string
	filename       string
	totalSize      int64
	chunkSize      int64
	expectedChunks int

	// chunks holds accepted chunk bytes by index, unordered arrival.
	// Bytes for an index are immutable once accepted: resubmission of the
	// same index is an idempotent no-op and the first write wins.
	chunks        map[int][]byte
	uploadedBytes int64

	state        State
	createdAt    time.Time
	lastActivity time.Time
	lastChunkAt  time.Time
	throughput   throughputWindow
}

// Progress is an immutable snapshot of a session's upload progress.
type Progress struct {
	SessionID      string        `json:"session_id"`
	State          string        `json:"state"`
	ReceivedChunks int           `json:"received_chunks"`
	ExpectedChunks int           `json:"expected_chunks"`
	UploadedBytes  int64         `json:"uploaded_bytes"`
	TotalBytes     int64         `json:"total_bytes"`
	Fraction       float64       `json:"progress"`
	ETA            time.Duration `json:"estimated_time_remaining"`
}

// snapshotLocked builds a Progress from the current session state.
// Must be called with the session mutex held.
func (s *Session) snapshotLocked() Progress {
	p := Progress{
		SessionID:      s.id,
		State:          s.state.String(),
		ReceivedChunks: len(s.chunks),
		ExpectedChunks: s.expectedChunks,
		UploadedBytes:  s.uploadedBytes,
		TotalBytes:     s.totalSize,
	}
	if s.expectedChunks > 0 {
		p.Fraction = float64(len(s.chunks)) / float64(s.expectedChunks)
	}
	if rate := s.throughput.average(); rate > 0 {
		remaining := float64(s.totalSize - s.uploadedBytes)
		p.ETA = time.Duration(remaining / rate * float64(time.Second))
	}
	return p
}

// chunkLength returns the required byte length for the chunk at index.
// Every chunk is chunkSize bytes except the final one, which is the
// remainder.
func (s *Session) chunkLength(index int) int64 {
	if index == s.expectedChunks-1 {
		remainder := s.totalSize - s.chunkSize*int64(s.expectedChunks-1)
		return remainder
	}
	return s.chunkSize
}

// releaseLocked drops all chunk buffers so the memory is reclaimable
// immediately rather than at map garbage collection.
// Must be called with the session mutex held.
func (s *Session) releaseLocked() {
	s.chunks = nil
}
