// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

/*
Package upload implements the chunked upload session manager.

Large attachments arrive as fixed-size chunks in arbitrary order. A session
tracks one in-flight upload through an explicit state machine:

	active --(all chunks received)--> completing --(Complete)--> completed
	active --(Cancel)--> cancelled
	active --(idle past timeout)--> expired

Completing, completed, cancelled, and expired accept no further chunks.
Out-of-order acceptance with a bounded per-session buffer avoids whole-file
retries on a single dropped chunk, while worst-case memory stays capped by
the configured maximum file size and session expiry.

Duplicate chunk policy: resubmitting an accepted index is an idempotent
no-op. The first accepted bytes win, even when the resubmitted payload
differs, so retried requests cannot corrupt an assembly that is already
under way.

Expiry is a periodic sweep driven by the supervised sweeper service, not a
per-session timer. Progress snapshots include an ETA computed from a moving
average over the most recent chunk transfer rates.
*/
package upload
