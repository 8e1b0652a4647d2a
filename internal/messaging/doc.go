// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

// Package messaging orchestrates the send/list/media flows across the
// rate limiter, caches, record store, blob store, upload manager, media
// pipeline, and realtime fan-out. Handlers call this package; it is the
// only place the collaborators are composed.
package messaging
