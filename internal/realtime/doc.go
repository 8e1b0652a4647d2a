// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

// Package realtime fans message and typing events out to connected peers.
//
// The Hub broadcasts to local websocket clients; NATSPublisher relays the
// same events across nodes. Both sit behind the Publisher interface and are
// strictly fire-and-forget: a failed or slow delivery never blocks the
// messaging path, slow websocket clients are disconnected rather than
// buffered without bound.
package realtime
