// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

// Package typing tracks ephemeral "is typing" indicators per conversation.
//
// Signals auto-expire after a short TTL unless refreshed and can be cleared
// explicitly. Expiry is deadline-based with lazy read-side filtering and a
// periodic sweep; there are no per-signal timer objects to leak under
// repeated refreshes.
package typing
