// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

// Package ratelimit provides a per-user fixed-window rate limiter for
// write-heavy operations such as message sends.
//
// Each user gets an independent window of MaxEvents per Window duration.
// Rate limiting failures are not errors: Allow returns a boolean decision
// the caller branches on. Stale windows are reclaimed by the shared periodic
// sweep.
package ratelimit
