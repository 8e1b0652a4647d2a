// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

// Package cache provides a bounded, TTL-based read-through cache used for
// message lists and media blobs.
//
// Entries expire after a configurable TTL and are purged lazily on access or
// proactively by Sweep. When the configured capacity is reached, the
// oldest-inserted entry is evicted first (FIFO, not LRU): insertion order
// needs no per-access bookkeeping, keeping eviction O(1) under read-heavy
// load.
//
// The cache owns no background goroutines. Expiry sweeps are driven by the
// supervised sweeper service so process shutdown stops all timers in one
// place.
package cache
