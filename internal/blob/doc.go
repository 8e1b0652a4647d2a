// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

// Package blob abstracts the blob store that holds final media bytes.
//
// The Store interface has three operations (Put, Get, Delete) addressed by
// opaque URLs. A filesystem implementation serves single-node deployments;
// BreakerStore wraps any implementation with a gobreaker circuit breaker so
// a failing backend sheds load instead of blocking request goroutines.
package blob
