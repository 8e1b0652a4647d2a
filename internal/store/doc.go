// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

// Package store persists user, message, and media records.
//
// The Store interface is implemented twice: BadgerStore on an embedded
// BadgerDB for production, and MemStore for tests. Messages carry a
// secondary index per conversation so listing recent messages is a bounded
// prefix scan rather than a full table walk.
package store
