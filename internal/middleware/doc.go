// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

// Package middleware provides chi-compatible HTTP middleware: request ID
// propagation, per-route Prometheus instrumentation, and response
// compression.
package middleware
