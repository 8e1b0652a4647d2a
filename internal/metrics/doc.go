// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

/*
Package metrics provides Prometheus metrics collection and export for observability.

This package instruments the messaging/media core with the Prometheus client
library, exposing counters, gauges, and histograms for the stateful components:

  - TTL caches: hits, misses, evictions, entry counts (per cache)
  - Rate limiter: allow/reject decisions, tracked user count
  - Upload sessions: active gauge, terminal outcomes, chunk/byte throughput
  - Media pipeline: ingest latency and failure reasons
  - Typing indicators: live state count
  - API: request counts and latency per endpoint
  - WebSocket: connection count, messages sent
  - Sweeps: pass duration and removal counts per target

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8080/metrics

All metrics are registered via promauto at package initialization; callers
use the package-level variables or the Record* helpers directly.
*/
package metrics
