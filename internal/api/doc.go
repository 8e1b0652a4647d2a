// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

// Package api provides the HTTP surface: a chi route tree under /api/v1 for
// messages, typing indicators, chunked uploads, media, and the websocket
// endpoint, plus health and Prometheus metrics. Request bodies are
// validated with go-playground/validator tags before they reach the
// messaging core, and domain errors map to stable machine-readable codes.
package api
