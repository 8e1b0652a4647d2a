// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

// Package services wraps long-running components as suture services: the
// HTTP server, the realtime hub, and the shared expiry sweeper.
package services
