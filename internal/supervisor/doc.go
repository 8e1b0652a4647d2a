// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

// Package supervisor builds the suture supervision tree that owns every
// long-running goroutine in the process: the periodic expiry sweeper, the
// realtime hub, and the HTTP server. Components themselves spawn no
// background goroutines; anything that runs continuously lives here, gets
// restarted on failure, and stops when the root context is canceled.
package supervisor
