// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

// Package config loads and validates Amica's runtime configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML
// file (located via AMICA_CONFIG or the default search paths), then
// AMICA_-prefixed environment variables. Later layers override earlier
// ones. The merged result is validated before use so the process fails
// fast on bad settings.
package config
