// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

// Package media transforms raw uploaded bytes into storable descriptors.
//
// The pipeline sniffs the real MIME type from content (the declared type is
// only a fallback when detection is inconclusive), resizes and re-encodes
// oversized images, and derives byte-budget-bounded thumbnails. Video and
// other non-image media pass through untouched. Batch ingest never aborts
// on a single item's failure.
package media
