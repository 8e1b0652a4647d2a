// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package media

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPNG encodes a solid-color PNG of the given dimensions.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIngestDetectsImage(t *testing.T) {
	p := NewPipeline(Config{})
	raw := testPNG(t, 100, 80)

	desc, err := p.Ingest(context.Background(), raw, "", Options{})
	require.NoError(t, err)
	assert.Equal(t, "image/png", desc.Mime)
	assert.Equal(t, int64(len(raw)), desc.Size)
	assert.Equal(t, 100, desc.Width)
	assert.Equal(t, 80, desc.Height)
	assert.Nil(t, desc.Thumbnail)
}

func TestIngestDetectionBeatsDeclaredType(t *testing.T) {
	p := NewPipeline(Config{})
	raw := testPNG(t, 10, 10)

	// Caller lies about the type; content detection wins.
	desc, err := p.Ingest(context.Background(), raw, "video/mp4", Options{})
	require.NoError(t, err)
	assert.Equal(t, "image/png", desc.Mime)
}

func TestIngestUnsupportedWithoutOverride(t *testing.T) {
	p := NewPipeline(Config{})

	// Plain text detects as nothing usable.
	_, err := p.Ingest(context.Background(), []byte("just some text"), "", Options{})
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
}

func TestIngestDeclaredTypeFallback(t *testing.T) {
	p := NewPipeline(Config{})

	// Opaque bytes plus a declared video type pass through untouched.
	raw := []byte("not really video but opaque enough\x00\x01\x02")
	desc, err := p.Ingest(context.Background(), raw, "video/mp4", Options{})
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", desc.Mime)
	assert.Equal(t, int64(len(raw)), desc.Size)
	assert.Zero(t, desc.Width)
	assert.Nil(t, desc.Thumbnail)
}

func TestIngestEmptyInput(t *testing.T) {
	p := NewPipeline(Config{})
	_, err := p.Ingest(context.Background(), nil, "image/png", Options{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestIngestCompressResizesOversizedImage(t *testing.T) {
	p := NewPipeline(Config{MaxWidth: 64, MaxHeight: 64})
	raw := testPNG(t, 200, 100)

	desc, err := p.Ingest(context.Background(), raw, "", Options{Compress: true})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", desc.Mime)
	assert.LessOrEqual(t, desc.Width, 64)
	assert.LessOrEqual(t, desc.Height, 64)
	// Aspect ratio preserved: 200x100 fit into 64x64 is 64x32.
	assert.Equal(t, 64, desc.Width)
	assert.Equal(t, 32, desc.Height)
	assert.Equal(t, int64(len(desc.Data)), desc.Size)
}

func TestIngestCompressSkipsSmallImage(t *testing.T) {
	p := NewPipeline(Config{MaxWidth: 64, MaxHeight: 64})
	raw := testPNG(t, 32, 32)

	desc, err := p.Ingest(context.Background(), raw, "", Options{Compress: true})
	require.NoError(t, err)
	// Under the bounds: no re-encode, original bytes and type kept.
	assert.Equal(t, "image/png", desc.Mime)
	assert.Equal(t, raw, desc.Data)
}

func TestIngestThumbnailWithinBudget(t *testing.T) {
	p := NewPipeline(Config{ThumbDim: 128, ThumbByteBudget: 16 * 1024})
	raw := testPNG(t, 500, 400)

	desc, err := p.Ingest(context.Background(), raw, "", Options{GenerateThumbnail: true})
	require.NoError(t, err)
	require.NotNil(t, desc.Thumbnail)
	assert.LessOrEqual(t, len(desc.Thumbnail), 16*1024)

	// Original dimensions unchanged without Compress.
	assert.Equal(t, 500, desc.Width)
	assert.Equal(t, 400, desc.Height)
}

func TestIngestBatchIsolatesFailures(t *testing.T) {
	p := NewPipeline(Config{})

	items := []BatchItem{
		{Raw: testPNG(t, 20, 20)},
		{Raw: []byte("plain text, undetectable")},
		{Raw: testPNG(t, 30, 30)},
	}

	results := p.IngestBatch(context.Background(), items)
	require.Len(t, results, 3)

	require.NoError(t, results[0].Err)
	assert.Equal(t, "image/png", results[0].Descriptor.Mime)

	assert.ErrorIs(t, results[1].Err, ErrUnsupportedMediaType)
	assert.Nil(t, results[1].Descriptor)

	require.NoError(t, results[2].Err)
	assert.Equal(t, 30, results[2].Descriptor.Width)
}

func TestIngestContextCancelled(t *testing.T) {
	p := NewPipeline(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Ingest(ctx, testPNG(t, 10, 10), "", Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
