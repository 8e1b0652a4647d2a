// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package messaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amica-social/amica/internal/blob"
	"github.com/amica-social/amica/internal/cache"
	"github.com/amica-social/amica/internal/media"
	"github.com/amica-social/amica/internal/ratelimit"
	"github.com/amica-social/amica/internal/realtime"
	"github.com/amica-social/amica/internal/store"
	"github.com/amica-social/amica/internal/typing"
	"github.com/amica-social/amica/internal/upload"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu       sync.Mutex
	messages []realtime.MessageEvent
	typings  []realtime.TypingEvent
}

func (p *capturePublisher) PublishMessage(ev realtime.MessageEvent) {
	p.mu.Lock()
	p.messages = append(p.messages, ev)
	p.mu.Unlock()
}

func (p *capturePublisher) PublishTyping(ev realtime.TypingEvent) {
	p.mu.Lock()
	p.typings = append(p.typings, ev)
	p.mu.Unlock()
}

func newTestOrchestrator(t *testing.T, maxEvents int) (*Orchestrator, *capturePublisher) {
	t.Helper()

	pub := &capturePublisher{}
	o := NewOrchestrator(Deps{
		Store:      store.NewMemStore(),
		Blobs:      blob.NewMemStore(),
		Limiter:    ratelimit.New(ratelimit.Config{Window: time.Minute, MaxEvents: maxEvents}),
		Typing:     typing.NewTracker(typing.Config{TTL: 5 * time.Second}),
		Uploads:    upload.NewManager(upload.Config{}),
		Pipeline:   media.NewPipeline(media.Config{}),
		Publisher:  pub,
		MsgCache:   cache.New("messages-test", 128, time.Minute),
		MediaCache: cache.New("media-test", 128, time.Minute),
	})
	return o, pub
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSendMessagePersistsAndPublishes(t *testing.T) {
	o, pub := newTestOrchestrator(t, 10)
	ctx := context.Background()

	msg, err := o.SendMessage(ctx, "alice", "conv1", "hello", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)

	got, err := o.ListMessages(ctx, "conv1", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Body)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, msg.ID, pub.messages[0].MessageID)
}

func TestSendMessageRateLimited(t *testing.T) {
	o, _ := newTestOrchestrator(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := o.SendMessage(ctx, "alice", "conv1", "x", nil)
		require.NoError(t, err)
	}

	_, err := o.SendMessage(ctx, "alice", "conv1", "x", nil)
	assert.ErrorIs(t, err, ErrRateLimited)

	// Other senders are unaffected.
	_, err = o.SendMessage(ctx, "bob", "conv1", "x", nil)
	assert.NoError(t, err)
}

func TestSendMessageRejectsUnknownMedia(t *testing.T) {
	o, _ := newTestOrchestrator(t, 10)

	_, err := o.SendMessage(context.Background(), "alice", "conv1", "pic", []string{"no-such-media"})
	assert.ErrorIs(t, err, ErrUnknownMedia)
}

func TestSendMessageInvalidatesListing(t *testing.T) {
	o, _ := newTestOrchestrator(t, 10)
	ctx := context.Background()

	_, err := o.SendMessage(ctx, "alice", "conv1", "first", nil)
	require.NoError(t, err)

	// Prime the cache.
	first, err := o.ListMessages(ctx, "conv1", 10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = o.SendMessage(ctx, "alice", "conv1", "second", nil)
	require.NoError(t, err)

	// A stale cached listing would still show one message.
	second, err := o.ListMessages(ctx, "conv1", 10)
	require.NoError(t, err)
	assert.Len(t, second, 2)
	assert.Equal(t, "second", second[0].Body)
}

func TestSendMessageClearsTypingState(t *testing.T) {
	o, _ := newTestOrchestrator(t, 10)

	o.SetTyping("conv1", "alice", true)
	assert.Equal(t, []string{"alice"}, o.TypingUsers("conv1", "bob"))

	_, err := o.SendMessage(context.Background(), "alice", "conv1", "done typing", nil)
	require.NoError(t, err)
	assert.Empty(t, o.TypingUsers("conv1", "bob"))
}

func TestSetTypingPublishes(t *testing.T) {
	o, pub := newTestOrchestrator(t, 10)

	o.SetTyping("conv1", "alice", true)
	o.SetTyping("conv1", "alice", false)

	require.Len(t, pub.typings, 2)
	assert.True(t, pub.typings[0].Typing)
	assert.False(t, pub.typings[1].Typing)
}

func TestIngestAndGetMedia(t *testing.T) {
	o, _ := newTestOrchestrator(t, 10)
	ctx := context.Background()
	raw := testPNG(t, 40, 30)

	record, err := o.IngestMedia(ctx, "alice", raw, "", media.Options{})
	require.NoError(t, err)
	assert.Equal(t, "image/png", record.Mime)
	assert.Equal(t, 40, record.Width)
	assert.NotEmpty(t, record.URL)

	content, err := o.GetMedia(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, raw, content.Data)
	assert.Equal(t, record.ID, content.Record.ID)

	// Second read is served from cache; same bytes either way.
	again, err := o.GetMedia(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, raw, again.Data)

	_, err = o.GetMedia(ctx, "absent")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSendMessageWithMediaAttachment(t *testing.T) {
	o, _ := newTestOrchestrator(t, 10)
	ctx := context.Background()

	record, err := o.IngestMedia(ctx, "alice", testPNG(t, 20, 20), "", media.Options{})
	require.NoError(t, err)

	msg, err := o.SendMessage(ctx, "alice", "conv1", "see attached", []string{record.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{record.ID}, msg.MediaIDs)
}

func TestCompleteUploadIngestsMedia(t *testing.T) {
	o, _ := newTestOrchestrator(t, 10)
	ctx := context.Background()
	raw := testPNG(t, 50, 50)

	id, err := o.uploads.Start("alice", "photo.png", int64(len(raw)), int64(len(raw)))
	require.NoError(t, err)
	_, err = o.uploads.PutChunk(id, 0, raw)
	require.NoError(t, err)

	record, err := o.CompleteUpload(ctx, id, "", media.Options{GenerateThumbnail: true})
	require.NoError(t, err)
	assert.Equal(t, "alice", record.OwnerID)
	assert.Equal(t, "image/png", record.Mime)
	assert.NotEmpty(t, record.ThumbnailURL)

	content, err := o.GetMedia(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, raw, content.Data)
}

func TestCompleteUploadNotReady(t *testing.T) {
	o, _ := newTestOrchestrator(t, 10)

	id, err := o.uploads.Start("alice", "big.bin", 100, 10)
	require.NoError(t, err)

	_, err = o.CompleteUpload(context.Background(), id, "", media.Options{})
	assert.ErrorIs(t, err, upload.ErrNotReady)
}
