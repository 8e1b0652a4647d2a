// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/amica-social/amica/internal/blob"
	"github.com/amica-social/amica/internal/cache"
	"github.com/amica-social/amica/internal/logging"
	"github.com/amica-social/amica/internal/media"
	"github.com/amica-social/amica/internal/ratelimit"
	"github.com/amica-social/amica/internal/realtime"
	"github.com/amica-social/amica/internal/store"
	"github.com/amica-social/amica/internal/typing"
	"github.com/amica-social/amica/internal/upload"
)

// ErrRateLimited indicates the sender exceeded their message rate window.
// The API layer maps this to 429.
var ErrRateLimited = errors.New("rate limited")

// ErrUnknownMedia indicates a message referenced a media ID that does not
// exist.
var ErrUnknownMedia = errors.New("unknown media reference")

// Orchestrator composes the messaging core: rate limiter, caches, record
// store, blob store, media pipeline, upload manager, and realtime fan-out.
//
// It owns no locks of its own; every collaborator is internally
// synchronized, and store/blob calls are made without holding any
// component's lock.
type Orchestrator struct {
	store      store.Store
	blobs      blob.Store
	limiter    *ratelimit.Limiter
	typing     *typing.Tracker
	uploads    *upload.Manager
	pipeline   *media.Pipeline
	publisher  realtime.Publisher
	msgCache   *cache.Cache
	mediaCache *cache.Cache
	nowFunc    func() time.Time
}

// Deps carries the orchestrator's collaborators. All fields are required
// except Publisher, which defaults to a no-op.
type Deps struct {
	Store      store.Store
	Blobs      blob.Store
	Limiter    *ratelimit.Limiter
	Typing     *typing.Tracker
	Uploads    *upload.Manager
	Pipeline   *media.Pipeline
	Publisher  realtime.Publisher
	MsgCache   *cache.Cache
	MediaCache *cache.Cache
}

// NewOrchestrator wires the messaging core together.
//
// Parameters:
//   - deps: collaborator set; Publisher may be nil
//
// Returns an orchestrator safe for concurrent use.
func NewOrchestrator(deps Deps) *Orchestrator {
	pub := deps.Publisher
	if pub == nil {
		pub = realtime.NoopPublisher{}
	}
	return &Orchestrator{
		store:      deps.Store,
		blobs:      deps.Blobs,
		limiter:    deps.Limiter,
		typing:     deps.Typing,
		uploads:    deps.Uploads,
		pipeline:   deps.Pipeline,
		publisher:  pub,
		msgCache:   deps.MsgCache,
		mediaCache: deps.MediaCache,
		nowFunc:    time.Now,
	}
}

// SendMessage checks the sender's rate window, persists the message, and
// fans it out. Media references are verified before the write; the
// conversation's cached listing is invalidated after it.
func (o *Orchestrator) SendMessage(ctx context.Context, senderID, conversationID, body string, mediaIDs []string) (*store.Message, error) {
	if !o.limiter.Allow(senderID) {
		return nil, fmt.Errorf("%w: user %s", ErrRateLimited, senderID)
	}

	for _, id := range mediaIDs {
		if _, err := o.store.GetMedia(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownMedia, id)
			}
			return nil, fmt.Errorf("verify media reference: %w", err)
		}
	}

	msg := &store.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		MediaIDs:       mediaIDs,
		CreatedAt:      o.nowFunc().UTC(),
	}
	if err := o.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	o.msgCache.Invalidate(listKey(conversationID))

	// Sending clears the sender's typing state: the message supersedes it.
	o.typing.SetTyping(conversationID, senderID, false)

	o.publisher.PublishMessage(realtime.MessageEvent{
		ConversationID: conversationID,
		MessageID:      msg.ID,
		SenderID:       senderID,
		Body:           body,
		MediaIDs:       mediaIDs,
		Timestamp:      msg.CreatedAt,
	})

	log := logging.Ctx(ctx)
	log.Debug().
		Str("message_id", msg.ID).
		Str("conversation_id", conversationID).
		Msg("message sent")
	return msg, nil
}

// ListMessages returns the most recent messages in a conversation, newest
// first, serving repeated reads from the listing cache.
func (o *Orchestrator) ListMessages(ctx context.Context, conversationID string, limit int) ([]*store.Message, error) {
	key := listKey(conversationID)
	if cached, ok := o.msgCache.Get(key); ok {
		msgs := cached.([]*store.Message)
		if limit > 0 && limit < len(msgs) {
			msgs = msgs[:limit]
		}
		return msgs, nil
	}

	msgs, err := o.store.ListMessages(ctx, conversationID, 0)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	o.msgCache.Set(key, msgs)

	if limit > 0 && limit < len(msgs) {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

// MediaContent pairs a media record with its blob bytes.
type MediaContent struct {
	Record *store.Media
	Data   []byte
}

// GetMedia returns a media record and its bytes, serving repeated reads
// from the media cache.
func (o *Orchestrator) GetMedia(ctx context.Context, mediaID string) (*MediaContent, error) {
	record, err := o.store.GetMedia(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	key := cache.GenerateKey("media.blob", mediaID)
	if cached, ok := o.mediaCache.Get(key); ok {
		return &MediaContent{Record: record, Data: cached.([]byte)}, nil
	}

	data, err := o.blobs.Get(ctx, record.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch media blob: %w", err)
	}
	o.mediaCache.Set(key, data)

	return &MediaContent{Record: record, Data: data}, nil
}

// IngestMedia runs raw bytes through the pipeline, stores the result and
// its thumbnail, and persists the media record.
func (o *Orchestrator) IngestMedia(ctx context.Context, ownerID string, raw []byte, declaredMime string, opts media.Options) (*store.Media, error) {
	desc, err := o.pipeline.Ingest(ctx, raw, declaredMime, opts)
	if err != nil {
		return nil, err
	}

	url, err := o.blobs.Put(ctx, desc.Data)
	if err != nil {
		return nil, fmt.Errorf("store media blob: %w", err)
	}

	var thumbURL string
	if len(desc.Thumbnail) > 0 {
		thumbURL, err = o.blobs.Put(ctx, desc.Thumbnail)
		if err != nil {
			// The primary blob made it; a missing thumbnail is degraded, not
			// fatal.
			log := logging.Ctx(ctx)
			log.Warn().Err(err).Msg("failed to store thumbnail blob")
			thumbURL = ""
		}
	}

	record := &store.Media{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Mime:         desc.Mime,
		Size:         desc.Size,
		URL:          url,
		ThumbnailURL: thumbURL,
		Width:        desc.Width,
		Height:       desc.Height,
		CreatedAt:    o.nowFunc().UTC(),
	}
	if err := o.store.CreateMedia(ctx, record); err != nil {
		return nil, fmt.Errorf("persist media record: %w", err)
	}

	log := logging.Ctx(ctx)
	log.Info().
		Str("media_id", record.ID).
		Str("mime", record.Mime).
		Int64("bytes", record.Size).
		Msg("media ingested")
	return record, nil
}

// CompleteUpload assembles a finished upload session and ingests the result
// as media owned by the session's owner.
func (o *Orchestrator) CompleteUpload(ctx context.Context, sessionID, declaredMime string, opts media.Options) (*store.Media, error) {
	result, err := o.uploads.Complete(sessionID)
	if err != nil {
		return nil, err
	}
	return o.IngestMedia(ctx, result.OwnerID, result.Data, declaredMime, opts)
}

// SetTyping updates a user's typing state and fans the change out.
func (o *Orchestrator) SetTyping(conversationID, userID string, isTyping bool) {
	o.typing.SetTyping(conversationID, userID, isTyping)
	o.publisher.PublishTyping(realtime.TypingEvent{
		ConversationID: conversationID,
		UserID:         userID,
		Typing:         isTyping,
	})
}

// TypingUsers returns who is currently typing in a conversation, excluding
// the asking user.
func (o *Orchestrator) TypingUsers(conversationID, excludingUserID string) []string {
	return o.typing.AnyoneTyping(conversationID, excludingUserID)
}

func listKey(conversationID string) string {
	return cache.GenerateKey("messages.list", conversationID)
}
