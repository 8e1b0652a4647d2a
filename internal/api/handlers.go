// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/amica-social/amica/internal/logging"
	"github.com/amica-social/amica/internal/media"
	"github.com/amica-social/amica/internal/messaging"
	"github.com/amica-social/amica/internal/realtime"
	"github.com/amica-social/amica/internal/store"
	"github.com/amica-social/amica/internal/upload"
)

// maxChunkBody caps a single chunk PUT body.
const maxChunkBody = 8 << 20

// maxMediaBody caps a direct media ingest body.
const maxMediaBody = 32 << 20

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	orch     *messaging.Orchestrator
	uploads  *upload.Manager
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	started  time.Time
}

// NewHandler creates the API handler set.
func NewHandler(orch *messaging.Orchestrator, uploads *upload.Manager, hub *realtime.Hub) *Handler {
	return &Handler{
		orch:    orch,
		uploads: uploads,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin enforcement happens in the CORS layer; the upgrader
			// accepts what CORS let through.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		started: time.Now(),
	}
}

// SendMessage handles POST /api/v1/messages.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if err := validateRequest(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}
	if req.Body == "" && len(req.MediaIDs) == 0 {
		rw.BadRequest("message needs a body or media")
		return
	}

	msg, err := h.orch.SendMessage(r.Context(), req.SenderID, req.ConversationID, req.Body, req.MediaIDs)
	if err != nil {
		h.respondMessagingError(rw, err)
		return
	}
	rw.Created(msg)
}

// ListMessages handles GET /api/v1/conversations/{conversationID}/messages.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	conversationID := chi.URLParam(r, "conversationID")

	req := ListMessagesRequest{Limit: queryInt(r, "limit", 0)}
	if err := validateRequest(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	msgs, err := h.orch.ListMessages(r.Context(), conversationID, req.Limit)
	if err != nil {
		rw.InternalError("failed to list messages")
		log := logging.Ctx(r.Context())
		log.Error().Err(err).Msg("list messages failed")
		return
	}
	if msgs == nil {
		msgs = []*store.Message{}
	}
	rw.Success(msgs)
}

// SetTyping handles POST /api/v1/conversations/{conversationID}/typing.
func (h *Handler) SetTyping(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	conversationID := chi.URLParam(r, "conversationID")

	var req SetTypingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if err := validateRequest(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	h.orch.SetTyping(conversationID, req.UserID, req.Typing)
	rw.NoContent()
}

// TypingUsers handles GET /api/v1/conversations/{conversationID}/typing.
func (h *Handler) TypingUsers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	conversationID := chi.URLParam(r, "conversationID")
	excluding := r.URL.Query().Get("excluding")

	users := h.orch.TypingUsers(conversationID, excluding)
	if users == nil {
		users = []string{}
	}
	rw.Success(map[string]interface{}{"typing": users})
}

// StartUpload handles POST /api/v1/uploads.
func (h *Handler) StartUpload(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req StartUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if err := validateRequest(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	id, err := h.uploads.Start(req.OwnerID, req.Filename, req.TotalSize, req.ChunkSize)
	if err != nil {
		h.respondUploadError(rw, err)
		return
	}

	progress, _ := h.uploads.Progress(id)
	rw.Created(progress)
}

// PutChunk handles PUT /api/v1/uploads/{sessionID}/chunks/{index}. The raw
// chunk bytes are the request body.
func (h *Handler) PutChunk(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	sessionID := chi.URLParam(r, "sessionID")

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		rw.BadRequest("chunk index must be an integer")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxChunkBody+1))
	if err != nil {
		rw.BadRequest("failed to read chunk body")
		return
	}
	if len(data) > maxChunkBody {
		rw.Error(http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "chunk exceeds maximum size")
		return
	}

	progress, err := h.uploads.PutChunk(sessionID, index, data)
	if err != nil {
		h.respondUploadError(rw, err)
		return
	}
	rw.Success(progress)
}

// CompleteUpload handles POST /api/v1/uploads/{sessionID}/complete.
func (h *Handler) CompleteUpload(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	sessionID := chi.URLParam(r, "sessionID")

	var req CompleteUploadRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			rw.BadRequest("invalid JSON body")
			return
		}
		if err := validateRequest(&req); err != nil {
			rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
			return
		}
	}

	record, err := h.orch.CompleteUpload(r.Context(), sessionID, req.DeclaredMime, media.Options{
		Compress:          req.Compress,
		GenerateThumbnail: req.GenerateThumbnail,
		MaxWidth:          req.MaxWidth,
		MaxHeight:         req.MaxHeight,
		Quality:           req.Quality,
	})
	if err != nil {
		h.respondUploadError(rw, err)
		return
	}
	rw.Created(record)
}

// CancelUpload handles DELETE /api/v1/uploads/{sessionID}.
func (h *Handler) CancelUpload(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	sessionID := chi.URLParam(r, "sessionID")

	if !h.uploads.Cancel(sessionID) {
		rw.NotFound("no cancellable upload session")
		return
	}
	rw.NoContent()
}

// UploadProgress handles GET /api/v1/uploads/{sessionID}/progress.
func (h *Handler) UploadProgress(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	sessionID := chi.URLParam(r, "sessionID")

	progress, ok := h.uploads.Progress(sessionID)
	if !ok {
		rw.NotFound("unknown upload session")
		return
	}
	rw.Success(progress)
}

// IngestMedia handles POST /api/v1/media. Raw bytes in the body; owner and
// processing options as query parameters.
func (h *Handler) IngestMedia(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q := r.URL.Query()
	req := IngestMediaRequest{
		OwnerID:           q.Get("owner_id"),
		DeclaredMime:      q.Get("declared_mime"),
		Compress:          q.Get("compress") == "true",
		GenerateThumbnail: q.Get("thumbnail") == "true",
	}
	if err := validateRequest(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxMediaBody+1))
	if err != nil {
		rw.BadRequest("failed to read media body")
		return
	}
	if len(raw) > maxMediaBody {
		rw.Error(http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "media exceeds maximum size")
		return
	}

	record, err := h.orch.IngestMedia(r.Context(), req.OwnerID, raw, req.DeclaredMime, media.Options{
		Compress:          req.Compress,
		GenerateThumbnail: req.GenerateThumbnail,
	})
	if err != nil {
		h.respondMediaError(rw, err)
		return
	}
	rw.Created(record)
}

// GetMedia handles GET /api/v1/media/{mediaID}. Responds with the raw blob
// bytes, not the JSON envelope.
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	mediaID := chi.URLParam(r, "mediaID")

	content, err := h.orch.GetMedia(r.Context(), mediaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("unknown media")
			return
		}
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "media backend unavailable")
		log := logging.Ctx(r.Context())
		log.Error().Err(err).Str("media_id", mediaID).Msg("media fetch failed")
		return
	}

	w.Header().Set("Content-Type", content.Record.Mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(content.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content.Data)
}

// GetMediaRecord handles GET /api/v1/media/{mediaID}/info.
func (h *Handler) GetMediaRecord(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	mediaID := chi.URLParam(r, "mediaID")

	content, err := h.orch.GetMedia(r.Context(), mediaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("unknown media")
			return
		}
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "media backend unavailable")
		return
	}
	rw.Success(content.Record)
}

// WebSocket handles GET /api/v1/ws: upgrades the connection and attaches it
// to the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		NewResponseWriter(w, r).BadRequest("user_id query parameter is required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		log := logging.Ctx(r.Context())
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	realtime.NewClient(h.hub, conn, userID).Start()
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]interface{}{
		"status":          "ok",
		"uptime_seconds":  int64(time.Since(h.started).Seconds()),
		"upload_sessions": h.uploads.Len(),
		"ws_clients":      h.hub.ClientCount(),
	})
}

// HealthLive handles GET /api/v1/health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}

func (h *Handler) respondMessagingError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, messaging.ErrRateLimited):
		rw.TooManyRequests("message rate limit exceeded")
	case errors.Is(err, messaging.ErrUnknownMedia):
		rw.BadRequest(err.Error())
	default:
		rw.InternalError("failed to send message")
		logging.Error().Err(err).Msg("send message failed")
	}
}

func (h *Handler) respondUploadError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, upload.ErrSessionNotFound):
		rw.NotFound("unknown upload session")
	case errors.Is(err, upload.ErrSessionClosed):
		rw.Conflict(ErrCodeSessionClosed, "upload session no longer accepts operations")
	case errors.Is(err, upload.ErrNotReady):
		rw.Conflict(ErrCodeUploadNotReady, "upload is not fully received")
	case errors.Is(err, upload.ErrIncompleteUpload):
		rw.Conflict(ErrCodeUploadNotReady, "upload is missing chunks")
	case errors.Is(err, upload.ErrInvalidSize),
		errors.Is(err, upload.ErrChunkIndexOutOfRange),
		errors.Is(err, upload.ErrChunkSizeMismatch):
		rw.BadRequest(err.Error())
	case errors.Is(err, upload.ErrUploadTooLarge):
		rw.Error(http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, err.Error())
	case errors.Is(err, media.ErrUnsupportedMediaType), errors.Is(err, media.ErrEmptyInput):
		rw.Error(http.StatusUnsupportedMediaType, ErrCodeUnsupportedMedia, err.Error())
	default:
		rw.InternalError("upload operation failed")
		logging.Error().Err(err).Msg("upload operation failed")
	}
}

func (h *Handler) respondMediaError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, media.ErrUnsupportedMediaType), errors.Is(err, media.ErrEmptyInput):
		rw.Error(http.StatusUnsupportedMediaType, ErrCodeUnsupportedMedia, err.Error())
	default:
		rw.InternalError("media ingest failed")
		logging.Error().Err(err).Msg("media ingest failed")
	}
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
