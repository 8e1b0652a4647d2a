// Amica - Social Messaging and Media Backend
// Copyright 2026 Amica Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/amica-social/amica

// Package main is the entry point for the Amica messaging server.
//
// Amica is a social messaging backend: conversations with text and media
// messages, chunked media uploads with image processing, typing
// indicators, and real-time delivery over WebSocket with optional NATS
// fan-out to other instances.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load from defaults, YAML file, and
//     AMICA_-prefixed environment variables (Koanf v2)
//  2. Message store: BadgerDB (or in-memory when no path is configured)
//  3. Blob store: sharded filesystem store behind a circuit breaker
//  4. Messaging core: caches, rate limiter, typing tracker, upload
//     sessions, media pipeline, orchestrator
//  5. Realtime: WebSocket hub, optional NATS publisher
//  6. Supervisor tree: expiry sweeper, hub, and HTTP server as
//     supervised services
//
// # Configuration
//
// See internal/config for the full schema. Common settings:
//
//	export AMICA_SERVER_PORT=8080
//	export AMICA_STORE_PATH=/data/amica/store
//	export AMICA_BLOB_PATH=/data/amica/blobs
//	export AMICA_NATS_ENABLED=true
//	export AMICA_NATS_URL=nats://nats:4222
//	./amica
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the supervisor stops the
// HTTP server (draining in-flight requests), closes WebSocket clients,
// then the stores are closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amica-social/amica/internal/api"
	"github.com/amica-social/amica/internal/blob"
	"github.com/amica-social/amica/internal/cache"
	"github.com/amica-social/amica/internal/config"
	"github.com/amica-social/amica/internal/logging"
	"github.com/amica-social/amica/internal/media"
	"github.com/amica-social/amica/internal/messaging"
	"github.com/amica-social/amica/internal/ratelimit"
	"github.com/amica-social/amica/internal/realtime"
	"github.com/amica-social/amica/internal/store"
	"github.com/amica-social/amica/internal/supervisor"
	"github.com/amica-social/amica/internal/supervisor/services"
	"github.com/amica-social/amica/internal/typing"
	"github.com/amica-social/amica/internal/upload"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("store_path", cfg.Store.Path).
		Str("blob_path", cfg.Blob.Path).
		Bool("nats_enabled", cfg.NATS.Enabled).
		Msg("Starting Amica")

	// Message store: Badger when a path is configured, in-memory
	// otherwise (development and tests).
	var msgStore store.Store
	if cfg.Store.Path != "" {
		badgerStore, err := store.OpenBadger(cfg.Store.Path)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("Failed to open message store")
		}
		msgStore = badgerStore
	} else {
		logging.Warn().Msg("No store path configured, messages are held in memory only")
		msgStore = store.NewMemStore()
	}
	defer func() {
		if err := msgStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing message store")
		}
	}()

	// Blob store behind a circuit breaker so a failing disk degrades
	// media operations instead of hanging them.
	var blobBackend blob.Store
	if cfg.Blob.Path != "" {
		fsStore, err := blob.NewFSStore(cfg.Blob.Path)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Blob.Path).Msg("Failed to open blob store")
		}
		blobBackend = fsStore
	} else {
		logging.Warn().Msg("No blob path configured, media bytes are held in memory only")
		blobBackend = blob.NewMemStore()
	}
	blobs := blob.NewBreakerStore(blobBackend, blob.BreakerConfig{
		Name:             "blob-store",
		FailureThreshold: cfg.Blob.BreakerThreshold,
		Timeout:          cfg.Blob.BreakerTimeout,
	})

	// Messaging core components. None of these own goroutines; the
	// supervised sweeper drives their expiry.
	msgCache := cache.New("messages", cfg.Cache.MessageCapacity, cfg.Cache.MessageTTL)
	mediaCache := cache.New("media", cfg.Cache.MediaCapacity, cfg.Cache.MediaTTL)
	limiter := ratelimit.New(ratelimit.Config{
		Window:    cfg.RateLimit.Window,
		MaxEvents: cfg.RateLimit.MaxEvents,
	})
	typingTracker := typing.NewTracker(typing.Config{TTL: cfg.Typing.TTL})
	uploads := upload.NewManager(upload.Config{
		DefaultChunkSize: cfg.Upload.DefaultChunkSize,
		MaxFileSize:      cfg.Upload.MaxFileSize,
		SessionTimeout:   cfg.Upload.SessionTimeout,
	})
	pipeline := media.NewPipeline(media.Config{
		MaxWidth:        cfg.Media.MaxWidth,
		MaxHeight:       cfg.Media.MaxHeight,
		Quality:         cfg.Media.Quality,
		ThumbDim:        cfg.Media.ThumbDim,
		ThumbByteBudget: cfg.Media.ThumbByteBudget,
	})

	// Realtime delivery: the local WebSocket hub always receives events;
	// NATS fan-out to other instances is optional.
	hub := realtime.NewHub()
	publishers := realtime.Fanout{hub}
	if cfg.NATS.Enabled {
		natsPub, err := realtime.Connect(cfg.NATS.URL)
		if err != nil {
			logging.Fatal().Err(err).Str("url", cfg.NATS.URL).Msg("Failed to connect to NATS")
		}
		defer natsPub.Close()
		publishers = append(publishers, natsPub)
		logging.Info().Str("url", cfg.NATS.URL).Msg("NATS event fan-out enabled")
	}

	orch := messaging.NewOrchestrator(messaging.Deps{
		Store:      msgStore,
		Blobs:      blobs,
		Limiter:    limiter,
		Typing:     typingTracker,
		Uploads:    uploads,
		Pipeline:   pipeline,
		Publisher:  publishers,
		MsgCache:   msgCache,
		MediaCache: mediaCache,
	})

	handler := api.NewHandler(orch, uploads, hub)
	router := api.NewRouter(handler, api.RouterConfig{
		CORSAllowedOrigins: cfg.API.CORSOrigins,
		RateLimitRequests:  cfg.API.RateLimitRequests,
		RateLimitWindow:    cfg.API.RateLimitWindow,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Supervisor tree: zerolog bridged to slog for suture's event hook.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	tree.AddDataService(services.NewSweeperService(cfg.Sweep.Interval, []services.SweepTarget{
		{Name: "message-cache", Sweep: msgCache.Sweep},
		{Name: "media-cache", Sweep: mediaCache.Sweep},
		{Name: "rate-limiter", Sweep: limiter.Sweep},
		{Name: "typing-tracker", Sweep: typingTracker.Sweep},
		{Name: "upload-sessions", Sweep: uploads.SweepExpired},
	}))
	tree.AddMessagingService(services.NewHubService(hub))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("Supervisor tree starting")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
	}

	logging.Info().Msg("Amica stopped")
}
