// Curator - Media Library Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curator

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/tomtom215/curator/internal/api"
	"github.com/tomtom215/curator/internal/config"
	"github.com/tomtom215/curator/internal/database"
	"github.com/tomtom215/curator/internal/embedding"
	"github.com/tomtom215/curator/internal/eventbus"
	"github.com/tomtom215/curator/internal/jobs"
	"github.com/tomtom215/curator/internal/logging"
	"github.com/tomtom215/curator/internal/metrics"
	"github.com/tomtom215/curator/internal/recommend/explain"
	"github.com/tomtom215/curator/internal/supervisor"
	"github.com/tomtom215/curator/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Bool("batch_enabled", cfg.Recommend.Enabled).
		Msg("Starting Curator with supervisor tree")
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	tracker, err := jobs.Open(&cfg.Jobs)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to open job tracker")
		return
	}
	defer func() {
		if err := tracker.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing job tracker")
		}
	}()

	bus := eventbus.New()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	// A nil *Client must not reach the provider as a non-nil interface.
	var textEmbedder embedding.TextEmbedder
	var embedClient *embedding.Client
	if cfg.Embedding.URL != "" {
		embedClient = embedding.NewClient(&cfg.Embedding)
		textEmbedder = embedClient
		logging.Info().
			Str("url", cfg.Embedding.URL).
			Str("model", cfg.Embedding.Model).
			Msg("Text embedding service configured")
	} else {
		logging.Info().Msg("Text embedding service disabled; custom interest boosts are skipped")
	}
	embeddings := embedding.NewProvider(db, textEmbedder, embedding.ProviderOptions{
		VectorCacheSize: cfg.Recommend.VectorCacheSize,
	})

	engine, err := initEngine(cfg, pipelineDeps{
		db:         db,
		tracker:    tracker,
		bus:        bus,
		embeddings: embeddings,
	}, logging.Logger())
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize recommendation engine")
		return
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Error().Err(err).Msg("Failed to create supervisor tree")
		return
	}

	// Pipeline layer services
	var batches api.BatchStarter
	if cfg.Recommend.Enabled {
		batchSvc, err := services.NewBatchService(engine, tracker, services.BatchServiceConfig{
			Schedule:     cfg.Recommend.Schedule,
			RunOnStartup: cfg.Recommend.RunOnStartup,
		}, logging.Logger())
		if err != nil {
			logging.Error().Err(err).Msg("Failed to create batch service")
			return
		}
		batches = batchSvc
		tree.AddPipelineService(batchSvc)
		logging.Info().Str("schedule", cfg.Recommend.Schedule).Msg("Batch service added to supervisor tree")
	} else {
		logging.Info().Msg("Batch service disabled (RECOMMEND_ENABLED=false)")
	}

	if cfg.Recommend.ExplanationsEnabled {
		tree.AddPipelineService(explain.NewWorker(bus, db, db, explain.NewTemplateGenerator()))
		logging.Info().Msg("Explanation worker added to supervisor tree")
	}

	// API layer services
	handler := api.NewHandler(engine, tracker, batches, cfg.Server.Timeout, version)
	handler.AddHealthCheck("database", db.Ping)
	if embedClient != nil {
		handler.AddHealthCheck("embedding", func(context.Context) error {
			if embedClient.State() == gobreaker.StateOpen {
				return errors.New("circuit breaker open")
			}
			return nil
		})
	}

	mwConfig := api.DefaultChiMiddlewareConfig()
	mwConfig.CORSAllowedOrigins = cfg.Server.CORSOrigins
	mwConfig.RateLimitRequests = cfg.Server.RateLimitReqs
	mwConfig.RateLimitWindow = cfg.Server.RateLimitWindow
	router := api.NewRouter(handler, api.NewChiMiddleware(mwConfig))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree...")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Str("version", version).Msg("Application stopped gracefully")
}
