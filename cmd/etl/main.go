package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/metar-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/metar-etl/internal/adapter/kafka"
	"github.com/couchcryptid/metar-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/metar-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/metar-etl/internal/config"
	"github.com/couchcryptid/metar-etl/internal/domain"
	"github.com/couchcryptid/metar-etl/internal/metar"
	"github.com/couchcryptid/metar-etl/internal/observability"
	"github.com/couchcryptid/metar-etl/internal/pipeline"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Station lookup (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var locator domain.StationLocator
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		locator = mapbox.NewCachedLocator(client, cfg.MapboxCacheSize, metrics)
		metrics.StationLookupOn.Set(1)
		logger.Info("station lookup enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("station lookup disabled")
	}

	decoder := metar.NewDecoder(
		metar.WithClockSkew(cfg.DecodeClockSkew),
		metar.WithStrict(cfg.DecodeStrict),
	)

	// Sinks, selected by SINK.
	var (
		loaders []pipeline.BatchLoader
		writer  *kafkaadapter.Writer
		store   *sqlite.Store
		archive domain.ObservationArchive
	)
	if cfg.KafkaSinkEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loaders = append(loaders, writer)
	}
	if cfg.SQLiteSinkEnabled() {
		store, err = sqlite.Open(ctx, cfg.SQLitePath, metrics, logger)
		if err != nil {
			logger.Error("failed to open observation archive", "error", err)
			os.Exit(1)
		}
		loaders = append(loaders, store)
		archive = store
	}

	var loader pipeline.BatchLoader = pipeline.FanOutLoader(loaders)
	if len(loaders) == 1 {
		loader = loaders[0]
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	transformer := pipeline.NewTransformer(decoder, locator, logger, metrics)

	p := pipeline.New(reader, transformer, loader, logger, metrics, cfg.BatchSize)

	var limiter *rate.Limiter
	if cfg.DecodeRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.DecodeRateLimit), cfg.DecodeBurst)
	}
	handler := httpadapter.NewHandler(decoder, archive)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, handler, limiter, metrics, logger)

	logger.Info("metar etl starting",
		"source_topic", cfg.KafkaSourceTopic,
		"sink", cfg.Sink,
		"strict", cfg.DecodeStrict,
		"clock_skew", cfg.DecodeClockSkew,
	)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("sqlite close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
