package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/thames-conditions-service/internal/adapter/http"
	"github.com/couchcryptid/thames-conditions-service/internal/adapter/ea"
	kafkaadapter "github.com/couchcryptid/thames-conditions-service/internal/adapter/kafka"
	"github.com/couchcryptid/thames-conditions-service/internal/adapter/metoffice"
	"github.com/couchcryptid/thames-conditions-service/internal/config"
	"github.com/couchcryptid/thames-conditions-service/internal/memo"
	"github.com/couchcryptid/thames-conditions-service/internal/observability"
	"github.com/couchcryptid/thames-conditions-service/internal/pipeline"
	"github.com/couchcryptid/thames-conditions-service/internal/river"
	"github.com/couchcryptid/thames-conditions-service/internal/scrape"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	eaClient := ea.NewClient(cfg.HTTPTimeout, logger, metrics)
	stations := ea.NewCachedClient(eaClient, metrics,
		memo.WithBucket(cfg.CacheBucket),
		memo.WithMaxEntries(cfg.CacheSize),
	)
	riverSvc := river.NewService(stations, cfg.RiverName, logger)
	notices := scrape.NewClient(cfg.HTTPTimeout, logger, metrics)

	api := httpadapter.API{River: riverSvc, Notices: notices}

	// Met Office forecasts (feature-flagged via METOFFICE_ENABLED / METOFFICE_API_KEY).
	if cfg.MetOfficeEnabled {
		weather, err := metoffice.NewClient(cfg.MetOfficeAPIKey, cfg.HTTPTimeout, logger, metrics)
		if err != nil {
			logger.Error("failed to create met office client", "error", err)
			os.Exit(1)
		}
		api.Weather = weather
		metrics.MetOfficeEnabled.Set(1)
		logger.Info("met office forecasts enabled")
	} else {
		logger.Info("met office forecasts disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Notice publishing (enabled when KAFKA_BROKERS is set).
	var (
		publisher *pipeline.Publisher
		writer    *kafkaadapter.Writer
		ready     httpadapter.ReadinessChecker
	)
	if cfg.PublishEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = pipeline.New(notices, writer, logger, metrics, cfg.PublishInterval, nil)
		ready = publisher
		logger.Info("notice publishing enabled", "topic", cfg.KafkaTopic, "interval", cfg.PublishInterval)
	} else {
		logger.Info("notice publishing disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, api, ready, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start notice publisher.
	if publisher != nil {
		go func() {
			if err := publisher.Run(ctx); err != nil {
				logger.Error("publisher error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
