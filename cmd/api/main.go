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

	"github.com/dvloznov/finance-insights/internal/api"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/gcs"
	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/llm"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/pipeline"
	"github.com/dvloznov/finance-insights/internal/statement"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Initialize logger
	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()

	extractor, err := llm.New(ctx, cfg.ExtractorLLM())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extractor model")
	}
	insightModel, err := llm.New(ctx, cfg.InsightLLM())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create insight model")
	}

	opts := pipeline.Options{
		Normalizer: statement.NewNormalizer(extractor, cfg.Normalizer()),
		Generator:  insights.NewGenerator(insightModel),
		TempDir:    cfg.TempDir,
		MaxBytes:   cfg.MaxUploadBytes(),
	}

	if cfg.EnableGCS {
		fetcher, err := gcs.NewStorageFetcher(ctx, cfg.GCSCredentialsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create storage client")
		}
		defer fetcher.Close()
		opts.Fetcher = fetcher
	}

	handler := api.NewRouter(api.RouterConfig{
		Analyzer:       pipeline.NewRunner(opts),
		MaxUploadBytes: cfg.MaxUploadBytes(),
		GCSEnabled:     cfg.EnableGCS,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	})

	// Two model calls run inside one request, so writes get a long deadline.
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("provider", cfg.Provider).
			Bool("gcs", cfg.EnableGCS).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
