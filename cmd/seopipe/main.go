// Package main wires together the signal service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/seoforge/seopipe/internal/api"
	"github.com/seoforge/seopipe/internal/archive"
	"github.com/seoforge/seopipe/internal/config"
	"github.com/seoforge/seopipe/internal/history"
	"github.com/seoforge/seopipe/internal/logging"
	"github.com/seoforge/seopipe/internal/metrics"
	"github.com/seoforge/seopipe/internal/pipeline"
	"github.com/seoforge/seopipe/internal/publisher"
	"github.com/seoforge/seopipe/internal/score"
	"github.com/seoforge/seopipe/internal/signal"
	"github.com/seoforge/seopipe/internal/source/audit"
	"github.com/seoforge/seopipe/internal/source/authority"
	"github.com/seoforge/seopipe/internal/source/content"
	"github.com/seoforge/seopipe/internal/source/page"
	"github.com/seoforge/seopipe/internal/source/techcrawl"
	"github.com/seoforge/seopipe/internal/source/trends"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var clock signal.Clock = signal.SystemClock{}

	store, err := buildHistoryStore(ctx, cfg, clock, logger)
	if err != nil {
		logger.Fatal("history store init failed", zap.Error(err))
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("history store close failed", zap.Error(closeErr))
		}
	}()

	archiver, err := buildArchive(ctx, cfg, clock, logger)
	if err != nil {
		logger.Fatal("archive init failed", zap.Error(err))
	}

	pub, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("publisher init failed", zap.Error(err))
	}
	defer func() {
		if closeErr := pub.Close(); closeErr != nil {
			logger.Warn("publisher close failed", zap.Error(closeErr))
		}
	}()

	var renderer page.Renderer
	if cfg.Page.HeadlessEnabled {
		headless := page.NewHeadless(page.HeadlessConfig{
			UserAgent:         cfg.Page.UserAgent,
			NavigationTimeout: time.Duration(cfg.Page.NavTimeoutSec) * time.Second,
		})
		defer headless.Close()
		renderer = headless
	}
	pages := page.New(page.Config{
		UserAgent:    cfg.Page.UserAgent,
		Timeout:      time.Duration(cfg.Page.TimeoutSeconds) * time.Second,
		MinBodyBytes: cfg.Page.MinBodyBytes,
	}, renderer, archiver, logger.Named("page"))

	orchestrator := pipeline.New(pipeline.Sources{
		Authority: authority.New(authority.Config{
			Endpoint: cfg.Authority.Endpoint,
			Token:    cfg.Authority.Token,
			Timeout:  time.Duration(cfg.Authority.TimeoutSeconds) * time.Second,
		}, logger.Named("authority")),
		Crawl: techcrawl.New(techcrawl.Config{
			CLIPath:   cfg.Techcrawl.CLIPath,
			OutputDir: cfg.Techcrawl.OutputDir,
			MaxDepth:  cfg.Techcrawl.MaxDepth,
			Timeout:   time.Duration(cfg.Techcrawl.TimeoutSeconds) * time.Second,
		}, clock, logger.Named("techcrawl")),
		Content: content.New(content.Config{
			Endpoint: cfg.Content.Endpoint,
			APIKey:   cfg.Content.Token,
			Timeout:  time.Duration(cfg.Content.TimeoutSeconds) * time.Second,
		}, logger.Named("content")),
		Audit: audit.New(audit.Config{
			CLIPath:   cfg.Audit.CLIPath,
			OutputDir: cfg.Audit.OutputDir,
			Timeout:   time.Duration(cfg.Audit.TimeoutSeconds) * time.Second,
		}, clock, logger.Named("audit")),
		Trends: trends.New(trends.Config{
			Endpoint:  cfg.Trends.Endpoint,
			Timeout:   time.Duration(cfg.Trends.TimeoutSeconds) * time.Second,
			Timeframe: cfg.Trends.Timeframe,
			Geo:       cfg.Trends.Geo,
		}, clock, logger.Named("trends")),
	}, clock, logger.Named("pipeline"))

	analyzer := pipeline.NewAnalyzer(pages, score.Options{
		Localization: score.LocalizationPolicy(cfg.Scoring.LocalizationPolicy),
		AltText:      score.AltTextPolicy(cfg.Scoring.AltTextPolicy),
	}, 0, logger.Named("analyzer"))

	apiServer := api.NewServer(api.Config{
		RequestTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		RateRPS:        cfg.Server.RateRPS,
		RateBurst:      cfg.Server.RateBurst,
	}, analyzer, orchestrator, store, pub, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func buildHistoryStore(ctx context.Context, cfg config.Config, clock signal.Clock, logger *zap.Logger) (history.Store, error) {
	switch cfg.History.Backend {
	case "file":
		return history.NewFileStore(history.FileConfig{
			Path:      cfg.History.Path,
			Retention: cfg.Retention(),
		}, clock, logger.Named("history"))
	case "postgres":
		return history.NewPostgresStore(ctx, history.PostgresConfig{
			DSN:       cfg.History.DSN,
			Table:     cfg.History.Table,
			Retention: cfg.Retention(),
		}, clock)
	default:
		return history.NoOp{}, nil
	}
}

func buildArchive(ctx context.Context, cfg config.Config, clock signal.Clock, logger *zap.Logger) (archive.Provider, error) {
	switch cfg.Archive.Backend {
	case "local":
		return archive.NewLocal(archive.LocalConfig{BaseDir: cfg.Archive.BaseDir}, clock)
	case "gcs":
		return archive.NewGCS(ctx, cfg.Archive.GCSBucket, clock, logger.Named("archive"))
	default:
		return archive.NoOp{}, nil
	}
}

func buildPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (publisher.Provider, error) {
	if !cfg.Publisher.Enabled {
		return publisher.NoOp{}, nil
	}
	return publisher.NewPubSub(ctx, cfg.Publisher.ProjectID, cfg.Publisher.TopicName, logger.Named("publisher"))
}
