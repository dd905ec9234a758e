// Package main implements the batch analysis CLI: it analyzes a list of
// URLs and writes CSV, JSON, and report exports.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/seoforge/seopipe/internal/config"
	"github.com/seoforge/seopipe/internal/export"
	"github.com/seoforge/seopipe/internal/logging"
	"github.com/seoforge/seopipe/internal/metrics"
	"github.com/seoforge/seopipe/internal/pipeline"
	"github.com/seoforge/seopipe/internal/score"
	"github.com/seoforge/seopipe/internal/source/page"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	urlsFile := flag.String("urls", "", "File with one URL per line (positional args used otherwise)")
	outDir := flag.String("out", "./exports", "Directory for CSV/JSON/report output")
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
	metrics.Init()

	urls, err := collectURLs(*urlsFile, flag.Args())
	if err != nil {
		logger.Fatal("collect urls failed", zap.Error(err))
	}
	if len(urls) == 0 {
		logger.Fatal("no urls to analyze; pass them as arguments or via -urls")
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pages := page.New(page.Config{
		UserAgent:    cfg.Page.UserAgent,
		Timeout:      time.Duration(cfg.Page.TimeoutSeconds) * time.Second,
		MinBodyBytes: cfg.Page.MinBodyBytes,
	}, nil, nil, logger.Named("page"))

	analyzer := pipeline.NewAnalyzer(pages, score.Options{
		Localization: score.LocalizationPolicy(cfg.Scoring.LocalizationPolicy),
		AltText:      score.AltTextPolicy(cfg.Scoring.AltTextPolicy),
	}, time.Duration(cfg.Batch.DelaySeconds)*time.Second, logger.Named("analyzer"))

	logger.Info("batch analysis started", zap.Int("urls", len(urls)))
	results := analyzer.AnalyzeBatch(ctx, urls)

	if err := writeExports(*outDir, results); err != nil {
		logger.Fatal("write exports failed", zap.Error(err))
	}
	logger.Info("batch analysis complete",
		zap.Int("urls", len(urls)),
		zap.String("out", *outDir),
	)
}

func collectURLs(path string, args []string) ([]string, error) {
	if path == "" {
		return args, nil
	}
	f, err := os.Open(path) //nolint:gosec // operator-supplied input file
	if err != nil {
		return nil, fmt.Errorf("open urls file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read urls file: %w", err)
	}
	return urls, nil
}

func writeExports(dir string, results []pipeline.BatchResult) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	writers := []struct {
		name  string
		write func(*os.File) error
	}{
		{"results.csv", func(f *os.File) error { return export.WriteCSV(f, results) }},
		{"results.json", func(f *os.File) error { return export.WriteJSON(f, results) }},
		{"report.txt", func(f *os.File) error { return export.WriteReport(f, results) }},
	}
	for _, w := range writers {
		f, err := os.Create(filepath.Join(dir, w.name)) //nolint:gosec // operator-supplied output dir
		if err != nil {
			return fmt.Errorf("create %s: %w", w.name, err)
		}
		if err := w.write(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("write %s: %w", w.name, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", w.name, err)
		}
	}
	return nil
}
