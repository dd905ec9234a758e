package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seoforge/seopipe/internal/metrics"
	"github.com/seoforge/seopipe/internal/score"
	"github.com/seoforge/seopipe/internal/signal"
)

// PageSource fetches and extracts a single page. The page fetch is the
// one source whose failure is fatal to an analysis.
type PageSource interface {
	Snapshot(ctx context.Context, url string) (signal.PageSnapshot, error)
}

// BatchResult is one row of a batch run. Exactly one of Report and Err
// is set.
type BatchResult struct {
	URL    string             `json:"url"`
	Report *signal.PageReport `json:"report,omitempty"`
	Err    string             `json:"error,omitempty"`
}

// Analyzer runs the on-page analysis path: fetch, extract, score.
type Analyzer struct {
	pages  PageSource
	opts   score.Options
	delay  time.Duration
	logger *zap.Logger
}

// NewAnalyzer builds an Analyzer. delay is the politeness pause between
// URLs in a batch; zero disables it.
func NewAnalyzer(pages PageSource, opts score.Options, delay time.Duration, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{pages: pages, opts: opts, delay: delay, logger: logger}
}

// AnalyzeURL fetches one page and scores it.
func (a *Analyzer) AnalyzeURL(ctx context.Context, url string) (signal.PageReport, error) {
	snap, err := a.pages.Snapshot(ctx, url)
	if err != nil {
		metrics.ObserveAnalysis("page", "error")
		return signal.PageReport{}, fmt.Errorf("analyze %s: %w", url, err)
	}
	metrics.ObserveAnalysis("page", "ok")
	return score.Report(snap, a.opts), nil
}

// AnalyzeBatch analyzes urls in order, pausing between them. A failed
// URL produces an error row; it never stops the batch. Cancellation
// does: remaining URLs are returned as canceled rows.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, urls []string) []BatchResult {
	results := make([]BatchResult, 0, len(urls))
	for i, url := range urls {
		if i > 0 && a.delay > 0 {
			select {
			case <-time.After(a.delay):
			case <-ctx.Done():
			}
		}
		if err := ctx.Err(); err != nil {
			for _, rest := range urls[i:] {
				results = append(results, BatchResult{URL: rest, Err: "canceled"})
			}
			return results
		}

		report, err := a.AnalyzeURL(ctx, url)
		if err != nil {
			a.logger.Warn("batch analysis failed for url",
				zap.String("url", url),
				zap.Error(err),
			)
			results = append(results, BatchResult{URL: url, Err: err.Error()})
			continue
		}
		results = append(results, BatchResult{URL: url, Report: &report})
	}
	return results
}
