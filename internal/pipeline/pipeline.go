// Package pipeline orchestrates the source adapters into one normalized
// SignalRecord per URL. Sources run concurrently and degrade
// independently; a failed source leaves its record fields nil, it never
// aborts the run.
package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/seoforge/seopipe/internal/metrics"
	"github.com/seoforge/seopipe/internal/signal"
)

// Source adapter seams. Each returns a loose metrics mapping; failure
// handling is the adapter's business, so none of these return errors.
type (
	// AuthoritySource provides domain-authority metrics.
	AuthoritySource interface {
		DomainMetrics(ctx context.Context, domain string) signal.Metrics
	}

	// CrawlSource provides site-wide technical-health metrics.
	CrawlSource interface {
		CrawlSite(ctx context.Context, url string) signal.Metrics
	}

	// ContentSource provides content-quality metrics for a URL and keyword.
	ContentSource interface {
		ContentScore(ctx context.Context, url, keyword string) signal.Metrics
	}

	// AuditSource provides performance-audit metrics.
	AuditSource interface {
		RunAudit(ctx context.Context, url string) signal.Metrics
	}

	// TrendSource provides keyword-interest metrics.
	TrendSource interface {
		InterestOverTime(ctx context.Context, keywords []string) signal.Metrics
	}
)

// Sources bundles the adapters fed into an Orchestrator. Nil entries
// are skipped, leaving their record fields absent.
type Sources struct {
	Authority AuthoritySource
	Crawl     CrawlSource
	Content   ContentSource
	Audit     AuditSource
	Trends    TrendSource
}

// Orchestrator fans a URL out to every configured source and merges the
// results.
type Orchestrator struct {
	sources Sources
	clock   signal.Clock
	logger  *zap.Logger
}

// New builds an Orchestrator.
func New(sources Sources, clock signal.Clock, logger *zap.Logger) *Orchestrator {
	if clock == nil {
		clock = signal.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{sources: sources, clock: clock, logger: logger}
}

// Run collects signals for url from every source and assembles the
// record. The content source receives the first keyword; the trend
// source receives all of them.
func (o *Orchestrator) Run(ctx context.Context, url string, keywords []string) signal.SignalRecord {
	domain := signal.Domain(url)
	keyword := domain
	if len(keywords) > 0 {
		keyword = keywords[0]
	}

	var (
		wg                                      sync.WaitGroup
		authority, crawl, content, audit, trend signal.Metrics
	)
	collect := func(dst *signal.Metrics, fetch func(context.Context) signal.Metrics) {
		if fetch == nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			*dst = fetch(ctx)
		}()
	}

	if s := o.sources.Authority; s != nil {
		collect(&authority, func(ctx context.Context) signal.Metrics { return s.DomainMetrics(ctx, domain) })
	}
	if s := o.sources.Crawl; s != nil {
		collect(&crawl, func(ctx context.Context) signal.Metrics { return s.CrawlSite(ctx, url) })
	}
	if s := o.sources.Content; s != nil {
		collect(&content, func(ctx context.Context) signal.Metrics { return s.ContentScore(ctx, url, keyword) })
	}
	if s := o.sources.Audit; s != nil {
		collect(&audit, func(ctx context.Context) signal.Metrics { return s.RunAudit(ctx, url) })
	}
	if s := o.sources.Trends; s != nil {
		collect(&trend, func(ctx context.Context) signal.Metrics { return s.InterestOverTime(ctx, keywords) })
	}
	wg.Wait()

	record := signal.SignalRecord{
		Timestamp: o.clock.Now(),
		URL:       url,
		Domain:    domain,

		DomainRating:     authority.IntPtr("domain_rating"),
		Backlinks:        authority.IntPtr("backlinks"),
		ReferringDomains: authority.IntPtr("referring_domains"),

		TechnicalHealthScore: crawl.FloatPtr("technical_health_score"),
		CrawlErrors:          crawl.IntPtr("crawl_errors"),
		StatusCodeBreakdown:  crawl.StatusBreakdown("status_code_breakdown"),

		ContentScore: content.IntPtr("content_score"),

		Performance:   audit.IntPtr("performance"),
		SEO:           audit.IntPtr("seo"),
		Accessibility: audit.IntPtr("accessibility"),
		BestPractices: audit.IntPtr("best_practices"),

		TrendScore: trend.FloatPtr("trend_score"),
		TrendData:  trend.TrendPoints("trend_data"),
	}

	record.Metadata = map[string]signal.Metrics{}
	for name, m := range map[string]signal.Metrics{
		"authority": authority,
		"techcrawl": crawl,
		"content":   content,
		"audit":     audit,
		"trends":    trend,
	} {
		if len(m) > 0 {
			record.Metadata[name] = m
		}
	}
	if len(record.Metadata) == 0 {
		record.Metadata = nil
	}

	o.logger.Info("pipeline run complete",
		zap.String("url", url),
		zap.String("domain", domain),
		zap.Int("sources_reporting", len(record.Metadata)),
	)
	metrics.ObserveAnalysis("pipeline", "ok")
	return record
}
