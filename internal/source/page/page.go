// Package page fetches a single document and extracts the on-page
// signals the score engine consumes. Unlike the other sources, a fetch
// failure here is fatal to the analysis and propagates to the caller.
package page

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/seoforge/seopipe/internal/metrics"
	"github.com/seoforge/seopipe/internal/signal"
)

// SourceName keys this adapter in fetch metrics.
const SourceName = "page"

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "Mozilla/5.0 (compatible; seopipe/1.0)"
)

// Archiver stores raw fetched bodies. Implementations live elsewhere;
// the zero value of this dependency is "no archiving".
type Archiver interface {
	Store(ctx context.Context, pageURL string, body []byte) error
}

// Renderer produces a fully rendered DOM for pages that need JavaScript.
type Renderer interface {
	Render(ctx context.Context, pageURL string) ([]byte, error)
}

// Config controls the page fetcher.
type Config struct {
	UserAgent string
	Timeout   time.Duration

	// MinBodyBytes promotes a fetch to the headless renderer when the
	// plain response body is smaller than this. Zero disables promotion.
	MinBodyBytes int
}

// Fetcher retrieves and parses a single page.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	renderer      Renderer
	archiver      Archiver
	logger        *zap.Logger
}

// New builds a Fetcher. renderer and archiver may be nil.
func New(cfg Config, renderer Renderer, archiver Archiver, logger *zap.Logger) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.WithTransport(newTransport())

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		renderer:      renderer,
		archiver:      archiver,
		logger:        logger,
	}
}

// Snapshot fetches pageURL and extracts its on-page signals.
func (f *Fetcher) Snapshot(ctx context.Context, pageURL string) (signal.PageSnapshot, error) {
	start := time.Now()
	body, err := f.fetch(ctx, pageURL)
	if err != nil {
		metrics.ObserveSourceFetch(SourceName, metrics.OutcomeEmpty, time.Since(start))
		return signal.PageSnapshot{}, fmt.Errorf("fetch page: %w", err)
	}
	metrics.ObserveSourceFetch(SourceName, metrics.OutcomeOK, time.Since(start))

	if f.archiver != nil {
		if err := f.archiver.Store(ctx, pageURL, body); err != nil {
			f.logger.Warn("archive write failed", zap.String("url", pageURL), zap.Error(err))
		}
	}

	return Extract(body, pageURL)
}

func (f *Fetcher) fetch(ctx context.Context, pageURL string) ([]byte, error) {
	body, err := f.fetchPlain(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if f.renderer != nil && f.cfg.MinBodyBytes > 0 && len(body) < f.cfg.MinBodyBytes {
		f.logger.Info("promoting fetch to headless renderer",
			zap.String("url", pageURL),
			zap.Int("plain_bytes", len(body)),
		)
		rendered, rerr := f.renderer.Render(ctx, pageURL)
		if rerr != nil {
			f.logger.Warn("headless render failed, keeping plain body",
				zap.String("url", pageURL),
				zap.Error(rerr),
			)
			return body, nil
		}
		return rendered, nil
	}
	return body, nil
}

func (f *Fetcher) fetchPlain(ctx context.Context, pageURL string) ([]byte, error) {
	collector := f.baseCollector.Clone()
	collector.UserAgent = f.cfg.UserAgent
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(f.cfg.Timeout)

	var (
		body     []byte
		status   int
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(pageURL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("visit failed: %w", err)
		}
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("response failed (status %d): %w", status, fetchErr)
	}
	if status >= 400 {
		return nil, fmt.Errorf("unexpected status %d", status)
	}
	return body, nil
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
