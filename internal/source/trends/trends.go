// Package trends fetches keyword-interest time series from an
// interest-over-time HTTP service and reduces them to a trend score.
//
// The client is constructed once and reused across pipeline runs; its
// lifecycle belongs to whoever wires the pipeline, not to this package.
package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seoforge/seopipe/internal/metrics"
	"github.com/seoforge/seopipe/internal/signal"
)

// SourceName keys this adapter's output in SignalRecord metadata.
const SourceName = "trends"

// FallbackVersion identifies the synthetic series below; bump when its
// shape changes.
const FallbackVersion = 1

const (
	defaultTimeout   = 10 * time.Second
	defaultTimeframe = "today 3-m"
	defaultGeo       = "US"

	fallbackDays  = 90
	fallbackScore = 65.5
)

// FallbackMetrics builds the synthetic 90-day interest series returned
// when the trend service is unavailable. Interest oscillates between 50
// and 79 so charts stay plausible.
func FallbackMetrics(keywords []string, now time.Time) signal.Metrics {
	points := make([]signal.TrendPoint, 0, fallbackDays*len(keywords))
	base := now.AddDate(0, 0, -fallbackDays)
	for i := 0; i < fallbackDays; i++ {
		date := base.AddDate(0, 0, i).Format("2006-01-02")
		for _, kw := range keywords {
			points = append(points, signal.TrendPoint{
				Date:     date,
				Keyword:  kw,
				Interest: 50 + (i % 30),
			})
		}
	}
	perKeyword := make(map[string]float64, len(keywords))
	for _, kw := range keywords {
		perKeyword[kw] = fallbackScore
	}
	return signal.Metrics{
		"trend_score":    fallbackScore,
		"trend_data":     points,
		"keyword_scores": perKeyword,
	}
}

// Config controls the trend service client.
type Config struct {
	Endpoint  string
	Timeout   time.Duration
	Timeframe string
	Geo       string
}

// Client queries the keyword-interest service.
type Client struct {
	cfg    Config
	http   *http.Client
	clock  signal.Clock
	logger *zap.Logger
}

// New builds a trends Client.
func New(cfg Config, clock signal.Clock, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = defaultTimeframe
	}
	if cfg.Geo == "" {
		cfg.Geo = defaultGeo
	}
	if clock == nil {
		clock = signal.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		clock:  clock,
		logger: logger,
	}
}

type interestResponse struct {
	Series map[string][]struct {
		Date     string `json:"date"`
		Interest int    `json:"interest"`
	} `json:"series"`
}

// InterestOverTime fetches interest series for keywords and reduces them
// to an average trend score (two decimals). Any failure, including an
// empty series, degrades to the synthetic fallback; errors never escape.
func (c *Client) InterestOverTime(ctx context.Context, keywords []string) signal.Metrics {
	start := time.Now()
	out, err := c.fetch(ctx, keywords)
	if err != nil {
		c.logger.Error("trend fetch failed",
			zap.Strings("keywords", keywords),
			zap.Error(err),
		)
		metrics.ObserveSourceFetch(SourceName, metrics.OutcomeFallback, time.Since(start))
		return FallbackMetrics(keywords, c.clock.Now())
	}
	metrics.ObserveSourceFetch(SourceName, metrics.OutcomeOK, time.Since(start))
	return out
}

func (c *Client) fetch(ctx context.Context, keywords []string) (signal.Metrics, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("no keywords provided")
	}

	endpoint := fmt.Sprintf("%s/interest-over-time", c.cfg.Endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	q := url.Values{
		"keywords":  {strings.Join(keywords, ",")},
		"timeframe": {c.cfg.Timeframe},
		"geo":       {c.cfg.Geo},
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body interestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(body.Series) == 0 {
		return nil, fmt.Errorf("empty interest series")
	}

	var (
		points     []signal.TrendPoint
		perKeyword = make(map[string]float64, len(keywords))
		sum        float64
		counted    int
	)
	for _, kw := range keywords {
		samples, ok := body.Series[kw]
		if !ok || len(samples) == 0 {
			continue
		}
		var kwSum float64
		for _, s := range samples {
			interest := signal.ClampInt(s.Interest, 0, 100)
			points = append(points, signal.TrendPoint{
				Date:     s.Date,
				Keyword:  kw,
				Interest: interest,
			})
			kwSum += float64(interest)
		}
		avg := signal.Round2(kwSum / float64(len(samples)))
		perKeyword[kw] = avg
		sum += avg
		counted++
	}
	if counted == 0 {
		return nil, fmt.Errorf("no requested keyword present in series")
	}

	overall := signal.Round2(sum / float64(counted))
	c.logger.Info("trend score computed",
		zap.Float64("trend_score", overall),
		zap.Int("keywords", counted),
	)
	return signal.Metrics{
		"trend_score":    overall,
		"trend_data":     points,
		"keyword_scores": perKeyword,
	}, nil
}
