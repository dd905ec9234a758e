// Package authority fetches domain-authority metrics (domain rating,
// backlinks, referring domains) from an Ahrefs-style HTTP API.
package authority

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/seoforge/seopipe/internal/metrics"
	"github.com/seoforge/seopipe/internal/signal"
)

// SourceName keys this adapter's output in SignalRecord metadata.
const SourceName = "authority"

const defaultTimeout = 30 * time.Second

// Config controls the authority API client.
type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// Client calls the domain-rating endpoint of the authority API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New builds an authority Client.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout, Transport: newTransport()},
		logger: logger,
	}
}

type domainRatingResponse struct {
	Domain struct {
		DomainRating   *int `json:"domain_rating"`
		Backlinks      *int `json:"backlinks"`
		RefDomains     *int `json:"refdomains"`
		OrganicTraffic *int `json:"traffic"`
	} `json:"domain"`
}

// DomainMetrics fetches authority metrics for a domain. It never fails
// past its own boundary: every error is logged and an empty mapping is
// returned, leaving the corresponding record fields absent.
func (c *Client) DomainMetrics(ctx context.Context, domain string) signal.Metrics {
	start := time.Now()
	out, err := c.fetch(ctx, domain)
	if err != nil {
		c.logger.Error("authority fetch failed",
			zap.String("domain", domain),
			zap.Error(err),
		)
		metrics.ObserveSourceFetch(SourceName, metrics.OutcomeEmpty, time.Since(start))
		return signal.Metrics{}
	}
	metrics.ObserveSourceFetch(SourceName, metrics.OutcomeOK, time.Since(start))
	c.logger.Info("authority metrics fetched", zap.String("domain", domain))
	return out
}

func (c *Client) fetch(ctx context.Context, domain string) (signal.Metrics, error) {
	endpoint := fmt.Sprintf("%s/site-explorer/domain-rating", c.cfg.Endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	q := url.Values{"target": {domain}, "mode": {"domain"}}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body domainRatingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// Missing fields default to 0 to mirror the upstream contract.
	return signal.Metrics{
		"domain_rating":     intOrZero(body.Domain.DomainRating),
		"backlinks":         intOrZero(body.Domain.Backlinks),
		"referring_domains": intOrZero(body.Domain.RefDomains),
		"organic_traffic":   intOrZero(body.Domain.OrganicTraffic),
	}, nil
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
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
