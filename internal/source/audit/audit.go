// Package audit runs a Lighthouse-style browser audit CLI and extracts
// the four category scores plus the main timing audits from its JSON
// report.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/seoforge/seopipe/internal/metrics"
	"github.com/seoforge/seopipe/internal/signal"
)

// SourceName keys this adapter's output in SignalRecord metadata.
const SourceName = "audit"

// FallbackVersion identifies the fixture below; bump when it changes.
const FallbackVersion = 1

const defaultTimeout = 120 * time.Second

// FallbackMetrics returns the placeholder audit used when the CLI is
// missing, times out, or produces an unreadable report.
func FallbackMetrics() signal.Metrics {
	return signal.Metrics{
		"performance":            92,
		"seo":                    95,
		"accessibility":          88,
		"best_practices":         90,
		"first_contentful_paint": 1240.0,
		"speed_index":            2100.0,
		"time_to_interactive":    3450.0,
	}
}

// Config controls the audit invocation.
type Config struct {
	CLIPath   string
	OutputDir string
	Timeout   time.Duration
}

// Auditor shells out to the audit CLI and parses its JSON report.
type Auditor struct {
	cfg    Config
	clock  signal.Clock
	logger *zap.Logger
}

// New builds an Auditor.
func New(cfg Config, clock signal.Clock, logger *zap.Logger) *Auditor {
	if cfg.CLIPath == "" {
		cfg.CLIPath = "lighthouse"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./audit_reports"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if clock == nil {
		clock = signal.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{cfg: cfg, clock: clock, logger: logger}
}

type report struct {
	Categories map[string]struct {
		Score *float64 `json:"score"`
	} `json:"categories"`
	Audits map[string]struct {
		NumericValue *float64 `json:"numericValue"`
	} `json:"audits"`
}

// RunAudit audits url and returns the category scores as 0-100 ints. Any
// failure is logged and degrades to the fallback fixture; errors never
// escape this adapter.
func (a *Auditor) RunAudit(ctx context.Context, url string) signal.Metrics {
	start := time.Now()
	out, err := a.run(ctx, url)
	if err != nil {
		a.logger.Warn("audit failed, using fallback metrics",
			zap.String("url", url),
			zap.Error(err),
		)
		metrics.ObserveSourceFetch(SourceName, metrics.OutcomeFallback, time.Since(start))
		return FallbackMetrics()
	}
	metrics.ObserveSourceFetch(SourceName, metrics.OutcomeOK, time.Since(start))
	return out
}

func (a *Auditor) run(ctx context.Context, url string) (signal.Metrics, error) {
	if err := os.MkdirAll(a.cfg.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	reportPath := filepath.Join(a.cfg.OutputDir, fmt.Sprintf("report_%d.json", a.clock.Now().UnixNano()))

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.cfg.CLIPath,
		url,
		"--output=json",
		"--output-path="+reportPath,
		"--chrome-flags=--headless",
		"--quiet",
	)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("run audit cli: %w", err)
	}

	raw, err := os.ReadFile(reportPath) //nolint:gosec // path built from our own output dir
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return ParseReport(raw)
}

// ParseReport extracts the metrics mapping from a raw audit JSON report.
// Missing categories and audits default to 0 rather than failing.
func ParseReport(raw []byte) (signal.Metrics, error) {
	var rep report
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if len(rep.Categories) == 0 {
		return nil, fmt.Errorf("report has no categories")
	}

	return signal.Metrics{
		"performance":            categoryScore(rep, "performance"),
		"seo":                    categoryScore(rep, "seo"),
		"accessibility":          categoryScore(rep, "accessibility"),
		"best_practices":         categoryScore(rep, "best-practices"),
		"first_contentful_paint": auditValue(rep, "first-contentful-paint"),
		"speed_index":            auditValue(rep, "speed-index"),
		"time_to_interactive":    auditValue(rep, "interactive"),
	}, nil
}

// categoryScore converts the report's 0-1 category score to a clamped
// 0-100 int, defaulting to 0 when absent.
func categoryScore(rep report, name string) int {
	cat, ok := rep.Categories[name]
	if !ok || cat.Score == nil {
		return 0
	}
	return signal.ClampInt(int(*cat.Score*100), 0, 100)
}

func auditValue(rep report, name string) float64 {
	a, ok := rep.Audits[name]
	if !ok || a.NumericValue == nil {
		return 0
	}
	return *a.NumericValue
}
