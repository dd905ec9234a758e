// Package techcrawl derives technical-health metrics by driving an
// external site-spider CLI and parsing its exported internal-URL CSV.
// The tool being absent is a first-class, non-fatal condition.
package techcrawl

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seoforge/seopipe/internal/metrics"
	"github.com/seoforge/seopipe/internal/signal"
)

// SourceName keys this adapter's output in SignalRecord metadata.
const SourceName = "techcrawl"

// FallbackVersion identifies the fixture below; bump when it changes.
const FallbackVersion = 1

const (
	defaultTimeout  = 600 * time.Second
	defaultMaxDepth = 3
)

// FallbackMetrics returns the placeholder crawl summary used when the
// spider CLI is missing, times out, or produces unusable output.
func FallbackMetrics() signal.Metrics {
	return signal.Metrics{
		"technical_health_score":    87.5,
		"total_urls_crawled":        150,
		"crawl_errors":              8,
		"status_code_breakdown":     map[string]int{"200": 142, "404": 6, "301": 2},
		"missing_meta_descriptions": 12,
		"missing_h1_tags":           5,
		"avg_response_time":         245.0,
	}
}

// Config controls the spider invocation.
type Config struct {
	CLIPath   string
	OutputDir string
	MaxDepth  int
	Timeout   time.Duration
}

// Spider shells out to the crawl CLI and summarizes its CSV export.
type Spider struct {
	cfg    Config
	clock  signal.Clock
	logger *zap.Logger
}

// New builds a Spider.
func New(cfg Config, clock signal.Clock, logger *zap.Logger) *Spider {
	if cfg.CLIPath == "" {
		cfg.CLIPath = "screamingfrogseospider"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./spider_exports"
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaultMaxDepth
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
	return &Spider{cfg: cfg, clock: clock, logger: logger}
}

// CrawlSite runs the spider against url and parses the export. Every
// failure mode (missing binary, non-zero exit, timeout, unparseable CSV)
// is logged and degrades to the fallback fixture.
func (s *Spider) CrawlSite(ctx context.Context, url string) signal.Metrics {
	start := time.Now()
	out, err := s.crawl(ctx, url)
	if err != nil {
		s.logger.Warn("spider crawl failed, using fallback metrics",
			zap.String("url", url),
			zap.Error(err),
		)
		metrics.ObserveSourceFetch(SourceName, metrics.OutcomeFallback, time.Since(start))
		return FallbackMetrics()
	}
	metrics.ObserveSourceFetch(SourceName, metrics.OutcomeOK, time.Since(start))
	return out
}

func (s *Spider) crawl(ctx context.Context, url string) (signal.Metrics, error) {
	outputDir := filepath.Join(s.cfg.OutputDir, fmt.Sprintf("crawl_%d", s.clock.Now().Unix()))
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.cfg.CLIPath,
		"--crawl", url,
		"--headless",
		"--save-crawl",
		"--export-tabs", "Internal:All,External:All",
		"--output-folder", outputDir,
		"--max-crawl-depth", strconv.Itoa(s.cfg.MaxDepth),
		"--crawl-images", "false",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("run spider: %w (output: %s)", err, truncate(out, 200))
	}

	return s.parseExport(outputDir)
}

// parseExport summarizes the internal-URL CSV: status-code histogram,
// error count (404/500/503), and a 0-100 health score from the error
// rate.
func (s *Spider) parseExport(outputDir string) (signal.Metrics, error) {
	path, err := findInternalCSV(outputDir)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) //nolint:gosec // path comes from our own export dir
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close() //nolint:errcheck

	return Summarize(f)
}

// Summarize reduces a spider internal-export CSV stream to the
// technical-health metrics mapping. Split out from parseExport so tests
// can exercise it without a filesystem export.
func Summarize(r io.Reader) (signal.Metrics, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := columnIndex(header)

	var (
		total        int
		breakdown    = map[string]int{}
		missingDesc  int
		missingH1    int
		responseSum  float64
		responseSeen int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		total++
		if i, ok := col["status code"]; ok && i < len(row) && row[i] != "" {
			breakdown[row[i]]++
		}
		if i, ok := col["meta description 1"]; ok && (i >= len(row) || strings.TrimSpace(row[i]) == "") {
			missingDesc++
		}
		if i, ok := col["h1-1"]; ok && (i >= len(row) || strings.TrimSpace(row[i]) == "") {
			missingH1++
		}
		if i, ok := col["response time"]; ok && i < len(row) {
			if v, err := strconv.ParseFloat(row[i], 64); err == nil {
				responseSum += v
				responseSeen++
			}
		}
	}
	if total == 0 {
		return nil, fmt.Errorf("export contains no rows")
	}

	errors := breakdown["404"] + breakdown["500"] + breakdown["503"]
	errorRate := float64(errors) / float64(total)
	health := signal.Clamp(100-errorRate*100, 0, 100)

	avgResponse := 0.0
	if responseSeen > 0 {
		avgResponse = signal.Round2(responseSum / float64(responseSeen))
	}

	return signal.Metrics{
		"technical_health_score":    signal.Round2(health),
		"total_urls_crawled":        total,
		"crawl_errors":              errors,
		"status_code_breakdown":     breakdown,
		"missing_meta_descriptions": missingDesc,
		"missing_h1_tags":           missingH1,
		"avg_response_time":         avgResponse,
	}, nil
}

func columnIndex(header []string) map[string]int {
	out := make(map[string]int, len(header))
	for i, name := range header {
		out[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return out
}

func findInternalCSV(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*internal*.csv"))
	if err != nil {
		return "", fmt.Errorf("glob exports: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no internal csv export in %s", dir)
	}
	return matches[0], nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
