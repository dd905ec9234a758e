package techcrawl

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSummarizeComputesHealthScore(t *testing.T) {
	t.Parallel()

	csvData := strings.Join([]string{
		"Address,Status Code,Meta Description 1,H1-1,Response Time",
		"https://example.com/,200,Welcome,Home,120",
		"https://example.com/a,200,,About,180",
		"https://example.com/b,404,,,90",
		"https://example.com/c,301,Moved,Old,60",
	}, "\n")

	m, err := Summarize(strings.NewReader(csvData))
	require.NoError(t, err)

	require.Equal(t, 4, m.IntOr("total_urls_crawled", -1))
	require.Equal(t, 1, m.IntOr("crawl_errors", -1))

	health, ok := m.Float("technical_health_score")
	require.True(t, ok)
	require.Equal(t, 75.0, health) // 1 error in 4 URLs

	breakdown := m.StatusBreakdown("status_code_breakdown")
	require.Equal(t, map[string]int{"200": 2, "404": 1, "301": 1}, breakdown)

	require.Equal(t, 2, m.IntOr("missing_meta_descriptions", -1))
	require.Equal(t, 1, m.IntOr("missing_h1_tags", -1))

	avg, ok := m.Float("avg_response_time")
	require.True(t, ok)
	require.Equal(t, 112.5, avg)
}

func TestSummarizeRejectsEmptyExport(t *testing.T) {
	t.Parallel()

	_, err := Summarize(strings.NewReader("Address,Status Code\n"))
	require.Error(t, err)
}

func TestCrawlSiteFallsBackWhenToolMissing(t *testing.T) {
	t.Parallel()

	s := New(Config{
		CLIPath:   "definitely-not-installed-spider",
		OutputDir: t.TempDir(),
		Timeout:   5 * time.Second,
	}, nil, nil)

	m := s.CrawlSite(context.Background(), "https://example.com")
	require.Equal(t, FallbackMetrics(), m)

	health, ok := m.Float("technical_health_score")
	require.True(t, ok)
	require.Equal(t, 87.5, health)
}

func TestFallbackBreakdownShape(t *testing.T) {
	t.Parallel()

	m := FallbackMetrics()
	breakdown := m.StatusBreakdown("status_code_breakdown")
	require.Equal(t, 142, breakdown["200"])
	require.Equal(t, 6, breakdown["404"])
}
