package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseReportExtractsScoresAndTimings(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"categories": {
			"performance": {"score": 0.93},
			"seo": {"score": 0.88},
			"accessibility": {"score": 0.75},
			"best-practices": {"score": 1.0}
		},
		"audits": {
			"first-contentful-paint": {"numericValue": 1234.5},
			"speed-index": {"numericValue": 2200},
			"interactive": {"numericValue": 3100}
		}
	}`)

	m, err := ParseReport(raw)
	require.NoError(t, err)

	require.Equal(t, 93, m.IntOr("performance", -1))
	require.Equal(t, 88, m.IntOr("seo", -1))
	require.Equal(t, 75, m.IntOr("accessibility", -1))
	require.Equal(t, 100, m.IntOr("best_practices", -1))

	fcp, ok := m.Float("first_contentful_paint")
	require.True(t, ok)
	require.Equal(t, 1234.5, fcp)
}

func TestParseReportDefaultsMissingEntries(t *testing.T) {
	t.Parallel()

	m, err := ParseReport([]byte(`{"categories": {"performance": {"score": 0.5}}}`))
	require.NoError(t, err)

	require.Equal(t, 50, m.IntOr("performance", -1))
	require.Equal(t, 0, m.IntOr("seo", -1))

	si, ok := m.Float("speed_index")
	require.True(t, ok)
	require.Zero(t, si)
}

func TestParseReportRejectsEmptyReport(t *testing.T) {
	t.Parallel()

	_, err := ParseReport([]byte(`{}`))
	require.Error(t, err)

	_, err = ParseReport([]byte(`not json`))
	require.Error(t, err)
}

func TestRunAuditFallsBackWhenToolMissing(t *testing.T) {
	t.Parallel()

	a := New(Config{
		CLIPath:   "definitely-not-installed-audit-cli",
		OutputDir: t.TempDir(),
		Timeout:   5 * time.Second,
	}, nil, nil)

	m := a.RunAudit(context.Background(), "https://example.com")
	require.Equal(t, FallbackMetrics(), m)
	require.Equal(t, 92, m.IntOr("performance", -1))
}
