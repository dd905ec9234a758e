package trends

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seoforge/seopipe/internal/signal"
)

func TestInterestOverTimeAveragesSeries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "seo,go", r.URL.Query().Get("keywords"))
		_, _ = w.Write([]byte(`{"series":{
			"seo":[{"date":"2025-06-01","interest":40},{"date":"2025-06-02","interest":60}],
			"go":[{"date":"2025-06-01","interest":80},{"date":"2025-06-02","interest":100}]
		}}`))
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL}, nil, nil)
	m := c.InterestOverTime(context.Background(), []string{"seo", "go"})

	score, ok := m.Float("trend_score")
	require.True(t, ok)
	require.Equal(t, 70.0, score) // mean of 50 and 90

	points := m.TrendPoints("trend_data")
	require.Len(t, points, 4)
	require.Equal(t, signal.TrendPoint{Date: "2025-06-01", Keyword: "seo", Interest: 40}, points[0])
}

func TestInterestOverTimeClampsOutOfRangeSamples(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"series":{"seo":[{"date":"2025-06-01","interest":180},{"date":"2025-06-02","interest":-20}]}}`))
	}))
	defer srv.Close()

	m := New(Config{Endpoint: srv.URL}, nil, nil).InterestOverTime(context.Background(), []string{"seo"})
	for _, p := range m.TrendPoints("trend_data") {
		require.GreaterOrEqual(t, p.Interest, 0)
		require.LessOrEqual(t, p.Interest, 100)
	}
}

func TestInterestOverTimeFallsBackWhenUnreachable(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c := New(Config{Endpoint: "http://127.0.0.1:1", Timeout: time.Second}, signal.FixedClock{T: now}, nil)

	m := c.InterestOverTime(context.Background(), []string{"seo", "go"})
	require.Equal(t, FallbackMetrics([]string{"seo", "go"}, now), m)

	score, ok := m.Float("trend_score")
	require.True(t, ok)
	require.Equal(t, 65.5, score)
	require.Len(t, m.TrendPoints("trend_data"), 180)
}

func TestInterestOverTimeFallsBackOnEmptySeries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"series":{}}`))
	}))
	defer srv.Close()

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	c := New(Config{Endpoint: srv.URL}, signal.FixedClock{T: now}, nil)
	m := c.InterestOverTime(context.Background(), []string{"seo"})
	require.Equal(t, FallbackMetrics([]string{"seo"}, now), m)
}
