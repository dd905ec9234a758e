package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seoforge/seopipe/internal/signal"
)

type stubAnalyzer struct {
	report signal.PageReport
	err    error
}

func (s stubAnalyzer) AnalyzeURL(context.Context, string) (signal.PageReport, error) {
	return s.report, s.err
}

type stubPipeline struct {
	record signal.SignalRecord
}

func (s stubPipeline) Run(context.Context, string, []string) signal.SignalRecord {
	return s.record
}

type stubStore struct {
	mu        sync.Mutex
	appended  []signal.SignalRecord
	records   []signal.SignalRecord
	appendErr error
	loadErr   error
}

func (s *stubStore) Append(_ context.Context, r signal.SignalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = append(s.appended, r)
	return nil
}

func (s *stubStore) Load(context.Context) ([]signal.SignalRecord, error) {
	return s.records, s.loadErr
}

func (s *stubStore) Close() error { return nil }

func newTestServer(t *testing.T, analyzer Analyzer, pipeline Pipeline, store *stubStore) *httptest.Server {
	t.Helper()
	if store == nil {
		store = &stubStore{}
	}
	srv := NewServer(Config{}, analyzer, pipeline, store, nil, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, stubAnalyzer{}, stubPipeline{}, nil)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReadyzFailsWhenStoreUnavailable(t *testing.T) {
	t.Parallel()

	store := &stubStore{loadErr: errors.New("disk gone")}
	ts := newTestServer(t, stubAnalyzer{}, stubPipeline{}, store)

	resp, err := http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAnalyzeReturnsReport(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, stubAnalyzer{report: signal.PageReport{URL: "https://example.com", SEOScore: 72}}, stubPipeline{}, nil)

	resp, err := http.Post(ts.URL+"/v1/analyze", "application/json",
		strings.NewReader(`{"url":"https://example.com"}`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report signal.PageReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	require.Equal(t, 72, report.SEOScore)
}

func TestAnalyzeRejectsBadURLs(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, stubAnalyzer{}, stubPipeline{}, nil)

	for _, body := range []string{
		`{"url":""}`,
		`{"url":"ftp://example.com"}`,
		`{"url":"not a url"}`,
		`{invalid`,
	} {
		resp, err := http.Post(ts.URL+"/v1/analyze", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "body: %s", body)
	}
}

func TestAnalyzeMapsFetchFailureTo400(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, stubAnalyzer{err: errors.New("connection refused")}, stubPipeline{}, nil)

	resp, err := http.Post(ts.URL+"/v1/analyze", "application/json",
		strings.NewReader(`{"url":"https://unreachable.example"}`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPipelineAppendsHistoryAndReturnsRecord(t *testing.T) {
	t.Parallel()

	record := signal.SignalRecord{
		Timestamp: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		URL:       "https://example.com",
		Domain:    "example.com",
	}
	store := &stubStore{}
	ts := newTestServer(t, stubAnalyzer{}, stubPipeline{record: record}, store)

	resp, err := http.Post(ts.URL+"/v1/pipeline", "application/json",
		strings.NewReader(`{"url":"https://example.com","keywords":["seo"]}`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got signal.SignalRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "example.com", got.Domain)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.appended, 1)
}

func TestPipelineSucceedsWhenAppendFails(t *testing.T) {
	t.Parallel()

	store := &stubStore{appendErr: errors.New("disk full")}
	ts := newTestServer(t, stubAnalyzer{}, stubPipeline{record: signal.SignalRecord{URL: "https://example.com"}}, store)

	resp, err := http.Post(ts.URL+"/v1/pipeline", "application/json",
		strings.NewReader(`{"url":"https://example.com"}`))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHistoryListsRecords(t *testing.T) {
	t.Parallel()

	store := &stubStore{records: []signal.SignalRecord{
		{URL: "https://a.example"},
		{URL: "https://b.example"},
	}}
	ts := newTestServer(t, stubAnalyzer{}, stubPipeline{}, store)

	resp, err := http.Get(ts.URL + "/v1/history")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Count   int                   `json:"count"`
		Records []signal.SignalRecord `json:"records"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, 2, payload.Count)
	require.Len(t, payload.Records, 2)
}

func TestRateLimitMiddlewareRejectsBursts(t *testing.T) {
	t.Parallel()

	srv := NewServer(Config{RateRPS: 1, RateBurst: 1}, stubAnalyzer{}, stubPipeline{}, &stubStore{}, nil, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ok, limited := 0, 0
	for range 5 {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		switch resp.StatusCode {
		case http.StatusOK:
			ok++
		case http.StatusTooManyRequests:
			limited++
		}
	}
	require.GreaterOrEqual(t, ok, 1)
	require.GreaterOrEqual(t, limited, 1)
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, stubAnalyzer{}, stubPipeline{}, nil)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
