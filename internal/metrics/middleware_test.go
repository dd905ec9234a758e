package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMiddlewarePassesThroughStatus(t *testing.T) {
	Init()

	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/v1/history", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/history", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}

func TestObserversTolerateUninitializedCollectors(t *testing.T) {
	// Observers are no-ops before Init; they must not panic.
	ObserveSourceFetch("authority", OutcomeOK, 0)
	ObserveAnalysis("page", "ok")
	ObserveHistoryAppend("ok")
	ObserveHTTPRequest(http.MethodGet, "/healthz", http.StatusOK, 0)
}
