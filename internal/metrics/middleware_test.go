package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func serve(h http.Handler, method, path string) int {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, http.NoBody))
	return rr.Code
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/articles/{id}/similar", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/articles/{id}/similar", "200"))
	serve(r, "GET", "/articles/a1/similar")
	serve(r, "GET", "/articles/b2/similar")

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/articles/{id}/similar", "200"))
	if got-before != 2 {
		t.Errorf("expected 2 requests under the route pattern, got %v", got-before)
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/duplicates/check", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	r.Get("/ingest/status", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.WriteHeader(http.StatusOK) // ignored
	})

	tests := []struct {
		method, path, status string
	}{
		{"POST", "/duplicates/check", "400"},
		{"GET", "/ingest/status", "503"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.status))
			serve(r, tc.method, tc.path)
			got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.status))
			if got-before != 1 {
				t.Errorf("expected one %s request, got %v", tc.status, got-before)
			}
		})
	}
}

func TestMiddleware_CollapsesUnmatchedRoutes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404"))
	for _, p := range []string{"/wp-login.php", "/.env", "/admin/config"} {
		if code := serve(r, "GET", p); code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", p, code)
		}
	}
	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404"))
	if got-before != 3 {
		t.Errorf("expected 3 unmatched requests, got %v", got-before)
	}
	if n := testutil.CollectAndCount(httpRequestsTotal, "newsvec_http_requests_total"); n == 0 {
		t.Error("expected series to be collected")
	}
}

func TestMiddleware_SkipsListedRoutes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware("/metrics"))
	r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/metrics", "200"))
	serve(r, "GET", "/metrics")
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/metrics", "200")); got != before {
		t.Errorf("skipped route must not be counted, got %v", got-before)
	}
	if v := testutil.ToFloat64(httpRequestsInFlight); v != 0 {
		t.Errorf("expected no requests in flight, got %v", v)
	}
}
