package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"runtimed/pkg/types"
)

// TestMetricsMiddleware_EmitsRequestCounters verifies that wrapping a handler
// with MetricsMiddleware results in request metrics being exposed via the
// Prometheus /metrics handler.
func TestMetricsMiddleware_EmitsRequestCounters(t *testing.T) {
	// A trivial handler that returns 200 OK
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Wrap with metrics middleware and perform a request
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	MetricsMiddleware(next).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	// Scrape the default registry and ensure our metric name is present
	mrr := httptest.NewRecorder()
	mreq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	promhttp.Handler().ServeHTTP(mrr, mreq)
	if mrr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", mrr.Code)
	}
	body := mrr.Body.Bytes()
	if !bytes.Contains(body, []byte("runtimed_http_requests_total")) {
		// clip body preview to avoid large logs
		previewLen := len(body)
		if previewLen > 200 {
			previewLen = 200
		}
		t.Fatalf("expected to find runtimed_http_requests_total in metrics; got: %q", string(body[:previewLen]))
	}
}

// TestMetricsMiddleware_UsesRoutePattern ensures the metrics middleware labels
// by the chi route pattern instead of the raw URL path.
func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	// Register a parameterized route so chi can attach a pattern
	r.Get("/servers/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := MetricsMiddleware(r)

	req := httptest.NewRequest(http.MethodGet, "/servers/s1/status", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	// Scrape /metrics and assert the pattern, not the concrete id, is labeled
	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mrr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", mrr.Code)
	}
	body := mrr.Body.Bytes()
	if !bytes.Contains(body, []byte("/servers/{id}/status")) {
		preview := body
		if len(preview) > 400 {
			preview = preview[:400]
		}
		t.Fatalf("expected metrics to label by route pattern '/servers/{id}/status'; got: %q", string(preview))
	}
}

func TestIncrementBackpressure_IncrementsCounter(t *testing.T) {
	baseline := testutil.ToFloat64(backpressureTotal.WithLabelValues("queue_full"))
	IncrementBackpressure("queue_full")
	IncrementBackpressure("queue_full")
	got := testutil.ToFloat64(backpressureTotal.WithLabelValues("queue_full"))
	if got < baseline+2 {
		t.Fatalf("expected backpressure counter >= %v, got %v", baseline+2, got)
	}

	// Empty reason should default to "unspecified"
	before := testutil.ToFloat64(backpressureTotal.WithLabelValues("unspecified"))
	IncrementBackpressure("")
	after := testutil.ToFloat64(backpressureTotal.WithLabelValues("unspecified"))
	if after < before+1 {
		t.Fatalf("expected unspecified reason to increment by at least 1: before=%v after=%v", before, after)
	}
}

func TestRecordQueueDepthSetsGauges(t *testing.T) {
	recordQueueDepth(types.QueueStatusResponse{WaitingCount: 7, ProcessingCount: 2})
	if got := testutil.ToFloat64(queueWaiting); got != 7 {
		t.Fatalf("waiting gauge=%v", got)
	}
	if got := testutil.ToFloat64(queueProcessing); got != 2 {
		t.Fatalf("processing gauge=%v", got)
	}
	recordQueueDepth(types.QueueStatusResponse{})
	if got := testutil.ToFloat64(queueWaiting); got != 0 {
		t.Fatalf("waiting gauge after reset=%v", got)
	}
}

func TestRecordRunningServersSetsGauge(t *testing.T) {
	recordRunningServers(3)
	if got := testutil.ToFloat64(serversRunning); got != 3 {
		t.Fatalf("running gauge=%v", got)
	}
	recordRunningServers(0)
	if got := testutil.ToFloat64(serversRunning); got != 0 {
		t.Fatalf("running gauge after reset=%v", got)
	}
}
