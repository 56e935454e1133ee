package observability_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"review_proxy/internal/adapters/observability"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := observability.InitRegistry()

	// record one sample per family so they show up in the exposition
	observability.ObserveHTTP("/reviews", "GET", 200, 12*time.Millisecond)
	observability.ObserveExternal("playstore", "reviews.list", 200, 30*time.Millisecond)
	observability.ObserveCache("redis", "miss")

	mh := observability.MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, name := range []string{
		"review_proxy_http_requests_total",
		"review_proxy_external_requests_total",
		"review_proxy_token_cache_events_total",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}

func TestNewLogger_Level(t *testing.T) {
	if got := observability.NewLogger("prod", "warn").GetLevel().String(); got != "warn" {
		t.Fatalf("level: got %s", got)
	}
	if got := observability.NewLogger("dev", "bogus").GetLevel().String(); got != "info" {
		t.Fatalf("fallback level: got %s", got)
	}
}
