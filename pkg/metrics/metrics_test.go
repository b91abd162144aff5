package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_RecordAndExpose(t *testing.T) {
	m := New("pricing")
	m.RecordPricing("CALL", "ok", time.Millisecond)
	m.RecordPricing("CALL", "ok", time.Millisecond)
	m.RecordPricing("PUT", "domain", time.Millisecond)
	m.RecordVolatilityFallback()
	m.RecordMarketData("error")
	m.RecordHTTPRequest("POST", "/api/v1/pricing/option/price", 200, 3*time.Millisecond)

	if got := testutil.ToFloat64(m.OptionsPriced.WithLabelValues("CALL", "ok")); got != 2 {
		t.Errorf("options_priced_total{CALL,ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.VolatilityFallbacks); got != 1 {
		t.Errorf("volatility_fallbacks_total = %v, want 1", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{"options_priced_total", "pricing_duration_seconds", "market_data_requests_total", "http_requests_total"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("exposition missing %s", name)
		}
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordPricing("CALL", "ok", time.Second)
	m.RecordHTTPRequest("GET", "/", 200, time.Second)
	m.RecordGRPCRequest("/x", "OK", time.Second)
	m.RecordMarketData("ok")
	m.RecordVolatilityFallback()
}
