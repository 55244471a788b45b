package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200"))
	RecordAPIRequest(http.MethodGet, "/health", http.StatusOK, 5*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues(http.MethodGet, "/health", "200"))

	if after-before != 1 {
		t.Errorf("request counter delta = %v, want 1", after-before)
	}
}

func TestRecordRecommendation(t *testing.T) {
	before := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("critical"))
	RecordRecommendation("critical")
	RecordRecommendation("critical")
	after := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("critical"))

	if after-before != 2 {
		t.Errorf("recommendation counter delta = %v, want 2", after-before)
	}
}

func TestRecordMarketLookup(t *testing.T) {
	before := testutil.ToFloat64(MarketLookupsTotal.WithLabelValues("hit"))
	RecordMarketLookup("hit")
	if got := testutil.ToFloat64(MarketLookupsTotal.WithLabelValues("hit")) - before; got != 1 {
		t.Errorf("market lookup delta = %v, want 1", got)
	}
}
