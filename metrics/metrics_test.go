package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordersUpdateCollectors(t *testing.T) {
	before := testutil.ToFloat64(analyses.WithLabelValues("ok"))
	RecordAnalysis("ok", 250*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(analyses.WithLabelValues("ok")))

	hits := testutil.ToFloat64(cacheLookups.WithLabelValues("hit"))
	RecordCacheLookup(true)
	assert.Equal(t, hits+1, testutil.ToFloat64(cacheLookups.WithLabelValues("hit")))

	failed := testutil.ToFloat64(jobRuns.WithLabelValues("snapshot", "false"))
	RecordJob("snapshot", errors.New("boom"), time.Second)
	assert.Equal(t, failed+1, testutil.ToFloat64(jobRuns.WithLabelValues("snapshot", "false")))

	ObserveHTTP(http.MethodGet, "/health", 200, time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/health", "200")), 1.0)
}

func TestHandlerServesMetrics(t *testing.T) {
	RecordAnalysis("not_food", time.Second)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `carbculator_analysis_requests_total{outcome="not_food"}`)
}
