package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := NewRecorder(nil)

	r.ObserveRun("Completed", 2*time.Second)
	r.ObserveRun("Completed", time.Second)
	r.ObserveRun("Error", time.Second)
	r.SetFetched("posts", 120)
	r.IncFetchFailure("communities")
	r.SetSitemapFiles(5, time.Unix(1700000000, 0))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runOutcomes.WithLabelValues("Completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runOutcomes.WithLabelValues("Error")))
	assert.Equal(t, 120.0, testutil.ToFloat64(r.fetched.WithLabelValues("posts")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchFailures.WithLabelValues("communities")))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.sitemapFiles))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.lastSuccess))
}

func TestRecorderHandler(t *testing.T) {
	r := NewRecorder(nil)
	r.SetFetched("communities", 3)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `sitemapgen_fetched_entities{resource="communities"} 3`)
}
