package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	newserrs "github.com/harshitpdoshi/news-app/internal/errors"
)

func TestFeedUpdated(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.FeedUpdated(1, 3, 200*time.Millisecond)
	c.FeedUpdated(2, 0, 100*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.updates))
	assert.Equal(t, float64(3), testutil.ToFloat64(c.added))
	assert.Equal(t, 1, testutil.CollectAndCount(c.latency))
}

func TestFeedFailed_ByKind(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.FeedFailed(1, newserrs.E(newserrs.KindStorage, "disk full"))
	c.FeedFailed(2, newserrs.E(newserrs.KindStorage, "locked"))
	c.FeedFailed(3, errors.New("boom"))

	assert.Equal(t, float64(2), testutil.ToFloat64(c.failures.WithLabelValues("storage_failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.failures.WithLabelValues("internal")))
}

func TestRefreshCompleted(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	at := time.Unix(1700000000, 0)
	c.RefreshCompleted(at)

	assert.Equal(t, float64(1700000000), testutil.ToFloat64(c.lastRefresh))
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.FeedUpdated(1, 1, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "newsapp_articles_added_total 1")
}
