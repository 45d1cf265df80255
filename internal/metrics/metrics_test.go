package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector()

	c.RecordFetch(120*time.Millisecond, nil)
	c.RecordFetch(time.Second, errors.New("boom"))
	c.RecordNewsItems(2)
	c.RecordUpdate("addition")
	c.RecordUpdate("addition")
	c.RecordUpdate("destruction")
	c.RecordDeliveryAttempt()
	c.RecordDeliveryAttempt()
	c.RecordNotification(ResultSent)
	c.RecordNotification(ResultFailed)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.fetchFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.newsItems))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.updates.WithLabelValues("addition")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.updates.WithLabelValues("destruction")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.deliveryAttempts))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.notifications.WithLabelValues(ResultSent)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.notifications.WithLabelValues(ResultFailed)))
	assert.Equal(t, 1, testutil.CollectAndCount(c.fetchDuration))
}

func TestCollectorRegistry(t *testing.T) {
	c := NewCollector()
	c.RecordNewsItems(1)
	c.RecordUpdate("other")

	n, err := testutil.GatherAndCount(c.Registry(), "invader_news_items_total", "invader_updates_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCollectorPush(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewCollector()
	c.RecordNewsItems(3)

	require.NoError(t, c.Push(srv.URL, "invader_notifier"))
	assert.Equal(t, "/metrics/job/invader_notifier", gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestCollectorPushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewCollector().Push(srv.URL, "invader_notifier")
	assert.Error(t, err)
}
