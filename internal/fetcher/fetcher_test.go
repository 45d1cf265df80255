package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invader-notifier/internal/config"
	"invader-notifier/internal/observability"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.HTTP.BackoffMinMS = 1
	cfg.HTTP.BackoffMaxMS = 5
	cfg.RateLimit.RPM = 6000
	cfg.RateLimit.Burst = 10
	return cfg
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPage(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			http.NotFound(w, r)
		case "/news.php":
			assert.Equal(t, "gzip", r.Header.Get("Accept-Encoding"))
			assert.NotEmpty(t, r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(`<div id="mois202403"></div>`))
		}
	})

	f := NewFetcher(testConfig(), observability.NewNop())
	body, err := f.FetchPage(context.Background(), srv.URL+"/news.php")
	require.NoError(t, err)
	assert.Equal(t, `<div id="mois202403"></div>`, string(body))
}

func TestFetchPageGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte("compressed news"))
	require.NoError(t, zw.Close())

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	})

	f := NewFetcher(testConfig(), observability.NewNop())
	body, err := f.FetchPage(context.Background(), srv.URL+"/news.php")
	require.NoError(t, err)
	assert.Equal(t, "compressed news", string(body))
}

func TestFetchPageNon2xxIsFetchError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	f := NewFetcher(testConfig(), observability.NewNop())
	_, err := f.FetchPage(context.Background(), srv.URL+"/news.php")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	cfg := testConfig()
	cfg.HTTP.MaxRetries = 2
	f := NewFetcher(cfg, observability.NewNop())

	body, err := f.FetchPage(context.Background(), srv.URL+"/news.php")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetchDoesNotRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	f := NewFetcher(testConfig(), observability.NewNop())
	_, err := f.FetchPage(context.Background(), srv.URL+"/news.php")
	assert.ErrorIs(t, err, ErrFetch)
	assert.EqualValues(t, 1, calls.Load())
}

func TestFetchTransportErrorIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/news.php"
	srv.Close()

	f := NewFetcher(testConfig(), observability.NewNop())
	_, err := f.FetchPage(context.Background(), url)
	assert.ErrorIs(t, err, ErrFetch)
}

func TestRobotsDisallow(t *testing.T) {
	var pageCalls atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /news.php\n"))
			return
		}
		pageCalls.Add(1)
	})

	f := NewFetcher(testConfig(), observability.NewNop())
	_, err := f.FetchPage(context.Background(), srv.URL+"/news.php")
	assert.ErrorIs(t, err, ErrDisallowed)
	assert.ErrorIs(t, err, ErrFetch)
	assert.EqualValues(t, 0, pageCalls.Load())

	cfg := testConfig()
	cfg.Robots.Enabled = false
	f = NewFetcher(cfg, observability.NewNop())
	_, err = f.FetchPage(context.Background(), srv.URL+"/news.php")
	assert.NoError(t, err)
	assert.EqualValues(t, 1, pageCalls.Load())
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(600, 1)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Wait(ctx, "example.com"))
	}
	elapsed := time.Since(start)

	// 10 requests per second with a burst of one: the 2nd and 3rd wait ~100ms each.
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)

	// Hosts are limited independently.
	start = time.Now()
	require.NoError(t, rl.Wait(ctx, "other.example.com"))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiterHonorsContext(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, rl.Wait(ctx, "example.com"))
	cancel()
	assert.Error(t, rl.Wait(ctx, "example.com"))
}
