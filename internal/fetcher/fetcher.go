// Package fetcher downloads the news page over HTTP, politely.
package fetcher

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"invader-notifier/internal/config"
	"invader-notifier/internal/observability"
)

var (
	// ErrFetch is wrapped by every failure to obtain the page.
	ErrFetch = errors.New("fetch failed")
	// ErrDisallowed means robots.txt forbids the URL for our user agent.
	ErrDisallowed = errors.New("disallowed by robots.txt")
)

type Fetcher struct {
	client      *http.Client
	http        config.HttpConfig
	backoff     backoffPolicy
	logger      *observability.Logger
	robotsCache *RobotsCache
	rateLimiter *RateLimiter
}

// page is one HTTP response with its body already read and decoded.
type page struct {
	status int
	body   []byte
}

func NewFetcher(cfg *config.Config, logger *observability.Logger) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Timeout: cfg.GetTotalTimeout(),
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: cfg.GetConnectTimeout(),
			},
		},
		http:        cfg.HTTP,
		backoff:     newBackoffPolicy(cfg.HTTP),
		logger:      logger.Named("fetcher"),
		rateLimiter: NewRateLimiter(cfg.RateLimit.RPM, cfg.RateLimit.Burst),
	}
	if cfg.Robots.Enabled {
		f.robotsCache = NewRobotsCache(cfg.GetRobotsCacheTTL(), cfg.HTTP.UserAgent, f.logger)
	}
	return f
}

// FetchPage GETs rawURL and returns the body of a 2xx response. Transport
// errors, 429 and 5xx are retried up to http.max_retries times. Every error
// wraps ErrFetch.
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %w", ErrFetch, err)
	}

	if f.robotsCache != nil && !f.robotsCache.IsAllowed(ctx, u, f.client) {
		return nil, fmt.Errorf("%w: %w: %s", ErrFetch, ErrDisallowed, rawURL)
	}

	if err := f.rateLimiter.Wait(ctx, u.Host); err != nil {
		return nil, fmt.Errorf("%w: rate limit: %w", ErrFetch, err)
	}

	var lastErr error
	for retry := 0; ; retry++ {
		if retry > 0 {
			if err := f.wait(ctx, retry, lastErr); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrFetch, err)
			}
		}

		p, err := f.get(ctx, rawURL)
		if err == nil {
			switch classifyStatus(p.status) {
			case statusOK:
				return p.body, nil
			case statusFail:
				return nil, fmt.Errorf("%w: %s returned status %d", ErrFetch, rawURL, p.status)
			}
			err = fmt.Errorf("server returned status %d", p.status)
		}
		lastErr = err

		if retry >= f.http.MaxRetries {
			break
		}
	}

	if f.http.MaxRetries == 0 {
		return nil, fmt.Errorf("%w: %w", ErrFetch, lastErr)
	}
	return nil, fmt.Errorf("%w after %d retries: %w", ErrFetch, f.http.MaxRetries, lastErr)
}

func (f *Fetcher) wait(ctx context.Context, retry int, cause error) error {
	d := f.backoff.delay(retry, rand.Float64())
	f.logger.Warn("Retrying fetch", "retry", retry, "backoff", d.String(), "error", cause.Error())

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.http.UserAgent)
	req.Header.Set("Accept-Language", f.http.AcceptLanguage)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Warn("Failed to close response body", "error", err.Error())
		}
	}()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	f.logger.Debug("Response received",
		"status", resp.StatusCode,
		"content_encoding", resp.Header.Get("Content-Encoding"),
		"body_bytes", len(body),
	)
	return &page{status: resp.StatusCode, body: body}, nil
}

// readBody decodes gzip itself since Accept-Encoding is set explicitly,
// which turns off the transport's transparent decompression.
func readBody(resp *http.Response) ([]byte, error) {
	if resp.Header.Get("Content-Encoding") != "gzip" {
		return io.ReadAll(resp.Body)
	}

	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, err
	}
	defer func() { _ = zr.Close() }()
	return io.ReadAll(zr)
}
