package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"invader-notifier/internal/observability"
)

type RobotsCache struct {
	cache     map[string]*cachedRobots
	ttl       time.Duration
	userAgent string
	mu        sync.RWMutex
	logger    *observability.Logger
}

type cachedRobots struct {
	data      *robotstxt.RobotsData
	expiresAt time.Time
}

func NewRobotsCache(ttl time.Duration, userAgent string, logger *observability.Logger) *RobotsCache {
	return &RobotsCache{
		cache:     make(map[string]*cachedRobots),
		ttl:       ttl,
		userAgent: userAgent,
		logger:    logger,
	}
}

// IsAllowed reports whether u may be fetched. An unreachable or missing
// robots.txt allows everything.
func (rc *RobotsCache) IsAllowed(ctx context.Context, u *url.URL, client *http.Client) bool {
	rc.mu.RLock()
	cached, exists := rc.cache[u.Host]
	rc.mu.RUnlock()

	if !exists || time.Now().After(cached.expiresAt) {
		data, err := rc.fetch(ctx, u, client)
		if err != nil {
			rc.logger.Debug("robots.txt unavailable, assuming allowed", "host", u.Host, "error", err.Error())
			return true
		}
		cached = &cachedRobots{data: data, expiresAt: time.Now().Add(rc.ttl)}

		rc.mu.Lock()
		rc.cache[u.Host] = cached
		rc.mu.Unlock()
	}

	return cached.data.TestAgent(u.RequestURI(), rc.userAgent)
}

func (rc *RobotsCache) fetch(ctx context.Context, u *url.URL, client *http.Client) (*robotstxt.RobotsData, error) {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", rc.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			rc.logger.Warn("Failed to close robots.txt body", "error", err.Error())
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("robots.txt status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return robotstxt.FromStatusAndBytes(resp.StatusCode, body)
}
