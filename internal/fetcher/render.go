package fetcher

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"invader-notifier/internal/config"
	"invader-notifier/internal/observability"
)

// RenderFetcher loads the page in a headless Chromium and returns the rendered
// DOM. Used when rod.enabled is set, for when the site starts building the news
// list client-side.
type RenderFetcher struct {
	cfg    *config.Config
	logger *observability.Logger
}

func NewRenderFetcher(cfg *config.Config, logger *observability.Logger) *RenderFetcher {
	return &RenderFetcher{
		cfg:    cfg,
		logger: logger.Named("render"),
	}
}

func (r *RenderFetcher) FetchPage(ctx context.Context, urlStr string) ([]byte, error) {
	l := launcher.New().Context(ctx).Headless(true)
	if r.cfg.Rod.ChromePath != "" {
		l = l.Bin(r.cfg.Rod.ChromePath)
	}
	defer l.Cleanup()

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launch browser: %w", ErrFetch, err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: connect browser: %w", ErrFetch, err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			r.logger.Warn("Failed to close browser", "error", err.Error())
		}
	}()

	page, err := browser.Timeout(r.cfg.GetRodPageTimeout()).Page(proto.TargetCreateTarget{URL: urlStr})
	if err != nil {
		return nil, fmt.Errorf("%w: open page: %w", ErrFetch, err)
	}

	if err := page.Timeout(r.cfg.GetRodWaitLoadTimeout()).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: wait load: %w", ErrFetch, err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("%w: read DOM: %w", ErrFetch, err)
	}

	r.logger.Debug("Rendered page", "url", urlStr, "bytes", len(html))
	return []byte(html), nil
}
