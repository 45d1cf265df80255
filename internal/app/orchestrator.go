package app

import (
	"context"
	"fmt"
	"time"

	"invader-notifier/internal/classifier"
	"invader-notifier/internal/config"
	"invader-notifier/internal/fetcher"
	"invader-notifier/internal/metrics"
	"invader-notifier/internal/notify"
	"invader-notifier/internal/observability"
	"invader-notifier/internal/scraper"
)

// NewsSource returns the latest news items, oldest first.
type NewsSource interface {
	FetchLatest(ctx context.Context) ([]scraper.NewsItem, error)
}

// Notifier delivers one notification and never fails the run.
type Notifier interface {
	Send(ctx context.Context, text, color string) notify.Outcome
}

type Orchestrator struct {
	logger   *observability.Logger
	news     NewsSource
	notifier Notifier
	metrics  metrics.Recorder
}

func NewOrchestrator(
	logger *observability.Logger,
	news NewsSource,
	notifier Notifier,
	rec metrics.Recorder,
) *Orchestrator {
	return &Orchestrator{
		logger:   logger.Named("orchestrator"),
		news:     news,
		notifier: notifier,
		metrics:  rec,
	}
}

// NewNewsScraper builds the scraper for the configured news page, rendering
// it in a headless browser when rod is enabled.
func NewNewsScraper(cfg *config.Config, logger *observability.Logger) (*scraper.Scraper, error) {
	selectors, err := cfg.LoadSourceSelectors()
	if err != nil {
		return nil, err
	}

	var source scraper.PageSource
	if cfg.Rod.Enabled {
		source = fetcher.NewRenderFetcher(cfg, logger)
	} else {
		source = fetcher.NewFetcher(cfg, logger)
	}

	return scraper.NewScraper(source, cfg.Source.NewsURL, selectors, logger)
}

// Build wires the production pipeline from a validated config.
func Build(cfg *config.Config, logger *observability.Logger, rec metrics.Recorder) (*Orchestrator, error) {
	scr, err := NewNewsScraper(cfg, logger)
	if err != nil {
		return nil, err
	}

	dispatcher := notify.NewDispatcher(cfg.MQTT, notify.NewMQTTBroker(cfg.MQTT, logger), logger, rec)
	return NewOrchestrator(logger, scr, dispatcher, rec), nil
}

type RunStats struct {
	NewsItems int
	Updates   int
	Sent      int
	Failed    int
	Skipped   int
}

// Run fetches the latest news and sends one notification per invader per
// update, strictly in order: items oldest first, updates and codes in the
// order they were found. Only a fetch failure is returned as an error.
func (o *Orchestrator) Run(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{}

	start := time.Now()
	items, err := o.news.FetchLatest(ctx)
	o.metrics.RecordFetch(time.Since(start), err)
	if err != nil {
		o.logger.Error("Error checking for updates", "error", err.Error())
		return stats, fmt.Errorf("check for updates: %w", err)
	}

	stats.NewsItems = len(items)
	o.metrics.RecordNewsItems(len(items))

	if len(items) == 0 {
		o.logger.Info("No news items found from the last two days")
		return stats, nil
	}

	for _, item := range items {
		for _, update := range item.Updates {
			stats.Updates++
			o.metrics.RecordUpdate(string(update.Kind))
			o.dispatchUpdate(ctx, item, update, stats)
		}
	}

	o.logger.Info("Finished sending notifications",
		"news_items", stats.NewsItems,
		"updates", stats.Updates,
		"sent", stats.Sent,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

func (o *Orchestrator) dispatchUpdate(ctx context.Context, item scraper.NewsItem, update classifier.Update, stats *RunStats) {
	color := update.Kind.Color()
	o.logger.Info("Processing update", "date", item.DateString(), "type", string(update.Kind), "invaders", len(update.Codes))

	for _, code := range update.Codes {
		text := notify.Label(item.Date, code)
		o.logger.Info("Sending notification", "type", string(update.Kind), "text", text, "color", color)

		switch o.notifier.Send(ctx, text, color) {
		case notify.OutcomeSent:
			stats.Sent++
		case notify.OutcomeSkipped:
			stats.Skipped++
		default:
			stats.Failed++
		}
	}
}
