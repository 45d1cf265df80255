package scraper

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"invader-notifier/internal/classifier"
	"invader-notifier/internal/normalize"
	"invader-notifier/internal/observability"
)

// PageSource returns the raw body of a page.
type PageSource interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

type Scraper struct {
	source    PageSource
	newsURL   string
	selectors *Selectors
	idPattern *regexp.Regexp
	logger    *observability.Logger
}

func NewScraper(source PageSource, newsURL string, selectors *Selectors, logger *observability.Logger) (*Scraper, error) {
	idPattern, err := regexp.Compile(selectors.PeriodIDPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid period id pattern: %w", err)
	}

	return &Scraper{
		source:    source,
		newsURL:   newsURL,
		selectors: selectors,
		idPattern: idPattern,
		logger:    logger.Named("scraper"),
	}, nil
}

// FetchLatest downloads the news page and returns its latest entries, oldest first.
// Fetch errors are returned as is; a page without the expected structure yields
// an empty list.
func (s *Scraper) FetchLatest(ctx context.Context) ([]NewsItem, error) {
	s.logger.Info("Starting to scrape news", "url", s.newsURL)

	body, err := s.source.FetchPage(ctx, s.newsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch news page: %w", err)
	}
	s.logger.Debug("Fetched HTML content", "bytes", len(body))

	return s.ParseNews(string(body))
}

// ParseNews extracts news items from the page HTML.
//
// Only the first period container is read, and only its first MaxEntries
// entries: the site lists months newest first and days newest first within a
// month, so these are the most recent days. That ordering is an assumption
// about the site, not something the page states.
func (s *Scraper) ParseNews(html string) ([]NewsItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	latest := doc.Find(s.selectors.PeriodContainer).FilterFunction(func(_ int, sel *goquery.Selection) bool {
		id, _ := sel.Attr("id")
		return s.idPattern.MatchString(id)
	}).First()

	if latest.Length() == 0 {
		s.logger.Info("No period container found", "selector", s.selectors.PeriodContainer)
		return nil, nil
	}

	id, _ := latest.Attr("id")
	period, err := ParsePeriodID(s.idPattern, id)
	if err != nil {
		s.logger.Warn("Unusable period container", "id", id, "error", err.Error())
		return nil, nil
	}
	s.logger.Info("Found period container", "id", id, "period", period.String())

	var items []NewsItem
	latest.Find(s.selectors.EntrySelector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= s.selectors.MaxEntries {
			return false
		}

		if item, ok := s.parseEntry(period, sel); ok {
			items = append(items, item)
		}
		return true
	})

	s.logger.Info("Found news items", "count", len(items))

	slices.SortStableFunc(items, func(a, b NewsItem) int {
		return a.Date.Compare(b.Date)
	})
	return items, nil
}

func (s *Scraper) parseEntry(period Period, sel *goquery.Selection) (NewsItem, bool) {
	text := normalize.CleanText(sel.Text())
	if text == "" {
		return NewsItem{}, false
	}
	s.logger.Debug("Processing entry", "text", normalize.Preview(text, 120))

	day, content, ok := ParseEntry(text)
	if !ok {
		s.logger.Debug("Skipping entry without day prefix", "text", normalize.Preview(text, 60))
		return NewsItem{}, false
	}

	date, err := period.Date(day)
	if err != nil {
		s.logger.Warn("Skipping entry with invalid date", "period", period.String(), "day", day, "error", err.Error())
		return NewsItem{}, false
	}

	item := NewsItem{
		Date:     date,
		Content:  content,
		Invaders: classifier.ExtractCodes(content),
		Updates:  classifier.Classify(content),
	}

	s.logger.Debug("Created news item",
		"date", item.DateString(),
		"invaders", item.Invaders,
		"updates", len(item.Updates),
	)
	return item, true
}
