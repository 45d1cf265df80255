package scraper

import (
	"time"

	"invader-notifier/internal/classifier"
)

// NewsItem is one dated entry of the news page.
type NewsItem struct {
	// Date is a calendar date at UTC midnight.
	Date    time.Time
	Content string
	// Invaders lists every distinct code mentioned in Content, classified or not.
	Invaders []classifier.ItemCode
	Updates  []classifier.Update
}

// DateString formats Date as YYYY-MM-DD.
func (n NewsItem) DateString() string {
	return n.Date.Format(time.DateOnly)
}

// Selectors describes where the news live in the page.
type Selectors struct {
	PeriodContainer string `yaml:"period_container"`
	PeriodIDPattern string `yaml:"period_id_pattern"`
	EntrySelector   string `yaml:"entry_selector"`
	MaxEntries      int    `yaml:"max_entries"`
}

// DefaultSelectors matches the invader-spotter news page: one div per month
// with id "moisYYYYMM", newest month first, one <p> per day, newest day first.
func DefaultSelectors() *Selectors {
	return &Selectors{
		PeriodContainer: `div[id^="mois"]`,
		PeriodIDPattern: `mois(\d{4})(\d{2})`,
		EntrySelector:   "p",
		MaxEntries:      2,
	}
}
