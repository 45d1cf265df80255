package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var entryDayPattern = regexp.MustCompile(`^(\d{1,2})\s*:`)

// Period is the year and month a container of entries belongs to.
type Period struct {
	Year  int
	Month time.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// ParsePeriodID extracts year and month from a container id such as "mois202403".
// The pattern must capture the 4-digit year then the 2-digit month.
func ParsePeriodID(pattern *regexp.Regexp, id string) (Period, error) {
	matches := pattern.FindStringSubmatch(id)
	if len(matches) < 3 {
		return Period{}, fmt.Errorf("period id %q does not match %s", id, pattern)
	}

	year, err := strconv.Atoi(matches[1])
	if err != nil {
		return Period{}, fmt.Errorf("invalid year: %q: %w", matches[1], err)
	}
	month, err := strconv.Atoi(matches[2])
	if err != nil {
		return Period{}, fmt.Errorf("invalid month: %q: %w", matches[2], err)
	}
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("invalid month: %d", month)
	}

	return Period{Year: year, Month: time.Month(month)}, nil
}

// Date returns the calendar date for day in the period (UTC, 00:00:00).
// Days that do not exist in the month are rejected rather than rolled over.
func (p Period) Date(day int) (time.Time, error) {
	t := time.Date(p.Year, p.Month, day, 0, 0, 0, 0, time.UTC)
	if day < 1 || t.Month() != p.Month {
		return time.Time{}, fmt.Errorf("invalid day %d for %s", day, p)
	}
	return t, nil
}

// ParseEntry splits "7 : Ajout de PA_1138" into its day number and content.
// ok is false when the text has no leading day or no content after the colon.
func ParseEntry(text string) (day int, content string, ok bool) {
	text = strings.TrimSpace(text)
	matches := entryDayPattern.FindStringSubmatch(text)
	if matches == nil {
		return 0, "", false
	}

	day, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, "", false
	}

	content = strings.TrimSpace(text[strings.Index(text, ":")+1:])
	if content == "" {
		return 0, "", false
	}
	return day, content, true
}
