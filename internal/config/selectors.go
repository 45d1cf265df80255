package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"invader-notifier/internal/scraper"
)

// LoadSelectors reads selector overrides from a YAML file on top of the defaults.
func LoadSelectors(filePath string) (*scraper.Selectors, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close selectors file: %v\n", closeErr)
		}
	}()

	selectors := scraper.DefaultSelectors()
	if err := yaml.NewDecoder(file).Decode(selectors); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := validateSelectors(selectors); err != nil {
		return nil, err
	}

	return selectors, nil
}

// LoadSourceSelectors returns the selectors for the news page: the file named
// by source.selectors_file if any, the built-in defaults otherwise.
func (c *Config) LoadSourceSelectors() (*scraper.Selectors, error) {
	if c.Source.SelectorsFile == "" {
		return scraper.DefaultSelectors(), nil
	}
	return LoadSelectors(c.Source.SelectorsFile)
}

func validateSelectors(s *scraper.Selectors) error {
	if s.PeriodContainer == "" {
		return invalid("period_container is required")
	}
	if s.EntrySelector == "" {
		return invalid("entry_selector is required")
	}
	if s.MaxEntries <= 0 {
		return invalid("max_entries must be > 0")
	}
	re, err := regexp.Compile(s.PeriodIDPattern)
	if err != nil {
		return invalid(fmt.Sprintf("period_id_pattern: %v", err))
	}
	if re.NumSubexp() < 2 {
		return invalid("period_id_pattern must capture year and month")
	}
	return nil
}
