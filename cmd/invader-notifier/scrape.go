package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"invader-notifier/internal/app"
	"invader-notifier/internal/classifier"
	"invader-notifier/internal/scraper"
)

var outputFmt string

func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Print the parsed news items without sending anything",
		Long: `Fetch and parse the news page, then print the items with their
classified updates. No notification is published.

Examples:
  invader-notifier scrape
  invader-notifier scrape -o yaml`,
		RunE: runScrape,
	}

	cmd.Flags().StringVarP(&outputFmt, "output", "o", "json", "Output format: json, yaml")

	return cmd
}

type newsItemView struct {
	Date     string              `json:"date" yaml:"date"`
	Content  string              `json:"content" yaml:"content"`
	Invaders []string            `json:"invaders" yaml:"invaders"`
	Updates  []classifier.Update `json:"updates" yaml:"updates"`
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	scr, err := app.NewNewsScraper(cfg, logger)
	if err != nil {
		return err
	}

	items, err := scr.FetchLatest(cmd.Context())
	if err != nil {
		return err
	}

	return writeItems(cmd.OutOrStdout(), items, outputFmt)
}

func writeItems(w io.Writer, items []scraper.NewsItem, format string) error {
	views := make([]newsItemView, 0, len(items))
	for _, item := range items {
		views = append(views, newsItemView{
			Date:     item.DateString(),
			Content:  item.Content,
			Invaders: item.Invaders,
			Updates:  item.Updates,
		})
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
