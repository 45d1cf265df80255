package main

import (
	"github.com/spf13/cobra"

	"invader-notifier/internal/app"
	"invader-notifier/internal/metrics"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Fetch the news page and send notifications for new updates",
		Long: `Run one check: fetch the news page, classify the latest entries and
publish one notification per invader.

The command exits non-zero only when the configuration is invalid or the
page cannot be fetched. Delivery failures are logged and skipped.

Examples:
  # Run with the default config file
  invader-notifier check

  # Run with another config file
  invader-notifier check -c /etc/invader-notifier.yaml`,
		RunE: runCheck,
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	collector := metrics.NewCollector()
	orchestrator, err := app.Build(cfg, logger, collector)
	if err != nil {
		return err
	}

	logger.Info("Checking for invader updates", "url", cfg.Source.NewsURL)
	_, runErr := orchestrator.Run(cmd.Context())

	if cfg.Metrics.PushgatewayURL != "" {
		if err := collector.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			logger.Warn("Failed to push metrics", "url", cfg.Metrics.PushgatewayURL, "error", err.Error())
		}
	}

	return runErr
}
