// invader-notifier checks the Invader Spotter news page and pushes one
// notification per reported invader to an Awtrix display over MQTT.
//
// Usage:
//
//	invader-notifier -c configs/config.yaml
//	invader-notifier check -c configs/config.yaml
//	invader-notifier scrape -o yaml
//	invader-notifier send --text "7 Mar: PA_1138" --color "#00ff00"
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invader-notifier/internal/config"
	"invader-notifier/internal/observability"
)

var (
	version    = "dev"
	configPath string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invader-notifier",
		Short: "Notify an Awtrix display about Space Invader updates",
		Long: `invader-notifier reads the latest entries of the Invader Spotter news page,
classifies every reported change and publishes one MQTT notification per
invader, oldest news first.

Without a subcommand it runs check, so a cron entry can call the binary
directly.`,
		Version:       version,
		RunE:          runCheck,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the YAML config file")

	cmd.AddCommand(checkCmd())
	cmd.AddCommand(scrapeCmd())
	cmd.AddCommand(sendCmd())

	return cmd
}

// setup loads the config and builds the logger shared by every command.
func setup() (*config.Config, *observability.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, observability.NewLogger(cfg.Observability.LoggerOptions()), nil
}
