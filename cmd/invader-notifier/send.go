package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"invader-notifier/internal/metrics"
	"invader-notifier/internal/notify"
)

var (
	sendText  string
	sendColor string
)

func sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Publish a single notification",
		Long: `Publish one notification to the configured MQTT topic, using the
same retry policy as check.

Examples:
  invader-notifier send --text "7 Mar: PA_1138" --color "#00ff00"`,
		RunE: runSend,
	}

	cmd.Flags().StringVar(&sendText, "text", "", "Notification text (required)")
	cmd.Flags().StringVar(&sendColor, "color", "", "Hex color, e.g. #00ff00")
	cmd.MarkFlagRequired("text")

	return cmd
}

func runSend(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	dispatcher := notify.NewDispatcher(cfg.MQTT, notify.NewMQTTBroker(cfg.MQTT, logger), logger, metrics.Nop{})
	if outcome := dispatcher.Send(cmd.Context(), sendText, sendColor); outcome == notify.OutcomeFailed {
		return fmt.Errorf("notification not delivered")
	}
	return nil
}
