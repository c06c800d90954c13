package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/projectannie/contactd/internal/config"
	"github.com/projectannie/contactd/internal/contact"
	"github.com/projectannie/contactd/internal/notify"
)

var notifyTestCmd = &cobra.Command{
	Use:   "notify-test",
	Short: "Send a test notification through the configured provider",
	Long: `Send a test notification through the configured provider to check
credentials without submitting the contact form.

Example:
  contactd notify-test
  contactd notify-test --to ops@example.org`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logger, err := initLogger(cfg, false)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		to, _ := cmd.Flags().GetString("to")
		msg := testMessage(cfg, to)

		dispatcher, err := notify.New(notifyConfig(cfg))
		if err != nil {
			return fmt.Errorf("notification provider %q is not usable: %w", cfg.NotifyProvider, err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.DispatchTimeout)
		defer cancel()

		id, err := dispatcher.Send(ctx, msg)
		if err != nil {
			return fmt.Errorf("failed to send test notification: %w", err)
		}

		logger.Info("Test notification sent to %s (id %q)", msg.To, id)
		return nil
	},
}

func testMessage(cfg *config.Config, to string) notify.Message {
	if to == "" {
		to = cfg.ContactEmail
	}
	if to == "" {
		to = contact.DefaultTo
	}
	from := cfg.ContactFrom
	if from == "" {
		from = contact.DefaultFrom
	}

	return notify.Message{
		From:    from,
		To:      to,
		Subject: "[Contact Form] Test notification",
		HTML:    "<p>This is a test notification from contactd.</p>",
		Text:    "This is a test notification from contactd.",
	}
}
