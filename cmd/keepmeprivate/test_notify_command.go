package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"keepmeprivate/internal/logging"
	"keepmeprivate/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the configured notifiers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			notifier := notifications.NewNotifier(cfg, logger)
			if _, disabled := notifier.(notifications.Noop); disabled {
				fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent: desktop and ntfy delivery are both disabled")
				return nil
			}

			timeout := time.Duration(cfg.Notifications.DesktopTimeout) * time.Second
			sendCtx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Notifications.RequestTimeout)*time.Second+timeout)
			defer cancel()
			message := "Checked at " + time.Now().UTC().Format(time.RFC3339)
			if err := notifier.Notify(sendCtx, "KeepMePrivate test", message, timeout); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
