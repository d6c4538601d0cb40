package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"keepmeprivate/internal/config"
	"keepmeprivate/internal/logging"
)

// Notifier delivers one alert. timeout is how long the alert stays on screen
// for notifiers that display it.
type Notifier interface {
	Notify(ctx context.Context, title, message string, timeout time.Duration) error
}

// NewNotifier builds the delivery chain enabled in cfg. With nothing enabled
// it returns a notifier that discards everything.
func NewNotifier(cfg *config.Config, logger *slog.Logger) Notifier {
	if cfg == nil {
		return Noop{}
	}
	logger = logging.NewComponentLogger(logger, "notifications")

	var chain Multi
	if cfg.Notifications.Desktop {
		chain = append(chain, NewDesktop(cfg.Notifications.AppName))
	}
	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		chain = append(chain, NewNtfy(topic, time.Duration(cfg.Notifications.RequestTimeout)*time.Second))
	}

	switch len(chain) {
	case 0:
		logger.Info("notifications disabled", logging.String(logging.FieldEventType, "notifications_disabled"))
		return Noop{}
	case 1:
		return chain[0]
	default:
		return chain
	}
}

// Noop discards notifications.
type Noop struct{}

func (Noop) Notify(context.Context, string, string, time.Duration) error { return nil }

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, title, message string, timeout time.Duration) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, title, message, timeout); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
