package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"keepmeprivate/internal/config"
	"keepmeprivate/internal/events"
	"keepmeprivate/internal/logging"
	"keepmeprivate/internal/status"
)

const defaultReceiveTimeout = 500 * time.Millisecond

// Receiver is the consuming side of the event bus.
type Receiver interface {
	Receive(ctx context.Context, timeout time.Duration) (events.Event, error)
}

// SinkOptions tunes a Sink.
type SinkOptions struct {
	// DisplayTimeout is passed to the notifier with every alert.
	DisplayTimeout time.Duration
	// ReceiveTimeout bounds each wait on the bus.
	ReceiveTimeout time.Duration
	// Muted lists monitor keys whose events are consumed without alerting.
	Muted  map[string]bool
	Logger *slog.Logger
}

// SinkOptionsFromConfig maps the [notifications] section onto SinkOptions.
func SinkOptionsFromConfig(cfg *config.Config, logger *slog.Logger) SinkOptions {
	return SinkOptions{
		DisplayTimeout: time.Duration(cfg.Notifications.DesktopTimeout) * time.Second,
		Muted: map[string]bool{
			status.KeyCamera:     !cfg.Notifications.Camera,
			status.KeyMicrophone: !cfg.Notifications.Microphone,
			status.KeyProcesses:  !cfg.Notifications.Processes,
		},
		Logger: logger,
	}
}

// Sink drains events and delivers them as notifications.
type Sink struct {
	bus      Receiver
	notifier Notifier
	opts     SinkOptions
	logger   *slog.Logger
}

// NewSink wires a sink between bus and notifier.
func NewSink(bus Receiver, notifier Notifier, opts SinkOptions) *Sink {
	if notifier == nil {
		notifier = Noop{}
	}
	if opts.ReceiveTimeout <= 0 {
		opts.ReceiveTimeout = defaultReceiveTimeout
	}
	return &Sink{
		bus:      bus,
		notifier: notifier,
		opts:     opts,
		logger:   logging.NewComponentLogger(opts.Logger, "notifications"),
	}
}

// Name identifies the sink to the supervisor.
func (s *Sink) Name() string { return "notifications" }

// Run drains until ctx is cancelled.
func (s *Sink) Run(ctx context.Context) error { return s.Drain(ctx) }

// Drain consumes events until ctx is cancelled or the bus is closed and
// empty. Both end the loop without error.
func (s *Sink) Drain(ctx context.Context) error {
	for {
		ev, err := s.bus.Receive(ctx, s.opts.ReceiveTimeout)
		switch {
		case err == nil:
			s.deliver(ctx, ev)
		case errors.Is(err, events.ErrTimeout):
		case errors.Is(err, events.ErrClosed), ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("receive event: %w", err)
		}
	}
}

func (s *Sink) deliver(ctx context.Context, ev events.Event) {
	ctx = logging.WithMonitor(ctx, ev.Monitor())
	logger := logging.WithContext(ctx, s.logger)
	if s.opts.Muted[ev.Monitor()] {
		logger.Debug("notification muted", logging.String(logging.FieldEventType, "notification_muted"))
		return
	}
	title, message := Format(ev)
	if title == "" {
		logger.Debug("event has no notification", logging.String("event", fmt.Sprintf("%T", ev)))
		return
	}

	if err := s.notify(ctx, title, message); err != nil {
		logging.WarnWithContext(logger, "notification delivery failed", "notification_failed",
			logging.Error(err),
			logging.String("title", title),
			logging.String(logging.FieldErrorHint, "check the desktop notification service or notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "user was not alerted about this transition"),
		)
		return
	}
	logger.Info("notification sent",
		logging.String(logging.FieldEventType, "notification_sent"),
		logging.String("title", title),
	)
}

func (s *Sink) notify(ctx context.Context, title, message string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return s.notifier.Notify(ctx, title, message, s.opts.DisplayTimeout)
}
