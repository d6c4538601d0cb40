package monitor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"keepmeprivate/internal/events"
	"keepmeprivate/internal/logging"
)

// Store persists one monitor section.
type Store interface {
	Update(key string, value any) error
}

// Publisher accepts transition events.
type Publisher interface {
	Publish(ev events.Event) error
}

// Observation is the outcome of one poll.
type Observation struct {
	// Value is written to the status store under the check's key.
	Value any
	// Event is non-nil only when the poll observed a transition.
	Event events.Event
	// ProbeErr records a probe failure already folded into Value.
	ProbeErr error
}

// Check is the per-kind strategy a Monitor polls. Implementations keep their
// previous observation and are only called from the monitor's goroutine.
type Check interface {
	Key() string
	Poll(ctx context.Context, now time.Time) Observation
}

// Config holds the collaborators and cadence of a Monitor.
type Config struct {
	Store        Store
	Bus          Publisher
	PollInterval time.Duration
	CheckTimeout time.Duration
	Logger       *slog.Logger
	Clock        func() time.Time
}

// Monitor polls a Check until cancelled.
type Monitor struct {
	cfg     Config
	check   Check
	logger  *slog.Logger
	trigger chan struct{}
}

// New validates cfg and returns a monitor for check.
func New(cfg Config, check Check) (*Monitor, error) {
	if check == nil {
		return nil, errors.New("monitor check is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("monitor store is required")
	}
	if cfg.Bus == nil {
		return nil, errors.New("monitor event bus is required")
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.New("monitor poll interval must be positive")
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = cfg.PollInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	logger := logging.NewComponentLogger(cfg.Logger, "monitor").With(logging.String(logging.FieldMonitor, check.Key()))
	return &Monitor{
		cfg:     cfg,
		check:   check,
		logger:  logger,
		trigger: make(chan struct{}, 1),
	}, nil
}

// Name returns the monitor's status key.
func (m *Monitor) Name() string {
	return m.check.Key()
}

// Trigger requests an immediate poll. It never blocks; requests made while
// one is pending coalesce.
func (m *Monitor) Trigger() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled and then returns nil.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started",
		logging.String(logging.FieldEventType, "monitor_started"),
		logging.Duration("poll_interval", m.cfg.PollInterval),
	)
	defer m.logger.Info("monitor stopped", logging.String(logging.FieldEventType, "monitor_stopped"))

	for {
		if ctx.Err() != nil {
			return nil
		}
		m.poll(ctx)
		if !m.wait(ctx) {
			return nil
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	now := m.cfg.Clock().UTC()
	checkCtx, cancel := context.WithTimeout(ctx, m.cfg.CheckTimeout)
	obs := m.check.Poll(checkCtx, now)
	cancel()

	// A probe cut short by shutdown is not a real observation.
	if ctx.Err() != nil {
		return
	}

	if obs.ProbeErr != nil {
		logging.WarnWithContext(m.logger, "probe failed; recording negative observation", "probe_failed",
			logging.Error(obs.ProbeErr),
			logging.String(logging.FieldErrorHint, "check device permissions and drivers"),
			logging.String(logging.FieldImpact, "status shows the device as unavailable until the next successful poll"),
		)
	}

	if err := m.cfg.Store.Update(m.check.Key(), obs.Value); err != nil {
		logging.WarnWithContext(m.logger, "status write failed; retrying next poll", "status_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check free space and permissions on paths.status_file"),
			logging.String(logging.FieldImpact, "dashboard shows stale data for this monitor"),
		)
	}

	if obs.Event == nil {
		return
	}
	if err := m.cfg.Bus.Publish(obs.Event); err != nil {
		logging.WarnWithContext(m.logger, "event publish failed", "event_publish_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "notification for this transition is skipped"),
		)
		return
	}
	m.logger.Info("state transition",
		logging.String(logging.FieldEventType, "state_transition"),
		logging.Time("observed_at", obs.Event.At()),
	)
}

func (m *Monitor) wait(ctx context.Context) bool {
	timer := time.NewTimer(m.cfg.PollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	case <-m.trigger:
		m.logger.Debug("poll triggered early")
		return true
	}
}
