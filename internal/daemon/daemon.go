package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"keepmeprivate/internal/config"
	"keepmeprivate/internal/events"
	"keepmeprivate/internal/logging"
	"keepmeprivate/internal/monitor"
	"keepmeprivate/internal/notifications"
	"keepmeprivate/internal/probe"
	"keepmeprivate/internal/status"
	"keepmeprivate/internal/supervisor"
)

// Daemon coordinates the monitors and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	store      *status.Store
	bus        *events.Bus
	monitors   map[string]*monitor.Monitor
	supervisor *supervisor.Supervisor
	hotplug    *hotplugMonitor

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	State          supervisor.State
	StatusFilePath string
	LockFilePath   string
	PendingEvents  int
	Hotplug        bool
	Workers        []supervisor.WorkerHealth
}

// Option overrides a collaborator, mainly for tests.
type Option func(*options)

type options struct {
	notifier   notifications.Notifier
	camera     monitor.CameraProber
	microphone monitor.MicrophoneProber
	processes  monitor.ProcessLister
}

// WithNotifier replaces the notifier built from config.
func WithNotifier(n notifications.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithCameraProber replaces the /dev/video probe.
func WithCameraProber(p monitor.CameraProber) Option {
	return func(o *options) { o.camera = p }
}

// WithMicrophoneProber replaces the ALSA probe.
func WithMicrophoneProber(p monitor.MicrophoneProber) Option {
	return func(o *options) { o.microphone = p }
}

// WithProcessLister replaces the gopsutil lister.
func WithProcessLister(l monitor.ProcessLister) Option {
	return func(o *options) { o.processes = l }
}

// New constructs a daemon with initialized dependencies. The status file is
// created with empty sections if it does not exist yet.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store, err := status.Open(cfg.Paths.StatusFile)
	if err != nil {
		return nil, fmt.Errorf("open status store: %w", err)
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		bus:      events.NewBus(),
		monitors: make(map[string]*monitor.Monitor),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}

	workers, err := d.buildMonitors(ctx, logger, o)
	if err != nil {
		return nil, err
	}

	notifier := o.notifier
	if notifier == nil {
		notifier = notifications.NewNotifier(cfg, logger)
	}
	sink := notifications.NewSink(d.bus, notifier, notifications.SinkOptionsFromConfig(cfg, logger))
	workers = append(workers, sink)

	restart := supervisor.NoRestart
	if cfg.Supervisor.RestartOnCrash {
		restart = supervisor.RestartAlways(cfg.Supervisor.MaxRestarts)
	}
	d.supervisor = supervisor.New(supervisor.Options{
		HealthInterval:  cfg.HealthInterval(),
		ShutdownTimeout: cfg.ShutdownTimeout(),
		Restart:         restart,
		Logger:          logger,
	}, workers...)

	if cfg.Hotplug.Enabled {
		triggers := make(map[string]trigger, 2)
		if m, ok := d.monitors[status.KeyCamera]; ok {
			triggers[subsystemVideo] = m
		}
		if m, ok := d.monitors[status.KeyMicrophone]; ok {
			triggers[subsystemSound] = m
		}
		d.hotplug = newHotplugMonitor(logger, triggers)
	}
	return d, nil
}

func (d *Daemon) buildMonitors(ctx context.Context, logger *slog.Logger, o options) ([]supervisor.Worker, error) {
	var workers []supervisor.Worker
	add := func(check monitor.Check, interval time.Duration, timeout int) error {
		m, err := monitor.New(monitor.Config{
			Store:        d.store,
			Bus:          d.bus,
			PollInterval: interval,
			CheckTimeout: seconds(timeout),
			Logger:       logger,
		}, check)
		if err != nil {
			return fmt.Errorf("build %s monitor: %w", check.Key(), err)
		}
		d.monitors[check.Key()] = m
		workers = append(workers, m)
		return nil
	}

	cfg := d.cfg
	if cfg.Camera.Enabled {
		prober := o.camera
		if prober == nil {
			prober = probe.NewCameraProbe(cfg.Camera.DeviceIndex)
		}
		if err := add(monitor.NewCameraCheck(prober), cfg.CameraInterval(), cfg.Camera.CheckTimeout); err != nil {
			return nil, err
		}
	}
	if cfg.Microphone.Enabled {
		prober := o.microphone
		if prober == nil {
			prober = probe.NewMicrophoneProbe()
		}
		if err := add(monitor.NewMicrophoneCheck(prober), cfg.MicrophoneInterval(), cfg.Microphone.CheckTimeout); err != nil {
			return nil, err
		}
	}
	if cfg.Processes.Enabled {
		lister := o.processes
		if lister == nil {
			lister = probe.NewProcessLister(ctx)
		}
		if err := add(monitor.NewProcessCheck(lister, cfg.Processes.Limit), cfg.ProcessesInterval(), cfg.Processes.CheckTimeout); err != nil {
			return nil, err
		}
	}
	return workers, nil
}

// Start acquires the daemon lock and launches every worker.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another keepmeprivate daemon instance is already running")
	}

	if err := d.supervisor.Start(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("start supervisor: %w", err)
	}
	if err := d.hotplug.Start(ctx); err != nil {
		d.logger.Debug("hotplug unavailable", logging.Error(err))
	}

	d.running.Store(true)
	d.logger.Info("keepmeprivate daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("status_file", d.store.Path()),
		logging.Int("monitors", len(d.monitors)),
	)
	return nil
}

// Stop shuts the workers down and releases the daemon lock. It is safe to
// call more than once.
func (d *Daemon) Stop(ctx context.Context) {
	if !d.running.CompareAndSwap(true, false) {
		return
	}

	d.hotplug.Stop()
	if err := d.supervisor.Shutdown(ctx); err != nil {
		logging.WarnWithContext(d.logger, "supervisor shutdown reported an error", "supervisor_shutdown_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "some workers may not have exited cleanly"),
		)
	}
	d.bus.Close()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"),
			logging.String(logging.FieldImpact, "next start may report another instance"),
		)
	}
	d.logger.Info("keepmeprivate daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Status reports runtime information for the daemon.
func (d *Daemon) Status() Status {
	return Status{
		Running:        d.running.Load(),
		State:          d.supervisor.State(),
		StatusFilePath: d.store.Path(),
		LockFilePath:   d.lockPath,
		PendingEvents:  d.bus.Len(),
		Hotplug:        d.hotplug.Running(),
		Workers:        d.supervisor.HealthCheck(),
	}
}

// TriggerPoll asks the named monitor to poll immediately. It reports false
// when that monitor is not enabled.
func (d *Daemon) TriggerPoll(name string) bool {
	m, ok := d.monitors[name]
	if !ok {
		return false
	}
	m.Trigger()
	return true
}

func seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}
