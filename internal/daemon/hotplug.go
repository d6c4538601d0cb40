package daemon

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"keepmeprivate/internal/logging"
	"keepmeprivate/internal/status"
)

const (
	subsystemVideo = "video4linux"
	subsystemSound = "sound"
)

type trigger interface {
	Trigger()
}

// hotplugMonitor listens for udev netlink events and asks the matching
// monitor to poll right away, so a plugged camera is reported before the next
// poll interval elapses.
type hotplugMonitor struct {
	logger   *slog.Logger
	triggers map[string]trigger

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// newHotplugMonitor returns nil when no subsystem has a monitor attached.
func newHotplugMonitor(logger *slog.Logger, triggers map[string]trigger) *hotplugMonitor {
	if len(triggers) == 0 {
		return nil
	}
	return &hotplugMonitor{
		logger:   logging.NewComponentLogger(logger, "hotplug"),
		triggers: triggers,
	}
}

// Start begins listening for udev netlink events. A socket failure is logged
// and leaves the monitors on their regular cadence.
func (m *hotplugMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(m.logger, "failed to connect to netlink socket; devices are detected on the poll interval only", "hotplug_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the daemon may open NETLINK_KOBJECT_UEVENT sockets"),
			logging.String(logging.FieldImpact, "device changes are reported up to one poll interval late"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, conn, quit)

	m.logger.Info("hotplug monitor started",
		logging.String(logging.FieldEventType, "hotplug_started"),
		logging.Int("subsystems", len(m.triggers)),
	)
	return nil
}

// Stop shuts down the netlink listener.
func (m *hotplugMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("hotplug monitor stopped", logging.String(logging.FieldEventType, "hotplug_stopped"))
}

// Running reports whether the netlink listener is active.
func (m *hotplugMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *hotplugMonitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "netlink monitor error", "hotplug_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "device changes may be reported on the poll interval only"),
			)
		}
	}
}

// buildMatcher matches ACTION=add|remove for the video4linux and sound
// subsystems that have a monitor attached.
func (m *hotplugMonitor) buildMatcher() netlink.Matcher {
	action := "^(add|remove)$"
	rules := &netlink.RuleDefinitions{}
	for subsystem := range m.triggers {
		rules.AddRule(netlink.RuleDefinition{
			Action: &action,
			Env: map[string]string{
				"SUBSYSTEM": "^" + subsystem + "$",
			},
		})
	}
	return rules
}

func (m *hotplugMonitor) handleEvent(uevent netlink.UEvent) {
	subsystem := uevent.Env["SUBSYSTEM"]
	target, ok := m.triggers[subsystem]
	if !ok {
		m.logger.Debug("ignoring event for unmonitored subsystem",
			logging.String("subsystem", subsystem),
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	m.logger.Info("device change detected",
		logging.String(logging.FieldEventType, "hotplug_device_changed"),
		logging.String(logging.FieldMonitor, monitorFor(subsystem)),
		logging.String("action", string(uevent.Action)),
		logging.String("device", uevent.Env["DEVNAME"]),
	)
	target.Trigger()
}

func monitorFor(subsystem string) string {
	if subsystem == subsystemVideo {
		return status.KeyCamera
	}
	return status.KeyMicrophone
}
