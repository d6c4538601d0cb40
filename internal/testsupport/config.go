package testsupport

import (
	"path/filepath"
	"testing"

	"keepmeprivate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Desktop notifications and hotplug are off so tests never reach the desktop
// notification service or open netlink sockets.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StatusFile = filepath.Join(base, "state", "status.json")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Notifications.Desktop = false
	cfgVal.Hotplug.Enabled = false

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithNtfyTopic points ntfy delivery at the given URL (usually an httptest server).
func WithNtfyTopic(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = url
	}
}

// WithOnlyProcesses disables the camera and microphone monitors.
func WithOnlyProcesses() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Camera.Enabled = false
		b.cfg.Microphone.Enabled = false
	}
}

// WithShortIntervals makes the supervisor react quickly in tests.
func WithShortIntervals() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Supervisor.HealthIntervalMS = 20
		b.cfg.Supervisor.ShutdownTimeout = 2
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
