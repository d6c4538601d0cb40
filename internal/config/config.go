package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	StatusFile string `toml:"status_file"`
	LogDir     string `toml:"log_dir"`
}

// Camera configures the camera monitor.
type Camera struct {
	Enabled      bool `toml:"enabled"`
	PollInterval int  `toml:"poll_interval"`
	CheckTimeout int  `toml:"check_timeout"`
	DeviceIndex  int  `toml:"device_index"`
}

// Microphone configures the microphone monitor.
type Microphone struct {
	Enabled      bool `toml:"enabled"`
	PollInterval int  `toml:"poll_interval"`
	CheckTimeout int  `toml:"check_timeout"`
}

// Processes configures the top-process monitor.
type Processes struct {
	Enabled      bool `toml:"enabled"`
	PollInterval int  `toml:"poll_interval"`
	CheckTimeout int  `toml:"check_timeout"`
	Limit        int  `toml:"limit"`
}

// Notifications contains delivery settings and per-monitor toggles.
type Notifications struct {
	Desktop        bool   `toml:"desktop"`
	DesktopTimeout int    `toml:"desktop_timeout"`
	AppName        string `toml:"app_name"`
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Camera         bool   `toml:"camera"`
	Microphone     bool   `toml:"microphone"`
	Processes      bool   `toml:"processes"`
}

// Supervisor contains worker lifecycle timings.
type Supervisor struct {
	HealthIntervalMS int  `toml:"health_interval_ms"`
	ShutdownTimeout  int  `toml:"shutdown_timeout"`
	RestartOnCrash   bool `toml:"restart_on_crash"`
	MaxRestarts      int  `toml:"max_restarts"`
}

// Hotplug toggles the udev listener that triggers immediate device polls.
type Hotplug struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for KeepMePrivate.
//
// Configuration sections by subsystem:
//   - Paths: status snapshot file and log directory
//   - Camera, Microphone, Processes: monitor cadences and parameters
//   - Notifications: desktop and ntfy delivery plus per-monitor toggles
//   - Supervisor: health polling, shutdown grace period, restart policy
//   - Hotplug: udev netlink listener
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Camera        Camera        `toml:"camera"`
	Microphone    Microphone    `toml:"microphone"`
	Processes     Processes     `toml:"processes"`
	Notifications Notifications `toml:"notifications"`
	Supervisor    Supervisor    `toml:"supervisor"`
	Hotplug       Hotplug       `toml:"hotplug"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Values from a .env file in the working
// directory are loaded into the environment first; existing variables win.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", false, fmt.Errorf("load .env: %w", err)
	}

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("keepmeprivate.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the status and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{filepath.Dir(c.Paths.StatusFile), c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the single-instance lock file kept next to the status file.
func (c *Config) LockPath() string {
	return filepath.Join(filepath.Dir(c.Paths.StatusFile), "keepmeprivate.lock")
}

// SocketPath returns the daemon control socket.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "keepmeprivate.sock")
}

// CameraInterval returns the camera poll cadence.
func (c *Config) CameraInterval() time.Duration {
	return seconds(c.Camera.PollInterval)
}

// MicrophoneInterval returns the microphone poll cadence.
func (c *Config) MicrophoneInterval() time.Duration {
	return seconds(c.Microphone.PollInterval)
}

// ProcessesInterval returns the process poll cadence.
func (c *Config) ProcessesInterval() time.Duration {
	return seconds(c.Processes.PollInterval)
}

// HealthInterval returns how often the supervisor polls worker liveness.
func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.Supervisor.HealthIntervalMS) * time.Millisecond
}

// ShutdownTimeout returns the grace period granted to workers on shutdown.
func (c *Config) ShutdownTimeout() time.Duration {
	return seconds(c.Supervisor.ShutdownTimeout)
}

func seconds(value int) time.Duration {
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration back to TOML.
func (c *Config) Encode() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}
