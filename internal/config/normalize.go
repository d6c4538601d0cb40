package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMonitors()
	c.normalizeNotifications()
	c.normalizeSupervisor()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StatusFile) == "" {
		c.Paths.StatusFile = defaultStatusFile
	}
	if c.Paths.StatusFile, err = expandPath(strings.TrimSpace(c.Paths.StatusFile)); err != nil {
		return fmt.Errorf("paths.status_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMonitors() {
	if c.Camera.CheckTimeout <= 0 {
		c.Camera.CheckTimeout = defaultCheckTimeout
	}
	if c.Microphone.CheckTimeout <= 0 {
		c.Microphone.CheckTimeout = defaultCheckTimeout
	}
	if c.Processes.CheckTimeout <= 0 {
		c.Processes.CheckTimeout = defaultCheckTimeout
	}
	if c.Processes.Limit == 0 {
		c.Processes.Limit = defaultProcessLimit
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.AppName = strings.TrimSpace(c.Notifications.AppName)
	if c.Notifications.AppName == "" {
		c.Notifications.AppName = defaultAppName
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("KEEPMEPRIVATE_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.DesktopTimeout <= 0 {
		c.Notifications.DesktopTimeout = defaultDesktopTimeout
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeSupervisor() {
	if c.Supervisor.HealthIntervalMS <= 0 {
		c.Supervisor.HealthIntervalMS = defaultHealthIntervalMS
	}
	if c.Supervisor.ShutdownTimeout <= 0 {
		c.Supervisor.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.Supervisor.MaxRestarts < 0 {
		c.Supervisor.MaxRestarts = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		if value, ok := os.LookupEnv("KEEPMEPRIVATE_LOG_LEVEL"); ok {
			c.Logging.Level = strings.ToLower(strings.TrimSpace(value))
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
