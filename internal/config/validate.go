package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMonitors(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StatusFile) == "" {
		return errors.New("paths.status_file must be set")
	}
	if strings.HasSuffix(c.Paths.StatusFile, "/") {
		return errors.New("paths.status_file must name a file, not a directory")
	}
	return nil
}

func (c *Config) validateMonitors() error {
	if err := ensurePositiveMap(map[string]int{
		"camera.poll_interval":          c.Camera.PollInterval,
		"microphone.poll_interval":      c.Microphone.PollInterval,
		"processes.poll_interval":       c.Processes.PollInterval,
		"processes.limit":               c.Processes.Limit,
		"supervisor.health_interval_ms": c.Supervisor.HealthIntervalMS,
		"supervisor.shutdown_timeout":   c.Supervisor.ShutdownTimeout,
	}); err != nil {
		return err
	}
	if c.Camera.DeviceIndex < 0 {
		return errors.New("camera.device_index must be >= 0")
	}
	if !c.Camera.Enabled && !c.Microphone.Enabled && !c.Processes.Enabled {
		return errors.New("at least one of camera, microphone, or processes must be enabled")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := strings.TrimSpace(c.Notifications.NtfyTopic)
	if topic == "" {
		return nil
	}
	parsed, err := url.Parse(topic)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be a full URL (got %q)", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
