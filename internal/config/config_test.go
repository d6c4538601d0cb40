package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"keepmeprivate/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStatus := filepath.Join(tempHome, ".local", "share", "keepmeprivate", "status.json")
	if cfg.Paths.StatusFile != wantStatus {
		t.Fatalf("unexpected status file: got %q want %q", cfg.Paths.StatusFile, wantStatus)
	}
	if cfg.CameraInterval() != time.Second {
		t.Fatalf("unexpected camera interval: %s", cfg.CameraInterval())
	}
	if cfg.MicrophoneInterval() != 2*time.Second {
		t.Fatalf("unexpected microphone interval: %s", cfg.MicrophoneInterval())
	}
	if cfg.ProcessesInterval() != 5*time.Second {
		t.Fatalf("unexpected processes interval: %s", cfg.ProcessesInterval())
	}
	if cfg.Processes.Limit != 7 {
		t.Fatalf("unexpected process limit: %d", cfg.Processes.Limit)
	}
	if cfg.HealthInterval() != 500*time.Millisecond {
		t.Fatalf("unexpected health interval: %s", cfg.HealthInterval())
	}
	if cfg.Notifications.AppName != "KeepMePrivate" {
		t.Fatalf("unexpected app name: %q", cfg.Notifications.AppName)
	}
	if cfg.Notifications.DesktopTimeout != 5 {
		t.Fatalf("unexpected desktop timeout: %d", cfg.Notifications.DesktopTimeout)
	}
	if cfg.LockPath() != filepath.Join(filepath.Dir(wantStatus), "keepmeprivate.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `[paths]
status_file = "~/privacy/status.json"

[camera]
poll_interval = 3
device_index = 2

[processes]
limit = 10

[notifications]
ntfy_topic = "https://ntfy.example/privacy"
processes = false

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.StatusFile != filepath.Join(tempHome, "privacy", "status.json") {
		t.Fatalf("unexpected status file: %q", cfg.Paths.StatusFile)
	}
	if cfg.Camera.PollInterval != 3 || cfg.Camera.DeviceIndex != 2 {
		t.Fatalf("unexpected camera section: %+v", cfg.Camera)
	}
	if cfg.Processes.Limit != 10 {
		t.Fatalf("unexpected limit: %d", cfg.Processes.Limit)
	}
	if cfg.Microphone.PollInterval != 2 {
		t.Fatalf("expected default microphone interval, got %d", cfg.Microphone.PollInterval)
	}
	if cfg.Notifications.Processes {
		t.Fatal("expected process notifications disabled")
	}
	if !cfg.Notifications.Camera {
		t.Fatal("expected camera notifications to keep default")
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging section: %+v", cfg.Logging)
	}
}

func TestLoadNtfyTopicFromEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("KEEPMEPRIVATE_NTFY_TOPIC", "https://ntfy.example/env")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/env" {
		t.Fatalf("unexpected ntfy topic: %q", cfg.Notifications.NtfyTopic)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	workDir := t.TempDir()
	t.Chdir(workDir)
	t.Setenv("KEEPMEPRIVATE_LOG_LEVEL", "")
	os.Unsetenv("KEEPMEPRIVATE_LOG_LEVEL")

	if err := os.WriteFile(filepath.Join(workDir, ".env"), []byte("KEEPMEPRIVATE_LOG_LEVEL=warn\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[logging]\nlevel = \"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("KEEPMEPRIVATE_LOG_LEVEL") })

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected level from .env, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			name:   "zero camera interval",
			mutate: func(c *config.Config) { c.Camera.PollInterval = 0 },
			want:   "camera.poll_interval",
		},
		{
			name:   "negative limit",
			mutate: func(c *config.Config) { c.Processes.Limit = -1 },
			want:   "processes.limit",
		},
		{
			name:   "negative device index",
			mutate: func(c *config.Config) { c.Camera.DeviceIndex = -1 },
			want:   "camera.device_index",
		},
		{
			name: "all monitors disabled",
			mutate: func(c *config.Config) {
				c.Camera.Enabled = false
				c.Microphone.Enabled = false
				c.Processes.Enabled = false
			},
			want: "at least one",
		},
		{
			name:   "bare ntfy topic",
			mutate: func(c *config.Config) { c.Notifications.NtfyTopic = "privacy" },
			want:   "notifications.ntfy_topic",
		},
		{
			name:   "unknown log level",
			mutate: func(c *config.Config) { c.Logging.Level = "verbose" },
			want:   "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.StatusFile = filepath.Join(t.TempDir(), "status.json")
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if decoded.Notifications.AppName != "KeepMePrivate" {
		t.Fatalf("unexpected sample app name: %q", decoded.Notifications.AppName)
	}

	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("Load(sample) = exists %v, err %v", exists, err)
	}
}

func TestEnsureDirectoriesCreatesStatusParent(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StatusFile = filepath.Join(base, "state", "status.json")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{filepath.Join(base, "state"), cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}
