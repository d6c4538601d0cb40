package config

const (
	defaultConfigPath             = "~/.config/keepmeprivate/config.toml"
	defaultStatusFile             = "~/.local/share/keepmeprivate/status.json"
	defaultLogDir                 = "~/.local/share/keepmeprivate/logs"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 30
	defaultCameraPollInterval     = 1
	defaultMicrophonePollInterval = 2
	defaultProcessesPollInterval  = 5
	defaultCheckTimeout           = 10
	defaultProcessLimit           = 7
	defaultAppName                = "KeepMePrivate"
	defaultDesktopTimeout         = 5
	defaultRequestTimeout         = 10
	defaultHealthIntervalMS       = 500
	defaultShutdownTimeout        = 5
	defaultMaxRestarts            = 3
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StatusFile: defaultStatusFile,
			LogDir:     defaultLogDir,
		},
		Camera: Camera{
			Enabled:      true,
			PollInterval: defaultCameraPollInterval,
			CheckTimeout: defaultCheckTimeout,
		},
		Microphone: Microphone{
			Enabled:      true,
			PollInterval: defaultMicrophonePollInterval,
			CheckTimeout: defaultCheckTimeout,
		},
		Processes: Processes{
			Enabled:      true,
			PollInterval: defaultProcessesPollInterval,
			CheckTimeout: defaultCheckTimeout,
			Limit:        defaultProcessLimit,
		},
		Notifications: Notifications{
			Desktop:        true,
			DesktopTimeout: defaultDesktopTimeout,
			AppName:        defaultAppName,
			RequestTimeout: defaultRequestTimeout,
			Camera:         true,
			Microphone:     true,
			Processes:      true,
		},
		Supervisor: Supervisor{
			HealthIntervalMS: defaultHealthIntervalMS,
			ShutdownTimeout:  defaultShutdownTimeout,
			MaxRestarts:      defaultMaxRestarts,
		},
		Hotplug: Hotplug{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
