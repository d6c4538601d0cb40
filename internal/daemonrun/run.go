package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"keepmeprivate/internal/config"
	"keepmeprivate/internal/daemon"
	"keepmeprivate/internal/ipc"
	"keepmeprivate/internal/logging"
	"keepmeprivate/internal/probe"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	Diagnostic  bool
	// Console receives human-readable output. Defaults to stdout.
	Console string
	// DaemonOptions are forwarded to daemon.New.
	DaemonOptions []daemon.Option
}

const pidFileName = "keepmeprivate.pid"

// Run starts the keepmeprivate daemon and blocks until the context is
// cancelled or SIGINT/SIGTERM arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("keepmeprivate-%s.log", runID))
	sessionID := uuid.NewString()

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	console := opts.Console
	if console == "" {
		console = "stdout"
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{console},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	fileHandler, err := logging.NewHandler(logging.Options{
		Level:       level,
		Format:      "json",
		OutputPaths: []string{logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init log file: %w", err)
	}
	logger = logging.TeeLogger(logger, fileHandler)

	if opts.Diagnostic {
		debugDir := filepath.Join(cfg.Paths.LogDir, "debug")
		debugLogPath := filepath.Join(debugDir, fmt.Sprintf("keepmeprivate-%s.log", runID))
		debugHandler, debugErr := logging.NewHandler(logging.Options{
			Level:       "debug",
			Format:      "json",
			OutputPaths: []string{debugLogPath},
			Development: true,
		})
		if debugErr != nil {
			fmt.Fprintf(os.Stderr, "warn: unable to initialize debug logger: %v\n", debugErr)
		} else {
			logger = logging.TeeLogger(logger, debugHandler)
			logger.Info("diagnostic mode enabled",
				logging.String(logging.FieldEventType, "diagnostic_mode_enabled"),
				logging.String("debug_log_path", debugLogPath),
			)
		}
	}
	logger = logging.WithSession(logger, sessionID)

	logProbeSnapshot(logger, cfg)

	d, err := daemon.New(signalCtx, cfg, logger, opts.DaemonOptions...)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "stop the other instance or remove "+cfg.LockPath()),
		)
		return err
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout()+time.Second)
	defer stopCancel()

	// The pid file and log pointer belong to the instance holding the lock.
	pidPath := PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		d.Stop(stopCtx)
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update keepmeprivate.log link: %v\n", err)
	}
	logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)

	socketPath := cfg.SocketPath()
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, cancel, logger)
	if err != nil {
		logging.WarnWithContext(logger, "control socket unavailable", "ipc_listen_failed",
			logging.Error(err),
			logging.String("socket", socketPath),
			logging.String(logging.FieldImpact, "stop and poll commands cannot reach the daemon; status still reads the status file"),
		)
	} else {
		ipcServer.Serve()
		defer ipcServer.Close()
	}

	<-signalCtx.Done()
	logger.Info("keepmeprivate daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))

	d.Stop(stopCtx)
	return nil
}

// PIDPath returns where Run records the daemon pid.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, pidFileName)
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "keepmeprivate.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logProbeSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	camera := probe.NewCameraProbe(cfg.Camera.DeviceIndex).DevicePath()
	logger.Info("probe snapshot",
		logging.String(logging.FieldEventType, "probe_snapshot"),
		logging.Bool("camera_enabled", cfg.Camera.Enabled),
		logging.String("camera_device", camera),
		logging.Bool("camera_present", pathExists(camera)),
		logging.Bool("microphone_enabled", cfg.Microphone.Enabled),
		logging.Bool("alsa_available", pathExists(probe.ALSAPCMPath)),
		logging.Bool("processes_enabled", cfg.Processes.Enabled),
		logging.Bool("desktop_notifications", cfg.Notifications.Desktop),
		logging.Bool("dbus_session", os.Getenv("DBUS_SESSION_BUS_ADDRESS") != ""),
		logging.Bool("ntfy_configured", cfg.Notifications.NtfyTopic != ""),
		logging.String("status_file", cfg.Paths.StatusFile),
	)
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
