package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"keepmeprivate/internal/config"
	"keepmeprivate/internal/daemonrun"
	"keepmeprivate/internal/ipc"
	"keepmeprivate/internal/status"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var watch time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the latest camera, microphone, and process state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if jsonOutput {
				snap, err := status.NewReader(cfg.Paths.StatusFile).Read()
				if err != nil {
					return fmt.Errorf("read status file: %w", err)
				}
				return writeJSON(cmd, snap)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if watch <= 0 {
				renderStatus(out, loadStatusView(cfg), colorize)
				return nil
			}

			ticker := time.NewTicker(watch)
			defer ticker.Stop()
			for {
				if colorize {
					fmt.Fprint(out, ansiClearScreen)
				}
				renderStatus(out, loadStatusView(cfg), colorize)
				select {
				case <-cmd.Context().Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the raw status snapshot as JSON")
	cmd.Flags().DurationVarP(&watch, "watch", "w", 0, "Refresh the view at this interval (e.g. 2s)")
	return cmd
}

func loadStatusView(cfg *config.Config) statusView {
	view := statusView{StatusPath: cfg.Paths.StatusFile}
	view.DaemonPID, view.DaemonRunning = daemonPID(daemonrun.PIDPath(cfg))
	if view.DaemonRunning {
		view.Daemon = daemonStatus(cfg.SocketPath())
	}
	view.Snapshot, view.ReadErr = status.NewReader(cfg.Paths.StatusFile).Read()
	return view
}

// daemonStatus asks the daemon for worker health. It returns nil when the
// control socket is unreachable.
func daemonStatus(socket string) *ipc.StatusResponse {
	client, err := ipc.Dial(socket)
	if err != nil {
		return nil
	}
	defer client.Close()
	resp, err := client.Status()
	if err != nil {
		return nil
	}
	return resp
}

// daemonPID reads the pid file and reports whether that process is alive.
func daemonPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	if err := unix.Kill(pid, 0); err != nil && !errors.Is(err, unix.EPERM) {
		return pid, false
	}
	return pid, true
}
