package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"keepmeprivate/internal/daemonctl"
	"keepmeprivate/internal/ipc"
	"keepmeprivate/internal/status"
)

func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	socket := cfg.SocketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return wrapDialError(err, socket)
	}
	defer client.Close()
	return fn(client)
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to daemon: socket %s not found; start the daemon with `keepmeprivate start`", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: socket %s refused the connection; verify the daemon is running", socket)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	var diagnostic bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the monitor daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			opts := daemonctl.LaunchOptions{Diagnostic: diagnostic}
			if ctx.configSeen {
				opts.ConfigPath = ctx.configPath
			}
			result, err := daemonctl.EnsureStarted(cfg.SocketPath(), exe, opts, 10*time.Second)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch result.State {
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintf(out, "Daemon already running (pid %d)\n", result.PID)
			default:
				fmt.Fprintf(out, "Daemon started (pid %d)\n", result.PID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&diagnostic, "diagnostic", false, "Also write a debug-level JSON log under log_dir/debug")
	return cmd
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Ask the running daemon to shut down",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			reached, err := daemonctl.StopAndWait(cfg.SocketPath(), cfg.ShutdownTimeout()+5*time.Second)
			if err != nil {
				return err
			}
			if !reached {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
			return nil
		},
	}
}

func newPollCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "poll <camera|microphone|processes>",
		Short:     "Ask a monitor to poll immediately",
		Args:      cobra.ExactArgs(1),
		ValidArgs: status.Keys,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !slices.Contains(status.Keys, name) {
				return fmt.Errorf("unknown monitor %q (expected one of %v)", name, status.Keys)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Poll(name)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				return nil
			})
		},
	}
}
