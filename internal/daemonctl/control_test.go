package daemonctl_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"keepmeprivate/internal/daemon"
	"keepmeprivate/internal/daemonctl"
	"keepmeprivate/internal/ipc"
	"keepmeprivate/internal/logging"
	"keepmeprivate/internal/supervisor"
)

type runningDaemon struct{}

func (runningDaemon) Status() daemon.Status {
	return daemon.Status{Running: true, State: supervisor.StateRunning}
}

func (runningDaemon) TriggerPoll(string) bool { return false }

func startServer(t *testing.T, stop func()) (string, *ipc.Server) {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "kmp.sock")
	srv, err := ipc.NewServer(context.Background(), socket, runningDaemon{}, stop, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	srv.Serve()
	return socket, srv
}

func TestEnsureStartedDetectsRunningDaemon(t *testing.T) {
	socket, srv := startServer(t, nil)
	defer srv.Close()

	result, err := daemonctl.EnsureStarted(socket, "", daemonctl.LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if result.State != daemonctl.StartStateAlreadyRunning || result.PID == 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestEnsureStartedRequiresExecutable(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")
	if _, err := daemonctl.EnsureStarted(socket, "", daemonctl.LaunchOptions{}, time.Second); err == nil {
		t.Fatal("expected launch error with empty executable path")
	}
}

func TestStopAndWait(t *testing.T) {
	stopped := make(chan struct{})
	socket, srv := startServer(t, func() { close(stopped) })
	go func() {
		<-stopped
		srv.Close()
	}()

	reached, err := daemonctl.StopAndWait(socket, 3*time.Second)
	if err != nil {
		t.Fatalf("StopAndWait: %v", err)
	}
	if !reached {
		t.Fatal("expected daemon to be reachable")
	}
}

func TestStopAndWaitWithoutDaemon(t *testing.T) {
	reached, err := daemonctl.StopAndWait(filepath.Join(t.TempDir(), "none.sock"), time.Second)
	if err != nil || reached {
		t.Fatalf("StopAndWait = %v, %v; want false, nil", reached, err)
	}
}

func TestWaitForShutdownNoSocket(t *testing.T) {
	if err := daemonctl.WaitForShutdown(filepath.Join(t.TempDir(), "none.sock"), time.Second); err != nil {
		t.Fatalf("WaitForShutdown: %v", err)
	}
}
