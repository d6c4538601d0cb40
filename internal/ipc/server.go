package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"keepmeprivate/internal/daemon"
	"keepmeprivate/internal/logging"
)

const serviceName = "KeepMePrivate"

// Controller is the daemon surface the server exposes.
type Controller interface {
	Status() daemon.Status
	TriggerPoll(name string) bool
}

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer listens at path. stop is called when a client requests shutdown.
func NewServer(ctx context.Context, path string, d Controller, stop func(), logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName(serviceName, &service{daemon: d, stop: stop, logger: logger}); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve accepts RPC connections until the server is closed.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "CLI clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"),
				)
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale socket file left behind"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"),
		)
	}
}

type service struct {
	daemon Controller
	stop   func()
	logger *slog.Logger
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	st := s.daemon.Status()
	resp.Running = st.Running
	resp.PID = os.Getpid()
	resp.State = st.State.String()
	resp.StatusFile = st.StatusFilePath
	resp.LockPath = st.LockFilePath
	resp.PendingEvents = st.PendingEvents
	resp.Hotplug = st.Hotplug
	resp.Workers = make([]WorkerHealth, 0, len(st.Workers))
	for _, w := range st.Workers {
		wh := WorkerHealth{
			Name:      w.Name,
			Alive:     w.Alive,
			Restarts:  w.Restarts,
			StartedAt: w.StartedAt,
		}
		if w.Err != nil {
			wh.LastError = w.Err.Error()
		}
		resp.Workers = append(resp.Workers, wh)
	}
	return nil
}

func (s *service) Poll(req PollRequest, resp *PollResponse) error {
	if s.daemon.TriggerPoll(req.Monitor) {
		resp.Triggered = true
		resp.Message = req.Monitor + " poll requested"
		s.logger.Debug("poll requested via IPC", logging.String(logging.FieldMonitor, req.Monitor))
		return nil
	}
	resp.Message = fmt.Sprintf("monitor %q is not enabled", req.Monitor)
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("daemon stop requested via IPC", logging.String(logging.FieldEventType, "daemon_stop_requested"))
	if s.stop != nil {
		s.stop()
	}
	resp.Stopping = true
	return nil
}
