package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"keepmeprivate/internal/logging"
)

// ErrAlreadyStarted is returned when Start is called more than once.
var ErrAlreadyStarted = errors.New("supervisor already started")

// State is the supervisor lifecycle stage.
type State int

const (
	StateCreated State = iota
	StateRunning
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

const (
	defaultHealthInterval  = 500 * time.Millisecond
	defaultShutdownTimeout = 5 * time.Second
	defaultRestartDelay    = time.Second
)

// Options configures a Supervisor.
type Options struct {
	HealthInterval  time.Duration
	ShutdownTimeout time.Duration
	RestartDelay    time.Duration
	Restart         RestartPolicy
	Logger          *slog.Logger
}

// WorkerHealth is a point-in-time view of one worker.
type WorkerHealth struct {
	Name      string
	Alive     bool
	Restarts  int
	StartedAt time.Time
	Err       error
}

type workerState struct {
	worker Worker
	exited chan struct{}

	mu        sync.Mutex
	alive     bool
	restarts  int
	startedAt time.Time
	err       error
	reported  bool
}

func (w *workerState) health() WorkerHealth {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WorkerHealth{
		Name:      w.worker.Name(),
		Alive:     w.alive,
		Restarts:  w.restarts,
		StartedAt: w.startedAt,
		Err:       w.err,
	}
}

// Supervisor starts workers, watches their liveness, and stops them.
type Supervisor struct {
	opts    Options
	logger  *slog.Logger
	workers []*workerState

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	wg     sync.WaitGroup

	shutdownOnce sync.Once
	done         chan struct{}
}

// New returns a supervisor in the Created state.
func New(opts Options, workers ...Worker) *Supervisor {
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = defaultHealthInterval
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if opts.RestartDelay <= 0 {
		opts.RestartDelay = defaultRestartDelay
	}
	if opts.Restart == nil {
		opts.Restart = NoRestart
	}
	states := make([]*workerState, 0, len(workers))
	for _, w := range workers {
		if w == nil {
			continue
		}
		states = append(states, &workerState{worker: w, exited: make(chan struct{})})
	}
	return &Supervisor{
		opts:    opts,
		logger:  logging.NewComponentLogger(opts.Logger, "supervisor"),
		workers: states,
		done:    make(chan struct{}),
	}
}

// State returns the current lifecycle stage.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the supervisor reaches Terminated.
func (s *Supervisor) Done() <-chan struct{} {
	return s.done
}

// Start launches every worker and the health loop.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCreated {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = StateRunning

	for _, ws := range s.workers {
		ws.mu.Lock()
		ws.alive = true
		ws.startedAt = time.Now()
		ws.mu.Unlock()
		s.wg.Add(1)
		go s.runWorker(runCtx, ws)
	}
	go s.healthLoop(runCtx)

	s.logger.Info("supervisor started",
		logging.String(logging.FieldEventType, "supervisor_started"),
		logging.Int("workers", len(s.workers)),
	)
	return nil
}

func (s *Supervisor) runWorker(ctx context.Context, ws *workerState) {
	defer s.wg.Done()
	defer close(ws.exited)

	name := ws.worker.Name()
	for {
		err := invoke(ctx, ws.worker)
		if ctx.Err() != nil {
			ws.mu.Lock()
			ws.alive = false
			ws.mu.Unlock()
			return
		}

		ws.mu.Lock()
		ws.alive = false
		ws.err = err
		ws.reported = false
		restarts := ws.restarts
		ws.mu.Unlock()

		if !s.opts.Restart.ShouldRestart(name, restarts, err) {
			return
		}
		logging.WarnWithContext(s.logger, "worker stopped; restarting", "worker_restarting",
			logging.String(logging.FieldWorker, name),
			logging.Error(err),
			logging.Int("restarts", restarts+1),
			logging.String(logging.FieldImpact, "monitoring paused for this worker until it restarts"),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.opts.RestartDelay):
		}
		ws.mu.Lock()
		ws.restarts++
		ws.alive = true
		ws.startedAt = time.Now()
		ws.mu.Unlock()
	}
}

func invoke(ctx context.Context, w Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return w.Run(ctx)
}

func (s *Supervisor) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.HealthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.HealthCheck()
		}
	}
}

// HealthCheck reports every worker's liveness. A worker found dead for the
// first time is logged with its exit error.
func (s *Supervisor) HealthCheck() []WorkerHealth {
	out := make([]WorkerHealth, 0, len(s.workers))
	running := s.State() == StateRunning
	for _, ws := range s.workers {
		h := ws.health()
		out = append(out, h)
		if h.Alive || !running {
			continue
		}
		ws.mu.Lock()
		alreadyReported := ws.reported
		ws.reported = true
		ws.mu.Unlock()
		if alreadyReported {
			continue
		}
		attrs := []logging.Attr{
			logging.Alert("worker_dead"),
			logging.String(logging.FieldWorker, h.Name),
			logging.String(logging.FieldErrorHint, "check earlier log lines for this worker; restart the daemon to recover"),
			logging.String(logging.FieldImpact, "this monitor is no longer updating status or sending notifications"),
		}
		if h.Err != nil {
			attrs = append(attrs, logging.Error(h.Err))
		}
		var panicErr *PanicError
		if errors.As(h.Err, &panicErr) {
			attrs = append(attrs, logging.String("stack", string(panicErr.Stack)))
		}
		logging.ErrorWithContext(s.logger, "worker died", "worker_died", attrs...)
	}
	return out
}

// Shutdown cancels every worker and waits for them until the shutdown
// timeout or ctx ends, whichever is first. Workers still running then are
// abandoned. Only the first call does the work; later and concurrent calls
// wait for it and return nil.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.shutdown(ctx)
		close(s.done)
	})
	return err
}

func (s *Supervisor) shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateCreated {
		s.state = StateTerminated
		s.mu.Unlock()
		return nil
	}
	s.state = StateShuttingDown
	cancel := s.cancel
	s.mu.Unlock()

	s.logger.Info("supervisor shutting down", logging.String(logging.FieldEventType, "supervisor_shutdown"))
	cancel()

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	timer := time.NewTimer(s.opts.ShutdownTimeout)
	defer timer.Stop()
	select {
	case <-finished:
	case <-timer.C:
		s.abandonStragglers()
	case <-ctx.Done():
		s.abandonStragglers()
	}

	s.mu.Lock()
	s.state = StateTerminated
	s.mu.Unlock()
	s.logger.Info("supervisor terminated", logging.String(logging.FieldEventType, "supervisor_terminated"))
	return nil
}

func (s *Supervisor) abandonStragglers() {
	for _, ws := range s.workers {
		select {
		case <-ws.exited:
			continue
		default:
		}
		logging.WarnWithContext(s.logger, "worker ignored shutdown; abandoning", "worker_abandoned",
			logging.String(logging.FieldWorker, ws.worker.Name()),
			logging.Duration("grace_period", s.opts.ShutdownTimeout),
			logging.String(logging.FieldErrorHint, "a probe may be blocked on a device; process exit reclaims it"),
			logging.String(logging.FieldImpact, "shutdown continues without waiting for this worker"),
		)
	}
}
