package supervisor

import (
	"context"
	"fmt"
)

// Worker is one supervised unit of work. Run must return once ctx is done.
type Worker interface {
	Name() string
	Run(ctx context.Context) error
}

type funcWorker struct {
	name string
	fn   func(context.Context) error
}

func (w funcWorker) Name() string { return w.name }

func (w funcWorker) Run(ctx context.Context) error { return w.fn(ctx) }

// WorkerFunc adapts fn into a named Worker.
func WorkerFunc(name string, fn func(context.Context) error) Worker {
	return funcWorker{name: name, fn: fn}
}

// PanicError wraps a value recovered from a crashed worker.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker panic: %v", e.Value)
}

// RestartPolicy decides whether a worker that stopped unexpectedly runs again.
// restarts counts the restarts already performed for that worker.
type RestartPolicy interface {
	ShouldRestart(name string, restarts int, err error) bool
}

type noRestart struct{}

func (noRestart) ShouldRestart(string, int, error) bool { return false }

// NoRestart leaves dead workers dead.
var NoRestart RestartPolicy = noRestart{}

type restartAlways struct {
	max int
}

func (p restartAlways) ShouldRestart(_ string, restarts int, _ error) bool {
	return p.max <= 0 || restarts < p.max
}

// RestartAlways restarts a dead worker up to max times. max <= 0 means no limit.
func RestartAlways(max int) RestartPolicy {
	return restartAlways{max: max}
}
