// Package supervisor runs the daemon's workers as isolated goroutines and
// owns their lifecycle.
//
// Each worker runs behind a panic-recovering boundary, so a crash ends only
// that worker. A periodic health check reports workers that stopped on their
// own, and an optional RestartPolicy can bring them back. Shutdown cancels
// every worker, waits up to the configured grace period, and then abandons
// stragglers: goroutines cannot be killed, so they are detached and reclaimed
// when the process exits.
//
// The lifecycle is Created → Running → ShuttingDown → Terminated. A
// supervisor that never started moves from Created straight to Terminated.
package supervisor
