package ipc

import "time"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// WorkerHealth mirrors supervisor.WorkerHealth on the wire.
type WorkerHealth struct {
	Name      string    `json:"name"`
	Alive     bool      `json:"alive"`
	Restarts  int       `json:"restarts"`
	StartedAt time.Time `json:"started_at"`
	LastError string    `json:"last_error,omitempty"`
}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	State         string         `json:"state"`
	StatusFile    string         `json:"status_file"`
	LockPath      string         `json:"lock_path"`
	PendingEvents int            `json:"pending_events"`
	Hotplug       bool           `json:"hotplug"`
	Workers       []WorkerHealth `json:"workers"`
}

// PollRequest asks one monitor to poll immediately.
type PollRequest struct {
	Monitor string `json:"monitor"`
}

// PollResponse reports whether the monitor accepted the request.
type PollResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// StopRequest asks the daemon process to exit.
type StopRequest struct{}

// StopResponse acknowledges a stop request.
type StopResponse struct {
	Stopping bool `json:"stopping"`
}
