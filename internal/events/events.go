// Package events carries state transitions from monitors to the notification sink.
package events

import "time"

// Event is a state transition observed by one monitor. The set of
// implementations is closed to this package.
type Event interface {
	// Monitor returns the snapshot key of the monitor that produced the event.
	Monitor() string
	// At returns when the transition was observed.
	At() time.Time
	sealed()
}

// CameraEvent reports the first camera observation or a connectivity flip.
type CameraEvent struct {
	Connected bool
	When      time.Time
}

func (CameraEvent) Monitor() string { return "camera" }

func (e CameraEvent) At() time.Time { return e.When }

func (CameraEvent) sealed() {}

// MicrophoneEvent reports the first microphone observation or an accessibility flip.
type MicrophoneEvent struct {
	Accessible bool
	When       time.Time
}

func (MicrophoneEvent) Monitor() string { return "microphone" }

func (e MicrophoneEvent) At() time.Time { return e.When }

func (MicrophoneEvent) sealed() {}

// ProcessTopChange reports processes that entered the top-CPU list since the
// previous poll. NewNames is sorted.
type ProcessTopChange struct {
	NewNames []string
	When     time.Time
}

func (ProcessTopChange) Monitor() string { return "processes" }

func (e ProcessTopChange) At() time.Time { return e.When }

func (ProcessTopChange) sealed() {}
