package monitor

import (
	"context"
	"sort"
	"time"

	"keepmeprivate/internal/events"
	"keepmeprivate/internal/status"
)

// CameraProber reports camera connectivity.
type CameraProber interface {
	Check(ctx context.Context) (bool, error)
}

// MicrophoneProber reports microphone accessibility and the selected device.
type MicrophoneProber interface {
	Check(ctx context.Context) (bool, *status.Device, error)
}

// ProcessLister returns the busiest processes.
type ProcessLister interface {
	Top(ctx context.Context, limit int) ([]status.ProcessInfo, error)
}

// CameraCheck emits on the first poll and whenever connectivity flips.
type CameraCheck struct {
	probe CameraProber
	last  *bool
}

// NewCameraCheck wraps probe; the first poll always produces an event.
func NewCameraCheck(probe CameraProber) *CameraCheck {
	return &CameraCheck{probe: probe}
}

// Key returns the camera status section.
func (c *CameraCheck) Key() string { return status.KeyCamera }

// Poll runs the probe once. A probe error, panic or timeout reads as
// disconnected and is reported through ProbeErr.
func (c *CameraCheck) Poll(ctx context.Context, now time.Time) Observation {
	connected, err := callProbe(ctx, c.probe.Check)
	if err != nil {
		connected = false
	}
	obs := Observation{
		Value:    status.CameraState{Connected: connected, CheckedAt: now},
		ProbeErr: err,
	}
	if c.last == nil || *c.last != connected {
		obs.Event = events.CameraEvent{Connected: connected, When: now}
	}
	c.last = &connected
	return obs
}

// MicrophoneCheck emits on the first poll and whenever accessibility flips.
// A device change without a flip is recorded but not announced.
type MicrophoneCheck struct {
	probe MicrophoneProber
	last  *bool
}

// NewMicrophoneCheck wraps probe.
func NewMicrophoneCheck(probe MicrophoneProber) *MicrophoneCheck {
	return &MicrophoneCheck{probe: probe}
}

// Key returns the microphone status section.
func (c *MicrophoneCheck) Key() string { return status.KeyMicrophone }

type micReading struct {
	accessible bool
	device     *status.Device
}

// Poll runs the probe once. The device is kept only while the microphone
// is accessible.
func (c *MicrophoneCheck) Poll(ctx context.Context, now time.Time) Observation {
	reading, err := callProbe(ctx, func(ctx context.Context) (micReading, error) {
		ok, device, err := c.probe.Check(ctx)
		return micReading{accessible: ok, device: device}, err
	})
	if err != nil {
		reading = micReading{}
	}
	state := status.MicrophoneState{Accessible: reading.accessible, CheckedAt: now}
	if reading.accessible {
		state.Device = reading.device
	}
	obs := Observation{Value: state, ProbeErr: err}
	if c.last == nil || *c.last != state.Accessible {
		obs.Event = events.MicrophoneEvent{Accessible: state.Accessible, When: now}
	}
	accessible := state.Accessible
	c.last = &accessible
	return obs
}

// ProcessCheck emits when a process name enters the top list. The first
// successful poll only records a baseline, and a failed listing clears it.
type ProcessCheck struct {
	lister   ProcessLister
	limit    int
	previous map[string]struct{}
}

// NewProcessCheck lists at most limit processes per poll.
func NewProcessCheck(lister ProcessLister, limit int) *ProcessCheck {
	return &ProcessCheck{lister: lister, limit: limit}
}

// Key returns the processes status section.
func (c *ProcessCheck) Key() string { return status.KeyProcesses }

// Poll records the current top list and emits the names that were not in
// the previous one.
func (c *ProcessCheck) Poll(ctx context.Context, now time.Time) Observation {
	top, err := callProbe(ctx, func(ctx context.Context) ([]status.ProcessInfo, error) {
		return c.lister.Top(ctx, c.limit)
	})
	if err != nil {
		c.previous = nil
		return Observation{
			Value:    status.ProcessSnapshot{When: now, Top: []status.ProcessInfo{}},
			ProbeErr: err,
		}
	}
	if top == nil {
		top = []status.ProcessInfo{}
	}
	if c.limit > 0 && len(top) > c.limit {
		top = top[:c.limit]
	}

	snapshot := status.ProcessSnapshot{When: now, Top: top}
	current := make(map[string]struct{}, len(top))
	for _, name := range snapshot.Names() {
		if name != "" {
			current[name] = struct{}{}
		}
	}

	obs := Observation{Value: snapshot}
	if c.previous != nil {
		if added := newNames(c.previous, current); len(added) > 0 {
			obs.Event = events.ProcessTopChange{NewNames: added, When: now}
		}
	}
	c.previous = current
	return obs
}

func newNames(previous, current map[string]struct{}) []string {
	var added []string
	for name := range current {
		if _, ok := previous[name]; !ok {
			added = append(added, name)
		}
	}
	sort.Strings(added)
	return added
}
