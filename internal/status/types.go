package status

import (
	"encoding/json"
	"time"
)

// Snapshot keys, one per monitor.
const (
	KeyCamera     = "camera"
	KeyMicrophone = "microphone"
	KeyProcesses  = "processes"
)

// Keys lists every key present in a snapshot from initialization onward.
var Keys = []string{KeyCamera, KeyMicrophone, KeyProcesses}

var emptySection = json.RawMessage(`{}`)

// CameraState is the camera monitor's section.
type CameraState struct {
	Connected bool      `json:"connected"`
	CheckedAt time.Time `json:"checked_at"`
}

// Device identifies the capture device the microphone probe selected.
type Device struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// MicrophoneState is the microphone monitor's section.
type MicrophoneState struct {
	Accessible bool      `json:"accessible"`
	CheckedAt  time.Time `json:"checked_at"`
	Device     *Device   `json:"device,omitempty"`
}

// ProcessInfo describes one entry of the top-CPU list.
type ProcessInfo struct {
	PID        int32   `json:"pid"`
	Name       string  `json:"name"`
	CPUPercent float64 `json:"cpu_percent"`
	Username   string  `json:"username"`
}

// ProcessSnapshot is the process monitor's section. Top is sorted by
// CPUPercent, highest first.
type ProcessSnapshot struct {
	When time.Time     `json:"when"`
	Top  []ProcessInfo `json:"top"`
}

// Names returns the process names in Top, in order.
func (p ProcessSnapshot) Names() []string {
	names := make([]string, 0, len(p.Top))
	for _, proc := range p.Top {
		names = append(names, proc.Name)
	}
	return names
}

// Snapshot maps monitor keys to their raw JSON sections.
type Snapshot map[string]json.RawMessage

func newSnapshot() Snapshot {
	snap := make(Snapshot, len(Keys))
	for _, key := range Keys {
		snap[key] = emptySection
	}
	return snap
}

// fillMissing adds an empty section for every required key that is absent.
// It reports whether anything was added.
func (s Snapshot) fillMissing() bool {
	added := false
	for _, key := range Keys {
		if raw, ok := s[key]; !ok || len(raw) == 0 || string(raw) == "null" {
			s[key] = emptySection
			added = true
		}
	}
	return added
}

// Populated reports whether key holds a section written by its monitor.
func (s Snapshot) Populated(key string) bool {
	raw, ok := s[key]
	if !ok {
		return false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	return len(fields) > 0
}

// Camera decodes the camera section. ok is false until the monitor has written it.
func (s Snapshot) Camera() (CameraState, bool) {
	var state CameraState
	return state, s.decode(KeyCamera, &state)
}

// Microphone decodes the microphone section.
func (s Snapshot) Microphone() (MicrophoneState, bool) {
	var state MicrophoneState
	return state, s.decode(KeyMicrophone, &state)
}

// Processes decodes the process section.
func (s Snapshot) Processes() (ProcessSnapshot, bool) {
	var snap ProcessSnapshot
	return snap, s.decode(KeyProcesses, &snap)
}

func (s Snapshot) decode(key string, dst any) bool {
	if !s.Populated(key) {
		return false
	}
	return json.Unmarshal(s[key], dst) == nil
}
