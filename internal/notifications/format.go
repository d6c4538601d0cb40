package notifications

import (
	"strings"
	"time"

	"keepmeprivate/internal/events"
)

const (
	titleCameraConnected       = "Camera connected"
	titleCameraDisconnected    = "Camera disconnected"
	titleMicrophoneReady       = "Microphone ready"
	titleMicrophoneUnavailable = "Microphone unavailable"
	titleNewTopProcess         = "New top process"
)

// Format maps an event to the alert title and message shown to the user.
func Format(ev events.Event) (string, string) {
	switch e := ev.(type) {
	case events.CameraEvent:
		if e.Connected {
			return titleCameraConnected, checkedAt(e.When)
		}
		return titleCameraDisconnected, checkedAt(e.When)
	case events.MicrophoneEvent:
		if e.Accessible {
			return titleMicrophoneReady, checkedAt(e.When)
		}
		return titleMicrophoneUnavailable, checkedAt(e.When)
	case events.ProcessTopChange:
		return titleNewTopProcess, strings.Join(e.NewNames, ", ")
	default:
		return "", ""
	}
}

func checkedAt(when time.Time) string {
	return "Checked at " + when.UTC().Format(time.RFC3339)
}
