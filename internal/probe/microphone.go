package probe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"keepmeprivate/internal/status"
)

// ALSAPCMPath lists the PCM devices registered with ALSA.
const ALSAPCMPath = "/proc/asound/pcm"

// MicrophoneProbe finds the first capture-capable PCM device in the ALSA
// device table.
type MicrophoneProbe struct {
	pcmPath string
}

// NewMicrophoneProbe reads /proc/asound/pcm.
func NewMicrophoneProbe() *MicrophoneProbe {
	return NewMicrophoneProbeAt(ALSAPCMPath)
}

// NewMicrophoneProbeAt reads an alternate PCM table, mainly for tests.
func NewMicrophoneProbeAt(path string) *MicrophoneProbe {
	return &MicrophoneProbe{pcmPath: path}
}

// Check returns the first capture device. A host without ALSA reports no
// device and no error.
func (p *MicrophoneProbe) Check(ctx context.Context) (bool, *status.Device, error) {
	if err := ctx.Err(); err != nil {
		return false, nil, err
	}
	file, err := os.Open(p.pcmPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil, nil
		}
		return false, nil, fmt.Errorf("open pcm table: %w", err)
	}
	defer file.Close()

	device, err := firstCaptureDevice(file)
	if err != nil {
		return false, nil, fmt.Errorf("parse pcm table: %w", err)
	}
	if device == nil {
		return false, nil, nil
	}
	return true, device, nil
}

// firstCaptureDevice parses lines such as
//
//	00-00: ALC3246 Analog : ALC3246 Analog : playback 1 : capture 1
//
// The device index is the line position in the table.
func firstCaptureDevice(r io.Reader) (*status.Device, error) {
	scanner := bufio.NewScanner(r)
	index := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, " : ")
		capture := false
		for _, field := range fields[1:] {
			if strings.HasPrefix(strings.TrimSpace(field), "capture") {
				capture = true
				break
			}
		}
		if capture {
			name := fields[0]
			if _, after, ok := strings.Cut(name, ": "); ok {
				name = after
			}
			return &status.Device{Name: strings.TrimSpace(name), Index: index}, nil
		}
		index++
	}
	return nil, scanner.Err()
}
