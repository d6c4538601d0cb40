package probe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const defaultDevDir = "/dev"

// CameraProbe reports whether a V4L2 camera node exists and can be opened
// for reading and writing by the current user.
type CameraProbe struct {
	path string
}

// NewCameraProbe probes /dev/video{index}.
func NewCameraProbe(index int) *CameraProbe {
	return NewCameraProbeAt(filepath.Join(defaultDevDir, fmt.Sprintf("video%d", index)))
}

// NewCameraProbeAt probes an explicit device node.
func NewCameraProbeAt(path string) *CameraProbe {
	return &CameraProbe{path: path}
}

// DevicePath returns the node this probe inspects.
func (p *CameraProbe) DevicePath() string {
	return p.path
}

// Check returns true when the node is a character device the user may open.
// A missing node is a negative observation, not an error.
func (p *CameraProbe) Check(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", p.path, err)
	}
	if info.Mode()&fs.ModeCharDevice == 0 {
		return false, nil
	}
	if err := unix.Access(p.path, unix.R_OK|unix.W_OK); err != nil {
		return false, nil
	}
	return true, nil
}
