package probe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"keepmeprivate/internal/status"
)

func TestCameraProbeMissingNode(t *testing.T) {
	probe := NewCameraProbeAt(filepath.Join(t.TempDir(), "video0"))
	ok, err := probe.Check(context.Background())
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if ok {
		t.Fatal("expected missing node to report disconnected")
	}
}

func TestCameraProbeRegularFileIsNotACamera(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video0")
	if err := os.WriteFile(path, nil, 0o666); err != nil {
		t.Fatal(err)
	}
	ok, err := NewCameraProbeAt(path).Check(context.Background())
	if err != nil || ok {
		t.Fatalf("Check = %v, %v; want false, nil", ok, err)
	}
}

func TestCameraProbeAcceptsAccessibleCharDevice(t *testing.T) {
	if _, err := os.Stat("/dev/null"); err != nil {
		t.Skip("/dev/null unavailable")
	}
	ok, err := NewCameraProbeAt("/dev/null").Check(context.Background())
	if err != nil || !ok {
		t.Fatalf("Check = %v, %v; want true, nil", ok, err)
	}
}

func TestCameraProbeDefaultPath(t *testing.T) {
	if got := NewCameraProbe(2).DevicePath(); got != "/dev/video2" {
		t.Fatalf("DevicePath = %q", got)
	}
}

func TestCameraProbeHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewCameraProbeAt("/dev/null").Check(ctx); err == nil {
		t.Fatal("expected context error")
	}
}

func TestFirstCaptureDevice(t *testing.T) {
	tests := []struct {
		name  string
		table string
		want  *status.Device
	}{
		{
			name: "capture on first line",
			table: "00-00: ALC3246 Analog : ALC3246 Analog : playback 1 : capture 1\n" +
				"00-03: HDMI 0 : HDMI 0 : playback 1\n",
			want: &status.Device{Name: "ALC3246 Analog", Index: 0},
		},
		{
			name: "capture after playback-only devices",
			table: "00-03: HDMI 0 : HDMI 0 : playback 1\n" +
				"00-07: HDMI 1 : HDMI 1 : playback 1\n" +
				"01-00: USB Audio : USB Audio : capture 1\n",
			want: &status.Device{Name: "USB Audio", Index: 2},
		},
		{
			name:  "playback only",
			table: "00-03: HDMI 0 : HDMI 0 : playback 1\n",
		},
		{
			name: "empty table",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := firstCaptureDevice(strings.NewReader(tt.table))
			if err != nil {
				t.Fatalf("firstCaptureDevice returned error: %v", err)
			}
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Fatalf("got %+v, want %+v", *got, *tt.want)
			}
		})
	}
}

func TestMicrophoneProbeReadsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcm")
	if err := os.WriteFile(path, []byte("00-00: Mic : Mic : capture 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ok, device, err := NewMicrophoneProbeAt(path).Check(context.Background())
	if err != nil || !ok || device == nil || device.Name != "Mic" {
		t.Fatalf("Check = %v, %+v, %v", ok, device, err)
	}
}

func TestMicrophoneProbeMissingTable(t *testing.T) {
	ok, device, err := NewMicrophoneProbeAt(filepath.Join(t.TempDir(), "pcm")).Check(context.Background())
	if err != nil || ok || device != nil {
		t.Fatalf("Check = %v, %+v, %v; want false, nil, nil", ok, device, err)
	}
}

func TestRankProcesses(t *testing.T) {
	infos := []status.ProcessInfo{
		{PID: 4, Name: "idle", CPUPercent: 0},
		{PID: 3, Name: "firefox", CPUPercent: 42.5},
		{PID: 1, Name: "code", CPUPercent: 10},
		{PID: 2, Name: "slack", CPUPercent: 10},
	}
	got := rankProcesses(infos, 3)
	want := []string{"firefox", "code", "slack"}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("position %d: got %s, want %s", i, got[i].Name, name)
		}
	}
}

func TestProcessListerTopOnHost(t *testing.T) {
	if _, err := os.Stat("/proc/self"); err != nil {
		t.Skip("procfs unavailable")
	}
	lister := NewProcessLister(context.Background())
	top, err := lister.Top(context.Background(), 3)
	if err != nil {
		t.Fatalf("Top returned error: %v", err)
	}
	if len(top) == 0 || len(top) > 3 {
		t.Fatalf("unexpected top length %d", len(top))
	}
	for i := 1; i < len(top); i++ {
		if top[i].CPUPercent > top[i-1].CPUPercent {
			t.Fatalf("top not sorted: %+v", top)
		}
	}
}
