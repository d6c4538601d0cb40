package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"keepmeprivate/internal/ipc"
	"keepmeprivate/internal/status"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"

	ansiClearScreen = "\x1b[H\x1b[2J"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

// statusView is everything the status command renders.
type statusView struct {
	DaemonRunning bool
	DaemonPID     int
	StatusPath    string
	Snapshot      status.Snapshot
	ReadErr       error
	Daemon        *ipc.StatusResponse
}

func renderStatus(w io.Writer, view statusView, colorize bool) {
	var lines []string

	lines = append(lines, renderSectionHeader("daemon", colorize)...)
	if view.DaemonRunning {
		lines = append(lines, renderStatusLine("Daemon", statusOK, fmt.Sprintf("Running (pid %d)", view.DaemonPID), colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "Not running; values below may be stale", colorize))
	}
	lines = append(lines, renderStatusLine("Status file", statusInfo, view.StatusPath, colorize))
	if view.Daemon != nil {
		lines = append(lines, renderStatusLine("Hotplug", statusInfo, yesNo(view.Daemon.Hotplug), colorize))
		lines = append(lines, renderStatusLine("Pending alerts", statusInfo, strconv.Itoa(view.Daemon.PendingEvents), colorize))
	}
	if view.ReadErr != nil {
		lines = append(lines, renderStatusLine("Read", statusError, view.ReadErr.Error(), colorize))
		fmt.Fprintln(w, strings.Join(lines, "\n"))
		return
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("devices", colorize)...)
	lines = append(lines, cameraLine(view.Snapshot, colorize))
	lines = append(lines, microphoneLine(view.Snapshot, colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("top processes", colorize)...)
	fmt.Fprintln(w, strings.Join(lines, "\n"))
	fmt.Fprintln(w, processSection(view.Snapshot))

	if view.Daemon != nil && len(view.Daemon.Workers) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.Join(renderSectionHeader("workers", colorize), "\n"))
		fmt.Fprintln(w, workerTable(view.Daemon.Workers))
	}
}

func workerTable(workers []ipc.WorkerHealth) string {
	rows := make([][]string, 0, len(workers))
	for _, w := range workers {
		state := "alive"
		if !w.Alive {
			state = "dead"
		}
		rows = append(rows, []string{
			w.Name,
			state,
			strconv.Itoa(w.Restarts),
			formatWhen(w.StartedAt),
			w.LastError,
		})
	}
	return renderTable(
		[]string{"Worker", "State", "Restarts", "Started", "Last error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func cameraLine(snap status.Snapshot, colorize bool) string {
	cam, ok := snap.Camera()
	if !ok {
		return renderStatusLine("Camera", statusInfo, "Not checked yet", colorize)
	}
	if cam.Connected {
		return renderStatusLine("Camera", statusWarn, "Connected (checked "+formatWhen(cam.CheckedAt)+")", colorize)
	}
	return renderStatusLine("Camera", statusOK, "Not connected (checked "+formatWhen(cam.CheckedAt)+")", colorize)
}

func microphoneLine(snap status.Snapshot, colorize bool) string {
	mic, ok := snap.Microphone()
	if !ok {
		return renderStatusLine("Microphone", statusInfo, "Not checked yet", colorize)
	}
	if !mic.Accessible {
		return renderStatusLine("Microphone", statusOK, "Unavailable (checked "+formatWhen(mic.CheckedAt)+")", colorize)
	}
	message := "Ready"
	if mic.Device != nil {
		message = fmt.Sprintf("Ready: %s (index %d)", mic.Device.Name, mic.Device.Index)
	}
	return renderStatusLine("Microphone", statusWarn, message+" (checked "+formatWhen(mic.CheckedAt)+")", colorize)
}

func processSection(snap status.Snapshot) string {
	procs, ok := snap.Processes()
	if !ok {
		return statusIndent + "Not checked yet"
	}
	if len(procs.Top) == 0 {
		return statusIndent + "No processes reported at " + formatWhen(procs.When)
	}
	rows := make([][]string, 0, len(procs.Top))
	for _, proc := range procs.Top {
		rows = append(rows, []string{
			strconv.FormatInt(int64(proc.PID), 10),
			proc.Name,
			strconv.FormatFloat(proc.CPUPercent, 'f', 1, 64),
			proc.Username,
		})
	}
	table := renderTable(
		[]string{"PID", "Name", "CPU %", "User"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	)
	return table + "\n" + statusIndent + "Sampled at " + formatWhen(procs.When)
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(time.RFC3339)
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", cases.Title(language.Und).String(strings.TrimSpace(title)))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
