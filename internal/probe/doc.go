// Package probe implements best-effort Linux capability checks for the
// camera, microphone, and process monitors.
//
// Probes report what they can observe without opening capture streams:
// the camera probe inspects the V4L2 device node, the microphone probe reads
// the ALSA PCM table, and the process lister samples per-process CPU usage
// through gopsutil.
package probe
