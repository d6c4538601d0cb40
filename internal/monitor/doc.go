// Package monitor runs the polling loops behind the camera, microphone, and
// process monitors.
//
// A Monitor owns one Check. Every iteration it polls the check, writes the
// resulting section to the status store, publishes an event when the check
// reports a transition, and then waits for the next tick, a hotplug trigger,
// or cancellation. Probe failures never escape a check: they are recorded as
// negative observations and logged.
package monitor
