// Package daemon assembles the KeepMePrivate runtime: the status store, the
// event bus, one monitor per enabled device, the notification sink, and the
// supervisor that runs them.
//
// A Daemon holds a file lock next to the status file so only one instance
// writes it, and optionally listens for udev hotplug events to poll a device
// as soon as it appears or disappears.
package daemon
