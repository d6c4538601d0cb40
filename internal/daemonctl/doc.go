// Package daemonctl launches a detached daemon process and waits for its
// control socket to come up or go away. The CLI start and stop commands are
// thin wrappers around it.
package daemonctl
