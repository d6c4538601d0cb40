// Package ipc exposes the running daemon over JSON-RPC on a Unix domain
// socket and ships the matching client used by the CLI.
//
// The socket only answers local status, poll, and stop requests. Monitor
// state itself is read from the status file, which works without a daemon.
package ipc
