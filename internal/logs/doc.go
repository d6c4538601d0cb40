// Package logs reads the daemon's log files for the CLI: the trailing lines
// of the current log and a follow loop that survives the log pointer moving
// to a new run.
package logs
