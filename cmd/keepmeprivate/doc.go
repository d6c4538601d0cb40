// Command keepmeprivate runs the privacy monitor daemon and reads the status
// file it maintains.
//
//	keepmeprivate run              start the daemon in the foreground
//	keepmeprivate status [--json]  show the latest camera, microphone, and process state
//	keepmeprivate config init      write a sample configuration file
//	keepmeprivate test-notify      send a notification through the configured notifiers
package main
