// Package terminal manages raw mode for the interactive console.
//
// Raw mode is required so CTRL+R and CTRL+C reach the monitor as bytes
// instead of being turned into signals by the line discipline. Because a
// terminal left in raw mode is unusable, Restore is idempotent and is called
// from every exit path. Panics inside the session's activities are recovered
// by monitor.Run and come back as errors, so the deferred Restore still runs.
package terminal
