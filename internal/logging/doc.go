// Package logging provides structured logging for espmonitor.
//
// This package wraps a zap logger with convenience functions. Because the
// monitor owns the terminal in raw mode, logging is silent unless a level is
// requested with --log-level or the ESPMONITOR_LOG_LEVEL environment variable.
//
// # Log Levels
//
//   - Debug: raw serial chunks (hex/ASCII dumps), addr2line lookups
//   - Info: session lifecycle (port opened, resets, mirror clients)
//   - Warn: recoverable problems (missing flash image, dropped mirror clients)
//   - Error: fatal conditions right before exit
//
// # Configuration
//
//	if err := logging.Initialize("debug", "/tmp/espmonitor.log"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Writing to a file is recommended while the console is in raw mode; when no
// path is given the logger writes to stderr.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
