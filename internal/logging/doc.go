// Package logging provides structured logging for mbotlink.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the tool. It provides both general logging functions
// and specialized functions for protocol-specific logging needs.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (hex dumps, frame boundaries, poll ticks)
//   - Info: Normal operations (connections, decoded sensor values, state changes)
//   - Warn: Non-fatal issues (unknown index types, commands while disconnected)
//   - Error: Fatal issues (startup failures, port open errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Device connected",
//	    zap.String("port", "/dev/rfcomm0"),
//	    zap.Int("baud", 115200),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific helpers:
//
//	logging.LogConnection("/dev/rfcomm0", "link_opened")
//	logging.LogRawBytes("inbound chunk", chunk)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is given, the MBOTLINK_LOG_LEVEL environment variable is
// consulted; if that is also unset, logging is silent so that CLI output
// stays clean.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
