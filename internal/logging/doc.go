// Package logging provides structured logging for the n2klink tools.
//
// This package wraps zap with convenience functions for common logging
// patterns used throughout the SDK and its commands. It provides both
// general logging functions and specialized functions for bus traffic.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (hex dumps, frame traces, reconnects)
//   - Info: Normal operations (connections, decoded messages, replays)
//   - Warn: Non-fatal issues (dropped frames, checksum failures)
//   - Error: Fatal issues (open failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Gateway connected",
//	    zap.String("target", "/dev/ttyUSB0"),
//	    zap.Int("baud", 115200),
//	)
//
// # Specialized Logging
//
// The package provides domain-specific logging functions:
//
// Connection Logging:
//
//	logging.LogConnection(target, "opened")
//	logging.LogConnection(target, "closed")
//
// Frame Logging:
//
//	logging.LogFrame("rx", frame)
//	logging.LogFrame("tx", frame)
//
// # Configuration
//
// Commands stay silent unless N2KLINK_LOG_LEVEL is set, so decoded
// output is never interleaved with log noise by default:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
