// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Keeps the most recent records in a ring buffer, shown by the simulator
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"animation": "debug", // Per-module overrides
//			"sensor":    "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("touch")
//	logger.Info("Touch sensor ready", "address", 0x5a)
//	logger.Debug("Touch ended", "outcome", "short", "length_ms", 240)
//
// Add contextual attributes:
//
//	logger := logging.GetLogger("led").With("driver", "sysfs")
//	logger.Info("LED driver ready") // Includes driver in all logs
//
// # Log Levels
//
//	debug - Every color write and touch edge
//	info  - Mode changes, driver and sensor setup
//	warn  - Failed LED writes, recoverable sensor errors
//	error - Initialization failures
//
// # Output Destinations
//
// Every record lands in the ring buffer. It is also written to stdout
// (text or JSON) unless Config.NoConsole is set or stdout is discarded, and
// to the journal when journald is reachable.
//
// Journal availability is checked via [github.com/coreos/go-systemd/v22/journal.Enabled].
//
// # Viewing Logs
//
//	journalctl -t touchlight              # All touchlight logs
//	journalctl -t touchlight -f           # Follow live
//	journalctl -t touchlight MODULE=touch # One module
//
// # Configuration
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	animation = "debug"
//	sensor = "warn"
//
// Levels can be changed at runtime with [SetLevels]; loggers already handed
// out follow the change.
package logging
