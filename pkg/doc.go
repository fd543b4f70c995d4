// Package pkg provides shared utilities for the wrn device firmware model
// and host daemon.
//
// This package contains common functionality used across both stacks,
// including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for the serial protocol and its surrounding
//     subsystems (sync, EEPROM log, watchdog, FIFO)
//   - Component identifiers for log filtering
//
// The package is designed to have zero external dependencies, relying
// only on the Go standard library.
//
// # Logging
//
// The logging subsystem wraps [log/slog] with protocol-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentDevice, "device configured", "config", 1)
//
// # Errors
//
// Protocol and transport errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrDesync) {
//	    // restart the sync handshake
//	}
package pkg
