// Package pkg provides shared utilities for the usbpipe library.
//
// This package contains common functionality used across the pipe core and
// the HAL backends, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for pipe and transfer conditions
//   - The [TransportError] type carrying backend status codes
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with pipe-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentPipe, "pipe opened", "endpoint", 0x81)
//
// # Errors
//
// Common conditions are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrTimeout) {
//	    // Handle transfer timeout
//	}
//
// Failures reported by a transfer backend are wrapped in a [TransportError],
// which preserves the backend's negative status code and unwraps to the
// matching sentinel where one exists.
package pkg
