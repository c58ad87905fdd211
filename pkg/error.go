package pkg

import (
	"errors"
	"fmt"
)

// Pipe and transfer errors.
var (
	// ErrTimeout indicates a transfer timeout.
	ErrTimeout = errors.New("transfer timeout")

	// ErrStall indicates an endpoint stall condition.
	ErrStall = errors.New("endpoint stalled")

	// ErrOverflow indicates the device returned more data than requested.
	ErrOverflow = errors.New("data overflow")

	// ErrNoDevice indicates the device is not present.
	ErrNoDevice = errors.New("device not present")

	// ErrNotSupported indicates an unsupported endpoint type or direction.
	ErrNotSupported = errors.New("endpoint not supported")

	// ErrAborted indicates a request was aborted before it was taken
	// from the queue.
	ErrAborted = errors.New("request aborted")

	// ErrNotOpen indicates the pipe is not open.
	ErrNotOpen = errors.New("pipe not open")

	// ErrAlreadyOpen indicates the pipe is already open.
	ErrAlreadyOpen = errors.New("pipe already open")

	// ErrAlreadyRunning indicates the queue processor was started twice.
	ErrAlreadyRunning = errors.New("already running")
)

// Transport status codes reported by backends. The values follow the
// libusb convention of negative codes, with zero and positive values
// reserved for byte counts.
const (
	StatusIO           = -1  // Input/output error
	StatusInvalidParam = -2  // Invalid parameter
	StatusAccess       = -3  // Access denied
	StatusNoDevice     = -4  // No such device
	StatusNotFound     = -5  // Entity not found
	StatusBusy         = -6  // Resource busy
	StatusTimeout      = -7  // Operation timed out
	StatusOverflow     = -8  // Overflow
	StatusPipe         = -9  // Pipe error (stall)
	StatusInterrupted  = -10 // System call interrupted
	StatusNoMem        = -11 // Insufficient memory
	StatusNotSupported = -12 // Operation not supported
	StatusOther        = -99 // Other error
)

// TransportError describes a failed transfer primitive call. It records
// the operation that failed and the backend's negative status code.
type TransportError struct {
	Op   string // Failing operation, e.g. "bulk read"
	Code int    // Negative backend status code
}

// NewTransportError returns a TransportError for the given operation
// and status code.
func NewTransportError(op string, code int) *TransportError {
	return &TransportError{Op: op, Code: code}
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed: %s (%d)", e.Op, statusText(e.Code), e.Code)
}

// Unwrap maps the status code to a sentinel error where one exists,
// so callers can use errors.Is against the sentinels above.
func (e *TransportError) Unwrap() error {
	switch e.Code {
	case StatusTimeout:
		return ErrTimeout
	case StatusPipe:
		return ErrStall
	case StatusOverflow:
		return ErrOverflow
	case StatusNoDevice:
		return ErrNoDevice
	case StatusNotSupported:
		return ErrNotSupported
	default:
		return nil
	}
}

// statusText returns a human-readable name for a transport status code.
func statusText(code int) string {
	switch code {
	case StatusIO:
		return "input/output error"
	case StatusInvalidParam:
		return "invalid parameter"
	case StatusAccess:
		return "access denied"
	case StatusNoDevice:
		return "no such device"
	case StatusNotFound:
		return "entity not found"
	case StatusBusy:
		return "resource busy"
	case StatusTimeout:
		return "operation timed out"
	case StatusOverflow:
		return "overflow"
	case StatusPipe:
		return "pipe error"
	case StatusInterrupted:
		return "system call interrupted"
	case StatusNoMem:
		return "insufficient memory"
	case StatusNotSupported:
		return "operation not supported"
	default:
		return "unknown error"
	}
}
