package hal

import (
	"time"
)

// TransferType indicates the type of USB transfer an endpoint carries.
type TransferType uint8

// Transfer type constants, matching the bmAttributes encoding of the USB
// endpoint descriptor.
const (
	TransferControl     TransferType = 0 // Control transfer
	TransferIsochronous TransferType = 1 // Isochronous transfer
	TransferBulk        TransferType = 2 // Bulk transfer
	TransferInterrupt   TransferType = 3 // Interrupt transfer
)

// String returns a human-readable transfer type name.
func (t TransferType) String() string {
	switch t {
	case TransferControl:
		return "control"
	case TransferIsochronous:
		return "isochronous"
	case TransferBulk:
		return "bulk"
	case TransferInterrupt:
		return "interrupt"
	default:
		return "unknown"
	}
}

// Direction indicates the direction of an endpoint.
type Direction uint8

// Endpoint directions.
const (
	DirectionOut Direction = 0 // Host to device
	DirectionIn  Direction = 1 // Device to host
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	if d == DirectionIn {
		return "in"
	}
	return "out"
}

// EndpointDescriptor describes the endpoint a pipe is bound to. Its fields
// are fixed for the lifetime of the pipe.
type EndpointDescriptor struct {
	Address       uint8  // Endpoint address including direction bit
	Attributes    uint8  // Transfer type and sync/usage flags
	MaxPacketSize uint16 // Maximum packet size
	Interval      uint8  // Polling interval for interrupt endpoints
}

// Number returns the endpoint number (0-15).
func (e *EndpointDescriptor) Number() uint8 {
	return e.Address & 0x0F
}

// IsIn returns true if this is an IN endpoint (device to host).
func (e *EndpointDescriptor) IsIn() bool {
	return e.Address&0x80 != 0
}

// Direction returns the endpoint direction derived from the address bit.
func (e *EndpointDescriptor) Direction() Direction {
	if e.IsIn() {
		return DirectionIn
	}
	return DirectionOut
}

// TransferType returns the transfer type encoded in the attributes.
func (e *EndpointDescriptor) TransferType() TransferType {
	return TransferType(e.Attributes & 0x03)
}

// Device yields open handles to the underlying USB device.
//
// Open may block and may fail; the pipe core treats an open failure as a
// transport failure for the request being processed. The handle is borrowed
// for the duration of one request and never held across an idle wait.
type Device interface {
	Open() (Handle, error)
}

// Handle exposes the four blocking transfer primitives of an open device.
//
// Each call transfers at most one buffer's worth of data to or from the
// endpoint with the given address, blocking no longer than timeout, and
// returns the number of bytes transferred. The pipe core never issues a
// call larger than the endpoint's maximum packet size.
type Handle interface {
	// BulkRead reads from a bulk IN endpoint into buf.
	BulkRead(endpoint uint8, buf []byte, timeout time.Duration) (int, error)

	// BulkWrite writes buf to a bulk OUT endpoint.
	BulkWrite(endpoint uint8, buf []byte, timeout time.Duration) (int, error)

	// InterruptRead reads from an interrupt IN endpoint into buf.
	InterruptRead(endpoint uint8, buf []byte, timeout time.Duration) (int, error)

	// InterruptWrite writes buf to an interrupt OUT endpoint.
	InterruptWrite(endpoint uint8, buf []byte, timeout time.Duration) (int, error)
}
