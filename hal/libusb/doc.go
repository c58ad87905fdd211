// Package libusb implements the HAL contracts on top of libusb via
// github.com/google/gousb.
//
// [Device] wraps an open gousb device, claiming its default interface on
// first use, and [Handle] maps the four transfer primitives onto gousb
// endpoint reads and writes with per-call timeouts. gousb status codes
// pass through unchanged as the negative code of a pkg.TransportError,
// so errors.Is works against the pkg sentinels (timeout, stall, no
// device) regardless of backend.
//
// # Example
//
//	ctx := gousb.NewContext()
//	defer ctx.Close()
//
//	dev, err := libusb.OpenDevice(ctx, 0x1234, 0x5678)
//	if err != nil { ... }
//	defer dev.Close()
//
//	ep, err := dev.EndpointDescriptor(0x81)
//	if err != nil { ... }
//
//	p := pipe.New(dev, ep, pipe.Config{})
//
// Building this package requires cgo and the libusb-1.0 headers.
package libusb
