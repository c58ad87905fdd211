// Package hal defines the hardware abstraction boundary consumed by the
// pipe core.
//
// The pipe core contains no platform code of its own. It drives three small
// contracts defined here:
//
//   - [Device] yields an open [Handle] to the underlying USB device
//   - [Handle] exposes the four blocking transfer primitives (bulk and
//     interrupt, read and write), each bounded by a timeout
//   - [EndpointDescriptor] describes the endpoint the pipe is bound to
//
// # Implementing a backend
//
// A backend implements [Device] and [Handle] for one transport. Two backends
// ship with the library:
//
//   - [github.com/usbforge/usbpipe/hal/loop] is an in-memory loopback device
//     used by tests and examples
//   - [github.com/usbforge/usbpipe/hal/libusb] drives real hardware through
//     libusb via github.com/google/gousb
//
// Primitive calls must block for at most the given timeout and return the
// number of bytes transferred. Failures are reported as errors, typically a
// [github.com/usbforge/usbpipe/pkg.TransportError] carrying the backend's
// negative status code.
//
// # Handle lifetime
//
// Device.Open is called once per request processed, never across an idle
// wait, so a backend may cache and return the same handle. Backends that
// cache must keep Open cheap and safe for repeated calls.
package hal
