package loop

import (
	"sync"
	"time"

	"github.com/usbforge/usbpipe/hal"
	"github.com/usbforge/usbpipe/pkg"
)

// endpointState tracks the loopback state of one endpoint address.
type endpointState struct {
	data     []byte      // Pending IN data, consumed by reads
	written  []byte      // Accumulated OUT data
	calls    int         // Primitive calls issued against this endpoint
	failures map[int]int // Call number (1-based) to failing status code
	shorts   map[int]int // Call number (1-based) to accepted byte cap
}

// Device is an in-memory software USB device.
//
// IN endpoints read back data previously queued with [Device.Feed]. OUT
// endpoints accumulate written data, retrievable with [Device.Written].
// Individual primitive calls can be scripted to fail with a transport
// status code via [Device.FailCall], or to accept only part of a write
// via [Device.ShortCall].
//
// Device implements both [hal.Device] and [hal.Handle]: Open returns the
// device itself, mirroring a cached device handle.
type Device struct {
	mu   sync.Mutex
	cond *sync.Cond

	eps     map[uint8]*endpointState
	openErr error
	closed  bool
}

// NewDevice creates a new loopback device.
func NewDevice() *Device {
	d := &Device{
		eps: make(map[uint8]*endpointState),
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// state returns the endpoint state, creating it on first use.
// The caller must hold d.mu.
func (d *Device) state(endpoint uint8) *endpointState {
	st, ok := d.eps[endpoint]
	if !ok {
		st = &endpointState{
			failures: make(map[int]int),
			shorts:   make(map[int]int),
		}
		d.eps[endpoint] = st
	}
	return st
}

// Open implements [hal.Device].
func (d *Device) Open() (hal.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	if d.closed {
		return nil, pkg.NewTransportError("open", pkg.StatusNoDevice)
	}
	return d, nil
}

// SetOpenError makes subsequent Open calls fail with err.
// Passing nil restores normal operation.
func (d *Device) SetOpenError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.openErr = err
}

// Feed queues data for reads from the given IN endpoint.
func (d *Device) Feed(endpoint uint8, p []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.state(endpoint)
	st.data = append(st.data, p...)
	d.cond.Broadcast()
}

// Written returns a copy of all data written to the given OUT endpoint.
func (d *Device) Written(endpoint uint8) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.state(endpoint)
	out := make([]byte, len(st.written))
	copy(out, st.written)
	return out
}

// Calls returns the number of primitive calls issued against the
// given endpoint, including calls that failed.
func (d *Device) Calls(endpoint uint8) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state(endpoint).calls
}

// FailCall scripts the call-th primitive call (1-based) on the given
// endpoint to fail with the transport status code.
func (d *Device) FailCall(endpoint uint8, call int, code int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state(endpoint).failures[call] = code
}

// ShortCall scripts the call-th write (1-based) on the given endpoint
// to accept at most n bytes, producing a short transfer.
func (d *Device) ShortCall(endpoint uint8, call int, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state(endpoint).shorts[call] = n
}

// Close marks the device as gone. Blocked reads are released with a
// no-device status, and subsequent opens fail.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.cond.Broadcast()
}

// BulkRead implements [hal.Handle].
func (d *Device) BulkRead(endpoint uint8, buf []byte, timeout time.Duration) (int, error) {
	return d.read("bulk read", endpoint, buf, timeout)
}

// BulkWrite implements [hal.Handle].
func (d *Device) BulkWrite(endpoint uint8, buf []byte, timeout time.Duration) (int, error) {
	return d.write("bulk write", endpoint, buf)
}

// InterruptRead implements [hal.Handle].
func (d *Device) InterruptRead(endpoint uint8, buf []byte, timeout time.Duration) (int, error) {
	return d.read("interrupt read", endpoint, buf, timeout)
}

// InterruptWrite implements [hal.Handle].
func (d *Device) InterruptWrite(endpoint uint8, buf []byte, timeout time.Duration) (int, error) {
	return d.write("interrupt write", endpoint, buf)
}

// read consumes queued IN data, blocking up to timeout for data to arrive.
func (d *Device) read(op string, endpoint uint8, buf []byte, timeout time.Duration) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := d.state(endpoint)
	st.calls++
	if code, ok := st.failures[st.calls]; ok {
		return 0, pkg.NewTransportError(op, code)
	}
	if len(buf) == 0 {
		return 0, nil
	}

	deadline := time.Now().Add(timeout)
	for len(st.data) == 0 {
		if d.closed {
			return 0, pkg.NewTransportError(op, pkg.StatusNoDevice)
		}
		if !d.waitUntil(deadline) {
			return 0, pkg.NewTransportError(op, pkg.StatusTimeout)
		}
	}

	n := copy(buf, st.data)
	st.data = st.data[n:]
	return n, nil
}

// write accumulates OUT data. Writes never block.
func (d *Device) write(op string, endpoint uint8, buf []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := d.state(endpoint)
	st.calls++
	if code, ok := st.failures[st.calls]; ok {
		return 0, pkg.NewTransportError(op, code)
	}
	if d.closed {
		return 0, pkg.NewTransportError(op, pkg.StatusNoDevice)
	}

	if limit, ok := st.shorts[st.calls]; ok && limit < len(buf) {
		buf = buf[:limit]
	}
	st.written = append(st.written, buf...)
	return len(buf), nil
}

// waitUntil waits on the device condition until woken or the deadline
// passes. Returns false once the deadline has passed. The caller must
// hold d.mu.
func (d *Device) waitUntil(deadline time.Time) bool {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return false
	}
	timer := time.AfterFunc(remaining, func() {
		d.mu.Lock()
		d.cond.Broadcast()
		d.mu.Unlock()
	})
	d.cond.Wait()
	timer.Stop()
	return time.Now().Before(deadline)
}
