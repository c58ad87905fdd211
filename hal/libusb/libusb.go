package libusb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"

	"github.com/usbforge/usbpipe/hal"
	"github.com/usbforge/usbpipe/pkg"
)

// Device wraps an open gousb device behind the [hal.Device] contract.
//
// The default interface (configuration 1, interface 0, alternate 0) is
// claimed lazily on the first Open call and held until Close. Open is
// cheap after that: the same handle is returned for every request.
type Device struct {
	dev *gousb.Device

	mu     sync.Mutex
	handle *Handle
	closed bool
}

// NewDevice wraps an already-open gousb device. The wrapper takes
// ownership: closing the wrapper closes the device. Auto-detach of
// kernel drivers is enabled where the platform supports it.
func NewDevice(dev *gousb.Device) *Device {
	// Best effort; unsupported on some platforms.
	_ = dev.SetAutoDetach(true)
	return &Device{dev: dev}
}

// OpenDevice opens the first device matching the given vendor and
// product IDs within ctx and wraps it.
func OpenDevice(ctx *gousb.Context, vid, pid uint16) (*Device, error) {
	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		return nil, mapError("open device", err)
	}
	if dev == nil {
		return nil, pkg.NewTransportError("open device", pkg.StatusNotFound)
	}
	return NewDevice(dev), nil
}

// Open implements [hal.Device].
func (d *Device) Open() (hal.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, pkg.NewTransportError("open", pkg.StatusNoDevice)
	}
	if d.handle != nil {
		return d.handle, nil
	}

	iface, done, err := d.dev.DefaultInterface()
	if err != nil {
		return nil, mapError("claim interface", err)
	}
	d.handle = &Handle{iface: iface, release: done}

	pkg.LogDebug(pkg.ComponentHAL, "interface claimed",
		"device", d.dev.String())
	return d.handle, nil
}

// EndpointDescriptor returns the descriptor of the endpoint with the
// given address on the claimed interface, in the form consumed by the
// pipe core.
func (d *Device) EndpointDescriptor(address uint8) (hal.EndpointDescriptor, error) {
	h, err := d.Open()
	if err != nil {
		return hal.EndpointDescriptor{}, err
	}
	desc, ok := h.(*Handle).iface.Setting.Endpoints[gousb.EndpointAddress(address)]
	if !ok {
		return hal.EndpointDescriptor{}, pkg.NewTransportError("endpoint lookup", pkg.StatusNotFound)
	}
	return hal.EndpointDescriptor{
		Address:       uint8(desc.Address),
		Attributes:    uint8(desc.TransferType),
		MaxPacketSize: uint16(desc.MaxPacketSize),
		Interval:      uint8(desc.PollInterval / time.Millisecond),
	}, nil
}

// Close releases the claimed interface and closes the device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if d.handle != nil {
		d.handle.release()
		d.handle = nil
	}
	return d.dev.Close()
}

// Handle is an open gousb device with its default interface claimed.
// It implements [hal.Handle].
type Handle struct {
	iface   *gousb.Interface
	release func()
}

// BulkRead implements [hal.Handle].
func (h *Handle) BulkRead(endpoint uint8, buf []byte, timeout time.Duration) (int, error) {
	return h.read("bulk read", gousb.TransferTypeBulk, endpoint, buf, timeout)
}

// BulkWrite implements [hal.Handle].
func (h *Handle) BulkWrite(endpoint uint8, buf []byte, timeout time.Duration) (int, error) {
	return h.write("bulk write", gousb.TransferTypeBulk, endpoint, buf, timeout)
}

// InterruptRead implements [hal.Handle].
func (h *Handle) InterruptRead(endpoint uint8, buf []byte, timeout time.Duration) (int, error) {
	return h.read("interrupt read", gousb.TransferTypeInterrupt, endpoint, buf, timeout)
}

// InterruptWrite implements [hal.Handle].
func (h *Handle) InterruptWrite(endpoint uint8, buf []byte, timeout time.Duration) (int, error) {
	return h.write("interrupt write", gousb.TransferTypeInterrupt, endpoint, buf, timeout)
}

func (h *Handle) read(op string, typ gousb.TransferType, endpoint uint8, buf []byte, timeout time.Duration) (int, error) {
	ep, err := h.iface.InEndpoint(int(endpoint & 0x0F))
	if err != nil {
		return 0, mapError(op, err)
	}
	if ep.Desc.TransferType != typ {
		return 0, pkg.NewTransportError(op, pkg.StatusInvalidParam)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	n, err := ep.ReadContext(ctx, buf)
	if err != nil {
		return n, mapError(op, err)
	}
	return n, nil
}

func (h *Handle) write(op string, typ gousb.TransferType, endpoint uint8, buf []byte, timeout time.Duration) (int, error) {
	ep, err := h.iface.OutEndpoint(int(endpoint & 0x0F))
	if err != nil {
		return 0, mapError(op, err)
	}
	if ep.Desc.TransferType != typ {
		return 0, pkg.NewTransportError(op, pkg.StatusInvalidParam)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	n, err := ep.WriteContext(ctx, buf)
	if err != nil {
		return n, mapError(op, err)
	}
	return n, nil
}

// mapError converts gousb and context errors into transport errors
// carrying the libusb status code.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return pkg.NewTransportError(op, pkg.StatusTimeout)
	}
	var ge gousb.Error
	if errors.As(err, &ge) {
		return pkg.NewTransportError(op, int(ge))
	}
	return fmt.Errorf("%s: %w", op, err)
}
