package pipe

import (
	"fmt"
	"sync"
	"time"

	"github.com/usbforge/usbpipe/hal"
	"github.com/usbforge/usbpipe/pkg"
)

// Processor drains a pipe's request queue on a dedicated goroutine.
//
// One processor exists per open pipe. It takes requests from the queue in
// FIFO order, executes each against the device synchronously, records the
// outcome on the request, and fires its completion signal. When the queue
// is empty it sleeps until woken by [Processor.Wake] or [Processor.Shutdown].
// A failed request never stops the processor; only a shutdown does.
type Processor struct {
	device   hal.Device
	endpoint hal.EndpointDescriptor
	queue    *Queue
	timeout  time.Duration

	// mu guards the flags below and backs cond. The empty-queue check and
	// the idle wait happen under mu, as do producer-side wakes, so a wake
	// issued while the processor is deciding to sleep is never lost.
	mu         sync.Mutex
	cond       *sync.Cond
	started    bool
	running    bool
	stop       bool
	processing bool
}

// NewProcessor creates a processor for the given device, endpoint and
// queue. A non-positive timeout selects [DefaultTransferTimeout].
func NewProcessor(device hal.Device, endpoint hal.EndpointDescriptor, queue *Queue, timeout time.Duration) *Processor {
	if timeout <= 0 {
		timeout = DefaultTransferTimeout
	}
	p := &Processor{
		device:   device,
		endpoint: endpoint,
		queue:    queue,
		timeout:  timeout,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Start launches the drain goroutine. The running flag is set before
// Start returns, so a ShutdownAndWait issued immediately afterwards
// observes the worker. A processor starts at most once.
func (p *Processor) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return pkg.ErrAlreadyRunning
	}
	p.started = true
	p.running = true
	go p.run()
	return nil
}

// Shutdown requests termination and wakes the processor if it is idle.
// It does not block and is safe to call repeatedly, including after the
// processor has already stopped.
func (p *Processor) Shutdown() {
	p.mu.Lock()
	p.stop = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// ShutdownAndWait requests termination and blocks until the drain
// goroutine has fully exited. A request already taken from the queue is
// still processed to completion; requests not yet taken are left in the
// queue untouched.
func (p *Processor) ShutdownAndWait() {
	p.Shutdown()
	p.mu.Lock()
	for p.running {
		p.cond.Wait()
	}
	p.mu.Unlock()
}

// IsRunning returns true while the drain goroutine is alive.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// IsProcessing returns true while the processor is inside the synchronous
// processing of a request, as opposed to idle-waiting.
func (p *Processor) IsProcessing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processing
}

// Wake rouses an idle processor so it re-examines the queue. Producers
// call this after pushing a request.
func (p *Processor) Wake() {
	p.mu.Lock()
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *Processor) stopRequested() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop
}

func (p *Processor) setProcessing(v bool) {
	p.mu.Lock()
	p.processing = v
	p.mu.Unlock()
}

// run is the drain loop.
func (p *Processor) run() {
	pkg.LogDebug(pkg.ComponentPipe, "queue processor started",
		"endpoint", fmt.Sprintf("0x%02X", p.endpoint.Address))

	p.mu.Lock()
	for !p.stop {
		p.mu.Unlock()
		p.drain()
		p.mu.Lock()
		p.processing = false
		for !p.stop && p.queue.Len() == 0 {
			p.cond.Wait()
		}
	}
	p.running = false
	p.cond.Broadcast()
	p.mu.Unlock()

	pkg.LogDebug(pkg.ComponentPipe, "queue processor stopped",
		"endpoint", fmt.Sprintf("0x%02X", p.endpoint.Address))
}

// drain processes queued requests until the queue is empty or a stop has
// been requested. A request is never abandoned once taken.
func (p *Processor) drain() {
	for !p.stopRequested() {
		req := p.queue.TryPop()
		if req == nil {
			return
		}
		p.setProcessing(true)
		p.process(req)
	}
}

// process dispatches one request to the transfer primitive matching the
// endpoint's type and direction, records the outcome, and completes it.
func (p *Processor) process(req *Request) {
	typ := p.endpoint.TransferType()
	dir := p.endpoint.Direction()

	var n int
	var err error
	switch {
	case typ == hal.TransferBulk && dir == hal.DirectionOut:
		n, err = p.write(req.Data, typ)
	case typ == hal.TransferBulk && dir == hal.DirectionIn:
		n, err = p.read(req.Data, typ)
	case typ == hal.TransferInterrupt && dir == hal.DirectionOut:
		n, err = p.write(req.Data, typ)
	case typ == hal.TransferInterrupt && dir == hal.DirectionIn:
		n, err = p.read(req.Data, typ)
	default:
		err = fmt.Errorf("%w: %s %s endpoint 0x%02X",
			pkg.ErrNotSupported, typ, dir, p.endpoint.Address)
	}

	if err != nil {
		pkg.LogDebug(pkg.ComponentTransfer, "request failed",
			"endpoint", fmt.Sprintf("0x%02X", p.endpoint.Address),
			"error", err)
	}
	req.complete(n, err)
}

// read issues a single bounded read of at most one maximum-size packet.
// The device never transfers more than maxPacketSize per request even if
// the caller's buffer is larger.
func (p *Processor) read(buf []byte, typ hal.TransferType) (int, error) {
	handle, err := p.device.Open()
	if err != nil {
		return 0, err
	}
	size := min(len(buf), int(p.endpoint.MaxPacketSize))
	if typ == hal.TransferBulk {
		return handle.BulkRead(p.endpoint.Address, buf[:size], p.timeout)
	}
	return handle.InterruptRead(p.endpoint.Address, buf[:size], p.timeout)
}

// write sends buf in chunks of at most one maximum-size packet until the
// cumulative count reaches len(buf). A zero-length payload issues no
// primitive calls. The first failing chunk aborts the transfer, as does
// a chunk that makes no progress: a device accepting zero bytes of a
// non-empty chunk would otherwise be retried forever.
func (p *Processor) write(buf []byte, typ hal.TransferType) (int, error) {
	total := len(buf)
	if total == 0 {
		return 0, nil
	}
	size := int(p.endpoint.MaxPacketSize)
	if size <= 0 {
		return 0, pkg.NewTransportError("write", pkg.StatusInvalidParam)
	}

	handle, err := p.device.Open()
	if err != nil {
		return 0, err
	}

	written := 0
	for written < total {
		chunk := min(total-written, size)
		var n int
		if typ == hal.TransferBulk {
			n, err = handle.BulkWrite(p.endpoint.Address, buf[written:written+chunk], p.timeout)
		} else {
			n, err = handle.InterruptWrite(p.endpoint.Address, buf[written:written+chunk], p.timeout)
		}
		if err != nil {
			return written, err
		}
		if n == 0 {
			return written, pkg.NewTransportError("write", pkg.StatusIO)
		}
		written += n
	}
	return written, nil
}
