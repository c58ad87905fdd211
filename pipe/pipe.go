package pipe

import (
	"context"
	"sync"
	"time"

	"github.com/usbforge/usbpipe/hal"
	"github.com/usbforge/usbpipe/pkg"
)

// DefaultTransferTimeout bounds each transfer primitive call when the
// configuration does not specify a timeout.
const DefaultTransferTimeout = 5 * time.Second

// Config holds pipe configuration.
type Config struct {
	// TransferTimeout bounds each individual transfer primitive call.
	// A timed-out call is reported as an ordinary transport failure on
	// the request being processed. Zero selects DefaultTransferTimeout.
	TransferTimeout time.Duration
}

// Pipe binds a request queue and its processor to one endpoint of a
// device.
//
// A pipe is created closed. Open starts the queue processor; Close stops
// it and waits for it to exit. Requests are submitted with Submit or
// SubmitAsync and complete in FIFO order, one at a time.
type Pipe struct {
	device   hal.Device
	endpoint hal.EndpointDescriptor
	timeout  time.Duration

	mu    sync.Mutex
	open  bool
	queue *Queue
	proc  *Processor
}

// New creates a pipe for the given device and endpoint.
func New(device hal.Device, endpoint hal.EndpointDescriptor, cfg Config) *Pipe {
	timeout := cfg.TransferTimeout
	if timeout <= 0 {
		timeout = DefaultTransferTimeout
	}
	return &Pipe{
		device:   device,
		endpoint: endpoint,
		timeout:  timeout,
	}
}

// Endpoint returns the descriptor of the endpoint the pipe is bound to.
func (p *Pipe) Endpoint() hal.EndpointDescriptor {
	return p.endpoint
}

// Open starts the pipe's queue processor. Opening an open pipe fails
// with pkg.ErrAlreadyOpen. A closed pipe may be reopened; each open
// creates a fresh queue and processor.
func (p *Pipe) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		return pkg.ErrAlreadyOpen
	}

	p.queue = NewQueue()
	p.proc = NewProcessor(p.device, p.endpoint, p.queue, p.timeout)
	if err := p.proc.Start(); err != nil {
		return err
	}
	p.open = true

	pkg.LogInfo(pkg.ComponentPipe, "pipe opened",
		"endpoint", p.endpoint.Number(),
		"type", p.endpoint.TransferType().String(),
		"direction", p.endpoint.Direction().String())
	return nil
}

// Close stops the queue processor and waits for it to exit. A request
// being processed when Close is called still completes; requests not yet
// taken from the queue are completed with pkg.ErrAborted. Closing a
// closed pipe is a no-op.
func (p *Pipe) Close() error {
	p.mu.Lock()
	if !p.open {
		p.mu.Unlock()
		return nil
	}
	p.open = false
	proc, queue := p.proc, p.queue
	p.mu.Unlock()

	proc.ShutdownAndWait()
	for _, req := range queue.Drain() {
		req.complete(0, pkg.ErrAborted)
	}

	pkg.LogInfo(pkg.ComponentPipe, "pipe closed",
		"endpoint", p.endpoint.Number())
	return nil
}

// IsOpen returns true while the pipe is open.
func (p *Pipe) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// IsProcessing returns true while the pipe's processor is inside the
// synchronous processing of a request.
func (p *Pipe) IsProcessing() bool {
	p.mu.Lock()
	proc := p.proc
	p.mu.Unlock()
	return proc != nil && proc.IsProcessing()
}

// SubmitAsync enqueues a request and returns immediately. The request
// completes later through its completion signal.
func (p *Pipe) SubmitAsync(req *Request) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return pkg.ErrNotOpen
	}
	p.queue.Push(req)
	p.proc.Wake()
	return nil
}

// Submit enqueues a request and blocks until it completes or ctx is
// cancelled. On completion it returns the request's recorded failure,
// if any.
func (p *Pipe) Submit(ctx context.Context, req *Request) error {
	if err := p.SubmitAsync(req); err != nil {
		return err
	}
	return req.Wait(ctx)
}

// AbortAll removes every request not yet taken by the processor and
// completes each with pkg.ErrAborted. A request currently being
// processed is not interrupted.
func (p *Pipe) AbortAll() {
	p.mu.Lock()
	queue := p.queue
	p.mu.Unlock()
	if queue == nil {
		return
	}
	for _, req := range queue.Drain() {
		req.complete(0, pkg.ErrAborted)
	}
}

// Pending returns the number of submitted requests not yet taken by the
// processor.
func (p *Pipe) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.queue == nil {
		return 0
	}
	return p.queue.Len()
}
