// Package pipe implements asynchronous request processing for one USB
// endpoint.
//
// A [Pipe] binds a FIFO [Queue] of [Request] packets to a dedicated
// [Processor] goroutine. Producers submit requests describing a transfer;
// the processor drains the queue one request at a time, performs the
// blocking transfer against the device, records the outcome on the
// request, and fires its completion signal.
//
// # Lifecycle
//
// The processor is created when the pipe is opened and torn down when the
// pipe is closed:
//
//	p := pipe.New(device, endpoint, pipe.Config{})
//	if err := p.Open(); err != nil { ... }
//	defer p.Close()
//
// Close waits for the drain goroutine to exit. A request already taken
// from the queue is still processed; untaken requests are aborted.
//
// # Submitting requests
//
// Synchronous and asynchronous styles are both supported:
//
//	req := pipe.NewRequest(buf)
//	if err := p.Submit(ctx, req); err != nil { ... }
//	n := req.ActualLength()
//
//	req := pipe.NewRequest(buf)
//	req.Callback = func(r *pipe.Request) { ... }
//	p.SubmitAsync(req)
//
// # Transfer semantics
//
// Writes larger than the endpoint's maximum packet size are split into
// multiple primitive calls; the recorded actual length is the sum of the
// per-call transfers. Reads issue exactly one primitive call of at most
// one maximum-size packet, even when the request buffer is larger.
// Control and isochronous endpoints are not supported; a request against
// one completes with a failure wrapping pkg.ErrNotSupported.
//
// # Failure containment
//
// Per-request failures, including transport errors, timeouts, and
// device-open failures, are recorded on the request and never stop the
// processor. Only an explicit close does.
package pipe
