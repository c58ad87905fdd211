package pipe

import (
	"context"
	"sync/atomic"
)

// Request describes one transfer attempt against a pipe's endpoint.
//
// A request is created by a producer, submitted through a [Pipe], mutated
// exactly once by the pipe's queue processor, and handed back to the
// producer through its completion signal. After completion fires, exactly
// one of the recorded outcomes holds: the actual length is set, or a
// failure is set. The library retains no reference to a completed request.
type Request struct {
	// Data is the payload buffer. For IN endpoints it is filled in place
	// with received bytes; for OUT endpoints it holds the bytes to send.
	// The requested transfer length is len(Data).
	Data []byte

	// Callback, if set, is invoked once when the request completes,
	// after the outcome has been recorded and the done channel closed.
	Callback func(*Request)

	actual    int
	err       error
	completed int32
	done      chan struct{}
}

// NewRequest creates a request for the given payload buffer.
func NewRequest(data []byte) *Request {
	return &Request{
		Data: data,
		done: make(chan struct{}),
	}
}

// Length returns the requested transfer length.
func (r *Request) Length() int {
	return len(r.Data)
}

// ActualLength returns the number of bytes actually transferred.
// Valid only after the request has completed without failure.
func (r *Request) ActualLength() int {
	return r.actual
}

// Err returns the recorded failure, or nil.
// Valid only after the request has completed.
func (r *Request) Err() error {
	return r.err
}

// IsComplete returns true once the request has completed. Completion
// becomes observable only after the outcome has been recorded, so a
// caller that sees true may read ActualLength and Err.
func (r *Request) IsComplete() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed when the request completes.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the request completes or ctx is cancelled. On
// completion it returns the request's recorded failure, if any.
func (r *Request) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return r.err
	}
}

// complete records the outcome and fires the completion signal. The first
// call wins; later calls are ignored, so the signal fires exactly once.
func (r *Request) complete(n int, err error) {
	if !atomic.CompareAndSwapInt32(&r.completed, 0, 1) {
		return
	}
	if err != nil {
		r.err = err
	} else {
		r.actual = n
	}
	// The outcome is recorded before the channel closes, so any
	// observer of Done or IsComplete reads a settled result.
	close(r.done)
	if r.Callback != nil {
		r.Callback(r)
	}
}
