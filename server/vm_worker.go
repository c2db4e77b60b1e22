package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrWorkerStopped is returned by Do once the worker has been stopped.
var ErrWorkerStopped = errors.New("vm worker stopped")

// vmRequest represents a unit of work to be executed on the worker goroutine.
type vmRequest struct {
	ctx  context.Context
	fn   func() interface{}
	done chan vmResult
}

// vmResult holds the return value from a processor operation.
type vmResult struct {
	value interface{}
	err   error
}

// VMWorker serializes all processor access through a single goroutine.
// Processors are not safe for concurrent use; every handler that reads or
// runs a session's processor must go through the worker.
type VMWorker struct {
	requests chan vmRequest
	quit     chan struct{}
	stopOnce sync.Once
}

// NewVMWorker creates a VMWorker and starts the processing goroutine.
func NewVMWorker() *VMWorker {
	w := &VMWorker{
		requests: make(chan vmRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine. Requests
// whose caller has given up are skipped.
func (w *VMWorker) loop() {
	for {
		select {
		case req := <-w.requests:
			if err := req.ctx.Err(); err != nil {
				req.done <- vmResult{err: err}
				continue
			}
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs a function, recovering from panics.
func (w *VMWorker) execute(fn func() interface{}) vmResult {
	var result vmResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("processor panic: %v", r)
			}
		}()
		result.value = fn()
	}()
	return result
}

// Do submits a function for execution on the worker goroutine and blocks
// until it completes. Returns the result and any error (including panics).
// Once fn has started, Do waits for it regardless of ctx, so a caller never
// loses the result of work that changed a processor.
func (w *VMWorker) Do(ctx context.Context, fn func() interface{}) (interface{}, error) {
	req := vmRequest{
		ctx:  ctx,
		fn:   fn,
		done: make(chan vmResult, 1),
	}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, ErrWorkerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case result := <-req.done:
		return result.value, result.err
	case <-w.quit:
		return nil, ErrWorkerStopped
	}
}

// Stop shuts down the worker goroutine. Calling Stop more than once is safe.
func (w *VMWorker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}
