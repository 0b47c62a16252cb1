package transport

import (
	"sync"
)

// Result is the outcome of one pending response: the delivered bytes, or the
// connection error that ended the wait.
type Result struct {
	Data []byte
	Err  error
}

// pendingQueue is the per-connection FIFO of one-shot response handlers.
//
// The wire protocol carries no request identifiers, so correlation is purely
// positional: the oldest pending handler is served by the next inbound
// message. A handler that timed out on the caller's side stays queued; the
// late response is then consumed by its buffered channel and discarded
// instead of being misapplied to a younger request.
type pendingQueue struct {
	mu       sync.Mutex
	handlers []chan Result
}

// enqueue appends a new one-shot handler and returns its receive side.
// Must be called before the request is written so a fast response cannot
// race ahead of registration.
func (q *pendingQueue) enqueue() <-chan Result {
	ch := make(chan Result, 1)
	q.mu.Lock()
	q.handlers = append(q.handlers, ch)
	q.mu.Unlock()
	return ch
}

// dispatch pops the oldest handler and resolves it with res. It reports
// whether a handler was pending; if not, the caller drops the bytes.
func (q *pendingQueue) dispatch(res Result) bool {
	q.mu.Lock()
	if len(q.handlers) == 0 {
		q.mu.Unlock()
		return false
	}
	ch := q.handlers[0]
	q.handlers = q.handlers[1:]
	q.mu.Unlock()

	// Capacity 1, exactly one send per handler: never blocks
	ch <- res
	return true
}

// failAll resolves every pending handler with err and empties the queue.
// Used when the connection is lost or closed.
func (q *pendingQueue) failAll(err error) {
	q.mu.Lock()
	handlers := q.handlers
	q.handlers = nil
	q.mu.Unlock()

	for _, ch := range handlers {
		ch <- Result{Err: err}
	}
}

// size returns the number of pending handlers.
func (q *pendingQueue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.handlers)
}
