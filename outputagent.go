package jsonrpc

import (
	"errors"
	"fmt"
	"sync"
)

// MessageWriter writes one complete framed payload per call. It must be
// atomic at the frame boundary (spec.md §6); this package never writes
// a payload in more than one WriteMessage call.
type MessageWriter interface {
	WriteMessage(payload string) error
}

// WriterProvider lazily builds the MessageWriter a new OutputAgent will
// own. It is called on the agent's own worker goroutine (spec.md §4.4:
// "the writer is created on the worker thread, allowing non-movable
// writers to be used") rather than on the caller's goroutine.
type WriterProvider func() (MessageWriter, error)

// ErrOutputAgentShutdown is returned by Submit once Shutdown has been
// called. After a writer or provider failure, Submit instead returns an
// error wrapping that failure.
var ErrOutputAgentShutdown = errors.New("jsonrpc: output agent is shut down")

// OutputAgent is a single-consumer actor that owns a MessageWriter and
// serializes writes to it from any number of producer goroutines
// (spec.md §4.4). It generalizes the teacher package's mutex-guarded
// `send` closure in ServeConn into a standalone, reusable actor: one
// worker goroutine drains an ordered queue under a short critical
// section and performs the (potentially slow) write outside the lock.
type OutputAgent struct {
	mu   sync.Mutex
	cond *sync.Cond

	queue    []string
	shutdown bool // Shutdown() was called; drain queue then exit
	closed   bool // worker has exited
	failErr  error

	done chan struct{}
}

// StartWithProvider spawns the agent's worker goroutine. The writer is
// constructed by calling provider on that goroutine.
func StartWithProvider(provider WriterProvider) *OutputAgent {
	a := &OutputAgent{done: make(chan struct{})}
	a.cond = sync.NewCond(&a.mu)
	go a.run(provider)
	return a
}

func (a *OutputAgent) run(provider WriterProvider) {
	defer close(a.done)

	writer, err := provider()
	if err != nil {
		a.fail(err)
		return
	}

	for {
		payload, ok := a.next()
		if !ok {
			a.mu.Lock()
			a.closed = true
			a.mu.Unlock()
			return
		}
		if err := writer.WriteMessage(payload); err != nil {
			a.fail(err)
			return
		}
	}
}

// next blocks until a payload is available or the agent is shutting
// down with an empty queue, in which case ok is false.
func (a *OutputAgent) next() (payload string, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for len(a.queue) == 0 && !a.shutdown {
		a.cond.Wait()
	}
	if len(a.queue) == 0 {
		return "", false
	}
	payload = a.queue[0]
	a.queue = a.queue[1:]
	return payload, true
}

func (a *OutputAgent) fail(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failErr = err
	a.closed = true
	a.queue = nil
}

// Submit enqueues payload for writing. It never blocks on the write
// itself (spec.md §5: "submit enqueues without waiting for the
// write"). Messages submitted by a single goroutine appear on the wire
// in submission order (spec.md §4.4, §5 ordering guarantee (i)).
func (a *OutputAgent) Submit(payload string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		if a.failErr != nil {
			return fmt.Errorf("jsonrpc: output agent write failed: %w", a.failErr)
		}
		return ErrOutputAgentShutdown
	}
	if a.shutdown {
		return ErrOutputAgentShutdown
	}
	a.queue = append(a.queue, payload)
	a.cond.Signal()
	return nil
}

// Shutdown marks the agent as shutting down: the worker drains whatever
// is already queued, then exits. Subsequent Submit calls are rejected. Calling
// Shutdown more than once is a no-op (spec.md §8 invariant 6).
func (a *OutputAgent) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.shutdown {
		return
	}
	a.shutdown = true
	a.cond.Broadcast()
}

// Join waits for the worker goroutine to exit.
func (a *OutputAgent) Join() {
	<-a.done
}

// Failed reports the error that caused the writer to stop, if any.
func (a *OutputAgent) Failed() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.failErr
}
