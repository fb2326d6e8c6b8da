package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// endpointState models spec.md §4.5's Running -> ShuttingDown -> Joined
// state machine.
type endpointState int32

const (
	stateRunning endpointState = iota
	stateShuttingDown
	stateJoined
)

// ErrSendShutdown is returned by SendRequest/SendNotification once the
// endpoint is no longer accepting new outbound sends.
var ErrSendShutdown = fmt.Errorf("jsonrpc: endpoint is shutting down")

// Endpoint is the central bidirectional JSON-RPC state: the pending
// outbound-request registry keyed by Id, the monotonic id allocator, a
// handle to the OutputAgent, and (when acting as a server) a
// RequestHandler (spec.md §4.5). Endpoint is a pointer type meant to be
// shared across goroutines — the reader goroutine and any number of
// caller goroutines all hold the same *Endpoint.
type Endpoint struct {
	id     uuid.UUID
	logger *log.Logger

	nextID atomic.Uint64
	state  atomic.Int32

	mu      sync.Mutex
	pending map[Id]chan ResponseResult

	output  *OutputAgent
	handler RequestHandler
	marshal Marshaler

	ctx    context.Context
	cancel context.CancelFunc
}

// EndpointOption configures a new Endpoint.
type EndpointOption func(*Endpoint)

// WithLogger overrides the endpoint's logger (default: discards all
// output, per spec.md's library-not-service posture — see SPEC_FULL.md
// §5.1).
func WithLogger(logger *log.Logger) EndpointOption {
	return func(e *Endpoint) { e.logger = logger }
}

// WithRequestHandler installs the RequestHandler used to serve inbound
// requests. Without this option the endpoint behaves like it was built
// with NullRequestHandler: every inbound request is answered with
// MethodNotFound (spec.md §4.3).
func WithRequestHandler(handler RequestHandler) EndpointOption {
	return func(e *Endpoint) { e.handler = handler }
}

// WithMarshaler overrides the JSON encoder used for every outbound
// Request and Response (default: encoding/json.Marshal). See
// HelloeaveMarshaler for a ready-made alternative.
func WithMarshaler(marshal Marshaler) EndpointOption {
	return func(e *Endpoint) { e.marshal = marshal }
}

// NewEndpoint builds an Endpoint around an already-started OutputAgent.
// This mirrors the reference implementation's `Endpoint::start_with`
// (spec.md PURPOSE, original_source/tests/example.rs): the caller
// starts the OutputAgent (possibly sharing it across endpoints is not
// supported — one OutputAgent per Endpoint) and hands it over.
func NewEndpoint(output *OutputAgent, opts ...EndpointOption) *Endpoint {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Endpoint{
		id:      uuid.New(),
		logger:  log.NewWithOptions(io.Discard, log.Options{}),
		pending: make(map[Id]chan ResponseResult),
		output:  output,
		handler: NullRequestHandler{},
		marshal: json.Marshal,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("endpoint", e.id.String())
	return e
}

func (e *Endpoint) isShuttingDown() bool {
	return endpointState(e.state.Load()) != stateRunning
}

func (e *Endpoint) allocateID() Id {
	return NumberId(e.nextID.Add(1))
}

func (e *Endpoint) registerPending(id Id) chan ResponseResult {
	ch := make(chan ResponseResult, 1)
	e.mu.Lock()
	e.pending[id] = ch
	e.mu.Unlock()
	return ch
}

func (e *Endpoint) cancelPending(id Id) {
	e.mu.Lock()
	delete(e.pending, id)
	e.mu.Unlock()
}

// resolvePending delivers rr to the pending slot for id, if any is
// still registered. Returns false if there was no matching slot (the
// response is dropped, per spec.md §4.5).
func (e *Endpoint) resolvePending(id Id, rr ResponseResult) bool {
	e.mu.Lock()
	ch, ok := e.pending[id]
	if ok {
		delete(e.pending, id)
	}
	e.mu.Unlock()
	if ok {
		ch <- rr
	}
	return ok
}

// sendRequestRaw implements the untyped half of SendRequest: allocate
// an id, register a pending slot, encode and submit the Request.
// Returns a cancel func that removes the pending slot (used by
// RequestFuture.Cancel / WaitContext).
func (e *Endpoint) sendRequestRaw(method string, params RequestParams) (<-chan ResponseResult, func(), error) {
	if e.isShuttingDown() {
		return nil, nil, ErrSendShutdown
	}

	id := e.allocateID()
	ch := e.registerPending(id)
	cancel := func() { e.cancelPending(id) }

	req := NewRequest(id, method, params)
	payload, err := EncodeMessageWith(req, e.marshal)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("jsonrpc: encode request: %w", err)
	}
	if err := e.output.Submit(string(payload)); err != nil {
		cancel()
		return nil, nil, err
	}
	return ch, cancel, nil
}

// SendRequest allocates a new outbound request id, submits the encoded
// Request to the output agent, and returns a RequestFuture that
// resolves once the matching Response arrives (spec.md §4.5). No id or
// pending slot is leaked on error.
func SendRequest[P any, R any, D any](e *Endpoint, method string, params P) (RequestFuture[R, D], error) {
	rp, err := paramsFromValue(params)
	if err != nil {
		return RequestFuture[R, D]{}, fmt.Errorf("jsonrpc: encode params: %w", err)
	}
	ch, cancel, err := e.sendRequestRaw(method, rp)
	if err != nil {
		return RequestFuture[R, D]{}, err
	}
	return newRequestFuture[R, D](ch, cancel), nil
}

// SendNotification is like SendRequest but with no id: no pending slot
// is registered and no response is expected. It returns once the
// payload has been enqueued with the output agent.
func SendNotification[P any](e *Endpoint, method string, params P) error {
	if e.isShuttingDown() {
		return ErrSendShutdown
	}
	rp, err := paramsFromValue(params)
	if err != nil {
		return fmt.Errorf("jsonrpc: encode params: %w", err)
	}
	req := NewNotification(method, rp)
	payload, err := EncodeMessageWith(req, e.marshal)
	if err != nil {
		return fmt.Errorf("jsonrpc: encode notification: %w", err)
	}
	return e.output.Submit(string(payload))
}

// paramsFromValue encodes a caller's typed param value for an outbound
// Request/Notification. Unlike RequestParams.UnmarshalJSON (which
// enforces the object/array/null wire shape a peer's Request must
// satisfy), this accepts whatever JSON shape P marshals to — spec.md
// §4.2 only requires that "raw_params is decoded as P" on the
// receiving side, not that every P marshal to an object or array.
func paramsFromValue(v interface{}) (RequestParams, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return RequestParams{}, err
	}
	return rawParams(raw), nil
}

// HandleIncoming decodes one payload and routes it, per spec.md §4.5:
//
//   - Request: dispatch to the handler; if an id is present, submit the
//     resulting Response; a notification's result is discarded.
//   - Response: resolve the pending slot with the matching id, if any.
//   - Decode failure: answer with an error Response when the payload
//     looks like a Request, otherwise log and drop.
//
// HandleIncoming runs entirely on the calling (reader) goroutine: it
// never spawns a goroutine per message, so within one Endpoint inbound
// requests are served strictly in the order they were read (spec.md §5:
// "handle_incoming completes in-line per message, synchronously
// relative to the reader thread").
func (e *Endpoint) HandleIncoming(payload []byte) {
	msg, decodeErr := DecodeMessage(payload)
	if decodeErr != nil {
		if looksLikeRequest(payload) {
			e.submitResponse(NewResponseError(NullId, decodeErr))
		} else {
			e.logger.Warn("dropping unparsable payload", "error", decodeErr.Message)
		}
		return
	}

	switch m := msg.(type) {
	case *Request:
		e.dispatchRequest(m)
	case *Response:
		if !e.resolvePending(m.ID, m.ResultOrError) {
			e.logger.Warn("dropping response with unknown correlation id", "id", m.ID.String())
		}
	}
}

func (e *Endpoint) dispatchRequest(req *Request) {
	result := e.handler.HandleRequest(e.ctx, req.Method, req.Params.Raw())
	if req.IsNotification() {
		return
	}
	e.submitResponse(&Response{ID: *req.ID, ResultOrError: result})
}

func (e *Endpoint) submitResponse(resp *Response) {
	payload, err := EncodeMessageWith(resp, e.marshal)
	if err != nil {
		e.logger.Error("failed to encode response", "error", err)
		return
	}
	if err := e.output.Submit(string(payload)); err != nil {
		e.logger.Error("failed to submit response, output agent unavailable", "error", err)
	}
}

// looksLikeRequest is a best-effort check used only to decide whether a
// malformed payload deserves an error Response (it might be a Request
// whose `id` we can't trust but whose shape otherwise resembles one) or
// should simply be logged and dropped (spec.md §4.5).
func looksLikeRequest(payload []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(payload, &probe); err != nil {
		return false
	}
	_, ok := probe["method"]
	return ok
}

// ShutdownAndJoin marks the endpoint as no longer accepting sends,
// resolves every pending RequestFuture with a shutdown error, signals
// the output agent to drain and exit, and waits for it to do so
// (spec.md §4.5, §5). Calling it more than once is safe: later calls
// are a no-op beyond re-joining the (already-exited) output agent.
func (e *Endpoint) ShutdownAndJoin() {
	if !e.state.CompareAndSwap(int32(stateRunning), int32(stateShuttingDown)) {
		// Already shutting down or joined; still wait for the worker.
		e.output.Join()
		e.state.Store(int32(stateJoined))
		return
	}

	e.mu.Lock()
	pending := e.pending
	e.pending = make(map[Id]chan ResponseResult)
	e.mu.Unlock()

	shutdownResult := NewErrorResult(ErrShutdown)
	for _, ch := range pending {
		ch <- shutdownResult
	}

	e.cancel()
	e.output.Shutdown()
	e.output.Join()
	e.state.Store(int32(stateJoined))
}
