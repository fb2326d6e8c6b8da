package jsonrpc

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// EndpointHandler pairs an Endpoint with the MessageReader driving its
// inbound side, the Go counterpart of the reference implementation's
// `EndpointHandler::create` (original_source/tests/example.rs). It owns
// nothing the Endpoint doesn't already own; it exists purely to
// supervise the read loop and the output agent's worker together so
// that Serve returns once, with whichever error ended the connection
// first.
type EndpointHandler struct {
	Endpoint *Endpoint
}

// NewEndpointHandler builds an Endpoint around output, installs handler
// as its RequestHandler, and returns the pair wrapped as an
// EndpointHandler ready for Serve.
func NewEndpointHandler(output *OutputAgent, handler RequestHandler, opts ...EndpointOption) *EndpointHandler {
	opts = append([]EndpointOption{WithRequestHandler(handler)}, opts...)
	return &EndpointHandler{Endpoint: NewEndpoint(output, opts...)}
}

// Serve runs the read loop against r and supervises it alongside the
// output agent's worker with an errgroup, mirroring the teacher
// package's ServeConn — one goroutine per direction of the connection,
// joined before returning. Serve blocks until the read loop ends (the
// peer closes the stream or the reader errors); the endpoint is then
// shut down and joined before Serve returns. A failure of the output
// agent is reported as Serve's error but does not by itself stop the
// read loop: the errgroup's context is not used to cancel either
// goroutine.
func (eh *EndpointHandler) Serve(r MessageReader) error {
	g, _ := errgroup.WithContext(context.Background())

	g.Go(func() error {
		err := RunMessageReadLoop(eh.Endpoint, r)
		eh.Endpoint.ShutdownAndJoin()
		return err
	})
	g.Go(func() error {
		eh.Endpoint.output.Join()
		return eh.Endpoint.output.Failed()
	})

	return g.Wait()
}
