package jsonrpc

import (
	"errors"
	"io"
)

// MessageReader yields one complete, unframed JSON payload per call and
// returns io.EOF once the peer has closed the stream cleanly. It is the
// read-side counterpart to MessageWriter (spec.md §4.6).
type MessageReader interface {
	ReadMessage() ([]byte, error)
}

// RunMessageReadLoop feeds payloads from r to endpoint.HandleIncoming
// until r.ReadMessage returns an error. io.EOF ends the loop without
// error (spec.md §4.6: "the loop's only job is driving handle_incoming
// off of the transport; it carries no buffering or framing logic of its
// own — that belongs to the MessageReader implementation"). Callers
// that don't need EndpointHandler's errgroup supervision can run this
// directly, e.g. in their own goroutine.
func RunMessageReadLoop(endpoint *Endpoint, r MessageReader) error {
	for {
		payload, err := r.ReadMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		endpoint.HandleIncoming(payload)
	}
}
