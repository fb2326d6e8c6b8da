package jsonrpc

import "context"

// RequestFuture is the awaiter returned by SendRequest. It resolves
// once with a RequestResult[R,D]: either the decoded MethodResult, or a
// RequestError describing a transport/protocol-level failure (spec.md
// §3, §5). Wait blocks the caller; it never returns twice.
type RequestFuture[R any, D any] struct {
	ch     <-chan ResponseResult
	cancel func()
}

func newRequestFuture[R any, D any](ch <-chan ResponseResult, cancel func()) RequestFuture[R, D] {
	return RequestFuture[R, D]{ch: ch, cancel: cancel}
}

// Wait blocks until the matching Response arrives or the endpoint shuts
// down. Cancel does not wake a Wait that is already blocked: once the
// pending slot is removed, nothing resolves the future.
func (f RequestFuture[R, D]) Wait() RequestResult[R, D] {
	rr := <-f.ch
	return DeserializeRequestResult[R, D](rr)
}

// WaitContext is like Wait but also unblocks when ctx is canceled,
// removing the pending slot so a later, late-arriving response is
// dropped rather than leaking (spec.md §5 "Cancellation / timeouts").
func (f RequestFuture[R, D]) WaitContext(ctx context.Context) (RequestResult[R, D], error) {
	select {
	case rr := <-f.ch:
		return DeserializeRequestResult[R, D](rr), nil
	case <-ctx.Done():
		f.cancel()
		return RequestResult[R, D]{}, ctx.Err()
	}
}

// Cancel removes the pending slot without waiting for a response. A
// response that arrives afterward with this future's id is dropped by
// the endpoint (spec.md §5).
func (f RequestFuture[R, D]) Cancel() {
	f.cancel()
}
