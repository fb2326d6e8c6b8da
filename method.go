package jsonrpc

import "encoding/json"

// MethodError is the typed error half of a MethodResult. Code is
// constrained to non-negative integers at this typed layer (custom
// handler errors must not collide with the reserved JSON-RPC codes,
// per spec.md §6) but is widened to int64 when placed on the wire.
type MethodError[D any] struct {
	Code    uint32
	Message string
	Data    D
}

// NewMethodError builds a MethodError.
func NewMethodError[D any](code uint32, message string, data D) MethodError[D] {
	return MethodError[D]{Code: code, Message: message, Data: data}
}

// MethodResult is the typed envelope returned by registered handler
// functions: either a value of R, or a MethodError carrying D.
type MethodResult[R any, D any] struct {
	ok    bool
	value R
	err   *MethodError[D]
}

// MethodOk builds a successful MethodResult.
func MethodOk[R any, D any](v R) MethodResult[R, D] {
	return MethodResult[R, D]{ok: true, value: v}
}

// MethodErr builds a failed MethodResult.
func MethodErr[R any, D any](err MethodError[D]) MethodResult[R, D] {
	return MethodResult[R, D]{err: &err}
}

// Unwrap returns the success value (if any), the error (if any), and
// which of the two is set.
func (m MethodResult[R, D]) Unwrap() (R, *MethodError[D], bool) {
	return m.value, m.err, m.ok
}

// SerializeMethodResult converts a MethodResult into the wire-level
// ResponseResult, per spec.md §4.2: Ok(R) encodes R as `result`;
// Err(MethodError) widens Code to int64 and encodes Data as `data`.
// An encode failure of R or D is the caller's responsibility to treat
// as an internal error (spec.md §4.2, §7 — handled by the registry
// wrapper in registry.go, not here).
func SerializeMethodResult[R any, D any](m MethodResult[R, D]) (ResponseResult, error) {
	value, methodErr, ok := m.Unwrap()
	if ok {
		return NewResultValue(value)
	}
	data, err := json.Marshal(methodErr.Data)
	if err != nil {
		return ResponseResult{}, err
	}
	return NewErrorResult(&Error{
		Code:    int64(methodErr.Code),
		Message: methodErr.Message,
		Data:    json.RawMessage(data),
	}), nil
}

// RequestResult is the client-side decode of a wire Response: either a
// MethodResult[R,D] (the response decoded cleanly), or a transport/
// protocol-level RequestError (spec.md §3).
type RequestResult[R any, D any] struct {
	method   *MethodResult[R, D]
	reqError *Error
}

// AsMethodResult returns the MethodResult and true, if this is one.
func (r RequestResult[R, D]) AsMethodResult() (MethodResult[R, D], bool) {
	if r.method == nil {
		return MethodResult[R, D]{}, false
	}
	return *r.method, true
}

// AsRequestError returns the RequestError and true, if this is one.
func (r RequestResult[R, D]) AsRequestError() (*Error, bool) {
	return r.reqError, r.reqError != nil
}

// DeserializeRequestResult converts a wire ResponseResult into a typed
// RequestResult, per spec.md §4.2:
//
//   - Result(v): decode v as R; success -> MethodResult(Ok(R)); failure
//     -> RequestError(InvalidResponse).
//   - Error(e): passed through as RequestError(e). Decoding e.Data as D
//     is intentionally never attempted here (spec.md §9 Open Question
//     "error data typing" — preserved faithfully, see DESIGN.md).
func DeserializeRequestResult[R any, D any](rr ResponseResult) RequestResult[R, D] {
	if errVal, isErr := rr.Err(); isErr {
		return RequestResult[R, D]{reqError: errVal}
	}
	raw, _ := rr.Result()
	var value R
	if err := json.Unmarshal(raw, &value); err != nil {
		return RequestResult[R, D]{reqError: newInvalidResponse(err.Error())}
	}
	mr := MethodOk[R, D](value)
	return RequestResult[R, D]{method: &mr}
}
