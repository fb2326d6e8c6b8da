package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const protocolVersion = "2.0"

// Request is a JSON-RPC 2.0 request object. A nil ID marks a
// notification: no response is expected and none is ever produced for
// it server-side.
type Request struct {
	ID     *Id
	Method string
	Params RequestParams
}

// NewRequest builds a Request carrying the given id.
func NewRequest(id Id, method string, params RequestParams) *Request {
	return &Request{ID: &id, Method: method, Params: params}
}

// NewNotification builds a Request with no id.
func NewNotification(method string, params RequestParams) *Request {
	return &Request{Method: method, Params: params}
}

// IsNotification reports whether this Request carries no id.
func (r *Request) IsNotification() bool { return r.ID == nil }

func (r *Request) isMessage() {}

type requestWire struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *Id             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// MarshalJSON emits keys in the order jsonrpc, id?, method, params, and
// omits `id` entirely for a notification.
func (r *Request) MarshalJSON() ([]byte, error) {
	params, err := r.Params.MarshalJSON()
	if err != nil {
		return nil, err
	}
	w := requestWire{JSONRPC: protocolVersion, ID: r.ID, Method: r.Method, Params: params}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a Request, enforcing the presence/shape rules
// of spec.md §4.1: `jsonrpc` must equal "2.0", `method` must be a
// string, `params` must be present (object, array, or null).
func (r *Request) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if err := checkProtocolField(raw); err != nil {
		return err
	}

	if idRaw, ok := raw["id"]; ok {
		var id Id
		if err := json.Unmarshal(idRaw, &id); err != nil {
			return err
		}
		r.ID = &id
	} else {
		r.ID = nil
	}

	methodRaw, ok := raw["method"]
	if !ok {
		return fmt.Errorf("Property `method` is missing.")
	}
	if err := json.Unmarshal(methodRaw, &r.Method); err != nil {
		return fmt.Errorf("Value `method` is not a String.")
	}

	paramsRaw, ok := raw["params"]
	if !ok {
		return fmt.Errorf("Property `params` is missing.")
	}
	return r.Params.UnmarshalJSON(paramsRaw)
}

func checkProtocolField(raw map[string]json.RawMessage) error {
	versionRaw, ok := raw["jsonrpc"]
	if !ok {
		return fmt.Errorf("Property `jsonrpc` is missing.")
	}
	var version string
	if err := json.Unmarshal(versionRaw, &version); err != nil || version != protocolVersion {
		return fmt.Errorf(`Property `+"`"+`jsonrpc`+"`"+` is not "2.0". `)
	}
	return nil
}

// ResponseResult is the result-or-error half of a Response. Exactly one
// of Result/Error is set.
type ResponseResult struct {
	result json.RawMessage
	err    *Error
}

// IsError reports whether this holds an error.
func (rr ResponseResult) IsError() bool { return rr.err != nil }

// Result returns the raw result bytes and true, if this is a result.
func (rr ResponseResult) Result() (json.RawMessage, bool) {
	if rr.err != nil {
		return nil, false
	}
	return rr.result, true
}

// Err returns the error and true, if this is an error.
func (rr ResponseResult) Err() (*Error, bool) {
	return rr.err, rr.err != nil
}

// NewResultRaw builds a ResponseResult from already-marshaled JSON.
func NewResultRaw(result json.RawMessage) ResponseResult {
	return ResponseResult{result: result}
}

// NewResultValue marshals v and wraps it as a ResponseResult.
func NewResultValue(v interface{}) (ResponseResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return ResponseResult{}, err
	}
	return NewResultRaw(b), nil
}

// NewErrorResult wraps e as a ResponseResult.
func NewErrorResult(e *Error) ResponseResult {
	return ResponseResult{err: e}
}

// Response is a JSON-RPC 2.0 response object.
type Response struct {
	ID           Id
	ResultOrError ResponseResult
}

// NewResponseResult builds a successful Response.
func NewResponseResult(id Id, result json.RawMessage) *Response {
	return &Response{ID: id, ResultOrError: NewResultRaw(result)}
}

// NewResponseError builds a failed Response.
func NewResponseError(id Id, err *Error) *Response {
	return &Response{ID: id, ResultOrError: NewErrorResult(err)}
}

func (r *Response) isMessage() {}

type responseWire struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      Id              `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// MarshalJSON emits keys in the order jsonrpc, id, result|error.
func (r *Response) MarshalJSON() ([]byte, error) {
	w := responseWire{JSONRPC: protocolVersion, ID: r.ID}
	if err, isErr := r.ResultOrError.Err(); isErr {
		w.Error = err
	} else {
		result, _ := r.ResultOrError.Result()
		if result == nil {
			result = json.RawMessage("null")
		}
		w.Result = result
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a Response, requiring `id` and exactly one of
// `result`/`error`, per spec.md §4.1.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if err := checkProtocolField(raw); err != nil {
		return err
	}

	idRaw, ok := raw["id"]
	if !ok {
		return fmt.Errorf("Property `id` is missing.")
	}
	if err := json.Unmarshal(idRaw, &r.ID); err != nil {
		return err
	}

	resultRaw, hasResult := raw["result"]
	errorRaw, hasError := raw["error"]
	switch {
	case hasResult && hasError:
		return fmt.Errorf("Only one of properties `result` or `error` may be present")
	case hasResult:
		r.ResultOrError = NewResultRaw(resultRaw)
	case hasError:
		var e Error
		if err := json.Unmarshal(errorRaw, &e); err != nil {
			return err
		}
		r.ResultOrError = NewErrorResult(&e)
	default:
		return fmt.Errorf("Missing property `result` or `error`")
	}
	return nil
}

// Message is the tagged union of Request and Response that the wire
// decoder produces. Exactly one of AsRequest/AsResponse succeeds.
type Message interface {
	isMessage()
}

// AsRequest returns msg as a *Request, if it is one.
func AsRequest(msg Message) (*Request, bool) {
	r, ok := msg.(*Request)
	return r, ok
}

// AsResponse returns msg as a *Response, if it is one.
func AsResponse(msg Message) (*Response, bool) {
	r, ok := msg.(*Response)
	return r, ok
}

// Marshaler matches the signature of encoding/json.Marshal. EncodeMessage
// and EncodeMessageWith delegate to one so a drop-in replacement (e.g.
// github.com/helloeave/json.Marshal, see HelloeaveMarshaler) can be
// substituted without touching the rest of the codec; Request and
// Response still control their own wire shape through MarshalJSON, so
// any Marshaler that honors json.Marshaler sees the same key order.
type Marshaler func(v interface{}) ([]byte, error)

// EncodeMessage serializes a Request or Response to a single JSON value
// (without any framing/newline — framing is the transport's job), using
// encoding/json.Marshal.
func EncodeMessage(msg Message) ([]byte, error) {
	return EncodeMessageWith(msg, json.Marshal)
}

// EncodeMessageWith is EncodeMessage with a caller-supplied Marshaler,
// used by Endpoint when constructed with WithMarshaler.
func EncodeMessageWith(msg Message, marshal Marshaler) ([]byte, error) {
	switch m := msg.(type) {
	case *Request:
		return marshal(m)
	case *Response:
		return marshal(m)
	default:
		return nil, fmt.Errorf("jsonrpc: unknown message type %T", msg)
	}
}

// DecodeMessage parses a single JSON value into a Message. The
// discriminator is the presence of a `method` key: its presence marks
// a Request, its absence a Response (spec.md §3 "Message").
//
// Decode failures are classified as ParseError (malformed JSON) or
// InvalidRequest (well-formed JSON, wrong shape), matching spec.md §4.1.
func DecodeMessage(data []byte) (Message, *Error) {
	if !json.Valid(data) {
		return nil, newParseError(fmt.Errorf("invalid JSON"))
	}

	var probe map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&probe); err != nil {
		return nil, newInvalidRequest(fmt.Sprintf("top-level JSON value is not an object: %s", err))
	}

	if _, hasMethod := probe["method"]; hasMethod {
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, newInvalidRequest(err.Error())
		}
		return &req, nil
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, newInvalidRequest(err.Error())
	}
	return &resp, nil
}
