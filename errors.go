package jsonrpc

import (
	"encoding/json"
	"fmt"
)

// JSON-RPC 2.0 reserved status codes, plus this package's synthetic
// client-side InvalidResponse code.
//
//	Code    Source                          Recovery
//	-32700  codec: malformed JSON           reported to peer if correlatable, else dropped
//	-32600  codec: wrong shape              reported to peer
//	-32601  handler registry miss           reported to peer
//	-32602  handler's parameter decode      reported to peer
//	-32603  handler panic or encode failure reported to peer
//	-32000  client-side: bad `result` shape surfaced to local caller, never sent on wire
const (
	StatusParseError     = -32700 // Invalid JSON was received by the server.
	StatusInvalidRequest = -32600 // The JSON sent is not a valid Request object.
	StatusMethodNotFound = -32601 // The method does not exist / is not available.
	StatusInvalidParams  = -32602 // Invalid method parameter(s).
	StatusInternalError  = -32603 // Internal JSON-RPC error.
	StatusInvalidResponse = -32000 // Client-side: the response could not be decoded as the expected type.
)

// Error is a JSON-RPC 2.0 error object. It implements error so it can be
// returned directly from a registered handler function and sent to the
// peer as-is (mirroring the teacher package's *Error passthrough in
// request.call).
type Error struct {
	Code    int64       `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func newParseError(err error) *Error {
	return &Error{Code: StatusParseError, Message: fmt.Sprintf("Invalid JSON was received by the server: %s", err)}
}

func newInvalidRequest(msg string) *Error {
	return &Error{Code: StatusInvalidRequest, Message: msg}
}

func newMethodNotFound(method string) *Error {
	return &Error{Code: StatusMethodNotFound, Message: fmt.Sprintf("No such method: %s", method)}
}

func newInvalidParams(msg string) *Error {
	return &Error{Code: StatusInvalidParams, Message: msg}
}

func newInternalError(msg string) *Error {
	return &Error{Code: StatusInternalError, Message: msg}
}

func newInvalidResponse(msg string) *Error {
	return &Error{Code: StatusInvalidResponse, Message: msg}
}

// ErrShutdown resolves every pending RequestFuture when ShutdownAndJoin
// is called. SendRequest/SendNotification called after shutdown has
// started return ErrSendShutdown instead.
var ErrShutdown = &Error{Code: StatusInternalError, Message: "endpoint is shutting down"}

// errorJSON is the wire-level shape used by (*Error).MarshalJSON/UnmarshalJSON,
// letting Data be omitted cleanly while Code/Message are always present.
type errorJSON struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON emits `code`, `message`, and `data` only when present, per
// spec.md §4.1.
func (e *Error) MarshalJSON() ([]byte, error) {
	out := errorJSON{Code: e.Code, Message: e.Message}
	if e.Data != nil {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		out.Data = data
	}
	return json.Marshal(out)
}

// UnmarshalJSON requires `code` and `message`; `data` is optional and
// kept as raw JSON until a typed consumer decodes it.
func (e *Error) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	codeRaw, ok := raw["code"]
	if !ok {
		return fmt.Errorf("Property `code` is missing.")
	}
	if err := json.Unmarshal(codeRaw, &e.Code); err != nil {
		return fmt.Errorf("Value `code` is not a Number.")
	}
	msgRaw, ok := raw["message"]
	if !ok {
		return fmt.Errorf("Property `message` is missing.")
	}
	if err := json.Unmarshal(msgRaw, &e.Message); err != nil {
		return fmt.Errorf("Value `message` is not a String.")
	}
	if d, ok := raw["data"]; ok {
		e.Data = d
	} else {
		e.Data = nil
	}
	return nil
}
