package jsonrpc

import (
	"encoding/json"
	"fmt"
)

type paramsKind uint8

const (
	paramsKindNone paramsKind = iota
	paramsKindObject
	paramsKindArray
)

// RequestParams holds the `params` member of a Request. It may be a
// JSON object, a JSON array, or absent/null, per the JSON-RPC 2.0
// spec. The raw bytes are kept as-is so re-encoding a decoded Request
// never reshapes the payload.
type RequestParams struct {
	kind paramsKind
	raw  json.RawMessage
}

// NoParams is the "no params" value, encoded as JSON null inside a Request.
var NoParams = RequestParams{kind: paramsKindNone}

// ObjectParams wraps a JSON object value (already-marshaled or built with
// json.Marshal by the caller).
func ObjectParams(raw json.RawMessage) RequestParams {
	return RequestParams{kind: paramsKindObject, raw: raw}
}

// ArrayParams wraps a JSON array value.
func ArrayParams(raw json.RawMessage) RequestParams {
	return RequestParams{kind: paramsKindArray, raw: raw}
}

// IsNone reports whether params were absent or null.
func (p RequestParams) IsNone() bool { return p.kind == paramsKindNone }

// Raw returns the underlying JSON bytes, or "null" for NoParams.
func (p RequestParams) Raw() json.RawMessage {
	if p.kind == paramsKindNone {
		return json.RawMessage("null")
	}
	return p.raw
}

// MarshalJSON writes the raw params bytes as held, or null for NoParams.
// Values built by rawParams may hold any JSON shape, not only an object
// or an array.
func (p RequestParams) MarshalJSON() ([]byte, error) {
	if p.kind == paramsKindNone || p.raw == nil {
		return []byte("null"), nil
	}
	return p.raw, nil
}

// UnmarshalJSON decodes a JSON object, array, or null into RequestParams.
// Any other shape is an error, matching spec.md §4.1's "Any other JSON
// shape fails decoding with InvalidRequest."
func (p *RequestParams) UnmarshalJSON(data []byte) error {
	trimmed := trimLeadingSpace(data)
	switch {
	case len(trimmed) == 0:
		*p = NoParams
		return nil
	case string(trimmed) == "null":
		*p = NoParams
		return nil
	case trimmed[0] == '{':
		*p = ObjectParams(append(json.RawMessage(nil), data...))
		return nil
	case trimmed[0] == '[':
		*p = ArrayParams(append(json.RawMessage(nil), data...))
		return nil
	default:
		return fmt.Errorf("Property `params` not an Object, Array, or null.")
	}
}

// rawParams wraps already-marshaled JSON as RequestParams without
// enforcing the object/array/null wire-shape check UnmarshalJSON
// applies to a payload freshly arrived from a peer. It backs the typed
// SendRequest/SendNotification path (endpoint.go's paramsFromValue),
// where the shape is whatever the caller's own P type marshals to
// (spec.md §4.2: "raw_params is decoded as P") rather than a foreign
// Request this package must validate for protocol compliance.
func rawParams(raw json.RawMessage) RequestParams {
	trimmed := trimLeadingSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return NoParams
	}
	return RequestParams{kind: paramsKindObject, raw: raw}
}

func trimLeadingSpace(data []byte) []byte {
	i := 0
	for i < len(data) {
		switch data[i] {
		case ' ', '\t', '\n', '\r':
			i++
			continue
		}
		break
	}
	return data[i:]
}
