package jsonrpc

import hejson "github.com/helloeave/json"

// HelloeaveMarshaler adapts github.com/helloeave/json's Marshal, a
// drop-in encoding/json replacement, to the Marshaler signature.
// Install it with WithMarshaler(HelloeaveMarshaler). It encodes the
// outer Request/Response value only: Request and Response implement
// MarshalJSON, and the `params` and `result` payloads inside them are
// encoded with encoding/json whichever Marshaler is installed.
func HelloeaveMarshaler(v interface{}) ([]byte, error) {
	return hejson.Marshal(v)
}
