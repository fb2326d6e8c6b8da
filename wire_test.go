package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestMarshalKeyOrder(t *testing.T) {
	req := NewRequest(NumberId(7), "echo", ArrayParams(json.RawMessage(`["hi"]`)))
	out, err := json.Marshal(req)
	require.NoError(t, err)
	assert.Equal(t, `{"jsonrpc":"2.0","id":7,"method":"echo","params":["hi"]}`, string(out))
}

func TestNotificationOmitsId(t *testing.T) {
	req := NewNotification("ping", NoParams)
	out, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"ping","params":null}`, string(out))
	assert.True(t, req.IsNotification())
}

func TestRequestUnmarshalRejectsBadShape(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		wantError string // exact expected err.Error(), empty means "just assert.Error"
	}{
		// S1 (spec.md §8): missing `jsonrpc` ⇒ error starting
		// "Property `jsonrpc` is missing.".
		{"missing jsonrpc", `{"id":1,"method":"echo","params":null}`, "Property `jsonrpc` is missing."},
		// S2 (spec.md §8): wrong `jsonrpc` version ⇒ exact wording.
		{"wrong jsonrpc", `{"jsonrpc":"1.0","id":1,"method":"echo","params":null}`, `Property ` + "`" + `jsonrpc` + "`" + ` is not "2.0". `},
		{"missing method", `{"jsonrpc":"2.0","id":1,"params":null}`, "Property `method` is missing."},
		{"method not str", `{"jsonrpc":"2.0","id":1,"method":5,"params":null}`, "Value `method` is not a String."},
		{"missing params", `{"jsonrpc":"2.0","id":1,"method":"echo"}`, "Property `params` is missing."},
		{"bad params shape", `{"jsonrpc":"2.0","id":1,"method":"echo","params":"x"}`, "Property `params` not an Object, Array, or null."},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var req Request
			err := json.Unmarshal([]byte(c.raw), &req)
			require.Error(t, err)
			if c.wantError != "" {
				assert.Equal(t, c.wantError, err.Error())
			}
		})
	}
}

func TestResponseRoundTripResult(t *testing.T) {
	resp := NewResponseResult(NumberId(1), json.RawMessage(`"Hello world!"`))
	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":"Hello world!"}`, string(out))

	var decoded Response
	require.NoError(t, json.Unmarshal(out, &decoded))
	result, isResult := decoded.ResultOrError.Result()
	require.True(t, isResult)
	assert.JSONEq(t, `"Hello world!"`, string(result))
}

func TestResponseRoundTripError(t *testing.T) {
	resp := NewResponseError(NumberId(2), newMethodNotFound("frobnicate"))
	out, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded Response
	require.NoError(t, json.Unmarshal(out, &decoded))
	rerr, isErr := decoded.ResultOrError.Err()
	require.True(t, isErr)
	assert.Equal(t, int64(StatusMethodNotFound), rerr.Code)
}

func TestResponseRejectsBothResultAndError(t *testing.T) {
	raw := `{"jsonrpc":"2.0","id":1,"result":1,"error":{"code":-32600,"message":"x"}}`
	var resp Response
	assert.Error(t, json.Unmarshal([]byte(raw), &resp))
}

func TestResponseRejectsNeitherResultNorError(t *testing.T) {
	// S3 (spec.md §8): `{"jsonrpc":"2.0","id":1}` decoded as Response
	// ⇒ exact wording "Missing property `result` or `error`".
	raw := `{"jsonrpc":"2.0","id":1}`
	var resp Response
	err := json.Unmarshal([]byte(raw), &resp)
	require.Error(t, err)
	assert.Equal(t, "Missing property `result` or `error`", err.Error())
}

func TestDecodeMessageDiscriminates(t *testing.T) {
	req, derr := DecodeMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"echo","params":null}`))
	require.Nil(t, derr)
	_, isReq := AsRequest(req)
	assert.True(t, isReq)

	resp, derr := DecodeMessage([]byte(`{"jsonrpc":"2.0","id":1,"result":null}`))
	require.Nil(t, derr)
	_, isResp := AsResponse(resp)
	assert.True(t, isResp)
}

func TestDecodeMessageClassifiesParseVsInvalidRequest(t *testing.T) {
	_, derr := DecodeMessage([]byte(`{not json`))
	require.NotNil(t, derr)
	assert.Equal(t, int64(StatusParseError), derr.Code)

	_, derr = DecodeMessage([]byte(`[1,2,3]`))
	require.NotNil(t, derr)
	assert.Equal(t, int64(StatusInvalidRequest), derr.Code)
}
