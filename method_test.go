package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeMethodResultOk(t *testing.T) {
	m := MethodOk[string, json.RawMessage]("Hello world!")
	rr, err := SerializeMethodResult(m)
	require.NoError(t, err)
	result, isResult := rr.Result()
	require.True(t, isResult)
	assert.JSONEq(t, `"Hello world!"`, string(result))
}

func TestSerializeMethodResultErr(t *testing.T) {
	m := MethodErr[string](NewMethodError(1, "bad thing", map[string]int{"count": 3}))
	rr, err := SerializeMethodResult(m)
	require.NoError(t, err)
	wireErr, isErr := rr.Err()
	require.True(t, isErr)
	assert.Equal(t, int64(1), wireErr.Code)
	assert.Equal(t, "bad thing", wireErr.Message)
}

func TestDeserializeRequestResultOk(t *testing.T) {
	rr := NewResultRaw(json.RawMessage(`"Hello world!"`))
	result := DeserializeRequestResult[string, json.RawMessage](rr)
	mr, ok := result.AsMethodResult()
	require.True(t, ok)
	value, methodErr, ok := mr.Unwrap()
	assert.True(t, ok)
	assert.Nil(t, methodErr)
	assert.Equal(t, "Hello world!", value)
}

func TestDeserializeRequestResultBadShapeIsInvalidResponse(t *testing.T) {
	rr := NewResultRaw(json.RawMessage(`{"unexpected":"object"}`))
	result := DeserializeRequestResult[string, json.RawMessage](rr)
	_, ok := result.AsMethodResult()
	assert.False(t, ok)
	reqErr, ok := result.AsRequestError()
	require.True(t, ok)
	assert.Equal(t, int64(StatusInvalidResponse), reqErr.Code)
}

func TestDeserializeRequestResultPassesThroughError(t *testing.T) {
	rr := NewErrorResult(newMethodNotFound("ghost"))
	result := DeserializeRequestResult[string, json.RawMessage](rr)
	reqErr, ok := result.AsRequestError()
	require.True(t, ok)
	assert.Equal(t, int64(StatusMethodNotFound), reqErr.Code)
}
