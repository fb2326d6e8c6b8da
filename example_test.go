package jsonrpc_test

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/loopwire/jsonrpc"
	"github.com/loopwire/jsonrpc/lineframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBidirectionalExample wires two endpoints over a net.Pipe, one
// acting as a server (answering "echo"), the other as a client that
// also happens to serve "ping" for the server to call back — exactly
// the shape of the reference implementation's own worked example
// (a connection where both sides can originate requests).
func TestBidirectionalExample(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	serverHandlers := jsonrpc.NewMapRequestHandler()
	jsonrpc.AddRequest(serverHandlers, "echo", func(s []string) jsonrpc.MethodResult[string, json.RawMessage] {
		return jsonrpc.MethodOk[string, json.RawMessage](s[0])
	})
	serverOutput := jsonrpc.StartWithProvider(func() (jsonrpc.MessageWriter, error) {
		return lineframe.NewWriter(serverConn), nil
	})
	server := jsonrpc.NewEndpointHandler(serverOutput, serverHandlers)

	var pinged string
	clientHandlers := jsonrpc.NewMapRequestHandler()
	jsonrpc.AddRequest(clientHandlers, "ping", func(s []string) jsonrpc.MethodResult[string, json.RawMessage] {
		pinged = s[0]
		return jsonrpc.MethodOk[string, json.RawMessage]("pong")
	})
	clientOutput := jsonrpc.StartWithProvider(func() (jsonrpc.MessageWriter, error) {
		return lineframe.NewWriter(clientConn), nil
	})
	client := jsonrpc.NewEndpointHandler(clientOutput, clientHandlers)

	serverDone := make(chan error, 1)
	go func() { serverDone <- server.Serve(lineframe.NewReader(serverConn)) }()
	clientDone := make(chan error, 1)
	go func() { clientDone <- client.Serve(lineframe.NewReader(clientConn)) }()

	future, err := jsonrpc.SendRequest[[]string, string, json.RawMessage](client.Endpoint, "echo", []string{"Hello world!"})
	require.NoError(t, err)
	result := future.Wait()
	value, _, ok := mustOk(t, result)
	assert.True(t, ok)
	assert.Equal(t, "Hello world!", value)

	backFuture, err := jsonrpc.SendRequest[[]string, string, json.RawMessage](server.Endpoint, "ping", []string{"are you there?"})
	require.NoError(t, err)
	backResult := backFuture.Wait()
	backValue, _, ok := mustOk(t, backResult)
	assert.True(t, ok)
	assert.Equal(t, "pong", backValue)
	assert.Equal(t, "are you there?", pinged)

	serverConn.Close()
	clientConn.Close()

	select {
	case <-serverDone:
	case <-time.After(time.Second):
		t.Fatal("server.Serve did not return after the connection closed")
	}
	select {
	case <-clientDone:
	case <-time.After(time.Second):
		t.Fatal("client.Serve did not return after the connection closed")
	}
}

func mustOk(t *testing.T, r jsonrpc.RequestResult[string, json.RawMessage]) (string, *jsonrpc.MethodError[json.RawMessage], bool) {
	t.Helper()
	mr, ok := r.AsMethodResult()
	require.True(t, ok)
	v, e, ok := mr.Unwrap()
	return v, e, ok
}

// TestUnknownMethodReturnsMethodNotFound exercises the client side of a
// RequestError: a method the peer never registered.
func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	serverOutput := jsonrpc.StartWithProvider(func() (jsonrpc.MessageWriter, error) {
		return lineframe.NewWriter(serverConn), nil
	})
	server := jsonrpc.NewEndpointHandler(serverOutput, jsonrpc.NullRequestHandler{})

	clientOutput := jsonrpc.StartWithProvider(func() (jsonrpc.MessageWriter, error) {
		return lineframe.NewWriter(clientConn), nil
	})
	client := jsonrpc.NewEndpoint(clientOutput)

	go server.Serve(lineframe.NewReader(serverConn))
	go jsonrpc.RunMessageReadLoop(client, lineframe.NewReader(clientConn))

	future, err := jsonrpc.SendRequest[[]string, string, json.RawMessage](client, "nonexistent", []string{"x"})
	require.NoError(t, err)

	result := future.Wait()
	reqErr, ok := result.AsRequestError()
	require.True(t, ok)
	assert.Equal(t, int64(jsonrpc.StatusMethodNotFound), reqErr.Code)
}
