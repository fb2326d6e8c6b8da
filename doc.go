/*
Package jsonrpc implements bidirectional JSON-RPC 2.0 endpoints over an
arbitrary message stream.

Unlike a request/response-only server, either side of the connection
may send requests, notifications, and responses at any time. An
Endpoint pairs an OutputAgent (the single writer for the connection)
with a pending-request registry for the requests this side has sent,
and, if this side also serves requests, a RequestHandler.

A minimal client that starts an endpoint against a io.ReadWriter and
makes one request looks like this:

	output := jsonrpc.StartWithProvider(func() (jsonrpc.MessageWriter, error) {
		return lineframe.NewWriter(conn), nil
	})
	endpoint := jsonrpc.NewEndpoint(output)
	go jsonrpc.RunMessageReadLoop(endpoint, lineframe.NewReader(conn))

	future, err := jsonrpc.SendRequest[[]string, string, json.RawMessage](endpoint, "echo", []string{"Hello world!"})
	result := future.Wait()
	value, _, ok := result.AsMethodResult()

Functions can be registered to a MapRequestHandler and then called
using standard JSON-RPC 2.0 semantics, either through the typed
AddRequest helper or, as a convenience, through reflection:

	h := jsonrpc.NewMapRequestHandler()
	jsonrpc.AddRequest(h, "echo", func(in []string) jsonrpc.MethodResult[string, json.RawMessage] {
		return jsonrpc.MethodOk[string, json.RawMessage](in[0])
	})

As with the reflection-based registration, structs may also be
registered wholesale; each exported method is registered as
"Type.Method":

	type Echo struct{}

	func (Echo) Echo(s string) string { return s }

	h := jsonrpc.NewMapRequestHandler()
	h.RegisterStruct(Echo{})

EndpointHandler ties an Endpoint, a RequestHandler, and a MessageReader
together and supervises both halves of the connection until either one
ends:

	eh := jsonrpc.NewEndpointHandler(output, h)
	err := eh.Serve(lineframe.NewReader(conn))
*/
package jsonrpc
