package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// RequestHandler is the type-erased capability the endpoint dispatches
// inbound requests through: given a method name and raw parameter
// JSON, it yields a ResponseResult. Handler registration (AddRequest,
// RegisterStruct) builds concrete RequestHandlers from typed Go
// functions; the endpoint itself only ever talks to this interface.
type RequestHandler interface {
	HandleRequest(ctx context.Context, method string, params json.RawMessage) ResponseResult
}

// RequestHandlerFunc adapts a plain function to RequestHandler.
type RequestHandlerFunc func(ctx context.Context, method string, params json.RawMessage) ResponseResult

// HandleRequest implements RequestHandler.
func (f RequestHandlerFunc) HandleRequest(ctx context.Context, method string, params json.RawMessage) ResponseResult {
	return f(ctx, method, params)
}

// NullRequestHandler answers every request with MethodNotFound. It is
// provided for peers that act purely as clients and never serve
// inbound requests (spec.md §4.3).
type NullRequestHandler struct{}

// HandleRequest implements RequestHandler.
func (NullRequestHandler) HandleRequest(_ context.Context, method string, _ json.RawMessage) ResponseResult {
	return NewErrorResult(newMethodNotFound(method))
}

// MapRequestHandler is a name -> RequestHandler registry, the concrete
// implementation backing spec.md §4.3's "mapping from method name to a
// type-erased handler". It is safe to read concurrently once
// registration is done (spec.md §5: "the handler registry is
// effectively immutable after endpoint start").
type MapRequestHandler struct {
	mu       sync.RWMutex
	handlers map[string]RequestHandler
}

// NewMapRequestHandler builds an empty registry.
func NewMapRequestHandler() *MapRequestHandler {
	return &MapRequestHandler{handlers: make(map[string]RequestHandler)}
}

// Add registers a raw RequestHandler under name, replacing any
// existing registration.
func (h *MapRequestHandler) Add(name string, handler RequestHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[name] = handler
}

// HandleRequest implements RequestHandler: lookup by method name,
// synthesizing MethodNotFound on a miss (spec.md §4.3).
func (h *MapRequestHandler) HandleRequest(ctx context.Context, method string, params json.RawMessage) ResponseResult {
	h.mu.RLock()
	handler, ok := h.handlers[method]
	h.mu.RUnlock()
	if !ok {
		return NewErrorResult(newMethodNotFound(method))
	}
	return runHandlerSafely(func() ResponseResult {
		return handler.HandleRequest(ctx, method, params)
	})
}

// runHandlerSafely recovers a handler panic and converts it to an
// InternalError response, per spec.md §7 ("handler panic ... reported
// to peer") rather than letting it crash the read-loop goroutine.
func runHandlerSafely(call func() ResponseResult) (result ResponseResult) {
	defer func() {
		if r := recover(); r != nil {
			result = NewErrorResult(newInternalError(fmt.Sprintf("handler panic: %v", r)))
		}
	}()
	return call()
}

// typedHandler wraps a typed func(P) MethodResult[R,D] as a RequestHandler,
// per spec.md §4.3:
//  1. raw_params is decoded as P; decode failure -> InvalidParams.
//  2. the inner function is invoked; its MethodResult is converted via
//     SerializeMethodResult.
type typedHandler[P any, R any, D any] struct {
	fn func(context.Context, P) MethodResult[R, D]
}

func (h typedHandler[P, R, D]) HandleRequest(ctx context.Context, _ string, params json.RawMessage) ResponseResult {
	var p P
	if len(params) > 0 && string(params) != "null" {
		if err := json.Unmarshal(params, &p); err != nil {
			return NewErrorResult(newInvalidParams(err.Error()))
		}
	}
	result, err := SerializeMethodResult(h.fn(ctx, p))
	if err != nil {
		return NewErrorResult(newInternalError(err.Error()))
	}
	return result
}

// AddRequest registers a typed handler function under name. fn's
// parameter P is decoded from the request's raw params; its
// MethodResult[R,D] return is converted to the wire ResponseResult.
// This is the typed `add_request` capability of spec.md §4.3.
func AddRequest[P any, R any, D any](h *MapRequestHandler, name string, fn func(P) MethodResult[R, D]) {
	AddRequestCtx(h, name, func(_ context.Context, p P) MethodResult[R, D] {
		return fn(p)
	})
}

// AddRequestCtx is like AddRequest but additionally passes the inbound
// request's context.Context to fn, mirroring the teacher package's
// support for a leading context.Context parameter.
func AddRequestCtx[P any, R any, D any](h *MapRequestHandler, name string, fn func(context.Context, P) MethodResult[R, D]) {
	h.Add(name, typedHandler[P, R, D]{fn: fn})
}

// --- reflection-based struct registration -------------------------------
//
// Generalizes the teacher package's RegisterMethod/Register/RegisterName,
// which let a plain Go function or a receiver's exported methods be
// registered without hand-writing typed wrappers. Kept for the same
// ergonomic reason the teacher built it: registering a whole struct of
// related RPC methods ("Type.Method" naming) in one call.
//
// Restrictions, unchanged from the teacher:
//   - the first parameter may be a context.Context
//   - the remaining parameters must unmarshal from JSON
//   - return values are (optionally) a value and (optionally) an error
//   - a non-nil returned error that is a *jsonrpc.Error is sent as-is;
//     any other error becomes an InternalError.
var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

type reflectedMethod struct {
	fn   reflect.Value
	name string

	hasContext bool
	nargs      int
	ins        []reflect.Type
	variadic   reflect.Type

	hasError    bool
	hasResponse bool
}

func newReflectedMethod(name string, fn interface{}) (*reflectedMethod, error) {
	m := &reflectedMethod{fn: reflect.ValueOf(fn), name: name}
	if m.fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s: cannot use type as a method: %T", name, fn)
	}
	t := m.fn.Type()

	m.nargs = t.NumIn()
	m.ins = make([]reflect.Type, m.nargs)
	for i := range m.ins {
		m.ins[i] = t.In(i)
	}

	if m.nargs > 0 && m.ins[0] == contextType {
		m.hasContext = true
		m.ins = m.ins[1:]
		m.nargs--
	}

	if t.IsVariadic() {
		m.variadic = m.ins[len(m.ins)-1].Elem()
		m.ins = m.ins[:len(m.ins)-1]
		m.nargs--
	}

	i := t.NumOut() - 1
	if i >= 0 && t.Out(i).Implements(errorType) {
		m.hasError = true
		i--
	}
	if i >= 0 {
		m.hasResponse = true
		i--
	}
	if i >= 0 {
		return nil, fmt.Errorf("%s: too many output arguments for method: %T", name, fn)
	}
	return m, nil
}

func (m *reflectedMethod) call(ctx context.Context, params json.RawMessage) ResponseResult {
	var args []json.RawMessage
	if len(params) > 0 && string(params) != "null" {
		if err := json.Unmarshal(params, &args); err != nil {
			args = []json.RawMessage{params}
		}
	}

	if m.variadic != nil {
		if len(args) < m.nargs {
			return NewErrorResult(newInvalidParams(fmt.Sprintf("%s: require at least %d params", m.name, m.nargs)))
		}
	} else if len(args) != m.nargs {
		return NewErrorResult(newInvalidParams(fmt.Sprintf("%s: require %d params", m.name, m.nargs)))
	}

	var ins, provided []reflect.Value
	if m.hasContext {
		ins = make([]reflect.Value, len(args)+1)
		ins[0] = reflect.ValueOf(ctx)
		provided = ins[1:]
	} else {
		ins = make([]reflect.Value, len(args))
		provided = ins
	}
	for i := range provided {
		var t reflect.Type
		if i < m.nargs {
			t = m.ins[i]
		} else {
			t = m.variadic
		}
		v := reflect.New(t)
		if err := json.Unmarshal(args[i], v.Interface()); err != nil {
			return NewErrorResult(&Error{
				Code:    StatusInvalidParams,
				Message: fmt.Sprintf("%s: %v", m.name, err),
				Data:    json.RawMessage(args[i]),
			})
		}
		provided[i] = v.Elem()
	}

	outs := m.fn.Call(ins)

	if m.hasError {
		verr := outs[len(outs)-1]
		if !verr.IsNil() {
			err := verr.Interface().(error)
			if jsonErr, ok := err.(*Error); ok {
				return NewErrorResult(jsonErr)
			}
			return NewErrorResult(newInternalError(err.Error()))
		}
	}

	if m.hasResponse {
		result, err := NewResultValue(outs[0].Interface())
		if err != nil {
			return NewErrorResult(newInternalError(err.Error()))
		}
		return result
	}

	return NewResultRaw(json.RawMessage("null"))
}

func (m *reflectedMethod) HandleRequest(ctx context.Context, _ string, params json.RawMessage) ResponseResult {
	return runHandlerSafely(func() ResponseResult { return m.call(ctx, params) })
}

// RegisterFunc registers fn under name using reflection, following the
// parameter/return rules documented above. It panics on a malformed fn,
// matching the teacher package's RegisterMethod (a programmer error,
// caught at startup, not at request time).
func (h *MapRequestHandler) RegisterFunc(name string, fn interface{}) {
	m, err := newReflectedMethod(name, fn)
	if err != nil {
		panic(err)
	}
	h.Add(name, m)
}

// RegisterStruct registers every exported method of rcvr under the name
// pattern "Type.Method", mirroring the teacher package's Register.
func (h *MapRequestHandler) RegisterStruct(rcvr interface{}) {
	v := reflect.ValueOf(rcvr)
	name := reflect.Indirect(v).Type().Name()
	h.registerStructAs(name, v)
}

// RegisterStructAs is like RegisterStruct but uses name instead of the
// receiver's concrete type name.
func (h *MapRequestHandler) RegisterStructAs(name string, rcvr interface{}) {
	h.registerStructAs(name, reflect.ValueOf(rcvr))
}

func (h *MapRequestHandler) registerStructAs(name string, v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumMethod(); i++ {
		method := t.Method(i)
		if method.PkgPath != "" {
			continue // unexported
		}
		h.RegisterFunc(name+"."+method.Name, v.Method(method.Index).Interface())
	}
}
