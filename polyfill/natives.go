package polyfill

import (
	"fmt"

	"go.miragespace.co/swbridge/bridge"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"go.uber.org/zap"
)

type natives struct {
	cfg       PolyfillConfig
	eventLoop *eventloop.EventLoop
	logger    *zap.Logger
}

func (n *natives) object(vm *goja.Runtime) *goja.Object {
	obj := vm.NewObject()
	obj.Set("resolveURL", n.resolveURL)
	obj.Set("btoa", n.btoa)
	obj.Set("atob", n.atob)
	obj.Set("trueFetch", n.trueFetch)
	obj.Set("fetchResponse", n.fetchResponse)
	obj.Set("fetchDefault", n.fetchDefault)
	return obj
}

func (n *natives) resolveURL(fc goja.FunctionCall, vm *goja.Runtime) goja.Value {
	u, err := n.cfg.Location.Resolve(fc.Argument(0).String())
	if err != nil {
		panic(vm.NewTypeError(err.Error()))
	}
	return vm.ToValue(u)
}

func (n *natives) btoa(fc goja.FunctionCall, vm *goja.Runtime) goja.Value {
	return vm.ToValue(bridge.EncodeBody(fc.Argument(0).String()))
}

func (n *natives) atob(fc goja.FunctionCall, vm *goja.Runtime) goja.Value {
	arg := fc.Argument(0)
	if goja.IsUndefined(arg) || goja.IsNull(arg) {
		return vm.ToValue("")
	}
	s, err := bridge.DecodeBody(arg.String())
	if err != nil {
		panic(vm.NewGoError(err))
	}
	return vm.ToValue(s)
}

func (n *natives) trueFetch(fc goja.FunctionCall, vm *goja.Runtime) goja.Value {
	promise, resolve, reject := vm.NewPromise()

	msg := bridge.TrueFetchMessage{
		Method:  fc.Argument(0).String(),
		URL:     fc.Argument(1).String(),
		Headers: headersFromNative(fc.Argument(2)),
	}

	go func() {
		resp, err := n.cfg.Bridge.TrueFetch(n.cfg.Context, msg)
		n.eventLoop.RunOnLoop(func(vm *goja.Runtime) {
			if err != nil {
				reject(vm.NewGoError(err))
				return
			}
			obj := vm.NewObject()
			obj.Set("body", resp.Body)
			obj.Set("url", resp.URL)
			obj.Set("status", resp.Status)
			obj.Set("headers", headersToNative(vm, resp.Headers))
			resolve(obj)
		})
	}()

	return vm.ToValue(promise)
}

func (n *natives) fetchResponse(fc goja.FunctionCall, vm *goja.Runtime) goja.Value {
	requestID := fc.Argument(0).String()
	resp := fc.Argument(1)
	if goja.IsUndefined(resp) || goja.IsNull(resp) {
		panic(vm.NewTypeError("fetchResponse: expecting a response"))
	}

	obj := resp.ToObject(vm)
	wire := bridge.WireResponse{
		Body:    stringOr(obj.Get("body"), ""),
		URL:     stringOr(obj.Get("url"), ""),
		Status:  intOr(obj.Get("status"), 0),
		Headers: headersFromNative(obj.Get("headers")),
	}

	n.cfg.Bridge.FetchResponse(requestID, wire)
	return goja.Undefined()
}

func (n *natives) fetchDefault(fc goja.FunctionCall, vm *goja.Runtime) goja.Value {
	requestID := fc.Argument(0).String()

	var url string
	if req := fc.Argument(1); !goja.IsUndefined(req) && !goja.IsNull(req) {
		url = stringOr(req.ToObject(vm).Get("url"), "")
	}

	n.cfg.Bridge.FetchDefault(requestID, bridge.WireRequest{
		URL: url,
	})
	return goja.Undefined()
}

func stringOr(v goja.Value, def string) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return def
	}
	return v.String()
}

func intOr(v goja.Value, def int) int {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return def
	}
	return int(v.ToInteger())
}

func headersFromNative(v goja.Value) map[string][]string {
	headers := map[string][]string{}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return headers
	}

	exported, ok := v.Export().(map[string]any)
	if !ok {
		return headers
	}
	for name, values := range exported {
		switch vv := values.(type) {
		case []any:
			for _, x := range vv {
				headers[name] = append(headers[name], fmt.Sprintf("%v", x))
			}
		case string:
			headers[name] = []string{vv}
		default:
			headers[name] = []string{fmt.Sprintf("%v", vv)}
		}
	}
	return headers
}

func headersToNative(vm *goja.Runtime, headers map[string][]string) *goja.Object {
	obj := vm.NewObject()
	for name, values := range headers {
		arr := make([]any, len(values))
		for i := range values {
			arr[i] = values[i]
		}
		obj.Set(name, vm.NewArray(arr...))
	}
	return obj
}
