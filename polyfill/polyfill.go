package polyfill

import (
	"context"
	_ "embed"
	"fmt"

	"go.miragespace.co/swbridge/bridge"
	"go.miragespace.co/swbridge/event"
	"go.miragespace.co/swbridge/fetch"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"go.uber.org/zap"
)

const (
	RuntimeNativeSymbol        = "__runtimeNative"
	RuntimeDispatchFetchSymbol = "__runtimeDispatchFetch"
)

//go:embed polyfill.js
var polyfillScript string

var polyfillProg = goja.MustCompile("polyfill", polyfillScript, true)

type PolyfillConfig struct {
	Logger   *zap.Logger
	Bridge   *bridge.Bridge
	Location *fetch.Location
	// Context bounds outbound fetches started by scripts.
	Context context.Context
}

func (c *PolyfillConfig) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("nil Logger is invalid")
	}
	if c.Bridge == nil {
		return fmt.Errorf("nil Bridge is invalid")
	}
	if c.Location == nil {
		return fmt.Errorf("nil Location is invalid")
	}
	if c.Context == nil {
		return fmt.Errorf("nil Context is invalid")
	}
	return nil
}

// RuntimeSymbols holds the script-side entry points needed from Go.
type RuntimeSymbols struct {
	dispatchFetch goja.Callable
}

// DispatchFetch fires a FetchEvent into the script. It must be called on the
// event loop.
func (r *RuntimeSymbols) DispatchFetch(vm *goja.Runtime, init event.FetchEventInit) (defaulted bool, err error) {
	obj := vm.NewObject()
	obj.Set("id", init.ID)
	obj.Set("client", init.Client)
	obj.Set("isReload", init.IsReload)
	if init.Request != nil {
		obj.Set("url", init.Request.URL)
		obj.Set("method", init.Request.Method)
		obj.Set("headers", headersToNative(vm, init.Request.Headers))
	}

	ret, err := r.dispatchFetch(goja.Undefined(), obj)
	if err != nil {
		return false, err
	}
	return ret.ToBoolean(), nil
}

// PolyfillRuntime installs Headers, Request, Response, FetchEvent, fetch and
// addEventListener on the runtime owned by eventLoop.
func PolyfillRuntime(eventLoop *eventloop.EventLoop, cfg PolyfillConfig) (s *RuntimeSymbols, err error) {
	if err = cfg.Validate(); err != nil {
		return
	}

	setup := make(chan error, 1)
	eventLoop.RunOnLoop(func(vm *goja.Runtime) {
		n := &natives{
			cfg:       cfg,
			eventLoop: eventLoop,
			logger:    cfg.Logger.With(zap.String("component", "polyfill")),
		}
		if err := vm.Set(RuntimeNativeSymbol, n.object(vm)); err != nil {
			setup <- err
			return
		}

		_, err := vm.RunProgram(polyfillProg)
		if err != nil {
			setup <- err
			return
		}

		dispatch, ok := goja.AssertFunction(vm.Get(RuntimeDispatchFetchSymbol))
		if !ok {
			setup <- fmt.Errorf("polyfill symbols not found, please check if polyfill is configured correctly")
			return
		}

		s = &RuntimeSymbols{
			dispatchFetch: dispatch,
		}

		setup <- nil
	})

	err = <-setup
	return
}
