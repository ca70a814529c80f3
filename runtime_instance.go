package swbridge

import (
	"context"
	"fmt"

	"go.miragespace.co/swbridge/event"
	"go.miragespace.co/swbridge/polyfill"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/url"
	"go.uber.org/zap"
)

var nilInstance *runtimeInstance = nil

type runtimeInstance struct {
	logger    *zap.Logger
	eventLoop *eventloop.EventLoop
	symbols   *polyfill.RuntimeSymbols
	vm        *goja.Runtime
}

type dispatchResult struct {
	defaulted bool
	err       error
}

func (inst *runtimeInstance) stop(interrupt bool) {
	if interrupt && inst.vm != nil {
		inst.vm.Interrupt(context.Canceled)
	}
	inst.eventLoop.StopNoWait()
}

func (inst *runtimeInstance) prepareInstance() (setup chan error) {
	setup = make(chan error, 1)

	inst.eventLoop.RunOnLoop(func(vm *goja.Runtime) {
		url.Enable(vm)
		polyfill.EnableConsole(vm)

		inst.vm = vm // reference is kept for .Interrupt

		setup <- nil
	})

	return
}

func (inst *runtimeInstance) loadProgram(prog *goja.Program) (setup chan error) {
	setup = make(chan error, 1)

	inst.eventLoop.RunOnLoop(func(vm *goja.Runtime) {
		_, err := vm.RunProgram(prog)
		if err != nil {
			setup <- fmt.Errorf("error setting up handler script: %w", err)
			return
		}
		setup <- nil
	})

	return
}

func (inst *runtimeInstance) dispatchFetch(ctx context.Context, init event.FetchEventInit) (bool, error) {
	result := make(chan dispatchResult, 1)

	inst.eventLoop.RunOnLoop(func(vm *goja.Runtime) {
		defaulted, err := inst.symbols.DispatchFetch(vm, init)
		if err != nil {
			inst.logger.Error("Unexpected runtime exception",
				zap.String("requestId", init.ID),
				zap.Error(err),
			)
		}
		result <- dispatchResult{defaulted: defaulted, err: err}
	})

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case r := <-result:
		return r.defaulted, r.err
	}
}
