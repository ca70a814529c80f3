package polyfill

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
	"github.com/dop251/goja_nodejs/util"
	"go.uber.org/zap"
)

const ConsoleModuleName = "node:console"

type console struct {
	vm   *goja.Runtime
	util *goja.Object
}

func (c *console) log(log func(msg string, fields ...zap.Field)) func(goja.FunctionCall, *goja.Runtime) goja.Value {
	return func(call goja.FunctionCall, vm *goja.Runtime) goja.Value {
		format, ok := goja.AssertFunction(c.util.Get("format"))
		if !ok {
			panic(c.vm.NewTypeError("util.format is not a function"))
		}

		ret, err := format(c.util, call.Arguments...)
		if err != nil {
			panic(err)
		}

		fields := make([]zap.Field, 0, 2)
		if stacks := vm.CaptureCallStack(0, nil); len(stacks) > 1 {
			caller := stacks[1]
			fields = append(fields,
				zap.String("position", caller.Position().String()),
				zap.String("script", caller.SrcName()),
			)
		}

		log(ret.String(), fields...)
		return goja.Undefined()
	}
}

// RequireWithLogger returns a console module printing through logger.
func RequireWithLogger(logger *zap.Logger) require.ModuleLoader {
	logger = logger.With(zap.String("component", "console"))
	return func(vm *goja.Runtime, module *goja.Object) {
		c := &console{
			vm:   vm,
			util: require.Require(vm, util.ModuleName).(*goja.Object),
		}

		o := module.Get("exports").(*goja.Object)
		o.Set("log", c.log(logger.Info))
		o.Set("info", c.log(logger.Info))
		o.Set("debug", c.log(logger.Debug))
		o.Set("error", c.log(logger.Error))
		o.Set("warn", c.log(logger.Warn))
	}
}

// EnableConsole sets the global console. The module must have been
// registered on the runtime's registry.
func EnableConsole(vm *goja.Runtime) {
	vm.Set("console", require.Require(vm, ConsoleModuleName))
}
