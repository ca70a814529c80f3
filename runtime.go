package swbridge

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"go.miragespace.co/swbridge/bridge"
	"go.miragespace.co/swbridge/event"
	"go.miragespace.co/swbridge/fetch"
	"go.miragespace.co/swbridge/polyfill"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"
	"go.uber.org/zap"
	"golang.org/x/sys/cpu"
)

var ErrRuntimeNotReady = fmt.Errorf("runtime has no script loaded")

type RuntimeConfig struct {
	Logger   *zap.Logger
	Bridge   *bridge.Bridge
	Location *fetch.Location
	// Shards is the number of independent event loops incoming events are
	// spread over. Each loop is single threaded.
	Shards int
}

func (c *RuntimeConfig) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("logger cannot be nil")
	}
	if c.Bridge == nil {
		return fmt.Errorf("bridge cannot be nil")
	}
	if c.Location == nil {
		return fmt.Errorf("location cannot be nil")
	}
	if c.Shards < 1 {
		return fmt.Errorf("shards cannot be smaller than 1")
	}
	return nil
}

// Runtime runs fetch handler scripts against the polyfilled Fetch API.
type Runtime struct {
	cfg       RuntimeConfig
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	shards    []atomic.Pointer[runtimeInstance]
	_         cpu.CacheLinePad
	nextShard uint32
	_         cpu.CacheLinePad
	numShards int
}

var _ event.FetchDispatcher = (*Runtime)(nil)

// NewRuntime returns a runtime without a script. Use shards > 1 to round-robin
// incoming events over multiple JavaScript runtimes.
func NewRuntime(cfg RuntimeConfig) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	rt := &Runtime{
		cfg:       cfg,
		logger:    cfg.Logger,
		ctx:       ctx,
		cancel:    cancel,
		shards:    make([]atomic.Pointer[runtimeInstance], cfg.Shards),
		numShards: cfg.Shards,
	}

	for i := range rt.shards {
		rt.shards[i].Store(nilInstance)
	}

	rt.logger.Info("Runtime configured",
		zap.Int("shards", cfg.Shards),
		zap.String("location.base", cfg.Location.Base),
		zap.String("location.document", cfg.Location.Document),
	)

	return rt, nil
}

// LoadScript replaces the script handling fetch events. The script runs in
// fresh runtimes; interrupt aborts whatever the old runtimes are executing
// instead of letting them finish.
func (rt *Runtime) LoadScript(scriptName, script string, interrupt bool) (err error) {
	prog, err := goja.Compile(scriptName, script, true)
	if err != nil {
		return fmt.Errorf("error compiling script: %w", err)
	}

	// force GC on script reload
	defer runtime.GC()

	start := time.Now()
	for i := range rt.shards {
		instance, err := rt.getInstance(scriptName)
		if err != nil {
			return err
		}

		if err := <-instance.loadProgram(prog); err != nil {
			instance.stop(true)
			return err
		}

		old := rt.shards[i].Swap(instance)
		if old != nilInstance {
			old.stop(interrupt)
		}
	}

	rt.logger.Info("All shards reloaded",
		zap.Duration("duration", time.Since(start)),
		zap.String("script", scriptName),
		zap.Int("shards", rt.numShards),
	)

	return nil
}

func (rt *Runtime) nextInstance() *runtimeInstance {
	n := atomic.AddUint32(&rt.nextShard, 1)
	return rt.shards[int(n)%rt.numShards].Load()
}

// DispatchFetch fires a FetchEvent into the loaded script and reports whether
// the default action ran.
func (rt *Runtime) DispatchFetch(ctx context.Context, init event.FetchEventInit) (bool, error) {
	instance := rt.nextInstance()
	if instance == nilInstance {
		return false, ErrRuntimeNotReady
	}
	return instance.dispatchFetch(ctx, init)
}

func (rt *Runtime) getInstance(scriptName string) (instance *runtimeInstance, err error) {
	registry := require.NewRegistry()
	registry.RegisterNativeModule(polyfill.ConsoleModuleName, polyfill.RequireWithLogger(rt.logger.With(zap.String("script", scriptName))))

	eventLoop := eventloop.NewEventLoop(
		eventloop.EnableConsole(false),
		eventloop.WithRegistry(registry),
	)
	eventLoop.Start()

	defer func() {
		if err != nil {
			eventLoop.StopNoWait()
		}
	}()

	instance = &runtimeInstance{
		logger:    rt.logger,
		eventLoop: eventLoop,
	}

	if err = <-instance.prepareInstance(); err != nil {
		return
	}

	instance.symbols, err = polyfill.PolyfillRuntime(eventLoop, polyfill.PolyfillConfig{
		Logger:   rt.logger,
		Bridge:   rt.cfg.Bridge,
		Location: rt.cfg.Location,
		Context:  rt.ctx,
	})

	return
}

// Stop tears down every shard and cancels outbound fetches started by scripts.
func (rt *Runtime) Stop(interrupt bool) {
	for i := range rt.shards {
		old := rt.shards[i].Swap(nilInstance)
		if old != nilInstance {
			old.stop(interrupt)
		}
	}
	rt.cancel()
}
