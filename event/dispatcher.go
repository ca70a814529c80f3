package event

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// FetchDispatcher fires a FetchEvent for an inbound notification. defaulted
// reports whether the default action ran.
type FetchDispatcher interface {
	DispatchFetch(ctx context.Context, init FetchEventInit) (defaulted bool, err error)
}

// Handler is a fetch listener. It must not retain evt after returning; use
// RespondWithFuture for work that completes later.
type Handler func(evt *FetchEvent)

// Dispatcher runs Go fetch listeners.
type Dispatcher struct {
	logger   *zap.Logger
	pool     *FetchEventPool
	mu       sync.RWMutex
	handlers []Handler
}

var _ FetchDispatcher = (*Dispatcher)(nil)

func NewDispatcher(deps FetchEventDeps) (*Dispatcher, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	deps.Logger = deps.Logger.With(zap.String("component", "dispatcher"))
	return &Dispatcher{
		logger: deps.Logger,
		pool:   NewFetchEventPool(deps),
	}, nil
}

func (d *Dispatcher) AddEventListener(h Handler) {
	if h == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// DispatchFetch runs every listener in registration order, then the default
// action unless a listener prevented it. A panicking listener is logged and
// does not stop the remaining listeners.
func (d *Dispatcher) DispatchFetch(ctx context.Context, init FetchEventInit) (defaulted bool, err error) {
	if err = ctx.Err(); err != nil {
		return
	}

	d.mu.RLock()
	handlers := d.handlers
	d.mu.RUnlock()

	evt := d.pool.Get(init)
	defer d.pool.Put(evt)

	for _, h := range handlers {
		d.invoke(h, evt)
	}

	if !evt.DefaultPrevented() {
		evt.Default()
		defaulted = true
	}
	return
}

func (d *Dispatcher) invoke(h Handler, evt *FetchEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Fetch listener panicked",
				zap.String("requestId", evt.RequestID()),
				zap.Error(fmt.Errorf("%v", r)),
			)
		}
	}()
	h(evt)
}
