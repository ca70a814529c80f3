package event

import (
	"fmt"
	"sync"

	"go.miragespace.co/swbridge/bridge"

	"go.uber.org/zap"
)

type FetchEventDeps struct {
	Logger *zap.Logger
	Bridge *bridge.Bridge
}

func (d *FetchEventDeps) Validate() error {
	if d.Logger == nil {
		return fmt.Errorf("nil Logger is invalid")
	}
	if d.Bridge == nil {
		return fmt.Errorf("nil Bridge is invalid")
	}
	return nil
}

type FetchEventPool struct {
	evtPool sync.Pool
}

func NewFetchEventPool(deps FetchEventDeps) *FetchEventPool {
	return &FetchEventPool{
		evtPool: sync.Pool{
			New: func() any {
				return newFetchEvent(deps)
			},
		},
	}
}

func (p *FetchEventPool) Get(init FetchEventInit) *FetchEvent {
	return p.evtPool.Get().(*FetchEvent).with(init)
}

func (p *FetchEventPool) Put(evt *FetchEvent) {
	evt.reset()
	p.evtPool.Put(evt)
}
