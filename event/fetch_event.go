package event

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.miragespace.co/swbridge/bridge"
	"go.miragespace.co/swbridge/fetch"

	"go.uber.org/zap"
)

const FetchEventType = "fetch"

var (
	ErrAlreadyResponded = fmt.Errorf("respondWith: already called")
	ErrNilResponse      = fmt.Errorf("respondWith: expecting a response, got nil")
)

// FetchEventInit describes an inbound fetch notification from the native side.
type FetchEventInit struct {
	// ID correlates the event with the response delivered back to native.
	ID       string
	Request  *fetch.Request
	Client   string
	IsReload bool
}

// FetchEvent is handed to fetch listeners. A listener answers it with
// RespondWith, otherwise the default action forwards the request to native.
type FetchEvent struct {
	baseEvent
	init      FetchEventInit
	deps      FetchEventDeps
	responded atomic.Bool
}

var _ Event = (*FetchEvent)(nil)

func newFetchEvent(deps FetchEventDeps) *FetchEvent {
	return &FetchEvent{
		deps: deps,
	}
}

func (evt *FetchEvent) with(init FetchEventInit) *FetchEvent {
	evt.init = init
	return evt
}

func (evt *FetchEvent) reset() {
	evt.baseEvent.reset()
	evt.responded.Store(false)
	evt.init = FetchEventInit{}
}

func (evt *FetchEvent) Type() string {
	return FetchEventType
}

func (evt *FetchEvent) RequestID() string {
	return evt.init.ID
}

func (evt *FetchEvent) Request() *fetch.Request {
	return evt.init.Request
}

func (evt *FetchEvent) Client() string {
	return evt.init.Client
}

func (evt *FetchEvent) IsReload() bool {
	return evt.init.IsReload
}

func (evt *FetchEvent) claim() error {
	evt.PreventDefault()
	if !evt.responded.CompareAndSwap(false, true) {
		return ErrAlreadyResponded
	}
	return nil
}

// RespondWith delivers resp to native and suppresses the default action.
// Delivery is asynchronous and unacknowledged.
func (evt *FetchEvent) RespondWith(resp *fetch.Response) error {
	if resp == nil {
		return ErrNilResponse
	}
	if err := evt.claim(); err != nil {
		return err
	}

	evt.deps.Bridge.FetchResponse(evt.init.ID, resp.ToDict())
	return nil
}

// RespondWithFuture is RespondWith for a response that is not ready yet. The
// default action is suppressed immediately; the response is delivered when
// the future resolves. A rejected future delivers nothing.
func (evt *FetchEvent) RespondWithFuture(ctx context.Context, future *fetch.Future[*fetch.Response]) error {
	if future == nil {
		return ErrNilResponse
	}
	if err := evt.claim(); err != nil {
		return err
	}

	var (
		id     = evt.init.ID
		b      = evt.deps.Bridge
		logger = evt.deps.Logger
	)

	go func() {
		resp, err := future.Await(ctx)
		if err != nil {
			logger.Warn("respondWith future rejected", zap.String("requestId", id), zap.Error(err))
			return
		}
		if resp == nil {
			logger.Warn("respondWith future resolved to nil", zap.String("requestId", id))
			return
		}
		b.FetchResponse(id, resp.ToDict())
	}()

	return nil
}

// Default hands the request back to native for its own handling.
func (evt *FetchEvent) Default() {
	var url string
	if evt.init.Request != nil {
		url = evt.init.Request.URL
	}
	evt.deps.Bridge.FetchDefault(evt.init.ID, bridge.WireRequest{
		URL: url,
	})
}

// ForwardTo is reserved and currently does nothing.
func (evt *FetchEvent) ForwardTo(url string) {}
