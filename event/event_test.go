package event

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"go.miragespace.co/swbridge/bridge"
	"go.miragespace.co/swbridge/bridge/memory"
	"go.miragespace.co/swbridge/fetch"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recorder struct {
	mu        sync.Mutex
	responses []bridge.FetchResponseMessage
	defaults  []bridge.FetchDefaultMessage
}

func (r *recorder) transport() *memory.Transport {
	m := memory.NewTransport()
	m.Handle(bridge.ActionFetchResponse, func(ctx context.Context, payload []byte) ([]byte, error) {
		var msg bridge.FetchResponseMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		r.responses = append(r.responses, msg)
		return nil, nil
	})
	m.Handle(bridge.ActionFetchDefault, func(ctx context.Context, payload []byte) ([]byte, error) {
		var msg bridge.FetchDefaultMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, err
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		r.defaults = append(r.defaults, msg)
		return nil, nil
	})
	return m
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *bridge.Bridge, *recorder) {
	t.Helper()

	rec := &recorder{}
	b, err := bridge.NewBridge(bridge.BridgeConfig{
		Transport: rec.transport(),
		Logger:    zaptest.NewLogger(t),
	})
	require.NoError(t, err)

	d, err := NewDispatcher(FetchEventDeps{
		Logger: zaptest.NewLogger(t),
		Bridge: b,
	})
	require.NoError(t, err)

	return d, b, rec
}

func testInit(t *testing.T, id string) FetchEventInit {
	req, err := fetch.NewRequest(&fetch.Location{Base: "https://h/"}, "/page", nil)
	require.NoError(t, err)
	return FetchEventInit{
		ID:       id,
		Request:  req,
		Client:   "client-1",
		IsReload: true,
	}
}

func TestFetchEventAccessors(t *testing.T) {
	as := require.New(t)
	d, _, _ := newTestDispatcher(t)

	d.AddEventListener(func(evt *FetchEvent) {
		as.Equal("fetch", evt.Type())
		as.Equal("r1", evt.RequestID())
		as.Equal("https://h/page", evt.Request().URL)
		as.Equal("client-1", evt.Client())
		as.True(evt.IsReload())
		as.False(evt.DefaultPrevented())
	})

	_, err := d.DispatchFetch(context.Background(), testInit(t, "r1"))
	as.NoError(err)
}

func TestDispatchDefault(t *testing.T) {
	as := require.New(t)
	d, b, rec := newTestDispatcher(t)

	defaulted, err := d.DispatchFetch(context.Background(), testInit(t, "r1"))
	as.NoError(err)
	as.True(defaulted)
	b.Wait()

	as.Len(rec.responses, 0)
	as.Equal([]bridge.FetchDefaultMessage{{
		RequestID: "r1",
		Request:   bridge.WireRequest{URL: "https://h/page"},
	}}, rec.defaults)
}

func TestRespondWithSuppressesDefault(t *testing.T) {
	as := require.New(t)
	d, b, rec := newTestDispatcher(t)

	d.AddEventListener(func(evt *FetchEvent) {
		as.NoError(evt.RespondWith(fetch.NewResponse("hello", evt.Request().URL, 0, nil)))
		as.True(evt.DefaultPrevented())
		as.ErrorIs(evt.RespondWith(fetch.NewResponse("again", "", 0, nil)), ErrAlreadyResponded)
	})
	d.AddEventListener(func(evt *FetchEvent) {
		as.ErrorIs(evt.RespondWith(fetch.NewResponse("late", "", 0, nil)), ErrAlreadyResponded)
	})

	defaulted, err := d.DispatchFetch(context.Background(), testInit(t, "r2"))
	as.NoError(err)
	as.False(defaulted)
	b.Wait()

	as.Len(rec.defaults, 0)
	as.Len(rec.responses, 1)
	as.Equal("r2", rec.responses[0].RequestID)
	as.Equal("aGVsbG8=", rec.responses[0].Response.Body)
	as.Equal(200, rec.responses[0].Response.Status)
}

func TestRespondWithFuture(t *testing.T) {
	as := require.New(t)
	d, b, rec := newTestDispatcher(t)

	m := memory.NewTransport()
	m.Handle(bridge.ActionTrueFetch, func(ctx context.Context, payload []byte) ([]byte, error) {
		return []byte(`{"body":"d29ybGQ=","url":"https://up/","status":202}`), nil
	})
	upstream, err := bridge.NewBridge(bridge.BridgeConfig{
		Transport: m,
		Logger:    zaptest.NewLogger(t),
	})
	as.NoError(err)
	fetcher, err := fetch.NewFetcher(fetch.FetcherConfig{
		Bridge:   upstream,
		Location: &fetch.Location{Base: "https://h/"},
		Logger:   zaptest.NewLogger(t),
	})
	as.NoError(err)

	future := fetcher.Fetch(context.Background(), "https://up/")
	d.AddEventListener(func(evt *FetchEvent) {
		as.NoError(evt.RespondWithFuture(context.Background(), future))
	})

	defaulted, err := d.DispatchFetch(context.Background(), testInit(t, "r3"))
	as.NoError(err)
	as.False(defaulted)

	_, err = future.Await(context.Background())
	as.NoError(err)

	as.Eventually(func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.responses) == 1
	}, testTimeout, testTick)
	b.Wait()

	as.Equal("r3", rec.responses[0].RequestID)
	as.Equal("d29ybGQ=", rec.responses[0].Response.Body)
	as.Equal(202, rec.responses[0].Response.Status)
	as.Len(rec.defaults, 0)
}

func TestPanickingListener(t *testing.T) {
	as := require.New(t)
	d, b, rec := newTestDispatcher(t)

	called := false
	d.AddEventListener(func(evt *FetchEvent) {
		panic("boom")
	})
	d.AddEventListener(func(evt *FetchEvent) {
		called = true
	})

	defaulted, err := d.DispatchFetch(context.Background(), testInit(t, "r4"))
	as.NoError(err)
	as.True(defaulted)
	as.True(called)
	b.Wait()
	as.Len(rec.defaults, 1)
}

func TestForwardToIsNoop(t *testing.T) {
	as := require.New(t)
	d, b, rec := newTestDispatcher(t)

	d.AddEventListener(func(evt *FetchEvent) {
		evt.ForwardTo("https://elsewhere/")
	})

	defaulted, err := d.DispatchFetch(context.Background(), testInit(t, "r5"))
	as.NoError(err)
	as.True(defaulted)
	b.Wait()
	as.Len(rec.responses, 0)
}
