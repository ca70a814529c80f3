package memory

import (
	"context"
	"fmt"
	"strings"

	"go.miragespace.co/swbridge/bridge"

	"github.com/puzpuzpuz/xsync/v2"
)

var ErrNoHandler = fmt.Errorf("memory: no handler for action")

// HandlerFunc serves one bridge action in-process.
type HandlerFunc func(ctx context.Context, payload []byte) ([]byte, error)

// Transport dispatches bridge actions to Go functions in the same process.
type Transport struct {
	handlers *xsync.MapOf[string, HandlerFunc]
}

var _ bridge.Transport = (*Transport)(nil)

func init() {
	bridge.Register(func(uri string) (bridge.Transport, error) {
		return NewTransport(), nil
	}, func(uri string) bool {
		return strings.HasPrefix(uri, "memory")
	})
}

func NewTransport() *Transport {
	return &Transport{
		handlers: xsync.NewMapOf[HandlerFunc](),
	}
}

// Handle installs fn for action, replacing any previous handler.
func (m *Transport) Handle(action bridge.Action, fn HandlerFunc) {
	m.handlers.Store(string(action), fn)
}

func (m *Transport) Remove(action bridge.Action) bool {
	_, deleted := m.handlers.LoadAndDelete(string(action))
	return deleted
}

func (m *Transport) Exec(ctx context.Context, action bridge.Action, payload []byte) ([]byte, error) {
	fn, ok := m.handlers.Load(string(action))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, action)
	}
	return fn(ctx, payload)
}
