package host

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.miragespace.co/swbridge/bridge"

	pool "github.com/libp2p/go-buffer-pool"
	"github.com/puzpuzpuz/xsync/v2"
	"go.uber.org/zap"
)

const (
	UserAgent = "swbridge-host/fetcher"

	DefaultMaxBodySize = 32 << 20
)

var (
	ErrUnknownAction  = fmt.Errorf("host: unknown action")
	ErrUnknownRequest = fmt.Errorf("host: no pending request with this id")
	ErrBodyTooLarge   = fmt.Errorf("host: upstream body exceeds the size limit")
)

// Delivery is what the script side sent back for an inbound request. Exactly
// one of Response and Default is set.
type Delivery struct {
	Response *bridge.WireResponse
	Default  *bridge.WireRequest
}

type HostConfig struct {
	Logger *zap.Logger
	// Client performs trueFetch requests.
	Client *http.Client
	// Timeout bounds how long an inbound request waits for its delivery.
	Timeout time.Duration
	// MaxBodySize caps trueFetch response bodies. Zero means DefaultMaxBodySize.
	MaxBodySize int64
}

func (c *HostConfig) Validate() error {
	if c.Logger == nil {
		return fmt.Errorf("nil Logger is invalid")
	}
	if c.Client == nil {
		return fmt.Errorf("nil http.Client is invalid")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("Timeout must be positive")
	}
	if c.MaxBodySize < 0 {
		return fmt.Errorf("MaxBodySize cannot be negative")
	}
	return nil
}

// Host plays the native side of the bridge: it performs outbound fetches and
// collects responses for inbound requests it dispatched.
type Host struct {
	cfg     HostConfig
	logger  *zap.Logger
	pending *xsync.MapOf[string, chan Delivery]
}

var _ bridge.Transport = (*Host)(nil)

func NewHost(cfg HostConfig) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	return &Host{
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.String("component", "host")),
		pending: xsync.NewMapOf[chan Delivery](),
	}, nil
}

func (h *Host) Exec(ctx context.Context, action bridge.Action, payload []byte) ([]byte, error) {
	switch action {
	case bridge.ActionTrueFetch:
		var msg bridge.TrueFetchMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, err
		}
		resp, err := h.trueFetch(ctx, msg)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resp)

	case bridge.ActionFetchResponse:
		var msg bridge.FetchResponseMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, err
		}
		return nil, h.deliver(msg.RequestID, Delivery{Response: &msg.Response})

	case bridge.ActionFetchDefault:
		var msg bridge.FetchDefaultMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, err
		}
		return nil, h.deliver(msg.RequestID, Delivery{Default: &msg.Request})

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

func (h *Host) trueFetch(ctx context.Context, msg bridge.TrueFetchMessage) (*bridge.WireResponse, error) {
	req, err := http.NewRequestWithContext(ctx, msg.Method, msg.URL, nil)
	if err != nil {
		return nil, err
	}
	for k, values := range msg.Headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("user-agent", UserAgent)

	resp, err := h.cfg.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b := pool.NewBuffer(nil)
	defer b.Reset()

	n, err := b.ReadFrom(io.LimitReader(resp.Body, h.cfg.MaxBodySize+1))
	if err != nil {
		return nil, err
	}
	if n > h.cfg.MaxBodySize {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrBodyTooLarge, msg.URL, h.cfg.MaxBodySize)
	}

	h.logger.Debug("trueFetch completed",
		zap.String("method", msg.Method),
		zap.String("url", msg.URL),
		zap.Int("status", resp.StatusCode),
	)

	return &bridge.WireResponse{
		Body:    bridge.EncodeBody(b.String()),
		URL:     resp.Request.URL.String(),
		Status:  resp.StatusCode,
		Headers: resp.Header,
	}, nil
}

// WithOutbound returns a transport that sends trueFetch to outbound and keeps
// fetchResponse and fetchDefault on h, so inbound requests dispatched by the
// middleware still receive their deliveries.
func (h *Host) WithOutbound(outbound bridge.Transport) bridge.Transport {
	return bridge.TransportFunc(func(ctx context.Context, action bridge.Action, payload []byte) ([]byte, error) {
		if action == bridge.ActionTrueFetch {
			return outbound.Exec(ctx, action, payload)
		}
		return h.Exec(ctx, action, payload)
	})
}

// expect registers id and returns the channel its delivery arrives on.
func (h *Host) expect(id string) chan Delivery {
	ch := make(chan Delivery, 1)
	h.pending.Store(id, ch)
	return ch
}

func (h *Host) forget(id string) {
	h.pending.Delete(id)
}

func (h *Host) deliver(id string, d Delivery) error {
	ch, ok := h.pending.LoadAndDelete(id)
	if !ok {
		h.logger.Warn("Delivery for unknown request", zap.String("requestId", id))
		return fmt.Errorf("%w: %s", ErrUnknownRequest, id)
	}
	ch <- d
	return nil
}
