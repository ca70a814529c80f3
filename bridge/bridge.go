package bridge

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var (
	execCalls    = expvar.NewInt("bridge.Exec")
	execFailures = expvar.NewInt("bridge.ExecFailed")
	sendDropped  = expvar.NewInt("bridge.SendFailed")
)

const DefaultMaxInFlight = 64

// Transport is the native exec primitive. Payload and result are JSON
// documents; the error returned is the native side's error value.
type Transport interface {
	Exec(ctx context.Context, action Action, payload []byte) (result []byte, err error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, action Action, payload []byte) ([]byte, error)

func (f TransportFunc) Exec(ctx context.Context, action Action, payload []byte) ([]byte, error) {
	return f(ctx, action, payload)
}

type BridgeConfig struct {
	Transport Transport
	Logger    *zap.Logger
	// MaxInFlight bounds concurrent Exec calls. Zero means DefaultMaxInFlight.
	MaxInFlight int64
}

func (c *BridgeConfig) Validate() error {
	if c.Transport == nil {
		return fmt.Errorf("nil Transport is invalid")
	}
	if c.Logger == nil {
		return fmt.Errorf("nil Logger is invalid")
	}
	if c.MaxInFlight < 0 {
		return fmt.Errorf("MaxInFlight cannot be negative")
	}
	return nil
}

// Bridge marshals the three bridge calls onto a Transport.
type Bridge struct {
	transport Transport
	logger    *zap.Logger
	limiter   *semaphore.Weighted
	sends     sync.WaitGroup
}

func NewBridge(cfg BridgeConfig) (*Bridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxInFlight == 0 {
		cfg.MaxInFlight = DefaultMaxInFlight
	}

	return &Bridge{
		transport: cfg.Transport,
		logger:    cfg.Logger.With(zap.String("component", "bridge")),
		limiter:   semaphore.NewWeighted(cfg.MaxInFlight),
	}, nil
}

func (b *Bridge) exec(ctx context.Context, action Action, message any) ([]byte, error) {
	payload, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("bridge: encoding %s payload: %w", action, err)
	}

	if err := b.limiter.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer b.limiter.Release(1)

	execCalls.Add(1)
	result, err := b.transport.Exec(ctx, action, payload)
	if err != nil {
		execFailures.Add(1)
	}
	return result, err
}

// TrueFetch issues an outbound request through the native side. Errors from
// the transport are returned as is.
func (b *Bridge) TrueFetch(ctx context.Context, msg TrueFetchMessage) (resp WireResponse, err error) {
	if msg.Headers == nil {
		msg.Headers = map[string][]string{}
	}

	b.logger.Debug("trueFetch",
		zap.String("method", msg.Method),
		zap.String("url", msg.URL),
	)

	result, err := b.exec(ctx, ActionTrueFetch, msg)
	if err != nil {
		return
	}

	if err = json.Unmarshal(result, &resp); err != nil {
		err = fmt.Errorf("bridge: decoding trueFetch result: %w", err)
	}
	return
}

// FetchResponse delivers the response for an inbound fetch notification. The
// call does not wait for the native side and its result is discarded.
func (b *Bridge) FetchResponse(requestID string, resp WireResponse) {
	b.send(requestID, ActionFetchResponse, FetchResponseMessage{
		RequestID: requestID,
		Response:  resp,
	})
}

// FetchDefault asks the native side to run its default handling for an
// inbound fetch notification. Fire-and-forget like FetchResponse.
func (b *Bridge) FetchDefault(requestID string, req WireRequest) {
	b.send(requestID, ActionFetchDefault, FetchDefaultMessage{
		RequestID: requestID,
		Request:   req,
	})
}

func (b *Bridge) send(requestID string, action Action, message any) {
	b.sends.Add(1)
	go func() {
		defer b.sends.Done()

		if _, err := b.exec(context.Background(), action, message); err != nil {
			sendDropped.Add(1)
			b.logger.Warn("Bridge delivery failed",
				zap.String("action", string(action)),
				zap.String("requestId", requestID),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until all pending FetchResponse and FetchDefault sends have
// returned.
func (b *Bridge) Wait() {
	b.sends.Wait()
}
