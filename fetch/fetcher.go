package fetch

import (
	"context"
	"fmt"

	"go.miragespace.co/swbridge/bridge"

	"go.uber.org/zap"
)

var ErrUnsupportedInput = fmt.Errorf("fetch: input must be a *Request, RequestInit or url string")

type FetcherConfig struct {
	Bridge   *bridge.Bridge
	Location *Location
	Logger   *zap.Logger
}

func (c *FetcherConfig) Validate() error {
	if c.Bridge == nil {
		return fmt.Errorf("nil Bridge is invalid")
	}
	if c.Location == nil {
		return fmt.Errorf("nil Location is invalid")
	}
	if c.Logger == nil {
		return fmt.Errorf("nil Logger is invalid")
	}
	return nil
}

// Fetcher issues outbound requests through the native bridge.
type Fetcher struct {
	FetcherConfig
}

func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Logger = cfg.Logger.With(zap.String("component", "fetch"))
	return &Fetcher{
		FetcherConfig: cfg,
	}, nil
}

func (f *Fetcher) normalize(input any) (*Request, error) {
	switch in := input.(type) {
	case *Request:
		if in == nil {
			return nil, ErrUnsupportedInput
		}
		// hand-built requests get the same resolution as the other inputs
		return NewRequest(f.Location, in.URL, &RequestInit{
			Method:  in.Method,
			Headers: in.Headers.Clone(),
		})
	case RequestInit:
		return NewRequest(f.Location, in.URL, &in)
	case *RequestInit:
		if in == nil {
			return nil, ErrUnsupportedInput
		}
		return NewRequest(f.Location, in.URL, in)
	case string:
		return NewRequest(f.Location, in, nil)
	default:
		return nil, fmt.Errorf("%w: got %T", ErrUnsupportedInput, input)
	}
}

// Fetch sends input across the bridge and returns a future for the response.
// A failed bridge call rejects the future with the native error unchanged.
func (f *Fetcher) Fetch(ctx context.Context, input any) *Future[*Response] {
	req, err := f.normalize(input)
	if err != nil {
		return Rejected[*Response](err)
	}

	result := newFuture[*Response]()
	msg := req.wire()

	go func() {
		wire, err := f.Bridge.TrueFetch(ctx, msg)
		if err != nil {
			f.Logger.Debug("trueFetch rejected", zap.String("url", msg.URL), zap.Error(err))
			result.reject(err)
			return
		}

		resp, err := ResponseFromWire(wire)
		if err != nil {
			result.reject(err)
			return
		}
		result.resolve(resp)
	}()

	return result
}
