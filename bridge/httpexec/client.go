package httpexec

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.miragespace.co/swbridge/bridge"

	pool "github.com/libp2p/go-buffer-pool"
)

const ContentType = "application/json"

// ExecError is returned when the remote side answered with a non-2xx status.
// Message carries the response body verbatim.
type ExecError struct {
	Action  bridge.Action
	Status  int
	Message string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("httpexec: %s failed with status %d: %s", e.Action, e.Status, e.Message)
}

// Transport sends bridge actions as HTTP POST requests to {base}/exec/{action}.
type Transport struct {
	base   string
	client *http.Client
}

var _ bridge.Transport = (*Transport)(nil)

func init() {
	bridge.Register(func(uri string) (bridge.Transport, error) {
		return NewTransport(uri, nil), nil
	}, func(uri string) bool {
		return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
	})
}

// NewTransport returns a transport for the exec endpoint mounted at base. A
// nil client gets a default client with a 15 second timeout.
func NewTransport(base string, client *http.Client) *Transport {
	if client == nil {
		client = &http.Client{
			Timeout: time.Second * 15,
		}
	}
	return &Transport{
		base:   strings.TrimSuffix(base, "/"),
		client: client,
	}
}

func (t *Transport) Exec(ctx context.Context, action bridge.Action, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.base+"/exec/"+string(action), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("content-type", ContentType)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b := pool.NewBuffer(nil)
	defer b.Reset()

	if _, err := b.ReadFrom(resp.Body); err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ExecError{
			Action:  action,
			Status:  resp.StatusCode,
			Message: b.String(),
		}
	}

	return append([]byte(nil), b.Bytes()...), nil
}
