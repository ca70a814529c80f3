package httpexec

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"

	"go.miragespace.co/swbridge/bridge"
	"go.miragespace.co/swbridge/bridge/memory"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRoundTripOverHTTP(t *testing.T) {
	as := require.New(t)
	logger := zaptest.NewLogger(t)

	backing := memory.NewTransport()
	backing.Handle(bridge.ActionTrueFetch, func(ctx context.Context, payload []byte) ([]byte, error) {
		return []byte(`{"body":"aGVsbG8=","status":200}`), nil
	})
	backing.Handle(bridge.ActionFetchDefault, func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, fmt.Errorf("host refused")
	})

	srv := httptest.NewServer(NewHandler(logger, backing))
	defer srv.Close()

	client := NewTransport(srv.URL+"/", srv.Client())

	out, err := client.Exec(context.Background(), bridge.ActionTrueFetch, []byte(`{}`))
	as.NoError(err)
	as.JSONEq(`{"body":"aGVsbG8=","status":200}`, string(out))

	_, err = client.Exec(context.Background(), bridge.ActionFetchDefault, []byte(`{}`))
	var execErr *ExecError
	as.ErrorAs(err, &execErr)
	as.Equal(bridge.ActionFetchDefault, execErr.Action)
	as.Equal(502, execErr.Status)
	as.Contains(execErr.Message, "host refused")
}

func TestOpenHTTPTransport(t *testing.T) {
	as := require.New(t)

	tr, err := bridge.Open("http://127.0.0.1:1")
	as.NoError(err)
	as.IsType(&Transport{}, tr)
}
