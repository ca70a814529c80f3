package httpexec

import (
	"fmt"
	"io"
	"net/http"

	"go.miragespace.co/swbridge/bridge"

	"github.com/go-chi/chi/v5"
	pool "github.com/libp2p/go-buffer-pool"
	"go.uber.org/zap"
)

const maxPayloadSize = 32 << 20

// NewHandler exposes t over HTTP so a Transport can be reached with the
// client in this package.
func NewHandler(logger *zap.Logger, t bridge.Transport) http.Handler {
	logger = logger.With(zap.String("component", "httpexec"))

	r := chi.NewRouter()
	r.Post("/exec/{action}", func(w http.ResponseWriter, r *http.Request) {
		action := bridge.Action(chi.URLParam(r, "action"))

		b := pool.NewBuffer(nil)
		defer b.Reset()

		if _, err := b.ReadFrom(io.LimitReader(r.Body, maxPayloadSize)); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Failed to read payload: %v", err)
			return
		}

		result, err := t.Exec(r.Context(), action, b.Bytes())
		if err != nil {
			logger.Debug("Exec failed", zap.String("action", string(action)), zap.Error(err))
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, err)
			return
		}

		w.Header().Set("content-type", ContentType)
		w.WriteHeader(http.StatusOK)
		w.Write(result)
	})

	return r
}
