package host

import (
	"context"
	"fmt"
	"net/http"

	"go.miragespace.co/swbridge/bridge"
	"go.miragespace.co/swbridge/event"
	"go.miragespace.co/swbridge/fetch"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNoDelivery = fmt.Errorf("host: script did not respond in time")

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.RequestURI())
}

// Middleware turns every inbound request into a FetchEvent. A response
// delivered through respondWith is written back; the default action falls
// through to next.
func (h *Host) Middleware(dispatcher event.FetchDispatcher) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()
			logger := h.logger.With(zap.String("requestId", id))

			ch := h.expect(id)
			defer h.forget(id)

			init := event.FetchEventInit{
				ID: id,
				Request: &fetch.Request{
					URL:     requestURL(r),
					Method:  r.Method,
					Headers: fetch.HeadersFromHTTP(r.Header),
				},
				Client:   r.RemoteAddr,
				IsReload: r.Header.Get("cache-control") == "no-cache",
			}

			// the timeout covers dispatch too, a stopped loop never runs it
			ctx, cancel := context.WithTimeout(r.Context(), h.cfg.Timeout)
			defer cancel()

			if _, err := dispatcher.DispatchFetch(ctx, init); err != nil {
				if r.Context().Err() != nil {
					return
				}
				if ctx.Err() != nil {
					h.timedOut(w, logger)
					return
				}
				logger.Error("Unexpected runtime exception", zap.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprintf(w, "Unexpected runtime exception: %+v", err)
				return
			}

			select {
			case <-ctx.Done():
				if r.Context().Err() != nil {
					return
				}
				h.timedOut(w, logger)

			case d := <-ch:
				if d.Default != nil {
					next.ServeHTTP(w, r)
					return
				}
				h.writeResponse(w, logger, d.Response)
			}
		})
	}
}

func (h *Host) timedOut(w http.ResponseWriter, logger *zap.Logger) {
	logger.Warn("No delivery for request", zap.Duration("timeout", h.cfg.Timeout))
	w.WriteHeader(http.StatusGatewayTimeout)
	fmt.Fprint(w, ErrNoDelivery)
}

func (h *Host) writeResponse(w http.ResponseWriter, logger *zap.Logger, resp *bridge.WireResponse) {
	body, err := bridge.DecodeBody(resp.Body)
	if err != nil {
		logger.Error("Invalid response body from script", zap.Error(err))
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprintf(w, "Execution exception: %+v", err)
		return
	}

	for k, values := range resp.Headers {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.Error("Error writing response", zap.Error(err))
	}
}
