package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httputil"
	_ "net/http/pprof"
	"net/url"
	"os"
	"time"

	"go.miragespace.co/swbridge"
	"go.miragespace.co/swbridge/bridge"
	"go.miragespace.co/swbridge/bridge/httpexec"
	_ "go.miragespace.co/swbridge/bridge/memory"
	"go.miragespace.co/swbridge/fetch"
	"go.miragespace.co/swbridge/host"
	"go.miragespace.co/swbridge/transpile"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	script := flag.String("script", "", "handler script to load on start (.js, or .ts on typescript builds)")
	bind := flag.String("bind", ":8081", "address to bind to")
	base := flag.String("base", "", "base location relative urls are resolved against (defaults to the bind address)")
	shards := flag.Int("shards", 1, "number of JavaScript event loops")
	upstream := flag.String("upstream", "", "origin that requests falling through to the default action are proxied to")
	execURI := flag.String("exec", "", "bridge transport uri (e.g. http://host:port); empty uses the built-in host")
	timeout := flag.Duration("timeout", 15*time.Second, "how long an inbound request waits for the script")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	h, err := host.NewHost(host.HostConfig{
		Logger:  logger,
		Client:  &http.Client{Timeout: *timeout},
		Timeout: *timeout,
	})
	if err != nil {
		logger.Fatal("Invalid host configuration", zap.Error(err))
	}

	var transport bridge.Transport = h
	if *execURI != "" {
		outbound, err := bridge.Open(*execURI)
		if err != nil {
			logger.Fatal("Cannot open bridge transport", zap.String("uri", *execURI), zap.Error(err))
		}
		// deliveries for requests the middleware dispatched must come back here
		transport = h.WithOutbound(outbound)
	}

	b, err := bridge.NewBridge(bridge.BridgeConfig{
		Transport: transport,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("Invalid bridge configuration", zap.Error(err))
	}

	document, err := documentURL(*bind)
	if err != nil {
		logger.Fatal("Invalid bind address", zap.String("bind", *bind), zap.Error(err))
	}
	loc := &fetch.Location{
		Base:     *base,
		Document: document,
	}

	rt, err := swbridge.NewRuntime(swbridge.RuntimeConfig{
		Logger:   logger,
		Bridge:   b,
		Location: loc,
		Shards:   *shards,
	})
	if err != nil {
		logger.Fatal("Invalid runtime configuration", zap.Error(err))
	}
	defer rt.Stop(true)

	if *script != "" {
		if err := loadFile(rt, *script); err != nil {
			logger.Fatal("Failed to load script", zap.String("script", *script), zap.Error(err))
		}
	}

	router := chi.NewRouter()
	router.Mount("/debug", middleware.Profiler())
	router.Handle("/exec/*", httpexec.NewHandler(logger, h))
	router.Post("/reload", reloadScript(logger, rt))
	router.Group(func(r chi.Router) {
		r.Use(h.Middleware(rt))
		r.Handle("/*", fallback(logger, *upstream))
	})

	logger.Info("ready", zap.String("addr", *bind))

	if err := http.ListenAndServe(*bind, router); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

// documentURL derives the document location from the bind address. Wildcard
// hosts are replaced with localhost.
func documentURL(bind string) (string, error) {
	hostname, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "", err
	}
	switch hostname {
	case "", "0.0.0.0", "::":
		hostname = "localhost"
	}
	return "http://" + net.JoinHostPort(hostname, port) + "/", nil
}

func loadFile(rt *swbridge.Runtime, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	script, err := transpile.LoadScript(context.Background(), name, f)
	if err != nil {
		return err
	}
	return rt.LoadScript(name, script, false)
}

func fallback(logger *zap.Logger, upstream string) http.Handler {
	if upstream == "" {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, "No upstream configured for default action")
		})
	}

	target, err := url.Parse(upstream)
	if err != nil {
		logger.Fatal("Invalid upstream", zap.String("upstream", upstream), zap.Error(err))
	}
	return httputil.NewSingleHostReverseProxy(target)
}

func reloadScript(logger *zap.Logger, rt *swbridge.Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form *multipart.Reader
		form, err := r.MultipartReader()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "Request is not multipart")
			return
		}

		var p *multipart.Part
		p, err = form.NextPart()
		if err != nil && err != io.EOF {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, err)
			return
		}
		if p == nil || p.FormName() != "file" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "Expecting \"file\" field in request")
			return
		}

		script, err := transpile.LoadScript(r.Context(), p.FileName(), p)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Failed to read script from body: %v", err)
			return
		}

		interrupt := r.URL.Query().Get("interrupt") == "true"
		if err := rt.LoadScript(p.FileName(), script, interrupt); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Error reloading script: %v", err)
			return
		}

		logger.Info("script loaded", zap.String("filename", p.FileName()), zap.Int("size", len(script)))
		w.WriteHeader(http.StatusAccepted)
	}
}
