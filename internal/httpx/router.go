// Package httpx wires the edge routes, the fallback wrapper and the
// observability middleware into one http.Handler.
package httpx

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/animuslabs/fiddl-ui-sub000/internal/cache"
	"github.com/animuslabs/fiddl-ui-sub000/internal/metrics"
	"github.com/animuslabs/fiddl-ui-sub000/internal/page"
	"github.com/animuslabs/fiddl-ui-sub000/internal/routes"
)

const healthCheckTimeout = 2 * time.Second

// Router wires HTTP endpoints to the page assembler and raw handlers.
type Router struct {
	mux         *mux.Router
	logger      *slog.Logger
	deps        routes.Deps
	assembler   *page.Assembler
	store       cache.Store
	passthrough http.Handler
	metrics     *metrics.Metrics
	cacheHealth func(context.Context) error
}

// PassthroughProvider builds the origin proxy with the supplied error hook.
type PassthroughProvider interface {
	Passthrough(onError func(w http.ResponseWriter, r *http.Request, err error)) http.Handler
}

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, deps routes.Deps, assembler *page.Assembler, store cache.Store, origin PassthroughProvider, cacheHealth func(context.Context) error) *Router {
	rt := &Router{
		mux:         mux.NewRouter(),
		logger:      logger,
		deps:        deps,
		assembler:   assembler,
		store:       store,
		metrics:     metrics.New(),
		cacheHealth: cacheHealth,
	}
	rt.passthrough = origin.Passthrough(rt.handlePassthroughError)
	rt.register()
	return rt
}

// ServeHTTP delegates to the underlying mux.
func (rt *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rt.mux.ServeHTTP(w, req)
}

func (rt *Router) register() {
	rt.mux.HandleFunc("/healthz", rt.audit("healthz", rt.handleHealthz)).Methods(http.MethodGet)
	rt.mux.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	rt.mux.HandleFunc("/sitemap.xml", rt.raw("sitemap", rt.deps.SitemapIndex())).Methods(http.MethodGet)
	rt.mux.HandleFunc("/sitemap-static.xml", rt.raw("sitemapStatic", rt.deps.SitemapStatic())).Methods(http.MethodGet)
	rt.mux.HandleFunc("/sitemap-requests-images.xml", rt.raw("sitemapImages", rt.deps.SitemapRequestsImages(rt.store))).Methods(http.MethodGet)
	rt.mux.HandleFunc("/sitemap-requests-videos.xml", rt.raw("sitemapVideos", rt.deps.SitemapRequestsVideos(rt.store))).Methods(http.MethodGet)

	rt.mux.HandleFunc("/js/script.js", rt.raw("datafastScript", rt.deps.Datafast(rt.deps.Cfg.DatafastScriptURL)))
	rt.mux.HandleFunc("/api/events", rt.raw("datafastEvents", rt.deps.Datafast(rt.deps.Cfg.DatafastEventsURL)))

	for _, desc := range routes.All(rt.deps) {
		handler := rt.pageHandler(desc)
		rt.mux.HandleFunc(desc.Pattern, handler).Methods(http.MethodGet)
		for _, alt := range desc.AltPatterns {
			rt.mux.HandleFunc(alt, handler).Methods(http.MethodGet)
		}
	}

	// Everything else is the SPA's own traffic: assets, API calls the SPA
	// makes through the same host, client-side routes with no SEO handler.
	rt.mux.PathPrefix("/").Handler(rt.audit("passthrough", rt.passthrough.ServeHTTP))
}

// pageHandler binds a route descriptor into the render pipeline: optional
// cache pre-check, then build, assemble and write, all under the fallback
// wrapper.
func (rt *Router) pageHandler(desc routes.Descriptor) http.HandlerFunc {
	return rt.audit(desc.Name, rt.safe(desc.Name, func(w http.ResponseWriter, r *http.Request) error {
		ctx := r.Context()
		if desc.CacheKey != nil {
			if ns, key, ok := desc.CacheKey(r); ok {
				if entry, err := rt.store.Get(ctx, ns, key); err == nil {
					rt.metrics.RecordCacheEvent(ns, "hit")
					writeEntry(w, entry)
					return nil
				}
			}
		}
		cfg, err := desc.Build(ctx, r)
		if err != nil {
			if errors.Is(err, page.ErrPassthrough) {
				rt.servePassthrough(w, r, desc.Name)
				return nil
			}
			return err
		}
		entry, err := rt.assembler.Build(ctx, r, *cfg)
		if err != nil {
			return err
		}
		writeEntry(w, entry)
		return nil
	}))
}

// raw binds a non-HTML handler (sitemaps, analytics proxy) under Safe.
func (rt *Router) raw(name string, handler routes.RawHandler) http.HandlerFunc {
	return rt.audit(name, rt.safe(name, handler))
}

func (rt *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	components := make(map[string]any)
	status := "ok"
	if rt.cacheHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := rt.cacheHealth(ctx); err != nil {
			status = "degraded"
			components["cache"] = map[string]any{"status": "down", "error": err.Error()}
		} else {
			components["cache"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

// audit logs every request with its outcome and records request metrics.
func (rt *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		fields := []any{
			"method", req.Method,
			"route", route,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := requestIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		switch {
		case status >= http.StatusInternalServerError:
			rt.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			rt.logger.Warn("http_request", fields...)
		default:
			rt.logger.Info("http_request", fields...)
		}
		rt.metrics.RequestTotal.With(prometheus.Labels{
			"method": req.Method, "route": route, "status": strconv.Itoa(status),
		}).Inc()
		rt.metrics.RequestLatency.With(prometheus.Labels{
			"method": req.Method, "route": route, "status": strconv.Itoa(status),
		}).Observe(duration.Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func requestIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			if ip := strings.TrimSpace(parts[0]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

// writeEntry replays a rendered cache entry onto the response.
func writeEntry(w http.ResponseWriter, entry *cache.Entry) {
	for key, values := range entry.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	status := entry.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(entry.Body)
}
