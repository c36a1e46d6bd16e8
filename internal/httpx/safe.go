package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/animuslabs/fiddl-ui-sub000/internal/routes"
)

type routeNameKeyType struct{}

var routeNameKey routeNameKeyType

// safe guarantees a route handler never surfaces an error or panic to the
// client: failures are logged with a correlation ID and degraded to the
// origin passthrough; if even the passthrough fails, the terminal response
// is an empty 200 so crawlers never see a 5xx from this layer.
func (rt *Router) safe(name string, handler routes.RawHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("panic: %v", rec)
				}
			}()
			return handler(w, r)
		}()
		if err == nil {
			return
		}
		rt.logRouteError(name, r, err)
		rt.metrics.RecordFallback(name, "passthrough")
		rt.servePassthrough(w, r, name)
	}
}

// servePassthrough proxies the origin; the route name travels in the request
// context so the proxy error hook can attribute terminal fallbacks.
func (rt *Router) servePassthrough(w http.ResponseWriter, r *http.Request, name string) {
	ctx := context.WithValue(r.Context(), routeNameKey, name)
	rt.passthrough.ServeHTTP(w, r.WithContext(ctx))
}

// handlePassthroughError is the proxy's error hook: the last resort is an
// empty 200 text/html body.
func (rt *Router) handlePassthroughError(w http.ResponseWriter, r *http.Request, err error) {
	name, _ := r.Context().Value(routeNameKey).(string)
	if name == "" {
		name = "passthrough"
	}
	rt.logRouteError(name+":fallback", r, err)
	rt.metrics.RecordFallback(name, "empty200")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
}

func (rt *Router) logRouteError(route string, r *http.Request, err error) {
	fields := []any{
		"error_id", uuid.NewString(),
		"route", route,
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.RawQuery,
		"user_agent", r.UserAgent(),
		"referer", r.Referer(),
		"ip", requestIP(r),
		"timestamp", time.Now().UTC().Format(time.RFC3339),
		"error", err.Error(),
	}
	if cause := errors.Unwrap(err); cause != nil {
		fields = append(fields, "cause", cause.Error())
	}
	rt.logger.Error("edge_route_error", fields...)
}
