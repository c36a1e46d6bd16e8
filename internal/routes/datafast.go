package routes

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Headers forwarded from the client to the analytics host. Everything else
// (cookies, auth) is stripped.
var datafastRequestHeaders = []string{
	"Content-Type",
	"User-Agent",
	"Accept",
	"Accept-Language",
	"Referer",
}

// Response headers copied back to the client.
var datafastResponseHeaders = []string{
	"Content-Type",
	"Cache-Control",
	"Access-Control-Allow-Origin",
	"Access-Control-Allow-Methods",
	"Access-Control-Allow-Headers",
}

// Datafast proxies the analytics script and its event beacon to the
// third-party host. No HTML mutation, no caching; bytes in, bytes out.
func (d Deps) Datafast(target string) RawHandler {
	client := &http.Client{Timeout: 10 * time.Second}
	return func(w http.ResponseWriter, r *http.Request) error {
		if r.Method == http.MethodOptions {
			writeDatafastCORS(w.Header())
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		var body io.Reader
		if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut) {
			body = r.Body
		}
		upstream, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
		if err != nil {
			return fmt.Errorf("create analytics request: %w", err)
		}
		for _, key := range datafastRequestHeaders {
			if v := r.Header.Get(key); v != "" {
				upstream.Header.Set(key, v)
			}
		}
		if ip := clientIP(r); ip != "" {
			upstream.Header.Set("X-Forwarded-For", ip)
		}

		resp, err := client.Do(upstream)
		if err != nil {
			return fmt.Errorf("proxy analytics request: %w", err)
		}
		defer resp.Body.Close()

		for _, key := range datafastResponseHeaders {
			if v := resp.Header.Get(key); v != "" {
				w.Header().Set(key, v)
			}
		}
		if w.Header().Get("Access-Control-Allow-Origin") == "" {
			writeDatafastCORS(w.Header())
		}
		w.WriteHeader(resp.StatusCode)
		_, err = io.Copy(w, resp.Body)
		return err
	}
}

func writeDatafastCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func clientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
