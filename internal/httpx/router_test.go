package httpx

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"log/slog"

	"github.com/animuslabs/fiddl-ui-sub000/internal/cache"
	"github.com/animuslabs/fiddl-ui-sub000/internal/fiddlapi"
	"github.com/animuslabs/fiddl-ui-sub000/internal/media"
	"github.com/animuslabs/fiddl-ui-sub000/internal/metrics"
	"github.com/animuslabs/fiddl-ui-sub000/internal/page"
	"github.com/animuslabs/fiddl-ui-sub000/internal/routes"
	"github.com/animuslabs/fiddl-ui-sub000/pkg/config"
)

const testShell = `<!DOCTYPE html><html><head><title>Fiddl.art</title></head><body><div id="q-app"></div></body></html>`

var errNotStubbed = errors.New("not stubbed")

type stubAPI struct {
	browseFn      func(ctx context.Context, limit int) ([]fiddlapi.BrowseRow, error)
	getModelCalls int
	getReqCalls   int
}

func (s *stubAPI) Browse(ctx context.Context, limit int) ([]fiddlapi.BrowseRow, error) {
	if s.browseFn != nil {
		return s.browseFn(ctx, limit)
	}
	return nil, errNotStubbed
}

func (s *stubAPI) GetModel(ctx context.Context, name, customModelID string) (*fiddlapi.Model, error) {
	s.getModelCalls++
	return nil, errNotStubbed
}

func (s *stubAPI) ListBaseModels(ctx context.Context) ([]fiddlapi.Model, error) {
	return nil, errNotStubbed
}

func (s *stubAPI) ListPublicModels(ctx context.Context) ([]fiddlapi.Model, error) {
	return nil, errNotStubbed
}

func (s *stubAPI) ModelCreations(ctx context.Context, name string, limit int) ([]fiddlapi.BrowseRow, error) {
	return nil, errNotStubbed
}

func (s *stubAPI) GetProfile(ctx context.Context, username string) (*fiddlapi.Profile, error) {
	return nil, errNotStubbed
}

func (s *stubAPI) ProfileCreations(ctx context.Context, username string, limit int) ([]fiddlapi.BrowseRow, error) {
	return nil, errNotStubbed
}

func (s *stubAPI) GetCreateRequest(ctx context.Context, id string) (*fiddlapi.CreateRequest, error) {
	s.getReqCalls++
	return nil, errNotStubbed
}

func (s *stubAPI) RecentRequests(ctx context.Context, mediaType string, limit int) ([]fiddlapi.SitemapRequest, error) {
	return nil, errNotStubbed
}

type shellStub struct {
	html string
	err  error
}

func (s shellStub) FetchShell(ctx context.Context, path string) (string, error) {
	return s.html, s.err
}

// originStub stands in for the reverse proxy. With fail set it invokes the
// error hook instead of serving, exercising the terminal fallback path.
type originStub struct {
	body string
	fail bool
}

func (o originStub) Passthrough(onError func(w http.ResponseWriter, r *http.Request, err error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if o.fail {
			onError(w, r, errors.New("origin unreachable"))
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, o.body)
	})
}

func testConfig() config.EdgeConfig {
	return config.EdgeConfig{
		SiteOrigin:         "https://fiddl.example",
		OriginURL:          "http://origin.local",
		SiteName:           "Fiddl.art",
		DefaultDescription: "Create and earn with AI art.",
		EdgeTTL:            time.Hour,
		EdgeSWR:            5 * time.Minute,
		ModelTTL:           time.Hour,
		SitemapTTL:         time.Hour,
		DatafastScriptURL:  "https://datafa.st/js/script.js",
		DatafastEventsURL:  "https://datafa.st/api/events",
	}
}

func newTestRouter(api routes.API, o PassthroughProvider, cfg config.EdgeConfig, health func(context.Context) error) (*Router, cache.Store) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	shell := shellStub{html: testShell}
	store := cache.NewMemoryStore()
	deps := routes.Deps{
		API:    api,
		Media:  media.NewResolver("https://cdn.example"),
		Shell:  shell,
		Cfg:    cfg,
		Logger: log,
	}
	defaults := page.Defaults{
		SiteName:    cfg.SiteName,
		Description: cfg.DefaultDescription,
		OGImageURL:  "https://cdn.example/images/og-lg.webp",
		SiteOrigin:  cfg.SiteOrigin,
	}
	assembler := page.NewAssembler(shell, store, defaults, log, metrics.New())
	return NewRouter(log, deps, assembler, store, o, health), store
}

func TestStaticPageRendered(t *testing.T) {
	rt, _ := newTestRouter(&stubAPI{}, originStub{body: "fallback"}, testConfig(), nil)

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/claim", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<title>Claim Fiddl Points</title>") {
		t.Errorf("title not rewritten: %s", body)
	}
	if !strings.Contains(body, `property="og:title"`) {
		t.Errorf("social meta missing: %s", body)
	}
	if cc := rec.Header().Get("Netlify-CDN-Cache-Control"); !strings.Contains(cc, "max-age=86400") {
		t.Errorf("CDN cache header = %q", cc)
	}
}

func TestRouteErrorFallsBackToOrigin(t *testing.T) {
	rt, _ := newTestRouter(&stubAPI{}, originStub{body: "spa shell"}, testConfig(), nil)

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/browse", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "spa shell" {
		t.Errorf("body = %q, want origin passthrough", rec.Body.String())
	}
}

func TestTerminalFallbackIsEmpty200(t *testing.T) {
	rt, _ := newTestRouter(&stubAPI{}, originStub{fail: true}, testConfig(), nil)

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/browse", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestPanicRecoveredToFallback(t *testing.T) {
	api := &stubAPI{browseFn: func(ctx context.Context, limit int) ([]fiddlapi.BrowseRow, error) {
		panic("boom")
	}}
	rt, _ := newTestRouter(api, originStub{body: "spa shell"}, testConfig(), nil)

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/browse", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "spa shell" {
		t.Errorf("body = %q, want origin passthrough", rec.Body.String())
	}
}

func TestUndecodableShortIDPassesThrough(t *testing.T) {
	api := &stubAPI{}
	rt, _ := newTestRouter(api, originStub{body: "spa shell"}, testConfig(), nil)

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/request/image/not-a-short-id", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "spa shell" {
		t.Errorf("body = %q, want origin passthrough", rec.Body.String())
	}
	if api.getReqCalls != 0 {
		t.Errorf("GetCreateRequest called %d times for undecodable id", api.getReqCalls)
	}
}

func TestModelPageServedFromCache(t *testing.T) {
	api := &stubAPI{}
	rt, store := newTestRouter(api, originStub{fail: true}, testConfig(), nil)

	entry := &cache.Entry{
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:   []byte("<html>cached model page</html>"),
	}
	if err := store.Set(context.Background(), "model-page", "model-page:flux:base", entry, time.Minute); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/m/flux", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "<html>cached model page</html>" {
		t.Errorf("body = %q, want cached entry", rec.Body.String())
	}
	if api.getModelCalls != 0 {
		t.Errorf("GetModel called %d times on cache hit", api.getModelCalls)
	}
}

func TestSitemapIndex(t *testing.T) {
	rt, _ := newTestRouter(&stubAPI{}, originStub{fail: true}, testConfig(), nil)

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/xml") {
		t.Errorf("Content-Type = %q", ct)
	}
	var index struct {
		Sitemaps []struct {
			Loc string `xml:"loc"`
		} `xml:"sitemap"`
	}
	if err := xml.Unmarshal(rec.Body.Bytes(), &index); err != nil {
		t.Fatalf("unmarshal sitemap index: %v", err)
	}
	if len(index.Sitemaps) != 3 {
		t.Fatalf("child sitemaps = %d, want 3", len(index.Sitemaps))
	}
	want := []string{
		"https://fiddl.example/sitemap-static.xml",
		"https://fiddl.example/sitemap-requests-images.xml",
		"https://fiddl.example/sitemap-requests-videos.xml",
	}
	for i, loc := range want {
		if index.Sitemaps[i].Loc != loc {
			t.Errorf("sitemap[%d] = %q, want %q", i, index.Sitemaps[i].Loc, loc)
		}
	}
}

func TestDatafastProxy(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Cookie"); got != "" {
			t.Errorf("Cookie forwarded: %q", got)
		}
		if got := r.Header.Get("Referer"); got != "https://fiddl.example/browse" {
			t.Errorf("Referer = %q", got)
		}
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = io.WriteString(w, "// analytics")
	}))
	defer upstream.Close()

	cfg := testConfig()
	cfg.DatafastScriptURL = upstream.URL
	rt, _ := newTestRouter(&stubAPI{}, originStub{fail: true}, cfg, nil)

	req := httptest.NewRequest(http.MethodGet, "/js/script.js", nil)
	req.Header.Set("Cookie", "session=secret")
	req.Header.Set("Referer", "https://fiddl.example/browse")
	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "// analytics" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("CORS origin = %q, want *", got)
	}
}

func TestDatafastPreflight(t *testing.T) {
	rt, _ := newTestRouter(&stubAPI{}, originStub{fail: true}, testConfig(), nil)

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/events", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("CORS methods = %q", got)
	}
}

func TestHealthz(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		rt, _ := newTestRouter(&stubAPI{}, originStub{fail: true}, testConfig(), func(ctx context.Context) error {
			return nil
		})
		rec := httptest.NewRecorder()
		rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("degraded cache", func(t *testing.T) {
		rt, _ := newTestRouter(&stubAPI{}, originStub{fail: true}, testConfig(), func(ctx context.Context) error {
			return errors.New("redis down")
		})
		rec := httptest.NewRecorder()
		rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		var payload struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode health payload: %v", err)
		}
		if payload.Status != "degraded" {
			t.Errorf("status = %q, want degraded", payload.Status)
		}
	})
}

func TestUnhandledPathPassesThrough(t *testing.T) {
	rt, _ := newTestRouter(&stubAPI{}, originStub{body: "asset bytes"}, testConfig(), nil)

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/assets/app.12ab.js", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "asset bytes" {
		t.Errorf("body = %q, want origin bytes", rec.Body.String())
	}
}
