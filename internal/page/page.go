// Package page assembles the final SEO-enhanced document for a route: fetch
// or reuse the SPA shell, rewrite it, cache the result, and hand back a
// storable response entry.
package page

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/animuslabs/fiddl-ui-sub000/internal/cache"
	"github.com/animuslabs/fiddl-ui-sub000/internal/htmlx"
	"github.com/animuslabs/fiddl-ui-sub000/internal/metrics"
)

// ErrPassthrough signals that a route does not apply to the request and the
// origin should be served unmodified. It is not an error condition.
var ErrPassthrough = errors.New("serve origin unmodified")

// ShellFetcher retrieves the SPA shell document for a request path.
type ShellFetcher interface {
	FetchShell(ctx context.Context, path string) (string, error)
}

// CachePolicy controls the two-tier cache headers and the storage key.
type CachePolicy struct {
	EdgeTTL   time.Duration
	EdgeSWR   time.Duration
	Browser   string // browser-facing Cache-Control; default "max-age=0, must-revalidate"
	Tags      []string
	CacheID   string // overrides the canonical-URL cache key
	Namespace string // cache partition, default "pages"
}

// BuildConfig is the declarative bag a route hands to the assembler.
type BuildConfig struct {
	Title        string
	Social       htmlx.Social
	Cache        CachePolicy
	JSONLD       []string
	HTMLBlocks   []string
	UpstreamHTML string
	Transform    func(string) string
}

// Defaults are the site-wide fallbacks guaranteeing social.description and
// social.imageUrl are never empty in an assembled page.
type Defaults struct {
	SiteName    string
	Description string
	OGImageURL  string
	SiteOrigin  string
}

// Assembler renders and caches pages.
type Assembler struct {
	shell    ShellFetcher
	store    cache.Store
	defaults Defaults
	logger   *slog.Logger
	metrics  *metrics.Metrics
	group    singleflight.Group
}

// NewAssembler wires the page assembler.
func NewAssembler(shell ShellFetcher, store cache.Store, defaults Defaults, logger *slog.Logger, m *metrics.Metrics) *Assembler {
	return &Assembler{
		shell:    shell,
		store:    store,
		defaults: defaults,
		logger:   logger,
		metrics:  m,
	}
}

const (
	defaultEdgeTTL = 24 * time.Hour
	defaultEdgeSWR = 5 * time.Minute
)

// Build produces the response entry for a request. A cache hit returns the
// stored entry without touching the origin; concurrent misses for the same
// key collapse into a single render.
func (a *Assembler) Build(ctx context.Context, req *http.Request, cfg BuildConfig) (*cache.Entry, error) {
	key := cfg.Cache.CacheID
	if key == "" {
		key = a.canonicalRequestURL(req)
	}
	ns := cfg.Cache.Namespace
	if ns == "" {
		ns = "pages"
	}

	if entry, err := a.store.Get(ctx, ns, key); err == nil {
		a.metrics.RecordCacheEvent(ns, "hit")
		return entry, nil
	}
	a.metrics.RecordCacheEvent(ns, "miss")

	result, err, _ := a.group.Do(ns+"\x00"+key, func() (any, error) {
		return a.render(ctx, req, cfg, ns, key)
	})
	if err != nil {
		return nil, err
	}
	return result.(*cache.Entry), nil
}

var tracer = otel.Tracer("edge/page")

func (a *Assembler) render(ctx context.Context, req *http.Request, cfg BuildConfig, ns, key string) (*cache.Entry, error) {
	ctx, span := tracer.Start(ctx, "page.render")
	span.SetAttributes(attribute.String("cache.namespace", ns), attribute.String("cache.key", key))
	defer span.End()

	doc := cfg.UpstreamHTML
	if doc == "" {
		start := time.Now()
		fetched, err := a.shell.FetchShell(ctx, req.URL.Path)
		a.metrics.UpstreamLatency.With(prometheus.Labels{"target": "origin"}).Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, fmt.Errorf("fetch origin shell: %w", err)
		}
		doc = fetched
	}

	social := cfg.Social
	if social.Title == "" {
		social.Title = cfg.Title
	}
	if social.Description == "" {
		social.Description = a.defaults.Description
	}
	if social.ImageURL == "" {
		social.ImageURL = a.defaults.OGImageURL
	}

	doc = htmlx.Rewrite(doc, htmlx.Mutation{
		Title:     cfg.Title,
		JSONLD:    cfg.JSONLD,
		Social:    &social,
		SSRHTML:   a.renderSSRBlock(cfg, social),
		ForceLang: "en",
	})
	if cfg.Transform != nil {
		doc = cfg.Transform(doc)
	}

	entry := &cache.Entry{
		Status:   http.StatusOK,
		Header:   a.buildHeaders(cfg.Cache),
		Body:     []byte(doc),
		StoredAt: time.Now().UTC(),
	}
	ttl := cfg.Cache.EdgeTTL
	if ttl <= 0 {
		ttl = defaultEdgeTTL
	}
	if err := a.store.Set(ctx, ns, key, entry, ttl); err != nil && a.logger != nil {
		a.logger.Warn("page cache store failed", "namespace", ns, "key", key, "error", err)
	}
	return entry, nil
}

// renderSSRBlock wraps the resolved h1 plus the route's HTML fragments in a
// single crawler-visible container injected after the body open tag.
func (a *Assembler) renderSSRBlock(cfg BuildConfig, social htmlx.Social) string {
	heading := cfg.Title
	if heading == "" {
		heading = social.Title
	}
	if heading == "" && len(cfg.HTMLBlocks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<div class="ssr-metadata">`)
	if heading != "" {
		b.WriteString("<h1>" + htmlx.EscapeText(heading) + "</h1>")
	}
	for _, block := range cfg.HTMLBlocks {
		b.WriteString(block)
	}
	b.WriteString("</div>")
	return b.String()
}

func (a *Assembler) buildHeaders(policy CachePolicy) http.Header {
	ttl := policy.EdgeTTL
	if ttl <= 0 {
		ttl = defaultEdgeTTL
	}
	swr := policy.EdgeSWR
	if swr <= 0 {
		swr = defaultEdgeSWR
	}
	browser := policy.Browser
	if browser == "" {
		browser = "max-age=0, must-revalidate"
	}

	header := http.Header{}
	header.Set("Content-Type", "text/html; charset=utf-8")
	header.Set("Cache-Control", browser)
	header.Set("Netlify-CDN-Cache-Control", "public, max-age="+strconv.Itoa(int(ttl.Seconds()))+
		", stale-while-revalidate="+strconv.Itoa(int(swr.Seconds())))
	if len(policy.Tags) > 0 {
		header.Set("Cache-Tag", strings.Join(policy.Tags, ","))
	}
	if policy.CacheID != "" {
		header.Set("X-Edge-Cache-Id", policy.CacheID)
	}
	return header
}

func (a *Assembler) canonicalRequestURL(req *http.Request) string {
	origin := strings.TrimRight(a.defaults.SiteOrigin, "/")
	return origin + req.URL.RequestURI()
}
