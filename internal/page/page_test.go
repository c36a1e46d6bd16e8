package page

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/animuslabs/fiddl-ui-sub000/internal/cache"
	"github.com/animuslabs/fiddl-ui-sub000/internal/htmlx"
	"github.com/animuslabs/fiddl-ui-sub000/internal/metrics"
)

const testShell = `<!DOCTYPE html><html><head><title>Fiddl</title></head><body><div id="app"></div></body></html>`

type countingShell struct {
	calls int
	doc   string
	err   error
}

func (c *countingShell) FetchShell(ctx context.Context, path string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.doc, nil
}

func newTestAssembler(shell *countingShell) (*Assembler, cache.Store) {
	store := cache.NewMemoryStore()
	defaults := Defaults{
		SiteName:    "Fiddl.art",
		Description: "Default description",
		OGImageURL:  "https://cdn.fiddl.art/images/default-lg.webp",
		SiteOrigin:  "https://fiddl.art",
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAssembler(shell, store, defaults, log, metrics.New()), store
}

func TestBuildRewritesShell(t *testing.T) {
	shell := &countingShell{doc: testShell}
	asm, store := newTestAssembler(shell)
	defer store.Close()

	req := httptest.NewRequest("GET", "https://fiddl.art/browse?page=2", nil)
	entry, err := asm.Build(context.Background(), req, BuildConfig{
		Title:  "Browse AI Art",
		JSONLD: []string{`{"@type":"ItemList"}`},
		Social: htmlx.Social{CanonicalURL: "https://fiddl.art/browse"},
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	body := string(entry.Body)
	if !strings.Contains(body, "<title>Browse AI Art</title>") {
		t.Fatalf("title not rewritten: %s", body)
	}
	if !strings.Contains(body, `content="Default description"`) {
		t.Fatal("default description not substituted")
	}
	if !strings.Contains(body, `content="https://cdn.fiddl.art/images/default-lg.webp"`) {
		t.Fatal("default og image not substituted")
	}
	if !strings.Contains(body, `<div class="ssr-metadata"><h1>Browse AI Art</h1></div>`) {
		t.Fatal("ssr block missing")
	}
	if got := entry.Header.Get("Netlify-CDN-Cache-Control"); got != "public, max-age=86400, stale-while-revalidate=300" {
		t.Fatalf("unexpected CDN cache header: %q", got)
	}
}

func TestBuildCacheHitSkipsOrigin(t *testing.T) {
	shell := &countingShell{doc: testShell}
	asm, store := newTestAssembler(shell)
	defer store.Close()

	req := httptest.NewRequest("GET", "https://fiddl.art/models", nil)
	cfg := BuildConfig{Title: "Models"}
	if _, err := asm.Build(context.Background(), req, cfg); err != nil {
		t.Fatalf("first Build returned error: %v", err)
	}
	if shell.calls != 1 {
		t.Fatalf("expected 1 origin fetch, got %d", shell.calls)
	}
	if _, err := asm.Build(context.Background(), req, cfg); err != nil {
		t.Fatalf("second Build returned error: %v", err)
	}
	if shell.calls != 1 {
		t.Fatalf("cache hit still fetched origin: %d calls", shell.calls)
	}
}

func TestBuildCacheIDOverridesKey(t *testing.T) {
	shell := &countingShell{doc: testShell}
	asm, store := newTestAssembler(shell)
	defer store.Close()

	cfg := BuildConfig{
		Title: "Model",
		Cache: CachePolicy{CacheID: "model-page:flux:base", Namespace: "model-page", EdgeTTL: time.Hour},
	}
	reqA := httptest.NewRequest("GET", "https://fiddl.art/m/flux?utm=a", nil)
	reqB := httptest.NewRequest("GET", "https://fiddl.art/m/flux?utm=b", nil)
	if _, err := asm.Build(context.Background(), reqA, cfg); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if _, err := asm.Build(context.Background(), reqB, cfg); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if shell.calls != 1 {
		t.Fatalf("cache id key should be shared across query variants, got %d fetches", shell.calls)
	}
}

func TestBuildUpstreamHTMLSkipsFetch(t *testing.T) {
	shell := &countingShell{doc: testShell}
	asm, store := newTestAssembler(shell)
	defer store.Close()

	req := httptest.NewRequest("GET", "https://fiddl.art/tos", nil)
	entry, err := asm.Build(context.Background(), req, BuildConfig{Title: "Terms", UpstreamHTML: testShell})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if shell.calls != 0 {
		t.Fatalf("UpstreamHTML given but origin fetched %d times", shell.calls)
	}
	if !strings.Contains(string(entry.Body), "<title>Terms</title>") {
		t.Fatal("upstream html not rewritten")
	}
}

func TestBuildPropagatesOriginFailure(t *testing.T) {
	shell := &countingShell{err: context.DeadlineExceeded}
	asm, store := newTestAssembler(shell)
	defer store.Close()

	req := httptest.NewRequest("GET", "https://fiddl.art/browse", nil)
	if _, err := asm.Build(context.Background(), req, BuildConfig{Title: "Browse"}); err == nil {
		t.Fatal("expected origin failure to propagate")
	}
}
