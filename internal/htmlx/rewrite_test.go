package htmlx

import (
	"strings"
	"testing"
)

const shell = `<!DOCTYPE html><html lang="fr"><head><title>App</title>` +
	`<meta property="og:title" content="stale title">` +
	`<meta name="twitter:card" content="summary">` +
	`<link rel="canonical" href="https://old.example/">` +
	`</head><body><div id="app"></div></body></html>`

func TestRewriteTitle(t *testing.T) {
	out := Rewrite(shell, Mutation{Title: "Browse AI Art <new>"})
	if !strings.Contains(out, "<title>Browse AI Art &lt;new&gt;</title>") {
		t.Fatalf("title not replaced: %s", out)
	}
	if strings.Contains(out, "<title>App</title>") {
		t.Fatal("old title still present")
	}
}

func TestRewriteSocialStripsAndAppends(t *testing.T) {
	social := &Social{
		Title:        "Model Page",
		Description:  "Generate with \"Flux\"",
		ImageURL:     "https://cdn.fiddl.art/images/x-lg.webp",
		CanonicalURL: "https://fiddl.art/model/flux",
		OGURL:        "https://fiddl.art/model/flux",
	}
	out := Rewrite(shell, Mutation{Social: social})

	if strings.Contains(out, "stale title") {
		t.Fatal("stale og:title survived rewrite")
	}
	if strings.Contains(out, "https://old.example/") {
		t.Fatal("stale canonical survived rewrite")
	}
	if n := strings.Count(out, `property="og:title"`); n != 1 {
		t.Fatalf("expected exactly 1 og:title, got %d", n)
	}
	if !strings.Contains(out, `content="Generate with &quot;Flux&quot;"`) {
		t.Fatal("description not attribute-escaped")
	}
	if !strings.Contains(out, `name="twitter:card" content="summary_large_image"`) {
		t.Fatal("default twitter card missing")
	}
}

func TestRewriteIdempotent(t *testing.T) {
	social := &Social{Title: "Same", Description: "Same desc", ImageURL: "https://x/i.webp"}
	once := Rewrite(shell, Mutation{Social: social})
	twice := Rewrite(once, Mutation{Social: social})

	for _, key := range []string{`property="og:title"`, `property="og:image"`, `name="twitter:description"`} {
		if n := strings.Count(twice, key); n != 1 {
			t.Fatalf("expected exactly 1 %s after double apply, got %d", key, n)
		}
	}
}

func TestRewriteIdempotentJSONLDAndSSR(t *testing.T) {
	m := Mutation{
		JSONLD:  []string{`{"@type":"WebApplication"}`},
		SSRHTML: `<div class="ssr-metadata"><h1>Browse</h1><div>nested</div></div>`,
	}
	once := Rewrite(shell, m)
	twice := Rewrite(once, m)

	if n := strings.Count(twice, `<script type="application/ld+json">`); n != 1 {
		t.Fatalf("expected exactly 1 ld+json script after double apply, got %d", n)
	}
	if n := strings.Count(twice, `<div class="ssr-metadata">`); n != 1 {
		t.Fatalf("expected exactly 1 ssr-metadata block after double apply, got %d", n)
	}
	if !strings.Contains(twice, "<div>nested</div>") {
		t.Fatalf("nested ssr content lost: %s", twice)
	}
}

func TestRewriteInjectsJSONLDAndSSRBlock(t *testing.T) {
	out := Rewrite(shell, Mutation{
		JSONLD:  []string{`{"@type":"WebApplication"}`},
		SSRHTML: `<div class="ssr-metadata"><h1>Browse</h1></div>`,
	})
	headEnd := strings.Index(out, "</head>")
	ld := strings.Index(out, `<script type="application/ld+json">{"@type":"WebApplication"}</script>`)
	if ld < 0 || ld > headEnd {
		t.Fatalf("json-ld not injected inside head: %s", out)
	}
	bodyOpen := strings.Index(out, "<body>")
	ssr := strings.Index(out, `<div class="ssr-metadata">`)
	if ssr < 0 || ssr != bodyOpen+len("<body>") {
		t.Fatalf("ssr block not injected directly after body open: %s", out)
	}
}

func TestRewriteForcesLang(t *testing.T) {
	out := Rewrite(shell, Mutation{ForceLang: "en"})
	if !strings.Contains(out, `<html lang="en">`) {
		t.Fatalf("lang not forced: %s", out)
	}
}

func TestRewriteDegradesToNoOpWithoutLandmarks(t *testing.T) {
	const broken = `<p>upstream error page</p>`
	out := Rewrite(broken, Mutation{
		Title:   "Ignored",
		JSONLD:  []string{`{}`},
		Social:  &Social{Title: "x", Description: "y", ImageURL: "z"},
		SSRHTML: "<div></div>",
	})
	if out != broken {
		t.Fatalf("expected pass-through for document without head/body, got: %s", out)
	}
}
