// Package htmlx rewrites the SEO-relevant parts of an HTML document without
// a full parse. A single tokenizer pass locates the head, body and managed
// tags by byte offset; mutations are then applied as an edit list over the
// original string. Documents missing the relevant landmarks pass through the
// corresponding step unchanged.
package htmlx

import (
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Social describes the Open Graph / Twitter / canonical tag block. The
// rewriter strips every pre-existing managed tag and appends one fresh block,
// so repeated application never accumulates duplicates.
type Social struct {
	Title           string
	Description     string
	ImageURL        string
	OGURL           string
	CanonicalURL    string
	OGType          string
	TwitterCard     string
	TwitterImageAlt string
}

// Mutation is one rewrite request. Zero-valued fields are skipped.
type Mutation struct {
	Title     string
	JSONLD    []string
	Social    *Social
	SSRHTML   string
	ForceLang string
}

// managedProps are the meta property/name keys owned by the rewriter.
var managedProps = map[string]bool{
	"og:type":           true,
	"og:title":          true,
	"og:description":    true,
	"og:image":          true,
	"og:url":            true,
	"twitter:card":      true,
	"twitter:title":     true,
	"twitter:description": true,
	"twitter:image":     true,
	"twitter:image:alt": true,
}

type span struct {
	start, end int
}

type scanResult struct {
	htmlTag      span
	htmlAttrs    []html.Attribute
	titleEl      span
	headClose    int // offset of "</head>", -1 when absent
	bodyOpen     int // offset just past the opening <body> tag, -1 when absent
	strips       []span
	jsonLDStrips []span // existing ld+json scripts
	ssrStrips    []span // existing ssr-metadata blocks
}

// Rewrite applies m to doc and returns the mutated document.
func Rewrite(doc string, m Mutation) string {
	sc := scanDocument(doc)

	type edit struct {
		start, end  int
		replacement string
	}
	var edits []edit

	if m.ForceLang != "" && sc.htmlTag.end > 0 {
		edits = append(edits, edit{sc.htmlTag.start, sc.htmlTag.end, renderHTMLTag(sc.htmlAttrs, m.ForceLang)})
	}
	if m.Title != "" && sc.titleEl.end > 0 {
		edits = append(edits, edit{sc.titleEl.start, sc.titleEl.end, "<title>" + EscapeText(m.Title) + "</title>"})
	}
	if m.Social != nil {
		for _, s := range sc.strips {
			edits = append(edits, edit{s.start, s.end, ""})
		}
	}
	var jsonBlocks []string
	for _, block := range m.JSONLD {
		if strings.TrimSpace(block) != "" {
			jsonBlocks = append(jsonBlocks, block)
		}
	}
	if len(jsonBlocks) > 0 {
		for _, s := range sc.jsonLDStrips {
			edits = append(edits, edit{s.start, s.end, ""})
		}
	}
	if sc.headClose >= 0 {
		var head strings.Builder
		for _, block := range jsonBlocks {
			head.WriteString(`<script type="application/ld+json">`)
			head.WriteString(block)
			head.WriteString("</script>\n")
		}
		if m.Social != nil {
			head.WriteString(renderSocialBlock(*m.Social))
		}
		if head.Len() > 0 {
			edits = append(edits, edit{sc.headClose, sc.headClose, head.String()})
		}
	}
	if m.SSRHTML != "" {
		for _, s := range sc.ssrStrips {
			edits = append(edits, edit{s.start, s.end, ""})
		}
		if sc.bodyOpen >= 0 {
			edits = append(edits, edit{sc.bodyOpen, sc.bodyOpen, m.SSRHTML})
		}
	}

	if len(edits) == 0 {
		return doc
	}
	sort.Slice(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		return edits[i].end < edits[j].end
	})

	var out strings.Builder
	out.Grow(len(doc) + 1024)
	cursor := 0
	for _, e := range edits {
		if e.start < cursor {
			continue
		}
		out.WriteString(doc[cursor:e.start])
		out.WriteString(e.replacement)
		cursor = e.end
	}
	out.WriteString(doc[cursor:])
	return out.String()
}

// scanDocument tokenizes doc and records the byte spans of every landmark
// the rewriter cares about. The tokenizer is tolerant of malformed markup;
// anything it cannot locate is simply reported as absent.
func scanDocument(doc string) scanResult {
	sc := scanResult{headClose: -1, bodyOpen: -1}
	z := html.NewTokenizer(strings.NewReader(doc))
	pos := 0
	titleStart := -1
	scriptStart := -1
	ssrStart := -1
	ssrDepth := 0
	for {
		tt := z.Next()
		raw := z.Raw()
		start := pos
		pos += len(raw)
		if tt == html.ErrorToken {
			if z.Err() == io.EOF {
				break
			}
			break
		}
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "html":
				if sc.htmlTag.end == 0 {
					sc.htmlTag = span{start, pos}
					sc.htmlAttrs = tok.Attr
				}
			case "body":
				if sc.bodyOpen < 0 {
					sc.bodyOpen = pos
				}
			case "title":
				if titleStart < 0 && tt == html.StartTagToken {
					titleStart = start
				}
			case "meta":
				if key := metaKey(tok.Attr); managedProps[key] {
					sc.strips = append(sc.strips, span{start, pos})
				}
			case "link":
				if attrVal(tok.Attr, "rel") == "canonical" {
					sc.strips = append(sc.strips, span{start, pos})
				}
			case "script":
				if tt == html.StartTagToken && attrVal(tok.Attr, "type") == "application/ld+json" {
					scriptStart = start
				}
			case "div":
				if tt != html.StartTagToken {
					break
				}
				if ssrStart >= 0 {
					ssrDepth++
				} else if attrVal(tok.Attr, "class") == "ssr-metadata" {
					ssrStart = start
					ssrDepth = 1
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "title":
				if titleStart >= 0 && sc.titleEl.end == 0 {
					sc.titleEl = span{titleStart, pos}
				}
			case "head":
				if sc.headClose < 0 {
					sc.headClose = start
				}
			case "script":
				if scriptStart >= 0 {
					sc.jsonLDStrips = append(sc.jsonLDStrips, span{scriptStart, pos})
					scriptStart = -1
				}
			case "div":
				if ssrStart >= 0 {
					ssrDepth--
					if ssrDepth == 0 {
						sc.ssrStrips = append(sc.ssrStrips, span{ssrStart, pos})
						ssrStart = -1
					}
				}
			}
		}
	}
	return sc
}

func metaKey(attrs []html.Attribute) string {
	if v := attrVal(attrs, "property"); v != "" {
		return v
	}
	return attrVal(attrs, "name")
}

func attrVal(attrs []html.Attribute, key string) string {
	for _, a := range attrs {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func renderHTMLTag(attrs []html.Attribute, lang string) string {
	var b strings.Builder
	b.WriteString("<html")
	wrote := false
	for _, a := range attrs {
		if a.Key == "lang" {
			b.WriteString(` lang="` + EscapeAttr(lang) + `"`)
			wrote = true
			continue
		}
		b.WriteString(" " + a.Key + `="` + EscapeAttr(a.Val) + `"`)
	}
	if !wrote {
		b.WriteString(` lang="` + EscapeAttr(lang) + `"`)
	}
	b.WriteString(">")
	return b.String()
}

func renderSocialBlock(s Social) string {
	ogType := s.OGType
	if ogType == "" {
		ogType = "website"
	}
	card := s.TwitterCard
	if card == "" {
		card = "summary_large_image"
	}
	var b strings.Builder
	meta := func(key, attr, content string) {
		if content == "" {
			return
		}
		b.WriteString(`<meta ` + attr + `="` + key + `" content="` + EscapeAttr(content) + `">` + "\n")
	}
	meta("og:type", "property", ogType)
	meta("og:title", "property", s.Title)
	meta("og:description", "property", s.Description)
	meta("og:image", "property", s.ImageURL)
	meta("og:url", "property", s.OGURL)
	meta("twitter:card", "name", card)
	meta("twitter:title", "name", s.Title)
	meta("twitter:description", "name", s.Description)
	meta("twitter:image", "name", s.ImageURL)
	meta("twitter:image:alt", "name", s.TwitterImageAlt)
	if s.CanonicalURL != "" {
		b.WriteString(`<link rel="canonical" href="` + EscapeAttr(s.CanonicalURL) + `">` + "\n")
	}
	return b.String()
}
