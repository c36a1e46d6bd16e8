// Package routes declares the per-route page descriptors. Each route is data:
// a path pattern plus a Build function producing the declarative BuildConfig
// the assembler renders. Routes that do not apply to a request return
// page.ErrPassthrough and the origin is served unmodified.
package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/animuslabs/fiddl-ui-sub000/internal/fiddlapi"
	"github.com/animuslabs/fiddl-ui-sub000/internal/htmlx"
	"github.com/animuslabs/fiddl-ui-sub000/internal/media"
	"github.com/animuslabs/fiddl-ui-sub000/internal/page"
	"github.com/animuslabs/fiddl-ui-sub000/internal/seo"
	"github.com/animuslabs/fiddl-ui-sub000/pkg/config"
)

// API is the slice of the upstream client the routes consume.
type API interface {
	Browse(ctx context.Context, limit int) ([]fiddlapi.BrowseRow, error)
	GetModel(ctx context.Context, name, customModelID string) (*fiddlapi.Model, error)
	ListBaseModels(ctx context.Context) ([]fiddlapi.Model, error)
	ListPublicModels(ctx context.Context) ([]fiddlapi.Model, error)
	ModelCreations(ctx context.Context, name string, limit int) ([]fiddlapi.BrowseRow, error)
	GetProfile(ctx context.Context, username string) (*fiddlapi.Profile, error)
	ProfileCreations(ctx context.Context, username string, limit int) ([]fiddlapi.BrowseRow, error)
	GetCreateRequest(ctx context.Context, id string) (*fiddlapi.CreateRequest, error)
	RecentRequests(ctx context.Context, mediaType string, limit int) ([]fiddlapi.SitemapRequest, error)
}

// Deps carries everything a Build function may need.
type Deps struct {
	API    API
	Media  media.Resolver
	Shell  page.ShellFetcher
	Cfg    config.EdgeConfig
	Logger *slog.Logger
}

// BuildFunc produces the page configuration for a matched request.
type BuildFunc func(ctx context.Context, r *http.Request) (*page.BuildConfig, error)

// Descriptor binds a path pattern to its build logic. CacheKey, when set,
// lets the binder consult the page cache before Build runs, so cached pages
// skip their data fetches entirely (the model-page behavior).
type Descriptor struct {
	Name string
	// Pattern plus AltPatterns cover routes with optional trailing segments
	// (gorilla/mux has no optional path variables).
	Pattern     string
	AltPatterns []string
	CacheKey    func(r *http.Request) (namespace, key string, ok bool)
	Build       BuildFunc
}

// All returns every HTML route descriptor. Sitemaps and the analytics proxy
// are raw handlers registered separately.
func All(d Deps) []Descriptor {
	return []Descriptor{
		d.indexRoute(),
		d.browseRoute(),
		d.createRoute(),
		d.modelsRoute(),
		d.modelRoute(),
		d.modelPageRoute(),
		d.requestRoute(),
		d.requestPageRoute(),
		d.profileRoute(),
		d.claimRoute(),
		d.forgeRoute(),
		d.missionsRoute(),
		d.magicMirrorRoute(),
		d.studioRoute(),
		d.eventsRoute(),
		d.tosRoute(),
	}
}

// pageURL builds an absolute site URL for canonical and og:url values.
func (d Deps) pageURL(path string) string {
	return strings.TrimRight(d.Cfg.SiteOrigin, "/") + path
}

func (d Deps) social(title, description, imageURL, path string) htmlx.Social {
	url := d.pageURL(path)
	return htmlx.Social{
		Title:        title,
		Description:  description,
		ImageURL:     imageURL,
		OGURL:        url,
		CanonicalURL: url,
	}
}

// mediaGrid renders a crawler-visible listing fragment for a media batch.
// Every interpolated value is escaped here; callers pass raw API data.
func (d Deps) mediaGrid(items []fiddlapi.MediaItem) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<ul class="media-grid">`)
	for _, item := range items {
		alt := item.Prompt
		if alt == "" {
			alt = "AI generated " + item.Type
		}
		href := d.pageURL("/request/" + item.Type + "/" + item.ID)
		b.WriteString(`<li><a href="` + htmlx.EscapeAttr(href) + `">`)
		if item.Type == "video" {
			b.WriteString(`<video src="` + htmlx.EscapeAttr(d.Media.Video(item.ID, media.VideoPreviewMd)) +
				`" poster="` + htmlx.EscapeAttr(d.Media.VideoThumbnail(item.ID)) + `"></video>`)
		} else {
			b.WriteString(`<img src="` + htmlx.EscapeAttr(d.Media.Image(item.ID, media.SizeMedium)) +
				`" alt="` + htmlx.EscapeAttr(alt) + `" loading="lazy">`)
		}
		b.WriteString(`</a></li>`)
	}
	b.WriteString(`</ul>`)
	return b.String()
}

// mediaItemList builds the ItemList JSON-LD for a media batch.
func (d Deps) mediaItemList(name string, items []fiddlapi.MediaItem) string {
	list := seo.ItemList{
		Thing:         seo.NewThing("ItemList", name, "", ""),
		NumberOfItems: len(items),
	}
	for i, item := range items {
		entry := seo.ListItem{Type: "ListItem", Position: i + 1}
		if item.Type == "video" {
			entry.Item = seo.VideoObject{
				Thing:        seo.NewThing("VideoObject", item.Prompt, "", d.pageURL("/request/video/"+item.ID)),
				ContentURL:   d.Media.Video(item.ID, media.VideoPreviewMd),
				ThumbnailURL: d.Media.VideoThumbnail(item.ID),
			}
		} else {
			entry.Item = seo.ImageObject{
				Thing:        seo.NewThing("ImageObject", item.Prompt, "", d.pageURL("/request/image/"+item.ID)),
				ContentURL:   d.Media.Image(item.ID, media.SizeLarge),
				ThumbnailURL: d.Media.Image(item.ID, media.SizeThumbnail),
			}
		}
		list.ItemListElement = append(list.ItemListElement, entry)
	}
	return seo.Marshal(list)
}

// browseRowsOrNil tolerates secondary listing failures: an error becomes a
// nil batch and the page renders without the listing.
func browseRowsOrNil(rows []fiddlapi.BrowseRow, err error, logger *slog.Logger, route string) []fiddlapi.MediaItem {
	if err != nil {
		if logger != nil {
			logger.Warn("optional listing fetch failed", "route", route, "error", err)
		}
		return nil
	}
	return fiddlapi.NormalizeBrowseMedia(rows)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	cut := strings.LastIndex(s[:max], " ")
	if cut < max/2 {
		cut = max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
	}
	return s[:cut] + "…"
}

func mediaTitle(req *fiddlapi.CreateRequest) string {
	prompt := truncate(req.Prompt, 70)
	if prompt == "" {
		return fmt.Sprintf("AI %s on Fiddl.art", req.Type)
	}
	return prompt
}
