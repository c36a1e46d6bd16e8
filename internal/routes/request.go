package routes

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/animuslabs/fiddl-ui-sub000/internal/fiddlapi"
	"github.com/animuslabs/fiddl-ui-sub000/internal/media"
	"github.com/animuslabs/fiddl-ui-sub000/internal/page"
	"github.com/animuslabs/fiddl-ui-sub000/internal/seo"
	"github.com/animuslabs/fiddl-ui-sub000/pkg/shortid"
)

// decodeRequestID turns a share-URL short ID into the request UUID. A
// malformed token means the route does not apply and the caller falls
// through to the origin.
func decodeRequestID(short string) (string, bool) {
	id, err := shortid.FromShort(strings.TrimSpace(short))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func (d Deps) requestBuildConfig(req *fiddlapi.CreateRequest, index int, path string) *page.BuildConfig {
	title := mediaTitle(req)
	desc := truncate(req.Prompt, 160)
	if desc == "" {
		desc = "An AI " + req.Type + " created on Fiddl.art."
	}
	if req.CreatorUsername != "" {
		desc += " By @" + req.CreatorUsername + "."
	}

	// A request without media gets the site default share image from the
	// assembler instead of CDN URLs built from an empty ID.
	var imageURL, twitterAlt string
	var jsonLD []string
	if len(req.Media) > 0 {
		if index < 0 || index >= len(req.Media) {
			index = 0
		}
		primary := req.Media[index]

		var creator *seo.Person
		if req.CreatorUsername != "" {
			creator = &seo.Person{Thing: seo.NewThing("Person", req.CreatorUsername, "", d.pageURL("/@"+req.CreatorUsername))}
		}
		created := ""
		if !req.CreatedAt.IsZero() {
			created = req.CreatedAt.UTC().Format("2006-01-02")
		}
		switch req.Type {
		case "video":
			imageURL = d.Media.VideoThumbnail(primary.ID)
			jsonLD = append(jsonLD, seo.Marshal(seo.VideoObject{
				Thing:        seo.NewThing("VideoObject", title, desc, d.pageURL(path)),
				ContentURL:   d.Media.Video(primary.ID, media.VideoPreviewMd),
				ThumbnailURL: d.Media.VideoThumbnail(primary.ID),
				UploadDate:   created,
				Creator:      creator,
			}))
		default:
			imageURL = d.Media.OGImage(primary.ID)
			twitterAlt = truncate(req.Prompt, 100)
			jsonLD = append(jsonLD, seo.Marshal(seo.ImageObject{
				Thing:        seo.NewThing("ImageObject", title, desc, d.pageURL(path)),
				ContentURL:   d.Media.Image(primary.ID, media.SizeOriginal),
				ThumbnailURL: d.Media.Image(primary.ID, media.SizeThumbnail),
				DateCreated:  created,
				Creator:      creator,
			}))
		}
	}

	social := d.social(title, desc, imageURL, path)
	social.OGType = "article"
	social.TwitterImageAlt = twitterAlt

	cfg := &page.BuildConfig{
		Title:  title,
		Social: social,
		JSONLD: jsonLD,
	}
	if grid := d.mediaGrid(req.Media); grid != "" {
		cfg.HTMLBlocks = append(cfg.HTMLBlocks, grid)
	}
	return cfg
}

// requestRoute serves the share URLs /request/{type}/{shortId}[/{index}].
func (d Deps) requestRoute() Descriptor {
	return Descriptor{
		Name:        "request",
		Pattern:     "/request/{type}/{shortId}",
		AltPatterns: []string{"/request/{type}/{shortId}/{index}"},
		Build: func(ctx context.Context, r *http.Request) (*page.BuildConfig, error) {
			vars := mux.Vars(r)
			short := vars["shortId"]
			if short == "" {
				return nil, page.ErrPassthrough
			}
			id, ok := decodeRequestID(short)
			if !ok {
				return nil, page.ErrPassthrough
			}
			req, err := d.API.GetCreateRequest(ctx, id)
			if err != nil {
				return nil, err
			}
			index := 0
			if raw := vars["index"]; raw != "" {
				parsed, err := strconv.Atoi(raw)
				if err == nil && parsed >= 0 {
					index = parsed
				}
			}
			path := strings.TrimSuffix(r.URL.Path, "/")
			return d.requestBuildConfig(req, index, path), nil
		},
	}
}

// requestPageRoute serves the long-form /requests/{shortId} permalink.
func (d Deps) requestPageRoute() Descriptor {
	return Descriptor{
		Name:    "requestPage",
		Pattern: "/requests/{shortId}",
		Build: func(ctx context.Context, r *http.Request) (*page.BuildConfig, error) {
			id, ok := decodeRequestID(mux.Vars(r)["shortId"])
			if !ok {
				return nil, page.ErrPassthrough
			}
			req, err := d.API.GetCreateRequest(ctx, id)
			if err != nil {
				return nil, err
			}
			return d.requestBuildConfig(req, 0, r.URL.Path), nil
		},
	}
}
