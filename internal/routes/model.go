package routes

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/animuslabs/fiddl-ui-sub000/internal/fiddlapi"
	"github.com/animuslabs/fiddl-ui-sub000/internal/htmlx"
	"github.com/animuslabs/fiddl-ui-sub000/internal/page"
	"github.com/animuslabs/fiddl-ui-sub000/internal/seo"
)

func modelDescription(m *fiddlapi.Model) string {
	if desc := strings.TrimSpace(m.Description); desc != "" {
		return truncate(desc, 160)
	}
	kind := m.Type
	if kind == "" {
		kind = "image"
	}
	return "Generate AI " + kind + "s with the " + m.Name + " model on Fiddl.art."
}

func (d Deps) modelBuildConfig(m *fiddlapi.Model, creations []fiddlapi.MediaItem, path string) *page.BuildConfig {
	title := m.Name + " — AI Model"
	imageURL := ""
	if m.PreviewMediaID != "" {
		imageURL = d.Media.OGImage(m.PreviewMediaID)
	}
	desc := modelDescription(m)

	jsonLD := []string{seo.Marshal(seo.WebApplication{
		Thing: seo.NewThing("WebApplication", m.Name, desc, d.pageURL(path)),
	})}
	if len(creations) > 0 {
		jsonLD = append(jsonLD, d.mediaItemList(m.Name+" creations", creations))
	}

	cfg := &page.BuildConfig{
		Title:  title,
		Social: d.social(title, desc, imageURL, path),
		JSONLD: jsonLD,
	}
	if grid := d.mediaGrid(creations); grid != "" {
		cfg.HTMLBlocks = append(cfg.HTMLBlocks, grid)
	}
	return cfg
}

// modelRoute serves /model/{modelName} with an optional custom model scope.
// A missing modelName is a passthrough, not an error.
func (d Deps) modelRoute() Descriptor {
	return Descriptor{
		Name:        "model",
		Pattern:     "/model/{modelName}",
		AltPatterns: []string{"/model/{modelName}/{customModelId}"},
		Build: func(ctx context.Context, r *http.Request) (*page.BuildConfig, error) {
			name := strings.TrimSpace(mux.Vars(r)["modelName"])
			if name == "" {
				return nil, page.ErrPassthrough
			}
			customID := strings.TrimSpace(mux.Vars(r)["customModelId"])

			model, err := d.API.GetModel(ctx, name, customID)
			if err != nil {
				return nil, err
			}
			rows, err := d.API.ModelCreations(ctx, name, 12)
			creations := browseRowsOrNil(rows, err, d.Logger, "model")

			path := "/model/" + name
			if customID != "" {
				path += "/" + customID
			}
			return d.modelBuildConfig(model, creations, path), nil
		},
	}
}

// modelPageRoute is the cached variant: the page cache is consulted before
// any fetch, and on a miss the origin shell is fetched in parallel with the
// model data.
func (d Deps) modelPageRoute() Descriptor {
	keyFor := func(r *http.Request) (string, string, bool) {
		name := strings.TrimSpace(mux.Vars(r)["modelName"])
		if name == "" {
			return "", "", false
		}
		customID := strings.TrimSpace(r.URL.Query().Get("customModelId"))
		if customID == "" {
			customID = "base"
		}
		return "model-page", "model-page:" + name + ":" + customID, true
	}
	return Descriptor{
		Name:     "modelPage",
		Pattern:  "/m/{modelName}",
		CacheKey: keyFor,
		Build: func(ctx context.Context, r *http.Request) (*page.BuildConfig, error) {
			ns, key, ok := keyFor(r)
			if !ok {
				return nil, page.ErrPassthrough
			}
			name := mux.Vars(r)["modelName"]
			customID := strings.TrimSpace(r.URL.Query().Get("customModelId"))

			var (
				shellHTML string
				model     *fiddlapi.Model
				rows      []fiddlapi.BrowseRow
				rowsErr   error
			)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				var err error
				shellHTML, err = d.Shell.FetchShell(gctx, r.URL.Path)
				return err
			})
			g.Go(func() error {
				var err error
				model, err = d.API.GetModel(gctx, name, customID)
				return err
			})
			g.Go(func() error {
				rows, rowsErr = d.API.ModelCreations(gctx, name, 12)
				return nil
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}
			creations := browseRowsOrNil(rows, rowsErr, d.Logger, "modelPage")

			cfg := d.modelBuildConfig(model, creations, "/m/"+name)
			cfg.UpstreamHTML = shellHTML
			cfg.Cache = page.CachePolicy{
				Namespace: ns,
				CacheID:   key,
				EdgeTTL:   d.Cfg.ModelTTL,
			}
			return cfg, nil
		},
	}
}

func (d Deps) modelsRoute() Descriptor {
	return Descriptor{
		Name:    "models",
		Pattern: "/models",
		Build: func(ctx context.Context, r *http.Request) (*page.BuildConfig, error) {
			base, err := d.API.ListBaseModels(ctx)
			if err != nil {
				d.Logger.Warn("base model listing failed", "error", err)
				base = nil
			}
			public, err := d.API.ListPublicModels(ctx)
			if err != nil {
				d.Logger.Warn("public model listing failed", "error", err)
				public = nil
			}
			models := append(append([]fiddlapi.Model(nil), base...), public...)

			title := "AI Models"
			desc := "Browse every image and video model available on Fiddl.art, including community-trained custom models."

			list := seo.ItemList{
				Thing:         seo.NewThing("ItemList", title, desc, d.pageURL("/models")),
				NumberOfItems: len(models),
			}
			var fragment strings.Builder
			fragment.WriteString(`<ul class="model-list">`)
			for i, m := range models {
				url := d.pageURL("/model/" + m.Name)
				list.ItemListElement = append(list.ItemListElement, seo.ListItem{
					Type: "ListItem", Position: i + 1, URL: url,
				})
				fragment.WriteString(`<li><a href="` + htmlx.EscapeAttr(url) + `">` + escapedModelLabel(m) + `</a></li>`)
			}
			fragment.WriteString(`</ul>`)

			cfg := &page.BuildConfig{
				Title:  title,
				Social: d.social(title, desc, "", "/models"),
				JSONLD: []string{seo.Marshal(list)},
			}
			if len(models) > 0 {
				cfg.HTMLBlocks = append(cfg.HTMLBlocks, fragment.String())
			}
			return cfg, nil
		},
	}
}

func escapedModelLabel(m fiddlapi.Model) string {
	label := m.Name
	if m.Type == "video" {
		label += " (video)"
	}
	return htmlx.EscapeText(label)
}
