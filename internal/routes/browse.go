package routes

import (
	"context"
	"net/http"

	"github.com/animuslabs/fiddl-ui-sub000/internal/fiddlapi"
	"github.com/animuslabs/fiddl-ui-sub000/internal/page"
)

const browsePageSize = 30

func (d Deps) browseRoute() Descriptor {
	return Descriptor{
		Name:    "browse",
		Pattern: "/browse",
		Build: func(ctx context.Context, r *http.Request) (*page.BuildConfig, error) {
			rows, err := d.API.Browse(ctx, browsePageSize)
			if err != nil {
				// The listing is the page; without it there is nothing to enhance.
				return nil, err
			}
			items := fiddlapi.NormalizeBrowseMedia(rows)

			title := "Browse AI Art"
			desc := "Explore the latest AI generated images and videos from the Fiddl.art community."
			imageURL := ""
			for _, item := range items {
				if item.Type == "image" {
					imageURL = d.Media.OGImage(item.ID)
					break
				}
			}

			cfg := &page.BuildConfig{
				Title:  title,
				Social: d.social(title, desc, imageURL, "/browse"),
				JSONLD: []string{d.mediaItemList("Browse AI Art", items)},
			}
			if grid := d.mediaGrid(items); grid != "" {
				cfg.HTMLBlocks = append(cfg.HTMLBlocks, grid)
			}
			return cfg, nil
		},
	}
}
