package routes

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/animuslabs/fiddl-ui-sub000/internal/page"
	"github.com/animuslabs/fiddl-ui-sub000/internal/seo"
)

// profileRoute serves creator profiles at /@{username}.
func (d Deps) profileRoute() Descriptor {
	return Descriptor{
		Name:    "profile",
		Pattern: "/@{username}",
		Build: func(ctx context.Context, r *http.Request) (*page.BuildConfig, error) {
			username := strings.TrimSpace(mux.Vars(r)["username"])
			if username == "" {
				return nil, page.ErrPassthrough
			}
			profile, err := d.API.GetProfile(ctx, username)
			if err != nil {
				return nil, err
			}
			rows, err := d.API.ProfileCreations(ctx, username, 12)
			creations := browseRowsOrNil(rows, err, d.Logger, "profile")

			title := "@" + profile.Username + " on Fiddl.art"
			desc := truncate(profile.Bio, 160)
			if desc == "" {
				desc = "AI art by @" + profile.Username + " on Fiddl.art."
			}
			path := "/@" + profile.Username
			avatarURL := d.Media.Avatar(profile.UserID)

			person := seo.Person{
				Thing:         seo.NewThing("Person", profile.Username, desc, d.pageURL(path)),
				AlternateName: "@" + profile.Username,
			}
			person.Image = avatarURL

			jsonLD := []string{seo.Marshal(person)}
			if len(creations) > 0 {
				jsonLD = append(jsonLD, d.mediaItemList("Creations by @"+profile.Username, creations))
			}

			cfg := &page.BuildConfig{
				Title:  title,
				Social: d.social(title, desc, avatarURL, path),
				JSONLD: jsonLD,
			}
			cfg.Social.OGType = "profile"
			if grid := d.mediaGrid(creations); grid != "" {
				cfg.HTMLBlocks = append(cfg.HTMLBlocks, grid)
			}
			return cfg, nil
		},
	}
}
