package routes

import (
	"context"
	"net/http"

	"github.com/animuslabs/fiddl-ui-sub000/internal/page"
	"github.com/animuslabs/fiddl-ui-sub000/internal/seo"
)

// staticPage builds a descriptor for routes whose metadata is fixed at
// deploy time. The JSON-LD builders run per request only because canonical
// URLs depend on the configured site origin.
func (d Deps) staticPage(name, pattern, path, title, description string, jsonLD func() []string) Descriptor {
	return Descriptor{
		Name:    name,
		Pattern: pattern,
		Build: func(ctx context.Context, r *http.Request) (*page.BuildConfig, error) {
			var blocks []string
			if jsonLD != nil {
				blocks = jsonLD()
			}
			return &page.BuildConfig{
				Title:  title,
				Social: d.social(title, description, "", path),
				JSONLD: blocks,
			}, nil
		},
	}
}

func (d Deps) webApp(description string) seo.WebApplication {
	return seo.WebApplication{
		Thing:               seo.NewThing("WebApplication", d.Cfg.SiteName, description, d.pageURL("/")),
		ApplicationCategory: "DesignApplication",
		OperatingSystem:     "Web",
		Offers:              &seo.Offer{Type: "Offer", Price: "0", PriceCurrency: "USD"},
	}
}

func (d Deps) organization() seo.Organization {
	return seo.Organization{
		Thing: seo.NewThing("Organization", d.Cfg.SiteName, "", d.pageURL("/")),
		Logo:  d.Media.Image("fiddl-logo", "original"),
	}
}

func (d Deps) indexRoute() Descriptor {
	title := d.Cfg.SiteName + " — Create and Earn with AI Art"
	return d.staticPage("index", "/", "/", title, d.Cfg.DefaultDescription, func() []string {
		return []string{
			seo.Marshal(d.webApp(d.Cfg.DefaultDescription)),
			seo.Marshal(d.organization()),
		}
	})
}

func (d Deps) claimRoute() Descriptor {
	title := "Claim Fiddl Points"
	desc := "Claim free Fiddl Points and start generating AI images and videos."
	return d.staticPage("claim", "/claim", "/claim", title, desc, func() []string {
		return []string{seo.Marshal(seo.NewFAQ([][2]string{
			{"What are Fiddl Points?", "Fiddl Points are the platform credits used to generate images and videos."},
			{"How do I claim free points?", "Sign in, open the claim page and collect your daily bonus."},
		}))}
	})
}

func (d Deps) forgeRoute() Descriptor {
	title := "Forge Custom AI Models"
	desc := "Train a personalized AI model from your own photos and use it in any creation."
	return d.staticPage("forge", "/forge", "/forge", title, desc, func() []string {
		howTo := seo.HowTo{
			Thing: seo.NewThing("HowTo", title, desc, d.pageURL("/forge")),
			Step: []seo.HowToStep{
				{Type: "HowToStep", Name: "Upload photos", Text: "Add 10 to 20 photos of your subject."},
				{Type: "HowToStep", Name: "Train", Text: "Start the training run and wait a few minutes."},
				{Type: "HowToStep", Name: "Create", Text: "Generate images and videos with your new model."},
			},
		}
		return []string{seo.Marshal(howTo)}
	})
}

func (d Deps) missionsRoute() Descriptor {
	title := "Missions — Earn Fiddl Points"
	desc := "Complete creative missions to earn Fiddl Points and unlock rewards."
	return d.staticPage("missions", "/missions", "/missions", title, desc, func() []string {
		return []string{seo.Marshal(d.webApp(desc))}
	})
}

func (d Deps) magicMirrorRoute() Descriptor {
	title := "Magic Mirror — AI Portraits"
	desc := "Turn a selfie into stylized AI portraits with the Magic Mirror."
	return d.staticPage("magicMirror", "/magic-mirror", "/magic-mirror", title, desc, func() []string {
		return []string{seo.Marshal(d.webApp(desc))}
	})
}

func (d Deps) studioRoute() Descriptor {
	title := "Studio — Edit and Upscale"
	desc := "Refine, upscale and remix your creations in the Fiddl.art studio."
	return d.staticPage("studio", "/studio", "/studio", title, desc, nil)
}

func (d Deps) eventsRoute() Descriptor {
	title := "Events and Contests"
	desc := "Join live AI art events and contests on Fiddl.art."
	return d.staticPage("events", "/events", "/events", title, desc, func() []string {
		return []string{seo.Marshal(d.organization())}
	})
}

func (d Deps) tosRoute() Descriptor {
	title := "Terms of Service"
	desc := "Terms of service for the Fiddl.art platform."
	return d.staticPage("tos", "/tos", "/tos", title, desc, nil)
}

func (d Deps) createRoute() Descriptor {
	return Descriptor{
		Name:    "create",
		Pattern: "/create",
		Build: func(ctx context.Context, r *http.Request) (*page.BuildConfig, error) {
			title := "Create AI Art"
			desc := "Generate images and videos from text prompts with the latest AI models."
			if model := r.URL.Query().Get("model"); model != "" {
				title = "Create with " + model
				desc = "Generate images and videos with the " + model + " model on Fiddl.art."
			}
			howTo := seo.HowTo{
				Thing: seo.NewThing("HowTo", "Create AI art on Fiddl.art", desc, d.pageURL("/create")),
				Step: []seo.HowToStep{
					{Type: "HowToStep", Name: "Describe", Text: "Write a prompt describing the image or video."},
					{Type: "HowToStep", Name: "Pick a model", Text: "Choose a base or custom model."},
					{Type: "HowToStep", Name: "Generate", Text: "Spend points to render your creation."},
				},
			}
			return &page.BuildConfig{
				Title:  title,
				Social: d.social(title, desc, "", "/create"),
				JSONLD: []string{seo.Marshal(howTo), seo.Marshal(d.webApp(desc))},
			}, nil
		},
	}
}
