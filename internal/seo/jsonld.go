// Package seo builds schema.org JSON-LD payloads for crawler consumption.
package seo

import "encoding/json"

const schemaContext = "https://schema.org"

// Thing is the common envelope shared by every JSON-LD payload.
type Thing struct {
	Context     string `json:"@context"`
	Type        string `json:"@type"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Image       string `json:"image,omitempty"`
}

// WebApplication describes the platform itself on landing-style pages.
type WebApplication struct {
	Thing
	ApplicationCategory string   `json:"applicationCategory,omitempty"`
	OperatingSystem     string   `json:"operatingSystem,omitempty"`
	Offers              *Offer   `json:"offers,omitempty"`
	FeatureList         []string `json:"featureList,omitempty"`
}

// Offer is a minimal schema.org Offer used for free-tier hints.
type Offer struct {
	Type          string `json:"@type"`
	Price         string `json:"price"`
	PriceCurrency string `json:"priceCurrency"`
}

// Organization identifies the publisher.
type Organization struct {
	Thing
	Logo   string   `json:"logo,omitempty"`
	SameAs []string `json:"sameAs,omitempty"`
}

// Person describes a creator profile page.
type Person struct {
	Thing
	AlternateName string `json:"alternateName,omitempty"`
}

// ImageObject and VideoObject describe a single piece of generated media.
type ImageObject struct {
	Thing
	ContentURL   string `json:"contentUrl,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Creator      *Person `json:"creator,omitempty"`
	DateCreated  string `json:"dateCreated,omitempty"`
}

type VideoObject struct {
	Thing
	ContentURL   string  `json:"contentUrl,omitempty"`
	ThumbnailURL string  `json:"thumbnailUrl,omitempty"`
	UploadDate   string  `json:"uploadDate,omitempty"`
	Creator      *Person `json:"creator,omitempty"`
}

// ItemList enumerates media or models on listing pages.
type ItemList struct {
	Thing
	NumberOfItems   int        `json:"numberOfItems"`
	ItemListElement []ListItem `json:"itemListElement"`
}

type ListItem struct {
	Type     string `json:"@type"`
	Position int    `json:"position"`
	URL      string `json:"url,omitempty"`
	Item     any    `json:"item,omitempty"`
}

// FAQPage carries question/answer pairs for static marketing routes.
type FAQPage struct {
	Thing
	MainEntity []Question `json:"mainEntity"`
}

type Question struct {
	Type           string `json:"@type"`
	Name           string `json:"name"`
	AcceptedAnswer Answer `json:"acceptedAnswer"`
}

type Answer struct {
	Type string `json:"@type"`
	Text string `json:"text"`
}

// HowTo describes the create-flow walkthrough.
type HowTo struct {
	Thing
	Step []HowToStep `json:"step"`
}

type HowToStep struct {
	Type string `json:"@type"`
	Name string `json:"name"`
	Text string `json:"text,omitempty"`
}

// BreadcrumbList marks the navigation trail on nested routes.
type BreadcrumbList struct {
	Thing
	ItemListElement []ListItem `json:"itemListElement"`
}

// NewThing fills the envelope for a given @type.
func NewThing(typ, name, description, url string) Thing {
	return Thing{Context: schemaContext, Type: typ, Name: name, Description: description, URL: url}
}

// NewFAQ builds an FAQPage from alternating question/answer pairs.
func NewFAQ(pairs [][2]string) FAQPage {
	faq := FAQPage{Thing: Thing{Context: schemaContext, Type: "FAQPage"}}
	for _, p := range pairs {
		faq.MainEntity = append(faq.MainEntity, Question{
			Type:           "Question",
			Name:           p[0],
			AcceptedAnswer: Answer{Type: "Answer", Text: p[1]},
		})
	}
	return faq
}

// Marshal serializes a JSON-LD payload; marshal failures yield an empty
// string, which the rewriter skips.
func Marshal(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}
