package seo

import (
	"encoding/json"
	"testing"
)

func TestMarshalWebApplication(t *testing.T) {
	app := WebApplication{
		Thing:               NewThing("WebApplication", "Fiddl.art", "AI art platform", "https://fiddl.art"),
		ApplicationCategory: "DesignApplication",
		Offers:              &Offer{Type: "Offer", Price: "0", PriceCurrency: "USD"},
	}
	raw := Marshal(app)
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed["@context"] != "https://schema.org" {
		t.Fatalf("missing @context: %v", parsed)
	}
	if parsed["@type"] != "WebApplication" {
		t.Fatalf("wrong @type: %v", parsed["@type"])
	}
	offer, ok := parsed["offers"].(map[string]any)
	if !ok || offer["price"] != "0" {
		t.Fatalf("offer not serialized: %v", parsed["offers"])
	}
}

func TestNewFAQ(t *testing.T) {
	faq := NewFAQ([][2]string{
		{"What is Fiddl.art?", "An AI art platform."},
		{"Is it free?", "You can start for free."},
	})
	if len(faq.MainEntity) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(faq.MainEntity))
	}
	raw := Marshal(faq)
	var parsed struct {
		MainEntity []struct {
			Type           string `json:"@type"`
			AcceptedAnswer struct {
				Text string `json:"text"`
			} `json:"acceptedAnswer"`
		} `json:"mainEntity"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.MainEntity[1].AcceptedAnswer.Text != "You can start for free." {
		t.Fatalf("unexpected answer: %+v", parsed)
	}
}
