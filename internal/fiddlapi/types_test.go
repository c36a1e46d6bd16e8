package fiddlapi

import (
	"encoding/json"
	"testing"
)

func TestNormalizeBrowseMediaDeduplicates(t *testing.T) {
	rows := []BrowseRow{
		{
			ID:    "row-1",
			Media: json.RawMessage(`"[{\"id\":\"a\",\"type\":\"image\"},{\"id\":\"b\",\"type\":\"video\"}]"`),
		},
		{
			ID:    "row-2",
			Media: json.RawMessage(`[{"id":"a","type":"image"}]`),
		},
	}
	items := NormalizeBrowseMedia(rows)
	if len(items) != 2 {
		t.Fatalf("expected 2 deduplicated items, got %d", len(items))
	}
	if items[0].ID != "a" || items[1].ID != "b" {
		t.Fatalf("unexpected order or IDs: %+v", items)
	}
	if items[1].Type != "video" {
		t.Fatalf("media type lost in normalization: %+v", items[1])
	}
}

func TestNormalizeBrowseMediaSkipsGarbage(t *testing.T) {
	rows := []BrowseRow{
		{ID: "row-1", Media: json.RawMessage(`"not json at all"`)},
		{ID: "row-2", Media: json.RawMessage(`42`)},
		{ID: "row-3", Media: nil},
		{ID: "row-4", Media: json.RawMessage(`[{"id":"ok"}]`)},
	}
	items := NormalizeBrowseMedia(rows)
	if len(items) != 1 || items[0].ID != "ok" {
		t.Fatalf("expected only the valid row to survive, got %+v", items)
	}
	if items[0].Type != "image" {
		t.Fatalf("missing type should default to image: %+v", items[0])
	}
}

func TestParseAspectRatio(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"16:9", 16.0 / 9.0},
		{" 4 : 3 ", 4.0 / 3.0},
		{"1.5", 1.5},
		{"", 0},
		{"16:0", 0},
		{"wide", 0},
	}
	for _, tc := range cases {
		if got := ParseAspectRatio(tc.in); got != tc.want {
			t.Fatalf("ParseAspectRatio(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
