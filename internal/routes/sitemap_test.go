package routes

import (
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"log/slog"

	"github.com/animuslabs/fiddl-ui-sub000/internal/fiddlapi"
	"github.com/animuslabs/fiddl-ui-sub000/internal/media"
	"github.com/animuslabs/fiddl-ui-sub000/pkg/config"
	"github.com/animuslabs/fiddl-ui-sub000/pkg/shortid"
)

func testDeps() Deps {
	return Deps{
		Media:  media.NewResolver("https://cdn.example"),
		Cfg:    config.EdgeConfig{SiteOrigin: "https://fiddl.example", SiteName: "Fiddl.art"},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSitemapRequestEntryImage(t *testing.T) {
	d := testDeps()
	req := fiddlapi.SitemapRequest{
		ID:        "123e4567-e89b-12d3-a456-426614174000",
		Type:      "image",
		Prompt:    "a fox in the snow",
		MediaIDs:  []string{"m1", "m2"},
		CreatedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	entry, ok := d.sitemapRequestEntry(req, "image")
	if !ok {
		t.Fatal("entry skipped")
	}
	short, err := shortid.ToShort(req.ID)
	if err != nil {
		t.Fatalf("encode short id: %v", err)
	}
	if want := "https://fiddl.example/request/image/" + short; entry.Loc != want {
		t.Errorf("loc = %q, want %q", entry.Loc, want)
	}
	if len(entry.Images) != 2 {
		t.Fatalf("images = %d, want 2", len(entry.Images))
	}
	if entry.Images[0].Loc != "https://cdn.example/images/m1-lg.webp" {
		t.Errorf("image loc = %q", entry.Images[0].Loc)
	}
	if entry.Images[0].Caption != "a fox in the snow" {
		t.Errorf("caption = %q", entry.Images[0].Caption)
	}
	if entry.LastMod != "2026-05-01T12:00:00Z" {
		t.Errorf("lastmod = %q", entry.LastMod)
	}
}

func TestSitemapRequestEntryVideo(t *testing.T) {
	d := testDeps()
	req := fiddlapi.SitemapRequest{
		ID:       "123e4567-e89b-12d3-a456-426614174000",
		Type:     "video",
		Prompt:   "ocean waves at dusk",
		MediaIDs: []string{"v1"},
	}

	entry, ok := d.sitemapRequestEntry(req, "video")
	if !ok {
		t.Fatal("entry skipped")
	}
	if len(entry.Videos) != 1 {
		t.Fatalf("videos = %d, want 1", len(entry.Videos))
	}
	v := entry.Videos[0]
	if v.ContentLoc != "https://cdn.example/videos/v1-preview-md.mp4" {
		t.Errorf("content loc = %q", v.ContentLoc)
	}
	if v.ThumbnailLoc == "" || v.Title != "ocean waves at dusk" {
		t.Errorf("thumbnail = %q title = %q", v.ThumbnailLoc, v.Title)
	}
}

func TestSitemapRequestEntrySkipped(t *testing.T) {
	d := testDeps()

	if _, ok := d.sitemapRequestEntry(fiddlapi.SitemapRequest{ID: "not-a-uuid", MediaIDs: []string{"m1"}}, "image"); ok {
		t.Error("entry with invalid request ID not skipped")
	}
	if _, ok := d.sitemapRequestEntry(fiddlapi.SitemapRequest{ID: "123e4567-e89b-12d3-a456-426614174000"}, "image"); ok {
		t.Error("entry with no media not skipped")
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 70, "short"},
		{"  padded  ", 70, "padded"},
		{strings.Repeat("word ", 30), 20, "word word word word…"},
		// Multi-byte runes with no space must be cut on a rune boundary.
		{strings.Repeat("雪", 40), 70, strings.Repeat("雪", 23) + "…"},
		{"日本 " + strings.Repeat("語", 40), 10, "日本…"},
	}
	for _, tc := range cases {
		got := truncate(tc.in, tc.max)
		if got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8: %q", tc.in, tc.max, got)
		}
	}
}
