package routes

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/animuslabs/fiddl-ui-sub000/internal/cache"
	"github.com/animuslabs/fiddl-ui-sub000/internal/fiddlapi"
	"github.com/animuslabs/fiddl-ui-sub000/internal/media"
	"github.com/animuslabs/fiddl-ui-sub000/pkg/shortid"
)

// RawHandler is an error-returning handler for the non-HTML routes; errors
// reach the router's fallback wrapper like any page render failure.
type RawHandler func(w http.ResponseWriter, r *http.Request) error

const (
	sitemapNS      = "http://www.sitemaps.org/schemas/sitemap/0.9"
	sitemapImageNS = "http://www.google.com/schemas/sitemap-image/1.1"
	sitemapVideoNS = "http://www.google.com/schemas/sitemap-video/1.1"
	sitemapFeedMax = 500
)

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Xmlns    string       `xml:"xmlns,attr"`
	Sitemaps []sitemapRef `xml:"sitemap"`
}

type sitemapRef struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName    xml.Name   `xml:"urlset"`
	Xmlns      string     `xml:"xmlns,attr"`
	XmlnsImage string     `xml:"xmlns:image,attr,omitempty"`
	XmlnsVideo string     `xml:"xmlns:video,attr,omitempty"`
	URLs       []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string       `xml:"loc"`
	LastMod    string       `xml:"lastmod,omitempty"`
	ChangeFreq string       `xml:"changefreq,omitempty"`
	Priority   string       `xml:"priority,omitempty"`
	Images     []imageEntry `xml:"image:image,omitempty"`
	Videos     []videoEntry `xml:"video:video,omitempty"`
}

type imageEntry struct {
	Loc     string `xml:"image:loc"`
	Caption string `xml:"image:caption,omitempty"`
}

type videoEntry struct {
	ThumbnailLoc string `xml:"video:thumbnail_loc"`
	Title        string `xml:"video:title"`
	Description  string `xml:"video:description,omitempty"`
	ContentLoc   string `xml:"video:content_loc"`
}

// writeXML serializes the document with the XML prolog and CDN cache headers.
func (d Deps) writeXML(w http.ResponseWriter, doc any) error {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sitemap: %w", err)
	}
	ttl := int(d.Cfg.SitemapTTL.Seconds())
	if ttl <= 0 {
		ttl = 3600
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=0, must-revalidate")
	w.Header().Set("Netlify-CDN-Cache-Control", "public, max-age="+strconv.Itoa(ttl)+", stale-while-revalidate=600")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(append([]byte(xml.Header), body...))
	return err
}

// SitemapIndex serves /sitemap.xml: exactly the three child sitemaps.
func (d Deps) SitemapIndex() RawHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		index := sitemapIndex{
			Xmlns: sitemapNS,
			Sitemaps: []sitemapRef{
				{Loc: d.pageURL("/sitemap-static.xml")},
				{Loc: d.pageURL("/sitemap-requests-images.xml")},
				{Loc: d.pageURL("/sitemap-requests-videos.xml")},
			},
		}
		return d.writeXML(w, index)
	}
}

// SitemapStatic serves the fixed marketing and tool routes.
func (d Deps) SitemapStatic() RawHandler {
	staticPaths := []struct {
		path     string
		priority string
	}{
		{"/", "1.0"},
		{"/browse", "0.9"},
		{"/create", "0.9"},
		{"/models", "0.8"},
		{"/forge", "0.7"},
		{"/magic-mirror", "0.6"},
		{"/missions", "0.6"},
		{"/events", "0.6"},
		{"/claim", "0.5"},
		{"/studio", "0.5"},
		{"/tos", "0.2"},
	}
	return func(w http.ResponseWriter, r *http.Request) error {
		set := urlSet{Xmlns: sitemapNS}
		for _, entry := range staticPaths {
			set.URLs = append(set.URLs, urlEntry{
				Loc:        d.pageURL(entry.path),
				ChangeFreq: "daily",
				Priority:   entry.priority,
			})
		}
		return d.writeXML(w, set)
	}
}

// sitemapRequests renders one of the dynamic media sitemaps, cached in the
// shared store under the "sitemaps" namespace.
func (d Deps) sitemapRequests(store cache.Store, mediaType string) RawHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		ctx := r.Context()
		key := "requests-" + mediaType
		if entry, err := store.Get(ctx, "sitemaps", key); err == nil {
			writeCachedEntry(w, entry)
			return nil
		}

		requests, err := d.API.RecentRequests(ctx, mediaType, sitemapFeedMax)
		if err != nil {
			return fmt.Errorf("fetch %s sitemap feed: %w", mediaType, err)
		}
		set := urlSet{Xmlns: sitemapNS}
		if mediaType == "video" {
			set.XmlnsVideo = sitemapVideoNS
		} else {
			set.XmlnsImage = sitemapImageNS
		}
		for _, req := range requests {
			entry, ok := d.sitemapRequestEntry(req, mediaType)
			if !ok {
				continue
			}
			set.URLs = append(set.URLs, entry)
		}

		recorder := newEntryRecorder()
		if err := d.writeXML(recorder, set); err != nil {
			return err
		}
		stored := recorder.entry()
		if err := store.Set(ctx, "sitemaps", key, stored, d.Cfg.SitemapTTL); err != nil && d.Logger != nil {
			d.Logger.Warn("sitemap cache store failed", "key", key, "error", err)
		}
		writeCachedEntry(w, stored)
		return nil
	}
}

func (d Deps) sitemapRequestEntry(req fiddlapi.SitemapRequest, mediaType string) (urlEntry, bool) {
	short, err := shortid.ToShort(req.ID)
	if err != nil {
		return urlEntry{}, false
	}
	entry := urlEntry{
		Loc:        d.pageURL("/request/" + mediaType + "/" + short),
		ChangeFreq: "weekly",
		Priority:   "0.6",
	}
	if !req.CreatedAt.IsZero() {
		entry.LastMod = req.CreatedAt.UTC().Format(time.RFC3339)
	}
	caption := truncate(req.Prompt, 200)
	for _, mediaID := range req.MediaIDs {
		if mediaType == "video" {
			entry.Videos = append(entry.Videos, videoEntry{
				ThumbnailLoc: d.Media.VideoThumbnail(mediaID),
				Title:        mediaTitleFromPrompt(req.Prompt),
				Description:  caption,
				ContentLoc:   d.Media.Video(mediaID, media.VideoPreviewMd),
			})
		} else {
			entry.Images = append(entry.Images, imageEntry{
				Loc:     d.Media.Image(mediaID, media.SizeLarge),
				Caption: caption,
			})
		}
	}
	if len(entry.Images) == 0 && len(entry.Videos) == 0 {
		return urlEntry{}, false
	}
	return entry, true
}

func mediaTitleFromPrompt(prompt string) string {
	title := truncate(prompt, 70)
	if title == "" {
		return "AI creation on Fiddl.art"
	}
	return title
}

// SitemapRequestsImages serves /sitemap-requests-images.xml.
func (d Deps) SitemapRequestsImages(store cache.Store) RawHandler {
	return d.sitemapRequests(store, "image")
}

// SitemapRequestsVideos serves /sitemap-requests-videos.xml.
func (d Deps) SitemapRequestsVideos(store cache.Store) RawHandler {
	return d.sitemapRequests(store, "video")
}

// entryRecorder captures a response so it can be stored and replayed.
type entryRecorder struct {
	status int
	header http.Header
	body   []byte
}

func newEntryRecorder() *entryRecorder {
	return &entryRecorder{status: http.StatusOK, header: http.Header{}}
}

func (rec *entryRecorder) Header() http.Header { return rec.header }

func (rec *entryRecorder) WriteHeader(code int) { rec.status = code }

func (rec *entryRecorder) Write(b []byte) (int, error) {
	rec.body = append(rec.body, b...)
	return len(b), nil
}

func (rec *entryRecorder) entry() *cache.Entry {
	return &cache.Entry{
		Status:   rec.status,
		Header:   rec.header,
		Body:     rec.body,
		StoredAt: time.Now().UTC(),
	}
}

func writeCachedEntry(w http.ResponseWriter, entry *cache.Entry) {
	for key, values := range entry.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	status := entry.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(entry.Body)
}
