package fiddlapi

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// MediaItem is the normalized, read-only view of one generated image or
// video. One batch is built per request and discarded after rendering.
type MediaItem struct {
	ID              string
	Type            string // "image" or "video"
	AspectRatio     float64
	CreatedAt       time.Time
	CreatorUsername string
	Prompt          string
	Model           string
}

// BrowseRow is one row of the browse listing as the API returns it. The
// media field has two historical encodings: a JSON array, or that same array
// serialized again as a JSON string (legacy rows).
type BrowseRow struct {
	ID              string          `json:"id"`
	Media           json.RawMessage `json:"media"`
	CreatorUsername string          `json:"creatorUsername"`
	Prompt          string          `json:"prompt"`
	Model           string          `json:"model"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type browseMedia struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	AspectRatio string `json:"aspectRatio"`
}

// Model describes a generation model (base or custom).
type Model struct {
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Description     string    `json:"description"`
	Type            string    `json:"type"` // "image" or "video"
	PreviewMediaID  string    `json:"previewMediaId"`
	CustomModelID   string    `json:"customModelId"`
	CreatorUsername string    `json:"creatorUsername"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Profile is a public creator profile.
type Profile struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRequest is one generation request with its produced media.
type CreateRequest struct {
	ID              string      `json:"id"`
	Type            string      `json:"type"` // "image" or "video"
	Prompt          string      `json:"prompt"`
	Model           string      `json:"model"`
	CreatorUsername string      `json:"creatorUsername"`
	CreatedAt       time.Time   `json:"createdAt"`
	Media           []MediaItem `json:"media"`
}

// SitemapRequest is the slim shape the sitemap feeds return.
type SitemapRequest struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Prompt    string    `json:"prompt"`
	MediaIDs  []string  `json:"mediaIds"`
	CreatedAt time.Time `json:"createdAt"`
}

// NormalizeBrowseMedia flattens browse rows into MediaItems, decoding the
// legacy string-encoded media field and deduplicating by media ID across
// rows. Rows whose media cannot be decoded are skipped, not fatal.
func NormalizeBrowseMedia(rows []BrowseRow) []MediaItem {
	seen := make(map[string]bool)
	var items []MediaItem
	for _, row := range rows {
		for _, m := range decodeMediaField(row.Media) {
			if m.ID == "" || seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			mediaType := m.Type
			if mediaType == "" {
				mediaType = "image"
			}
			items = append(items, MediaItem{
				ID:              m.ID,
				Type:            mediaType,
				AspectRatio:     ParseAspectRatio(m.AspectRatio),
				CreatedAt:       row.CreatedAt,
				CreatorUsername: row.CreatorUsername,
				Prompt:          row.Prompt,
				Model:           row.Model,
			})
		}
	}
	return items
}

func decodeMediaField(raw json.RawMessage) []browseMedia {
	if len(raw) == 0 {
		return nil
	}
	var list []browseMedia
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	// Legacy rows double-encode the array as a JSON string.
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(encoded), &list); err != nil {
		return nil
	}
	return list
}

// ParseAspectRatio accepts either a "W:H" pair or a bare numeric string and
// returns the ratio, or 0 when it cannot be derived.
func ParseAspectRatio(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if w, h, ok := strings.Cut(s, ":"); ok {
		wf, errW := strconv.ParseFloat(strings.TrimSpace(w), 64)
		hf, errH := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if errW != nil || errH != nil || hf == 0 {
			return 0
		}
		return wf / hf
	}
	ratio, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return ratio
}
