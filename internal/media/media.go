// Package media maps opaque media IDs onto fully qualified CDN URLs.
// All functions are pure; the CDN base comes in through the Resolver.
package media

import "strings"

// ImageSize selects a pre-rendered image variant on the CDN.
type ImageSize string

const (
	SizeThumbnail ImageSize = "thumbnail"
	SizeMedium    ImageSize = "md"
	SizeLarge     ImageSize = "lg"
	SizeOriginal  ImageSize = "original"
)

// VideoVariant selects a transcoded video rendition.
type VideoVariant string

const (
	VideoPreviewSm VideoVariant = "preview-sm"
	VideoPreviewMd VideoVariant = "preview-md"
	VideoOriginal  VideoVariant = "original"
)

// Resolver builds media URLs from a CDN base configured at startup.
type Resolver struct {
	base string
}

// NewResolver returns a Resolver for the given CDN base URL.
func NewResolver(cdnBase string) Resolver {
	return Resolver{base: strings.TrimRight(strings.TrimSpace(cdnBase), "/")}
}

// Image returns the CDN URL for an image rendition.
func (r Resolver) Image(id string, size ImageSize) string {
	if size == "" {
		size = SizeMedium
	}
	return r.base + "/images/" + id + "-" + string(size) + ".webp"
}

// Video returns the CDN URL for a video rendition.
func (r Resolver) Video(id string, variant VideoVariant) string {
	if variant == "" {
		variant = VideoPreviewMd
	}
	return r.base + "/videos/" + id + "-" + string(variant) + ".mp4"
}

// VideoThumbnail returns the poster frame extracted for a video.
func (r Resolver) VideoThumbnail(id string) string {
	return r.base + "/videos/" + id + "-thumbnail.webp"
}

// Avatar returns the profile image URL for a user.
func (r Resolver) Avatar(userID string) string {
	return r.base + "/avatars/" + userID + ".webp"
}

// OGImage returns the large rendition used for social share cards.
func (r Resolver) OGImage(id string) string {
	return r.Image(id, SizeLarge)
}
