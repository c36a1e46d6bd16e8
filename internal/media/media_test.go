package media

import "testing"

func TestResolverURLs(t *testing.T) {
	r := NewResolver("https://cdn.fiddl.art/")

	cases := []struct {
		name string
		got  string
		want string
	}{
		{"image", r.Image("abc", SizeThumbnail), "https://cdn.fiddl.art/images/abc-thumbnail.webp"},
		{"image default size", r.Image("abc", ""), "https://cdn.fiddl.art/images/abc-md.webp"},
		{"video", r.Video("vid1", VideoOriginal), "https://cdn.fiddl.art/videos/vid1-original.mp4"},
		{"video default variant", r.Video("vid1", ""), "https://cdn.fiddl.art/videos/vid1-preview-md.mp4"},
		{"video thumbnail", r.VideoThumbnail("vid1"), "https://cdn.fiddl.art/videos/vid1-thumbnail.webp"},
		{"avatar", r.Avatar("user-9"), "https://cdn.fiddl.art/avatars/user-9.webp"},
		{"og image", r.OGImage("abc"), "https://cdn.fiddl.art/images/abc-lg.webp"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, tc.got, tc.want)
		}
	}
}
