package player

import (
	"slices"
	"testing"

	"sitegrab/internal/media"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"mpv", "mpv"},
		{"vlc", "vlc"},
		{"iina", "iina"},
		{"celluloid", "celluloid"},
		{"unknown", "mpv"},
	}
	for _, tt := range tests {
		if got := New(tt.name).Name(); got != tt.want {
			t.Errorf("New(%q).Name() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestTargetFor(t *testing.T) {
	d := &media.Descriptor{
		ID:          "2123318",
		Title:       "Big Man Walking26",
		URL:         "https://thisvid.com/get_file/7/abc/2123318.mp4/",
		HTTPHeaders: map[string]string{
			"Referer":    "https://thisvid.com/videos/big-man-walking26/",
			"User-Agent": "sitegrab-test/1.0",
		},
	}
	target, err := TargetFor(d)
	if err != nil {
		t.Fatalf("TargetFor() error: %v", err)
	}
	if target.URL != d.URL || target.Referer != d.HTTPHeaders["Referer"] || target.UserAgent != "sitegrab-test/1.0" {
		t.Errorf("target = %+v", target)
	}

	d.Formats = []media.Format{
		{ID: "hls-360p", URL: "https://cdn.example.com/360.m3u8", Bandwidth: 800000},
		{ID: "hls-720p", URL: "https://cdn.example.com/720.m3u8", Bandwidth: 2500000},
	}
	target, err = TargetFor(d)
	if err != nil {
		t.Fatalf("TargetFor() error: %v", err)
	}
	if target.URL != "https://cdn.example.com/720.m3u8" {
		t.Errorf("expected the best rendition, got %q", target.URL)
	}
}

func TestTargetForRedirect(t *testing.T) {
	d := &media.Descriptor{
		ID:       "6128601216001",
		Title:    "Session",
		Redirect: &media.Redirect{URL: "http://players.brightcove.net/x/index.html?videoId=6128601216001", ExtractorKey: "BrightcoveNew"},
	}
	if _, err := TargetFor(d); err == nil {
		t.Error("an unresolved redirect should not be playable")
	}
	if _, err := TargetFor(&media.Descriptor{ID: "x", Title: "x"}); err == nil {
		t.Error("a descriptor without URL should not be playable")
	}
}

func TestArgs(t *testing.T) {
	target := Target{
		URL:     "https://thisvid.com/get_file/7/abc/2123318.mp4/",
		Title:   "Big Man Walking26",
		Referer: "https://thisvid.com/videos/big-man-walking26/",
	}

	tests := []struct {
		player Player
		want   []string
	}{
		{&MPV{}, []string{
			target.URL,
			"--force-media-title=Big Man Walking26",
			"--referrer=https://thisvid.com/videos/big-man-walking26/",
			"--http-header-fields=Referer: https://thisvid.com/videos/big-man-walking26/",
		}},
		{&VLC{}, []string{
			target.URL,
			"--meta-title", "Big Man Walking26",
			"--http-referrer", "https://thisvid.com/videos/big-man-walking26/",
		}},
		{&Generic{name: "iina"}, []string{
			target.URL,
			"--force-media-title=Big Man Walking26",
			"--referrer=https://thisvid.com/videos/big-man-walking26/",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.player.Name(), func(t *testing.T) {
			args := tt.player.Args(target)
			if args[0] != target.URL {
				t.Errorf("first arg = %q, want the media URL", args[0])
			}
			for _, w := range tt.want {
				if !slices.Contains(args, w) {
					t.Errorf("args %q missing %q", args, w)
				}
			}
		})
	}
}
