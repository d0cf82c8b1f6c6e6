package download

import (
	"path/filepath"
	"slices"
	"testing"

	"sitegrab/internal/media"
	"sitegrab/internal/player"
)

func TestOutputPath(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		d    *media.Descriptor
		want string
	}{
		{"id appended", &media.Descriptor{ID: "2123318", Title: "Big Man Walking26"}, "Big Man Walking26 [2123318].mp4"},
		{"id already in title", &media.Descriptor{ID: "BRKSPG-1565", Title: "Telco Cloud - BRKSPG-1565"}, "Telco Cloud - BRKSPG-1565.mp4"},
		{"unsafe characters", &media.Descriptor{ID: "1", Title: `What? "Why": <now>`}, "What_ _Why__ _now_ [1].mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OutputPath(tt.d, dir)
			if err != nil {
				t.Fatalf("OutputPath() error: %v", err)
			}
			if got != filepath.Join(dir, tt.want) {
				t.Errorf("OutputPath() = %q, want %q", got, filepath.Join(dir, tt.want))
			}
		})
	}
}

func TestArgs(t *testing.T) {
	target := player.Target{
		URL:     "https://thisvid.com/get_file/7/abc/2123318.mp4/",
		Title:   "Big Man Walking26",
		Referer: "https://thisvid.com/videos/big-man-walking26/",
	}
	args := Args(target, "/tmp/out.mp4")

	i := slices.Index(args, "-headers")
	if i < 0 || args[i+1] != "Referer: https://thisvid.com/videos/big-man-walking26/\r\n" {
		t.Errorf("missing referer header in %q", args)
	}
	in := slices.Index(args, "-i")
	if in < 0 || args[in+1] != target.URL {
		t.Errorf("missing input in %q", args)
	}
	if in < i {
		t.Error("-headers must come before the input it applies to")
	}
	if args[len(args)-1] != "/tmp/out.mp4" {
		t.Errorf("last arg = %q, want the output path", args[len(args)-1])
	}

	plain := Args(player.Target{URL: "https://cdn.example.com/index.m3u8", Title: "x"}, "/tmp/x.mp4")
	if slices.Contains(plain, "-headers") {
		t.Errorf("no headers expected without a referer: %q", plain)
	}
}
