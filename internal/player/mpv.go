package player

import (
	"context"
	"strings"

	"sitegrab/internal/media"
)

// MPV implements the Player interface for mpv.
type MPV struct{}

func (m *MPV) Name() string { return "mpv" }

func (m *MPV) Available() bool { return available("mpv") }

// Play launches mpv with the descriptor's best rendition.
func (m *MPV) Play(ctx context.Context, d *media.Descriptor) error {
	t, err := TargetFor(d)
	if err != nil {
		return err
	}
	return run(ctx, "mpv", m.Args(t))
}

// Args builds the mpv command line. Request headers go through
// --http-header-fields so HLS segments are fetched with them too.
func (m *MPV) Args(t Target) []string {
	args := []string{
		t.URL,
		"--force-media-title=" + t.Title,
		"--really-quiet",
	}
	args = append(args, mpvHeaderArgs(t)...)
	return args
}

func mpvHeaderArgs(t Target) []string {
	var args []string
	var fields []string
	if t.Referer != "" {
		args = append(args, "--referrer="+t.Referer)
		fields = append(fields, "Referer: "+t.Referer)
	}
	if t.UserAgent != "" {
		args = append(args, "--user-agent="+t.UserAgent)
	}
	if len(fields) > 0 {
		// mpv splits this option on commas.
		args = append(args, "--http-header-fields="+strings.Join(fields, ","))
	}
	return args
}
