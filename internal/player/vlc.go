package player

import (
	"context"

	"sitegrab/internal/media"
)

// VLC implements the Player interface for VLC media player.
type VLC struct{}

func (v *VLC) Name() string { return "vlc" }

func (v *VLC) Available() bool { return available("vlc") }

// Play launches VLC and waits for it to exit.
func (v *VLC) Play(ctx context.Context, d *media.Descriptor) error {
	t, err := TargetFor(d)
	if err != nil {
		return err
	}
	return run(ctx, "vlc", v.Args(t))
}

func (v *VLC) Args(t Target) []string {
	args := []string{
		t.URL,
		"--meta-title", t.Title,
		"--play-and-exit",
	}
	if t.Referer != "" {
		args = append(args, "--http-referrer", t.Referer)
	}
	if t.UserAgent != "" {
		args = append(args, "--http-user-agent", t.UserAgent)
	}
	return args
}
