package player

import (
	"context"

	"sitegrab/internal/media"
)

// Generic implements the Player interface for players like iina and celluloid
// that accept mpv-compatible arguments.
type Generic struct {
	name string
}

func (g *Generic) Name() string { return g.name }

func (g *Generic) Available() bool { return available(g.name) }

func (g *Generic) Play(ctx context.Context, d *media.Descriptor) error {
	t, err := TargetFor(d)
	if err != nil {
		return err
	}
	return run(ctx, g.name, g.Args(t))
}

// Args passes mpv-style flags; both iina and celluloid forward them to
// their embedded mpv.
func (g *Generic) Args(t Target) []string {
	args := []string{t.URL, "--force-media-title=" + t.Title}
	return append(args, mpvHeaderArgs(t)...)
}
