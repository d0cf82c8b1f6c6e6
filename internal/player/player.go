// Package player provides a secure interface for launching media players.
// All player invocations use exec.Command with explicit argument slices,
// so nothing taken from a remote page is ever interpreted by a shell.
package player

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"sitegrab/internal/hls"
	"sitegrab/internal/media"
)

// Player is the interface for media player implementations.
type Player interface {
	// Play starts playback of a descriptor and blocks until the player exits.
	Play(ctx context.Context, d *media.Descriptor) error

	// Args returns the command line used to play target.
	Args(target Target) []string

	// Name returns the player name.
	Name() string

	// Available checks if the player binary exists in PATH.
	Available() bool
}

// New creates a player by name.
func New(name string) Player {
	switch name {
	case "mpv":
		return &MPV{}
	case "vlc":
		return &VLC{}
	case "iina", "celluloid":
		return &Generic{name: name}
	default:
		return &MPV{} // Default to mpv
	}
}

// Target is what a player needs to open a descriptor.
type Target struct {
	URL       string
	Title     string
	Referer   string
	UserAgent string
}

// TargetFor picks the playable URL of d: the best HLS rendition when the
// manifest was read, otherwise the descriptor URL.
func TargetFor(d *media.Descriptor) (Target, error) {
	if d.IsRedirect() {
		return Target{}, fmt.Errorf("%s cannot be played directly; it points to %s", d.ID, d.Redirect.URL)
	}
	t := Target{
		URL:       d.URL,
		Title:     d.Title,
		Referer:   d.HTTPHeaders["Referer"],
		UserAgent: d.HTTPHeaders["User-Agent"],
	}
	if best, ok := hls.Best(d.Formats); ok {
		t.URL = best.URL
	}
	if t.URL == "" {
		return Target{}, fmt.Errorf("%s has no playable URL", d.ID)
	}
	return t, nil
}

// run starts name with args attached to the terminal. Non-zero exits are
// how players report a user quit, so they are not errors.
func run(ctx context.Context, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return nil
		}
		return fmt.Errorf("running %s: %w", name, err)
	}
	return nil
}

func available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
