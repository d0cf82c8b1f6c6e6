package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sitegrab/internal/download"
	"sitegrab/internal/extract"
	"sitegrab/internal/media"
	"sitegrab/internal/player"
	"sitegrab/internal/ui"
)

// extractRun is the default command: sitegrab <url>
func extractRun(cmd *cobra.Command, args []string) error {
	var rawURL string
	if len(args) > 0 {
		rawURL = args[0]
	} else {
		// Prompt for the URL via fzf
		var err error
		rawURL, err = ui.Input(cmd.Context(), "URL")
		if errors.Is(err, ui.ErrCancelled) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("no URL provided: %w", err)
		}
	}

	ctx := cmd.Context()
	res, err := newRegistry().Resolve(ctx, rawURL)
	if err != nil {
		if errors.Is(err, extract.ErrNoResults) {
			fmt.Fprintln(os.Stderr, "no matches")
		}
		return err
	}

	if res.Playlist != nil {
		return playlistFlow(ctx, cmd.OutOrStdout(), res.Playlist)
	}
	return itemFlow(ctx, cmd.OutOrStdout(), res.Item)
}

// jsonOutput reports whether results go out as JSON: on request, or when
// stdout is not a terminal.
func jsonOutput(w io.Writer) bool {
	if flagJSON {
		return true
	}
	f, ok := w.(*os.File)
	return ok && !term.IsTerminal(int(f.Fd()))
}

// playlistFlow lists, downloads or lets the user pick playlist entries.
// Entries are pulled one at a time, so --limit bounds the requests made.
func playlistFlow(ctx context.Context, w io.Writer, pl *media.Playlist) error {
	if flagSelect {
		limit := cfg.SelectLimit
		if flagLimit > 0 {
			limit = flagLimit
		}
		entries, err := media.Collect(ctx, pl.Entries, limit)
		if err != nil {
			return fmt.Errorf("enumerating %q: %w", pl.Title, err)
		}
		if len(entries) == 0 {
			return fmt.Errorf("%q has no entries", pl.Title)
		}

		idx, err := ui.Select(ctx, pl.Title, lo.Map(entries, func(d *media.Descriptor, _ int) string {
			return entryLine(d)
		}))
		if errors.Is(err, ui.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
		slog.Debug("selected", "id", entries[idx].ID, "title", entries[idx].Title)
		return itemFlow(ctx, w, entries[idx])
	}

	asJSON := jsonOutput(w)
	if !asJSON {
		fmt.Fprintln(w, playlistHeader(pl.Title))
	}

	n := 0
	for (flagLimit == 0 || n < flagLimit) && pl.Entries.Next(ctx) {
		d := pl.Entries.Descriptor()
		n++

		switch {
		case flagDownload != "":
			if err := downloadOne(ctx, d); err != nil {
				slog.Warn("download failed", "id", d.ID, "error", err)
			}
		case asJSON:
			if err := writeJSON(w, d); err != nil {
				return err
			}
		default:
			fmt.Fprintln(w, entryRow(n, d))
		}
	}
	if err := pl.Entries.Err(); err != nil {
		return fmt.Errorf("enumerating %q: %w", pl.Title, err)
	}

	slog.Debug("playlist done", "title", pl.Title, "entries", n)
	return nil
}

// itemFlow prints, downloads or plays a single descriptor.
func itemFlow(ctx context.Context, w io.Writer, d *media.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	slog.Debug("resolved", "id", d.ID, "extractor", d.Extractor, "url", d.URL)

	if jsonOutput(w) {
		return writeJSON(w, d)
	}

	fmt.Fprintln(w, descriptorCard(d))

	if flagDownload != "" {
		return downloadOne(ctx, d)
	}

	if d.IsRedirect() {
		return fmt.Errorf("no extractor handles %s (%s)", d.Redirect.URL, d.Redirect.ExtractorKey)
	}

	p := player.New(cfg.Player)
	if !p.Available() {
		return fmt.Errorf("player %q not found in PATH", cfg.Player)
	}
	if err := p.Play(ctx, d); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}

func downloadOne(ctx context.Context, d *media.Descriptor) error {
	dir := flagDownload
	if dir == configDownloadDir {
		var err error
		dir, err = cfg.ExpandDownloadDir()
		if err != nil {
			return fmt.Errorf("resolving download dir: %w", err)
		}
	}
	outputPath, err := download.Download(ctx, d, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Downloaded: %s\n", outputPath)
	return nil
}
