// Package download provides secure ffmpeg-based media downloading.
// Uses exec.Command with explicit argument slices and validates
// output paths against directory traversal attacks.
package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"sitegrab/internal/httputil"
	"sitegrab/internal/media"
	"sitegrab/internal/player"
)

// OutputPath returns where d is saved inside outputDir.
func OutputPath(d *media.Descriptor, outputDir string) (string, error) {
	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}

	name := d.Title
	if d.ID != "" && !strings.Contains(name, d.ID) {
		name += " [" + d.ID + "]"
	}
	filename := httputil.SanitizeFilename(name) + ".mp4"
	return httputil.SafeDownloadPath(absDir, filename)
}

// Args builds the ffmpeg command line that copies t into outputPath.
func Args(t player.Target, outputPath string) []string {
	args := []string{"-y"} // Overwrite output

	var headers strings.Builder
	if t.Referer != "" {
		fmt.Fprintf(&headers, "Referer: %s\r\n", t.Referer)
	}
	if headers.Len() > 0 {
		args = append(args, "-headers", headers.String())
	}
	if t.UserAgent != "" {
		args = append(args, "-user_agent", t.UserAgent)
	}

	args = append(args,
		"-i", t.URL,
		"-c", "copy", // No re-encoding
		"-metadata", "title="+t.Title,
		outputPath,
	)
	return args
}

// Download fetches d to a local file using ffmpeg and returns its path.
func Download(ctx context.Context, d *media.Descriptor, outputDir string) (string, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	t, err := player.TargetFor(d)
	if err != nil {
		return "", err
	}

	outputPath, err := OutputPath(d, outputDir)
	if err != nil {
		return "", fmt.Errorf("invalid output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, ffmpegPath, Args(t, outputPath)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	slog.Info("downloading", "id", d.ID, "to", outputPath)

	if err := cmd.Run(); err != nil {
		// Clean up partial download on failure
		os.Remove(outputPath)
		return "", fmt.Errorf("ffmpeg download failed: %w", err)
	}

	return outputPath, nil
}
