// Package hls turns an HLS manifest URL into the set of renditions it offers.
package hls

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/grafov/m3u8"
	"github.com/samber/lo"

	"sitegrab/internal/httputil"
	"sitegrab/internal/media"
)

const maxManifestSize = 2 * 1024 * 1024

// Formats fetches manifestURL and lists its renditions. A master playlist
// yields one format per variant, ordered by bandwidth; a media playlist
// yields a single format pointing at the manifest itself.
func Formats(ctx context.Context, client *http.Client, manifestURL string, headers http.Header) ([]media.Format, error) {
	resp, err := httputil.Get(ctx, client, manifestURL, headers)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &httputil.StatusError{URL: manifestURL, StatusCode: resp.StatusCode}
	}

	body, err := httputil.ReadLimited(resp.Body, maxManifestSize)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(bytes.NewReader(body), manifestURL)
}

// Parse decodes a manifest read from r. Variant URIs are resolved against
// manifestURL.
func Parse(r io.Reader, manifestURL string) ([]media.Format, error) {
	p, listType, err := m3u8.DecodeFrom(r, true)
	if err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	switch listType {
	case m3u8.MEDIA:
		return []media.Format{{ID: "hls", URL: manifestURL, Protocol: media.ProtocolHLS}}, nil
	case m3u8.MASTER:
		master := p.(*m3u8.MasterPlaylist)
		variants := lo.Filter(master.Variants, func(v *m3u8.Variant, _ int) bool {
			return v != nil && v.URI != "" && !v.Iframe
		})
		if len(variants) == 0 {
			return nil, fmt.Errorf("master playlist has no variants")
		}

		formats := make([]media.Format, 0, len(variants))
		for _, v := range variants {
			u, err := httputil.ResolveReference(manifestURL, v.URI)
			if err != nil {
				return nil, fmt.Errorf("resolving variant %q: %w", v.URI, err)
			}
			width, height := parseResolution(v.Resolution)
			formats = append(formats, media.Format{
				URL:       u,
				Protocol:  media.ProtocolHLS,
				Bandwidth: v.Bandwidth,
				Width:     width,
				Height:    height,
				Codecs:    v.Codecs,
				FrameRate: v.FrameRate,
			})
		}

		slices.SortStableFunc(formats, func(a, b media.Format) int {
			return int(a.Bandwidth) - int(b.Bandwidth)
		})
		for i := range formats {
			formats[i].ID = formatID(formats[i])
		}
		return formats, nil
	}
	return nil, fmt.Errorf("unknown playlist type")
}

// Best returns the highest-bandwidth format.
func Best(formats []media.Format) (media.Format, bool) {
	if len(formats) == 0 {
		return media.Format{}, false
	}
	return lo.MaxBy(formats, func(a, b media.Format) bool {
		return a.Bandwidth > b.Bandwidth
	}), true
}

func formatID(f media.Format) string {
	switch {
	case f.Height > 0:
		return "hls-" + strconv.Itoa(f.Height) + "p"
	case f.Bandwidth > 0:
		return "hls-" + strconv.Itoa(int(f.Bandwidth/1000))
	}
	return "hls"
}

func parseResolution(s string) (int, int) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0
	}
	width, err1 := strconv.Atoi(w)
	height, err2 := strconv.Atoi(h)
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return width, height
}
