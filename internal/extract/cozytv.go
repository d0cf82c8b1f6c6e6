package extract

import (
	"context"
	"fmt"
	"strings"

	"sitegrab/internal/hls"
	"sitegrab/internal/httputil"
	"sitegrab/internal/media"
	"sitegrab/internal/payload"
)

const cozyTVPattern = `https?://(?:www\.)?cozy\.tv/(?P<user>[^/]+)/replays/(?P<id>\d{4}-(?:0[1-9]|1[0-2])-(?:0[1-9]|[12][0-9]|3[01])(?:_\d+)?)`

const (
	cozyTVAPIBase  = "https://api.cozy.tv/cache"
	cozyTVSiteBase = "https://cozy.tv"
)

// CozyTV extracts stream replays from cozy.tv.
type CozyTV struct {
	site
	m matcher
}

// NewCozyTV returns the CozyTV replay extractor.
func NewCozyTV(opts Options) *CozyTV {
	opts = opts.withDefaults()
	return &CozyTV{site: newSite(opts, "CozyTVReplay"), m: newMatcher(cozyTVPattern)}
}

func (c *CozyTV) Key() string     { return "CozyTVReplay" }
func (c *CozyTV) Pattern() string { return cozyTVPattern }

func (c *CozyTV) Suitable(rawURL string) bool {
	return c.m.match(rawURL) != nil
}

func (c *CozyTV) Extract(ctx context.Context, rawURL string) (*media.Result, error) {
	groups := c.m.match(rawURL)
	if groups == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, rawURL)
	}
	user, replayID := groups["user"], groups["id"]

	body, err := httputil.GetJSON(ctx, c.client, httputil.BuildURL(cozyTVAPIBase, user, "replay", replayID), c.headers())
	if err != nil {
		return nil, fmt.Errorf("fetching replay %s: %w", replayID, err)
	}
	data, err := payload.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: replay %s: %v", ErrUpstreamFormat, replayID, err)
	}

	title, ok := data.Get("title").Str().Get()
	if !ok {
		return nil, notFound("title")
	}
	cdn, ok := data.Get("cdns", 0).Str().Get()
	if !ok {
		return nil, notFound("cdns")
	}

	cdnURL := strings.Join([]string{strings.TrimSuffix(cdn, "/"), "replays", user, replayID}, "/")
	userURL := cozyTVSiteBase + "/" + user
	manifest := cdnURL + "/index.m3u8"

	d := &media.Descriptor{
		ID:          data.Get("_id").Str().OrElse(replayID),
		DisplayID:   replayID,
		Title:       title,
		URL:         manifest,
		Thumbnail:   cdnURL + "/thumb.webp",
		Duration:    optPtr(data.Get("duration").Float()),
		ViewCount:   optPtr(data.Get("peakViewers").Int()),
		Uploader:    user,
		UploaderID:  user,
		UploaderURL: userURL,
		Creator:     user,
		Channel:     user,
		ChannelID:   user,
		ChannelURL:  userURL,
		WebpageURL:  rawURL,
		Extractor:   c.Key(),
		HTTPHeaders: c.playbackHeaders(""),
	}

	if date, ok := data.Get("date").Str().Get(); ok {
		ts := optPtr(parseTimestamp(date))
		d.Timestamp = ts
		d.ReleaseTimestamp = ts
	}

	formats, err := hls.Formats(ctx, c.client, manifest, c.headers())
	if err != nil {
		c.log.Warn("failed to read replay manifest", "id", replayID, "error", err)
	} else {
		d.Formats = formats
	}

	return &media.Result{Item: d}, nil
}
