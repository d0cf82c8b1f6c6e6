// Package media defines the normalized descriptors produced by the site
// extractors and consumed by the player and download pipeline.
package media

import (
	"context"
	"errors"
)

// Rating is a coarse content rating flag.
type Rating string

const (
	RatingNone       Rating = ""
	RatingRestricted Rating = "restricted"
)

// Protocol names how a Format is fetched.
type Protocol string

const (
	ProtocolHTTPS Protocol = "https"
	ProtocolHLS   Protocol = "m3u8_native"
)

// Redirect defers resolution to another extractor.
type Redirect struct {
	URL          string `json:"url"`
	ExtractorKey string `json:"ie_key"`
}

// Format is a single playable rendition of a Descriptor.
type Format struct {
	ID        string   `json:"format_id"`
	URL       string   `json:"url"`
	Protocol  Protocol `json:"protocol"`
	Bandwidth uint32   `json:"tbr,omitempty"`
	Width     int      `json:"width,omitempty"`
	Height    int      `json:"height,omitempty"`
	Codecs    string   `json:"codecs,omitempty"`
	FrameRate float64  `json:"fps,omitempty"`
}

// Descriptor is the normalized output unit of every extractor.
// ID and Title are always set; every other field is best-effort.
type Descriptor struct {
	ID          string `json:"id"`
	DisplayID   string `json:"display_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	URL      string    `json:"url,omitempty"`
	Formats  []Format  `json:"formats,omitempty"`
	Redirect *Redirect `json:"redirect,omitempty"`

	Thumbnail        string   `json:"thumbnail,omitempty"`
	Duration         *float64 `json:"duration,omitempty"`
	Timestamp        *int64   `json:"timestamp,omitempty"`
	ReleaseTimestamp *int64   `json:"release_timestamp,omitempty"`

	Uploader    string `json:"uploader,omitempty"`
	UploaderID  string `json:"uploader_id,omitempty"`
	UploaderURL string `json:"uploader_url,omitempty"`
	Creator     string `json:"creator,omitempty"`
	Channel     string `json:"channel,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
	ChannelURL  string `json:"channel_url,omitempty"`
	Series      string `json:"series,omitempty"`
	Location    string `json:"location,omitempty"`

	ViewCount     *int64 `json:"view_count,omitempty"`
	AgeLimit      int    `json:"age_limit,omitempty"`
	ContentRating Rating `json:"content_rating,omitempty"`

	WebpageURL  string            `json:"webpage_url,omitempty"`
	Extractor   string            `json:"extractor"`
	HTTPHeaders map[string]string `json:"http_headers,omitempty"`
}

// Validate checks the descriptor invariant.
func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return errors.New("descriptor has no id")
	}
	if d.Title == "" {
		return errors.New("descriptor has no title")
	}
	if d.URL == "" && d.Redirect == nil && len(d.Formats) == 0 {
		return errors.New("descriptor has no media reference")
	}
	return nil
}

// IsRedirect reports whether resolution is deferred to another extractor.
func (d *Descriptor) IsRedirect() bool {
	return d.Redirect != nil && d.URL == "" && len(d.Formats) == 0
}

// MergeFrom fills empty fields of d from src. The media reference of d is
// left untouched.
func (d *Descriptor) MergeFrom(src *Descriptor) {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&d.DisplayID, src.DisplayID)
	fill(&d.Title, src.Title)
	fill(&d.Description, src.Description)
	fill(&d.Thumbnail, src.Thumbnail)
	fill(&d.Uploader, src.Uploader)
	fill(&d.UploaderID, src.UploaderID)
	fill(&d.UploaderURL, src.UploaderURL)
	fill(&d.Creator, src.Creator)
	fill(&d.Channel, src.Channel)
	fill(&d.ChannelID, src.ChannelID)
	fill(&d.ChannelURL, src.ChannelURL)
	fill(&d.Series, src.Series)
	fill(&d.Location, src.Location)
	fill(&d.WebpageURL, src.WebpageURL)
	if d.Duration == nil {
		d.Duration = src.Duration
	}
	if d.Timestamp == nil {
		d.Timestamp = src.Timestamp
	}
	if d.ReleaseTimestamp == nil {
		d.ReleaseTimestamp = src.ReleaseTimestamp
	}
	if d.ViewCount == nil {
		d.ViewCount = src.ViewCount
	}
	if d.AgeLimit == 0 {
		d.AgeLimit = src.AgeLimit
	}
	if d.ContentRating == RatingNone {
		d.ContentRating = src.ContentRating
	}
}

// Entries is a lazily produced sequence of descriptors.
// Next fetches whatever it needs to produce the next descriptor and reports
// whether one is available. Callers stop early by not calling Next again.
type Entries interface {
	Next(ctx context.Context) bool
	Descriptor() *Descriptor
	Err() error
}

// Playlist is a titled lazy sequence of descriptors.
type Playlist struct {
	ID      string
	Title   string
	Entries Entries
}

// Result is what an extractor returns: exactly one of Item or Playlist is set.
type Result struct {
	Item     *Descriptor
	Playlist *Playlist
}

// Collect drains up to limit descriptors from e. A limit of zero or less
// drains everything.
func Collect(ctx context.Context, e Entries, limit int) ([]*Descriptor, error) {
	var out []*Descriptor
	for (limit <= 0 || len(out) < limit) && e.Next(ctx) {
		out = append(out, e.Descriptor())
	}
	return out, e.Err()
}

// SliceEntries adapts a fixed slice to Entries.
type SliceEntries struct {
	items []*Descriptor
	pos   int
}

// NewSliceEntries returns Entries over items.
func NewSliceEntries(items []*Descriptor) *SliceEntries {
	return &SliceEntries{items: items, pos: -1}
}

func (s *SliceEntries) Next(ctx context.Context) bool {
	if ctx.Err() != nil || s.pos+1 >= len(s.items) {
		return false
	}
	s.pos++
	return true
}

func (s *SliceEntries) Descriptor() *Descriptor {
	if s.pos < 0 || s.pos >= len(s.items) {
		return nil
	}
	return s.items[s.pos]
}

func (s *SliceEntries) Err() error { return nil }
