// Package extract resolves page URLs of the supported sites into media
// descriptors. Each site has an Extractor that matches its URL shape; the
// Registry picks one and follows embedded-extraction redirects.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"sitegrab/internal/httputil"
	"sitegrab/internal/media"
)

// Extractor resolves URLs of one site.
type Extractor interface {
	// Key is the stable extractor name used in redirects.
	Key() string

	// Pattern is the URL pattern the extractor accepts.
	Pattern() string

	// Suitable reports whether the extractor handles rawURL.
	Suitable(rawURL string) bool

	// Extract resolves rawURL into a single item or a playlist.
	Extract(ctx context.Context, rawURL string) (*media.Result, error)
}

// Options configures the extractors built by NewRegistry.
type Options struct {
	Client       *http.Client
	Logger       *slog.Logger
	UserAgent    string
	MaxRedirects int
	CiscoLive    CiscoLiveOptions
}

// CiscoLiveOptions configures the Rainfocus API client and search paging.
type CiscoLiveOptions struct {
	ProfileID string
	WidgetID  string
	TokensURL string
	PageSize  int
	// SearchRate caps search page requests per second. Zero disables it.
	SearchRate float64
}

const (
	defaultMaxRedirects = 5
	defaultPageSize     = 50
)

func (o Options) withDefaults() Options {
	if o.Client == nil {
		o.Client = httputil.NewClient(0)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.MaxRedirects <= 0 {
		o.MaxRedirects = defaultMaxRedirects
	}
	if o.CiscoLive.PageSize <= 0 {
		o.CiscoLive.PageSize = defaultPageSize
	}
	if o.CiscoLive.TokensURL == "" {
		o.CiscoLive.TokensURL = rainfocusTokensURL
	}
	return o
}

// site carries what every extractor needs to talk to its site.
type site struct {
	client    *http.Client
	log       *slog.Logger
	userAgent string
}

func newSite(o Options, key string) site {
	return site{client: o.Client, log: o.Logger.With("extractor", key), userAgent: o.UserAgent}
}

func (s site) headers() http.Header {
	h := http.Header{}
	if s.userAgent != "" {
		h.Set("User-Agent", s.userAgent)
	}
	return h
}

// playbackHeaders are the headers a player or downloader must send to fetch
// the media the way this extractor fetched the page.
func (s site) playbackHeaders(referer string) map[string]string {
	h := map[string]string{}
	if referer != "" {
		h["Referer"] = referer
	}
	if s.userAgent != "" {
		h["User-Agent"] = s.userAgent
	}
	if len(h) == 0 {
		return nil
	}
	return h
}

// matcher anchors a URL pattern at the start of the input.
type matcher struct {
	pattern string
	re      *regexp.Regexp
}

func newMatcher(pattern string) matcher {
	return matcher{pattern: pattern, re: regexp.MustCompile(`^(?:` + pattern + `)`)}
}

func (m matcher) match(rawURL string) map[string]string {
	sub := m.re.FindStringSubmatch(rawURL)
	if sub == nil {
		return nil
	}
	groups := make(map[string]string)
	for i, name := range m.re.SubexpNames() {
		if name != "" {
			groups[name] = sub[i]
		}
	}
	return groups
}

// Registry dispatches URLs to extractors in registration order.
type Registry struct {
	extractors   []Extractor
	maxRedirects int
	log          *slog.Logger
}

// NewRegistry builds the registry with every supported site. The Cisco Live
// extractors share one API client, so its credential is fetched at most once
// for the registry's lifetime.
func NewRegistry(opts Options) *Registry {
	opts = opts.withDefaults()
	rf := NewRainfocus(opts)
	return NewRegistryWith(opts,
		NewThisVid(opts),
		NewCozyTV(opts),
		NewCiscoLiveSession(opts, rf),
		NewCiscoLiveSearch(opts, rf),
	)
}

// NewRegistryWith builds a registry over the given extractors.
func NewRegistryWith(opts Options, extractors ...Extractor) *Registry {
	opts = opts.withDefaults()
	return &Registry{extractors: extractors, maxRedirects: opts.MaxRedirects, log: opts.Logger}
}

// Extractors returns the registered extractors in dispatch order.
func (r *Registry) Extractors() []Extractor {
	return r.extractors
}

// Find returns the first extractor suitable for rawURL.
func (r *Registry) Find(rawURL string) (Extractor, error) {
	for _, e := range r.extractors {
		if e.Suitable(rawURL) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, rawURL)
}

// ByKey returns the extractor with the given key, ignoring case.
func (r *Registry) ByKey(key string) Extractor {
	for _, e := range r.extractors {
		if strings.EqualFold(e.Key(), key) {
			return e
		}
	}
	return nil
}

// Resolve extracts rawURL and follows embedded-extraction redirects, for the
// item itself or lazily for every playlist entry.
func (r *Registry) Resolve(ctx context.Context, rawURL string) (*media.Result, error) {
	e, err := r.Find(rawURL)
	if err != nil {
		return nil, err
	}
	r.log.Debug("extracting", "extractor", e.Key(), "url", rawURL)

	res, err := e.Extract(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Key(), err)
	}

	switch {
	case res.Item != nil:
		item, err := r.Follow(ctx, res.Item)
		if err != nil {
			return nil, err
		}
		return &media.Result{Item: item}, nil
	case res.Playlist != nil:
		pl := *res.Playlist
		pl.Entries = &followEntries{inner: pl.Entries, reg: r}
		return &media.Result{Playlist: &pl}, nil
	}
	return nil, fmt.Errorf("%s: extractor returned no result", e.Key())
}

// Follow re-dispatches a redirect descriptor through the registry until it
// resolves inline or no extractor handles the target. Fields known from the
// redirecting descriptor fill the gaps of the resolved one.
func (r *Registry) Follow(ctx context.Context, d *media.Descriptor) (*media.Descriptor, error) {
	for hops := 0; d.IsRedirect(); hops++ {
		if hops >= r.maxRedirects {
			return nil, fmt.Errorf("too many redirects resolving %s", d.ID)
		}

		e := r.ByKey(d.Redirect.ExtractorKey)
		if e == nil {
			e, _ = r.Find(d.Redirect.URL)
		}
		if e == nil {
			r.log.Debug("no extractor for redirect", "target", d.Redirect.ExtractorKey, "url", d.Redirect.URL)
			return d, nil
		}

		res, err := e.Extract(ctx, d.Redirect.URL)
		if err != nil {
			return nil, fmt.Errorf("following redirect to %s: %w", e.Key(), err)
		}
		if res.Item == nil {
			return d, nil
		}
		next := res.Item
		next.MergeFrom(d)
		d = next
	}
	return d, nil
}

// followEntries applies Follow to every entry of a playlist as it is pulled.
// Entries whose redirect fails with ErrNotFound are skipped.
type followEntries struct {
	inner media.Entries
	reg   *Registry
	cur   *media.Descriptor
	err   error
}

func (f *followEntries) Next(ctx context.Context) bool {
	if f.err != nil {
		return false
	}
	for f.inner.Next(ctx) {
		d, err := f.reg.Follow(ctx, f.inner.Descriptor())
		if errors.Is(err, ErrNotFound) {
			f.reg.log.Warn("skipping playlist entry", "error", err)
			continue
		}
		if err != nil {
			f.err = err
			return false
		}
		f.cur = d
		return true
	}
	return false
}

func (f *followEntries) Descriptor() *media.Descriptor { return f.cur }

func (f *followEntries) Err() error {
	if f.err != nil {
		return f.err
	}
	return f.inner.Err()
}
