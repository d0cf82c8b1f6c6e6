package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"sitegrab/internal/httputil"
	"sitegrab/internal/media"
	"sitegrab/internal/payload"
)

const (
	ciscoLiveSessionPattern = `https?://(?:www\.)?ciscolive\.com/[^#]*#/session/(?P<id>[^/?&]+)`
	ciscoLiveSearchPattern  = `https?://(?:www\.)?ciscolive\.com/(?:global|on-demand/)?on-demand-library(?:\.html|/)`

	ciscoLiveSearchTitle = "Search query"
)

// CiscoLiveSession resolves a single on-demand session to its video.
type CiscoLiveSession struct {
	rf  *Rainfocus
	m   matcher
	log *slog.Logger
}

// NewCiscoLiveSession returns the session extractor backed by rf.
func NewCiscoLiveSession(opts Options, rf *Rainfocus) *CiscoLiveSession {
	opts = opts.withDefaults()
	return &CiscoLiveSession{
		rf:  rf,
		m:   newMatcher(ciscoLiveSessionPattern),
		log: opts.Logger.With("extractor", "CiscoLiveSession"),
	}
}

func (c *CiscoLiveSession) Key() string     { return "CiscoLiveSession" }
func (c *CiscoLiveSession) Pattern() string { return ciscoLiveSessionPattern }

func (c *CiscoLiveSession) Suitable(rawURL string) bool {
	return c.m.match(rawURL) != nil
}

func (c *CiscoLiveSession) Extract(ctx context.Context, rawURL string) (*media.Result, error) {
	groups := c.m.match(rawURL)
	if groups == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, rawURL)
	}
	rfID := groups["id"]
	if err := httputil.ValidateID(rfID); err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}

	resp, err := c.rf.Call(ctx, "session", url.Values{"id": {rfID}}, rawURL)
	if err != nil {
		return nil, err
	}

	code, ok := resp.Get("responseCode").Int().Get()
	if !ok {
		return nil, fmt.Errorf("%w: session response has no responseCode", ErrUpstreamFormat)
	}
	if code != 0 {
		return nil, fmt.Errorf("%w: session api returned responseCode %d, api keys might be invalid", ErrCredentialUnavailable, code)
	}

	item := resp.Get("items", 0)
	if !item.IsMap() {
		return nil, notFound("session item")
	}
	d, err := parseRainfocusItem(item)
	if err != nil {
		return nil, err
	}
	d.WebpageURL = rawURL
	d.Extractor = c.Key()
	return &media.Result{Item: d}, nil
}

// CiscoLiveSearch enumerates the sessions matching an on-demand library
// search URL.
type CiscoLiveSearch struct {
	rf       *Rainfocus
	m        matcher
	session  matcher
	log      *slog.Logger
	pageSize int
	limiter  *rate.Limiter
}

// NewCiscoLiveSearch returns the search extractor backed by rf.
func NewCiscoLiveSearch(opts Options, rf *Rainfocus) *CiscoLiveSearch {
	opts = opts.withDefaults()
	s := &CiscoLiveSearch{
		rf:       rf,
		m:        newMatcher(ciscoLiveSearchPattern),
		session:  newMatcher(ciscoLiveSessionPattern),
		log:      opts.Logger.With("extractor", "CiscoLiveSearch"),
		pageSize: opts.CiscoLive.PageSize,
	}
	if opts.CiscoLive.SearchRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.CiscoLive.SearchRate), 1)
	}
	return s
}

func (c *CiscoLiveSearch) Key() string     { return "CiscoLiveSearch" }
func (c *CiscoLiveSearch) Pattern() string { return ciscoLiveSearchPattern }

// Suitable rejects session URLs, which also match the library pattern.
func (c *CiscoLiveSearch) Suitable(rawURL string) bool {
	return c.session.match(rawURL) == nil && c.m.match(rawURL) != nil
}

func (c *CiscoLiveSearch) Extract(_ context.Context, rawURL string) (*media.Result, error) {
	if !c.Suitable(rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, rawURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing search URL: %w", err)
	}

	query := u.Query()
	query.Set("type", "session")

	size := c.pageSize
	if v, err := strconv.Atoi(query.Get("size")); err == nil && v > 0 {
		size = v
	}

	entries := &searchEntries{
		rf:      c.rf,
		log:     c.log,
		limiter: c.limiter,
		referer: rawURL,
		query:   query,
		size:    size,
		key:     c.Key(),
	}
	return &media.Result{Playlist: &media.Playlist{Title: ciscoLiveSearchTitle, Entries: entries}}, nil
}

type searchState int

const (
	searchInit searchState = iota
	searchBootstrap
	searchFetch
	searchEmit
	searchDone
)

// searchEntries pages through the search endpoint on demand. A page is only
// requested when the previous one has been fully consumed.
type searchEntries struct {
	rf      *Rainfocus
	log     *slog.Logger
	limiter *rate.Limiter
	referer string
	query   url.Values
	key     string

	state   searchState
	from    int
	size    int
	page    int
	items   []payload.Node
	pending *payload.Node
	cur     *media.Descriptor
	err     error
}

func (s *searchEntries) Next(ctx context.Context) bool {
	for {
		switch s.state {
		case searchInit:
			s.from = 0
			s.state = searchBootstrap

		case searchBootstrap:
			if _, err := s.rf.Credential(ctx, s.referer); err != nil {
				return s.fail(err)
			}
			s.state = searchFetch

		case searchFetch:
			if err := s.fetch(ctx); err != nil {
				return s.fail(err)
			}

		case searchEmit:
			if len(s.items) == 0 {
				s.advance()
				continue
			}
			item := s.items[0]
			s.items = s.items[1:]
			if !item.IsMap() || !hasBrightcoveID(item) {
				continue
			}
			d, err := parseRainfocusItem(item)
			if errors.Is(err, ErrNotFound) {
				s.log.Warn("skipping search result", "error", err)
				continue
			}
			if err != nil {
				return s.fail(err)
			}
			d.Extractor = s.key
			s.cur = d
			return true

		case searchDone:
			s.cur = nil
			return false
		}
	}
}

func (s *searchEntries) fetch(ctx context.Context) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	form := url.Values{}
	for k, vs := range s.query {
		form[k] = append([]string(nil), vs...)
	}
	form.Set("from", strconv.Itoa(s.from))
	form.Set("size", strconv.Itoa(s.size))

	s.page++
	s.log.Debug("downloading search page", "page", s.page, "from", s.from, "size", s.size)
	results, err := s.rf.Call(ctx, "search", form, s.referer)
	if err != nil {
		return fmt.Errorf("search page %d: %w", s.page, err)
	}

	if s.page == 1 {
		if total, ok := results.Get("totalSearchItems").Int().Get(); ok && total == 0 {
			return fmt.Errorf("%w: search api returned 0 items (if matches are expected the api profile id may be invalid)", ErrNoResults)
		}
	}

	if sl := results.Get("sectionList", 0); sl.IsMap() {
		results = sl
	}
	s.pending = &results

	items, ok := results.Get("items").List().Get()
	if !ok || len(items) == 0 {
		s.state = searchDone
		return nil
	}
	s.items = items
	s.state = searchEmit
	return nil
}

// advance moves the cursor past the page just emitted.
func (s *searchEntries) advance() {
	results := s.pending
	s.pending = nil
	if results == nil {
		s.state = searchDone
		return
	}
	if size, ok := results.Get("size").Int().Get(); ok && size > 0 {
		s.size = int(size)
	}
	if total, ok := results.Get("total").Int().Get(); ok && int64(s.from+s.size) >= total {
		s.state = searchDone
		return
	}
	s.from += s.size
	s.state = searchFetch
}

func (s *searchEntries) fail(err error) bool {
	s.err = err
	s.cur = nil
	s.state = searchDone
	return false
}

func (s *searchEntries) Descriptor() *media.Descriptor { return s.cur }

func (s *searchEntries) Err() error { return s.err }
