package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sitegrab/internal/logger"
	"sitegrab/internal/media"
)

// stubExtractor answers every URL with a prefix using fn.
type stubExtractor struct {
	key    string
	prefix string
	fn     func(rawURL string) (*media.Result, error)
	calls  int
}

func (s *stubExtractor) Key() string     { return s.key }
func (s *stubExtractor) Pattern() string { return s.prefix }

func (s *stubExtractor) Suitable(rawURL string) bool {
	return strings.HasPrefix(rawURL, s.prefix)
}

func (s *stubExtractor) Extract(_ context.Context, rawURL string) (*media.Result, error) {
	s.calls++
	return s.fn(rawURL)
}

func redirectTo(id, target, key string) *media.Result {
	return &media.Result{Item: &media.Descriptor{
		ID:       id,
		Title:    "Session " + id,
		Series:   "Cisco Live",
		Redirect: &media.Redirect{URL: target, ExtractorKey: key},
	}}
}

func TestRegistryFind(t *testing.T) {
	reg := NewRegistry(Options{Logger: logger.Discard()})

	keys := make([]string, 0, len(reg.Extractors()))
	for _, e := range reg.Extractors() {
		keys = append(keys, e.Key())
	}
	if got := strings.Join(keys, ","); got != "ThisVid,CozyTVReplay,CiscoLiveSession,CiscoLiveSearch" {
		t.Errorf("registry order = %s", got)
	}

	if _, err := reg.Find("https://example.com/video/1"); !errors.Is(err, ErrUnsupportedURL) {
		t.Errorf("Find() error = %v, want ErrUnsupportedURL", err)
	}
	if _, err := reg.Resolve(context.Background(), "https://example.com/video/1"); !errors.Is(err, ErrUnsupportedURL) {
		t.Errorf("Resolve() error = %v, want ErrUnsupportedURL", err)
	}

	if e := reg.ByKey("cozytvreplay"); e == nil || e.Key() != "CozyTVReplay" {
		t.Errorf("ByKey should ignore case, got %v", e)
	}
	if e := reg.ByKey("Brightcove"); e != nil {
		t.Errorf("ByKey(Brightcove) = %v, want nil", e.Key())
	}
}

func TestRegistryFollowsRedirect(t *testing.T) {
	player := &stubExtractor{key: "BrightcoveNew", prefix: "https://players.example.com/", fn: func(rawURL string) (*media.Result, error) {
		return &media.Result{Item: &media.Descriptor{
			ID:    "6128601216001",
			Title: "Player title",
			URL:   "https://cdn.example.com/6128601216001.m3u8",
		}}, nil
	}}
	session := &stubExtractor{key: "Session", prefix: "https://events.example.com/", fn: func(string) (*media.Result, error) {
		return redirectTo("1", "https://players.example.com/?videoId=6128601216001", "brightcovenew"), nil
	}}
	reg := NewRegistryWith(Options{Logger: logger.Discard()}, session, player)

	res, err := reg.Resolve(context.Background(), "https://events.example.com/session/1")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	d := res.Item
	if d.URL != "https://cdn.example.com/6128601216001.m3u8" {
		t.Errorf("url = %q", d.URL)
	}
	if d.Title != "Player title" {
		t.Errorf("resolved title should win, got %q", d.Title)
	}
	if d.Series != "Cisco Live" {
		t.Errorf("series should be merged from the redirect, got %q", d.Series)
	}
	if player.calls != 1 {
		t.Errorf("player extractor called %d times", player.calls)
	}
}

func TestRegistryUnhandledRedirect(t *testing.T) {
	session := &stubExtractor{key: "Session", prefix: "https://events.example.com/", fn: func(string) (*media.Result, error) {
		return redirectTo("1", "http://players.brightcove.net/x/index.html?videoId=1", "BrightcoveNew"), nil
	}}
	reg := NewRegistryWith(Options{Logger: logger.Discard()}, session)

	res, err := reg.Resolve(context.Background(), "https://events.example.com/session/1")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if !res.Item.IsRedirect() || res.Item.Redirect.URL != "http://players.brightcove.net/x/index.html?videoId=1" {
		t.Errorf("unhandled redirect should be returned unchanged, got %+v", res.Item)
	}
}

func TestRegistryRedirectLimit(t *testing.T) {
	loop := &stubExtractor{key: "Loop", prefix: "https://loop.example.com/"}
	loop.fn = func(string) (*media.Result, error) {
		return redirectTo("x", "https://loop.example.com/again", "Loop"), nil
	}
	reg := NewRegistryWith(Options{Logger: logger.Discard(), MaxRedirects: 3}, loop)

	if _, err := reg.Resolve(context.Background(), "https://loop.example.com/start"); err == nil {
		t.Fatal("expected a redirect limit error")
	}
	if loop.calls != 4 {
		t.Errorf("expected 1 extraction plus 3 redirects, got %d calls", loop.calls)
	}
}

func TestRegistryPlaylistFollowsLazily(t *testing.T) {
	player := &stubExtractor{key: "Player", prefix: "https://players.example.com/", fn: func(rawURL string) (*media.Result, error) {
		if strings.HasSuffix(rawURL, "gone") {
			return nil, notFound("video")
		}
		return &media.Result{Item: &media.Descriptor{ID: rawURL, Title: "t", URL: rawURL + ".mp4"}}, nil
	}}
	search := &stubExtractor{key: "Search", prefix: "https://search.example.com/", fn: func(string) (*media.Result, error) {
		items := []*media.Descriptor{
			redirectTo("1", "https://players.example.com/1", "Player").Item,
			redirectTo("2", "https://players.example.com/gone", "Player").Item,
			redirectTo("3", "https://players.example.com/3", "Player").Item,
		}
		return &media.Result{Playlist: &media.Playlist{Title: "q", Entries: media.NewSliceEntries(items)}}, nil
	}}
	reg := NewRegistryWith(Options{Logger: logger.Discard()}, search, player)

	res, err := reg.Resolve(context.Background(), "https://search.example.com/?q=x")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if player.calls != 0 {
		t.Fatalf("entries must be resolved on demand, got %d calls", player.calls)
	}

	items, err := media.Collect(context.Background(), res.Playlist.Entries, 0)
	if err != nil {
		t.Fatalf("Collect() error: %v", err)
	}
	if len(items) != 2 || items[0].URL != "https://players.example.com/1.mp4" || items[1].URL != "https://players.example.com/3.mp4" {
		t.Errorf("items = %+v", items)
	}
}

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"<p>First <b>bold</b>   line</p><p>Second</p>", "First bold line\nSecond"},
		{"one<br>two<br/>three", "one\ntwo\nthree"},
		{"Q&amp;A &lt;live&gt;", "Q&A <live>"},
	}
	for _, tt := range tests {
		if got := cleanHTML(tt.in); got != tt.want {
			t.Errorf("cleanHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"2022-04-22T01:02:37.000Z", 1650589357, true},
		{"2022-04-22T01:02:37Z", 1650589357, true},
		{"2022-04-22T03:02:37+02:00", 1650589357, true},
		{"2022-04-22 01:02:37", 1650589357, true},
		{"yesterday", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseTimestamp(tt.in).Get()
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseTimestamp(%q) = %d/%v, want %d/%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
