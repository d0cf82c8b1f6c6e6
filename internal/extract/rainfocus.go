package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sync"

	"sitegrab/internal/httputil"
	"sitegrab/internal/media"
	"sitegrab/internal/payload"
)

const (
	rainfocusAPIBase   = "https://events.rainfocus.com/api"
	rainfocusTokensURL = "https://cdn-events.rainfocus.com/pages/cisco/clondemand/catalog.js"
	rainfocusOrigin    = "https://ciscolive.com"

	brightcoveURLTemplate = "http://players.brightcove.net/5647924234001/SyK2FdqjM_default/index.html?videoId=%s"
	brightcoveKey         = "BrightcoveNew"
)

var (
	rainfocusTokenRe  = regexp.MustCompile(`apiToken: '(\w+)',`)
	rainfocusWidgetRe = regexp.MustCompile(`widgetId: '(\w+)',`)
)

// Credential identifies the caller to the Rainfocus API. The values are the
// same for every visitor of the Cisco Live catalog.
type Credential struct {
	ProfileID string
	WidgetID  string
}

func (c Credential) empty() bool {
	return c.ProfileID == "" && c.WidgetID == ""
}

// Rainfocus is the API client behind the Cisco Live catalog. It holds the
// one credential of the process: configured values win, otherwise it is
// scraped from the catalog script on first use and cached.
type Rainfocus struct {
	client    *http.Client
	log       *slog.Logger
	userAgent string
	apiBase   string
	tokensURL string
	static    Credential

	mu     sync.Mutex
	cached *Credential
}

// NewRainfocus returns a client configured from opts.CiscoLive.
func NewRainfocus(opts Options) *Rainfocus {
	opts = opts.withDefaults()
	return &Rainfocus{
		client:    opts.Client,
		log:       opts.Logger.With("api", "rainfocus"),
		userAgent: opts.UserAgent,
		apiBase:   rainfocusAPIBase,
		tokensURL: opts.CiscoLive.TokensURL,
		static:    Credential{ProfileID: opts.CiscoLive.ProfileID, WidgetID: opts.CiscoLive.WidgetID},
	}
}

func (r *Rainfocus) headers(referer string) http.Header {
	h := http.Header{}
	h.Set("Origin", rainfocusOrigin)
	if referer != "" {
		h.Set("Referer", referer)
	}
	if r.userAgent != "" {
		h.Set("User-Agent", r.userAgent)
	}
	return h
}

// Credential returns the API credential, bootstrapping it when nothing is
// configured or cached yet.
func (r *Rainfocus) Credential(ctx context.Context, referer string) (Credential, error) {
	if !r.static.empty() {
		return r.static, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cached != nil {
		return *r.cached, nil
	}

	cred, err := r.bootstrap(ctx, referer)
	if err != nil {
		return Credential{}, err
	}
	r.cached = &cred
	return cred, nil
}

// Invalidate drops the cached credential so the next call bootstraps again.
func (r *Rainfocus) Invalidate() {
	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
}

func (r *Rainfocus) bootstrap(ctx context.Context, referer string) (Credential, error) {
	r.log.Debug("fetching api credential", "url", r.tokensURL)

	js, err := httputil.GetPage(ctx, r.client, r.tokensURL, r.headers(referer))
	if err != nil {
		return Credential{}, fmt.Errorf("%w: fetching catalog script: %v", ErrCredentialUnavailable, err)
	}
	token, ok := optionalRegex(rainfocusTokenRe, js).Get()
	if !ok {
		return Credential{}, fmt.Errorf("%w: unable to fetch api profile (apiToken) value", ErrCredentialUnavailable)
	}
	widget, ok := optionalRegex(rainfocusWidgetRe, js).Get()
	if !ok {
		return Credential{}, fmt.Errorf("%w: unable to fetch widgetId value", ErrCredentialUnavailable)
	}
	return Credential{ProfileID: token, WidgetID: widget}, nil
}

// Call posts form to the API endpoint and returns the decoded response.
func (r *Rainfocus) Call(ctx context.Context, endpoint string, form url.Values, referer string) (payload.Node, error) {
	cred, err := r.Credential(ctx, referer)
	if err != nil {
		return payload.Node{}, err
	}

	h := r.headers(referer)
	h.Set("rfApiProfileId", cred.ProfileID)
	h.Set("rfWidgetId", cred.WidgetID)

	body, err := httputil.PostForm(ctx, r.client, r.apiBase+"/"+endpoint, form, h)
	if err != nil {
		return payload.Node{}, fmt.Errorf("calling %s: %w", endpoint, err)
	}
	node, err := payload.Parse(body)
	if err != nil {
		return payload.Node{}, fmt.Errorf("%w: %s response: %v", ErrUpstreamFormat, endpoint, err)
	}
	return node, nil
}

// parseRainfocusItem turns a session record into a redirect to its
// Brightcove video. Title and video id are required.
func parseRainfocusItem(item payload.Node) (*media.Descriptor, error) {
	title, ok := item.Get("title").Str().Get()
	if !ok {
		return nil, notFound("title")
	}
	bcID, ok := item.Get("videos", 0, "url").Str().Get()
	if !ok {
		return nil, notFound("brightcove video id")
	}

	d := &media.Descriptor{
		ID:    bcID,
		Title: title,
		Redirect: &media.Redirect{
			URL:          fmt.Sprintf(brightcoveURLTemplate, bcID),
			ExtractorKey: brightcoveKey,
		},
		Description: cleanHTML(item.Get("abstract").Str().OrEmpty()),
		Creator:     item.Get("participants", 0, "fullName").Str().OrEmpty(),
		Location:    item.Get("times", 0, "room").Str().OrEmpty(),
		Series:      item.Get("eventName").Str().OrEmpty(),
	}
	if minutes, ok := item.Get("times", 0, "length").Float().Get(); ok && minutes != 0 {
		d.Duration = ptr(minutes * 60)
	}
	return d, nil
}

func hasBrightcoveID(item payload.Node) bool {
	return item.Get("videos", 0, "url").Int().IsPresent()
}
