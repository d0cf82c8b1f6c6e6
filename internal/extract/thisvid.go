package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sitegrab/internal/httputil"
	"sitegrab/internal/kvs"
	"sitegrab/internal/media"
)

const thisVidPattern = `https?://(?:www\.)?thisvid\.com/(?P<type>videos|embed)/(?P<id>[A-Za-z0-9-]+/?)`

// The descrambler was reversed from player engine 4.0.4 and verified
// against 5.0.1.
const thisVidEngineMajor = "5."

var (
	thisVidEngineRe  = regexp.MustCompile(`<script [^>]+?src="https://thisvid\.com/player/kt_player\.js\?v=(\d+(\.\d+)+)">`)
	thisVidVideoIDRe = regexp.MustCompile(`video_id:\s+'([0-9]+)',`)
	thisVidURLRe     = regexp.MustCompile(`video_url:\s+'(function/0/.+?)',`)
	thisVidLicenseRe = regexp.MustCompile(`license_code:\s+'([0-9$]{16})',`)
	thisVidPreviewRe = regexp.MustCompile(`preview_url:\s+'((?:https?:)?//media\.thisvid\.com/.+?\.jpg)',`)
	thisVidTitleRe   = regexp.MustCompile(`^(?:Video:\s+)?(.+?)(?:\s+-\s+ThisVid(?:\.com| tube))?$`)
	thisVidMemberRe  = regexp.MustCompile(`^https://thisvid\.com/members/([0-9]+)/`)
)

// ThisVid extracts videos served by the KVS player on thisvid.com.
type ThisVid struct {
	site
	m matcher
}

// NewThisVid returns the ThisVid extractor.
func NewThisVid(opts Options) *ThisVid {
	opts = opts.withDefaults()
	return &ThisVid{site: newSite(opts, "ThisVid"), m: newMatcher(thisVidPattern)}
}

func (t *ThisVid) Key() string     { return "ThisVid" }
func (t *ThisVid) Pattern() string { return thisVidPattern }

func (t *ThisVid) Suitable(rawURL string) bool {
	return t.m.match(rawURL) != nil
}

func (t *ThisVid) Extract(ctx context.Context, rawURL string) (*media.Result, error) {
	groups := t.m.match(rawURL)
	if groups == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, rawURL)
	}
	mainID := strings.TrimSuffix(groups["id"], "/")

	page, err := httputil.GetPage(ctx, t.client, rawURL, t.headers())
	if err != nil {
		return nil, fmt.Errorf("fetching page %s: %w", mainID, err)
	}

	if err := checkEngineVersion(page); err != nil {
		t.log.Warn("download may fail", "error", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing page %s: %w", mainID, err)
	}

	title, err := thisVidTitle(doc)
	if err != nil {
		return nil, err
	}
	videoID, err := searchRegex(thisVidVideoIDRe, page, "video_id")
	if err != nil {
		return nil, err
	}
	videoURL, err := searchRegex(thisVidURLRe, page, "video_url")
	if err != nil {
		return nil, err
	}
	license, err := searchRegex(thisVidLicenseRe, page, "license_code")
	if err != nil {
		return nil, err
	}

	realURL, err := kvs.Descramble(videoURL, license)
	if err != nil {
		return nil, fmt.Errorf("descrambling video_url: %w", err)
	}

	d := &media.Descriptor{
		ID:            videoID,
		Title:         title,
		URL:           realURL,
		AgeLimit:      18,
		ContentRating: media.RatingRestricted,
		WebpageURL:    rawURL,
		Extractor:     t.Key(),
		HTTPHeaders:   t.playbackHeaders(rawURL),
	}

	if thumb, ok := optionalRegex(thisVidPreviewRe, page).Get(); ok {
		d.Thumbnail = httputil.SanitizeURL(thumb)
	}

	if name, id, ok := thisVidUploader(doc); ok {
		d.Uploader = name
		d.UploaderID = id
		d.UploaderURL = "https://thisvid.com/members/" + id + "/"
	} else {
		t.log.Debug("uploader not found", "id", videoID)
	}

	if groups["type"] == "videos" {
		d.DisplayID = mainID
	} else {
		d.DisplayID = t.canonicalID(doc)
	}

	return &media.Result{Item: d}, nil
}

func checkEngineVersion(page string) error {
	m := thisVidEngineRe.FindStringSubmatch(page)
	if m == nil {
		return fmt.Errorf("%w: player engine version not found", ErrUpstreamFormat)
	}
	if !strings.HasPrefix(m[1], thisVidEngineMajor) {
		return fmt.Errorf("%w: major version change (%s) in player engine", ErrUpstreamFormat, m[1])
	}
	return nil
}

func thisVidTitle(doc *goquery.Document) (string, error) {
	raw := strings.TrimSpace(doc.Find("title").First().Text())
	if raw == "" {
		return "", notFound("title")
	}
	m := thisVidTitleRe.FindStringSubmatch(raw)
	if m == nil || m[1] == "" {
		return "", notFound("title")
	}
	return m[1], nil
}

// thisVidUploader finds the author link that follows the "Added by:" label.
func thisVidUploader(doc *goquery.Document) (name, id string, ok bool) {
	doc.Find("a.author").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Prev().Text(), "Added by") {
			return true
		}
		href, _ := s.Attr("href")
		m := thisVidMemberRe.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		name, id = strings.TrimSpace(s.Text()), m[1]
		ok = name != ""
		return !ok
	})
	return name, id, ok
}

// canonicalID reads the video slug from the canonical link of an embed page.
func (t *ThisVid) canonicalID(doc *goquery.Document) string {
	href, _ := doc.Find(`link[rel="canonical"]`).First().Attr("href")
	groups := t.m.match(href)
	if groups == nil {
		return ""
	}
	return strings.TrimSuffix(groups["id"], "/")
}
