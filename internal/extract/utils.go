package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/mo"
	"golang.org/x/net/html"
)

// searchRegex returns the first capture group of re in s.
func searchRegex(re *regexp.Regexp, s, field string) (string, error) {
	m := re.FindStringSubmatch(s)
	if m == nil || len(m) < 2 {
		return "", notFound(field)
	}
	return m[1], nil
}

// optionalRegex is searchRegex for best-effort fields.
func optionalRegex(re *regexp.Regexp, s string) mo.Option[string] {
	m := re.FindStringSubmatch(s)
	if m == nil || len(m) < 2 || m[1] == "" {
		return mo.None[string]()
	}
	return mo.Some(m[1])
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z0700",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp reads an ISO-8601 date into Unix seconds. Zone-less
// layouts are taken as UTC.
func parseTimestamp(s string) mo.Option[int64] {
	s = strings.TrimSpace(s)
	if s == "" {
		return mo.None[int64]()
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return mo.Some(t.Unix())
		}
	}
	return mo.None[int64]()
}

var spaceRun = regexp.MustCompile(`[ \t]+`)

// cleanHTML turns an HTML fragment into plain text, keeping line breaks
// for <br> and paragraph boundaries.
func cleanHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithNodes(newline())
	})
	doc.Find("p, div, li").Each(func(_ int, s *goquery.Selection) {
		s.AppendNodes(newline())
	})

	lines := strings.Split(doc.Text(), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func newline() *html.Node {
	return &html.Node{Type: html.TextNode, Data: "\n"}
}

func ptr[T any](v T) *T { return &v }

// optPtr converts a present option into a pointer.
func optPtr[T any](o mo.Option[T]) *T {
	if v, ok := o.Get(); ok {
		return &v
	}
	return nil
}
