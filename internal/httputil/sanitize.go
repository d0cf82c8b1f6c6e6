package httputil

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInsecureURL is returned by ValidateURL for anything but https.
var ErrInsecureURL = errors.New("only https URLs are allowed")

const (
	maxIDLength       = 256
	maxFilenameLength = 200
)

// Site IDs: KVS slugs, CozyTV replay dates, Rainfocus session IDs.
var validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9/_-]+$`)

// ValidateURL checks that rawURL parses, uses https and names a host.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	switch {
	case u.Scheme != "https":
		return fmt.Errorf("%w: got %q", ErrInsecureURL, u.Scheme)
	case u.Host == "":
		return fmt.Errorf("URL %q has no host", rawURL)
	}
	return nil
}

// ValidateID checks that a site content ID is safe to put in a request path
// or form value.
func ValidateID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("ID cannot be empty")
	case len(id) > maxIDLength:
		return fmt.Errorf("ID too long: %d characters", len(id))
	case !validIDPattern.MatchString(id):
		return fmt.Errorf("ID contains invalid characters: %q", id)
	case strings.Contains(id, ".."):
		return fmt.Errorf("ID contains path traversal: %q", id)
	}
	return nil
}

// SanitizeFilename turns a media title into a single safe path element.
// Separators and characters reserved on Windows become underscores. Other
// control characters are dropped and whitespace runs collapse to one space.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return ' '
		case r == utf8.RuneError, unicode.IsControl(r):
			return -1
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), " ")
	name = strings.ReplaceAll(name, "..", "_")

	if len(name) > maxFilenameLength {
		name = name[:maxFilenameLength]
		for !utf8.ValidString(name) {
			name = name[:len(name)-1]
		}
	}
	// Leading dots hide the file; trailing dots and spaces are stripped by Windows.
	name = strings.TrimLeft(name, ". ")
	name = strings.TrimRight(name, ". ")

	if name == "" {
		return "untitled"
	}
	return name
}

// SafeDownloadPath joins dir and the sanitized filename, refusing any result
// that would land outside dir.
func SafeDownloadPath(dir, filename string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	full := filepath.Join(absDir, SanitizeFilename(filename))
	rel, err := filepath.Rel(absDir, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || strings.ContainsRune(rel, filepath.Separator) {
		return "", fmt.Errorf("path traversal detected: %q escapes %q", full, absDir)
	}
	return full, nil
}

// SanitizeURL gives protocol-relative URLs an https scheme and trims
// surrounding whitespace. Anything else is returned as is.
func SanitizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if strings.HasPrefix(rawURL, "//") {
		return "https:" + rawURL
	}
	return rawURL
}

// ResolveReference resolves ref against base, as a browser would for a link
// found on the page at base.
func ResolveReference(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing reference: %w", err)
	}
	return b.ResolveReference(r).String(), nil
}

// BuildURL appends path segments to base, escaping each one.
func BuildURL(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	return b.String()
}
