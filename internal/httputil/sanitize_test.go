package httputil

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid HTTPS", "https://example.com/path", false},
		{"HTTP rejected", "http://example.com/path", true},
		{"javascript scheme rejected", "javascript:alert(1)", true},
		{"data scheme rejected", "data:text/html,<h1>Hi</h1>", true},
		{"FTP rejected", "ftp://example.com/file", true},
		{"empty string", "", true},
		{"no host", "https://", true},
		{"valid with port", "https://example.com:8080/path", false},
		{"valid with query", "https://example.com/path?q=test&a=b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURLInsecure(t *testing.T) {
	if err := ValidateURL("http://cozy.tv/althype/replays/2022-04-22"); !errors.Is(err, ErrInsecureURL) {
		t.Errorf("ValidateURL(http) = %v, want ErrInsecureURL", err)
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid session ID", "16360600004400017rMx", false},
		{"valid slug", "big-man-walking26", false},
		{"valid numeric", "12345", false},
		{"empty", "", true},
		{"path traversal dots", "../../etc/passwd", true},
		{"shell injection semicolon", "123; rm -rf /", true},
		{"shell injection backtick", "123`whoami`", true},
		{"shell injection dollar", "$(cat /etc/passwd)", true},
		{"newline injection", "123\n456", true},
		{"pipe injection", "123|ls", true},
		{"ampersand injection", "123&whoami", true},
		{"too long", string(make([]byte, 300)), true},
		{"spaces", "session id with spaces", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"normal filename", "replay.mp4", "replay.mp4"},
		{"path traversal", "../../etc/passwd", "____etc_passwd"},
		{"slash in title", "Big Man Walking26 / part 2", "Big Man Walking26 _ part 2"},
		{"null bytes", "replay\x00.mp4", "replay.mp4"},
		{"Windows special chars", "replay<>:\"|?*.mp4", "replay_______.mp4"},
		{"double dots", "replay..mp4", "replay_mp4"},
		{"whitespace runs", "Title\n\twith  spaces", "Title with spaces"},
		{"leading dots", "...hidden", "_.hidden"},
		{"trailing dot", "trailing dot.", "trailing dot"},
		{"backslash traversal", "..\\..\\windows\\system32", "____windows_system32"},
		{"empty string", "", "untitled"},
		{"just dots", "..", "_"},
		{"just dot", ".", "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.input)
			if got != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeFilenameTruncates(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("é", 150))
	if len(got) > maxFilenameLength || !utf8.ValidString(got) {
		t.Errorf("SanitizeFilename() kept %d bytes, valid UTF-8 %v", len(got), utf8.ValidString(got))
	}
}

func TestSafeDownloadPath(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		filename string
		want     string
	}{
		{"replay.mp4", "replay.mp4"},
		{"../../etc/passwd", "____etc_passwd"},
		{"$(whoami).mp4", "$(whoami).mp4"},
		{"..", "_"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := SafeDownloadPath(dir, tt.filename)
			if err != nil {
				t.Fatalf("SafeDownloadPath(%q) error: %v", tt.filename, err)
			}
			if want := filepath.Join(dir, tt.want); got != want {
				t.Errorf("SafeDownloadPath(%q) = %q, want %q", tt.filename, got, want)
			}
		})
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"//media.thisvid.com/contents/preview.jpg", "https://media.thisvid.com/contents/preview.jpg"},
		{"https://media.thisvid.com/a.jpg", "https://media.thisvid.com/a.jpg"},
		{"  //cdn.example.com/x  ", "https://cdn.example.com/x"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := SanitizeURL(tt.input)
			if got != tt.expected {
				t.Errorf("SanitizeURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestResolveReference(t *testing.T) {
	tests := []struct {
		base     string
		ref      string
		expected string
	}{
		{"https://cdn.example.com/replays/u/2022-04-22/index.m3u8", "720p/index.m3u8", "https://cdn.example.com/replays/u/2022-04-22/720p/index.m3u8"},
		{"https://cdn.example.com/replays/u/index.m3u8", "/abs/x.m3u8", "https://cdn.example.com/abs/x.m3u8"},
		{"https://cdn.example.com/a/index.m3u8", "https://other.example.com/y.m3u8", "https://other.example.com/y.m3u8"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := ResolveReference(tt.base, tt.ref)
			if err != nil {
				t.Fatalf("ResolveReference() error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("ResolveReference(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.expected)
			}
		})
	}
}

func TestBuildURL(t *testing.T) {
	got := BuildURL("https://api.cozy.tv/cache/", "althype", "replay", "2022-04-22")
	if want := "https://api.cozy.tv/cache/althype/replay/2022-04-22"; got != want {
		t.Errorf("BuildURL() = %q, want %q", got, want)
	}
	got = BuildURL("https://api.cozy.tv/cache", "a b", "replay")
	if want := "https://api.cozy.tv/cache/a%20b/replay"; got != want {
		t.Errorf("BuildURL() = %q, want %q", got, want)
	}
}
