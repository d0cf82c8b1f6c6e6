package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"sitegrab/internal/media"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(11)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	urlStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
	indexStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(5).Align(lipgloss.Right)
	cardStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// descriptorCard renders the fields of d that are set.
func descriptorCard(d *media.Descriptor) string {
	type row struct{ label, value string }
	rows := []row{
		{"id", d.ID},
		{"extractor", d.Extractor},
		{"uploader", d.Uploader},
		{"creator", d.Creator},
		{"series", d.Series},
		{"location", d.Location},
		{"duration", formatDuration(d.Duration)},
		{"uploaded", formatTimestamp(d.Timestamp)},
	}
	if d.ViewCount != nil {
		rows = append(rows, row{"views", fmt.Sprint(*d.ViewCount)})
	}
	if d.AgeLimit > 0 {
		rows = append(rows, row{"age limit", fmt.Sprint(d.AgeLimit)})
	}
	if len(d.Formats) > 0 {
		rows = append(rows, row{"formats", strings.Join(lo.Map(d.Formats, func(f media.Format, _ int) string {
			return f.ID
		}), " ")})
	}

	lines := []string{titleStyle.Render(d.Title)}
	for _, r := range lo.Filter(rows, func(r row, _ int) bool { return r.value != "" }) {
		lines = append(lines, labelStyle.Render(r.label)+valueStyle.Render(r.value))
	}

	switch {
	case d.URL != "":
		lines = append(lines, labelStyle.Render("url")+urlStyle.Render(d.URL))
	case d.Redirect != nil:
		lines = append(lines, labelStyle.Render("redirect")+urlStyle.Render(d.Redirect.URL))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func playlistHeader(title string) string {
	return headerStyle.Render(title)
}

// entryRow is one line of a playlist listing.
func entryRow(n int, d *media.Descriptor) string {
	return indexStyle.Render(fmt.Sprint(n)) + " " + entryLine(d)
}

// entryLine is the plain-text summary used in listings and fzf.
func entryLine(d *media.Descriptor) string {
	parts := []string{d.Title}
	if dur := formatDuration(d.Duration); dur != "" {
		parts = append(parts, "("+dur+")")
	}
	if d.Creator != "" {
		parts = append(parts, "- "+d.Creator)
	}
	return strings.Join(parts, " ")
}

// formatDuration formats seconds as H:MM:SS or M:SS.
func formatDuration(seconds *float64) string {
	if seconds == nil || *seconds <= 0 {
		return ""
	}
	s := int(*seconds)
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

func formatTimestamp(ts *int64) string {
	if ts == nil {
		return ""
	}
	return time.Unix(*ts, 0).UTC().Format("2006-01-02 15:04 UTC")
}
