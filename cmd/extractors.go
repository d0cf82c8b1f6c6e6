package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"sitegrab/internal/extract"
)

var extractorsCmd = &cobra.Command{
	Use:   "extractors",
	Short: "List supported sites and the URLs they accept",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exts := newRegistry().Extractors()
		if jsonOutput(cmd.OutOrStdout()) {
			type entry struct {
				Key     string `json:"key"`
				Pattern string `json:"pattern"`
			}
			return writeJSON(cmd.OutOrStdout(), lo.Map(exts, func(e extract.Extractor, _ int) entry {
				return entry{Key: e.Key(), Pattern: e.Pattern()}
			}))
		}

		width := lo.Max(lo.Map(exts, func(e extract.Extractor, _ int) int { return len(e.Key()) }))
		keyStyle := titleStyle.Width(width + 2)
		for _, e := range exts {
			fmt.Fprintln(cmd.OutOrStdout(), lipgloss.JoinHorizontal(lipgloss.Top,
				keyStyle.Render(e.Key()),
				urlStyle.Render(e.Pattern()),
			))
		}
		return nil
	},
}
