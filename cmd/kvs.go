package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sitegrab/internal/kvs"
)

var keystreamCmd = &cobra.Command{
	Use:     "keystream LICENSE",
	Short:   "Print the KVS keystream derived from a license code",
	Example: `  sitegrab keystream '$535195017620112'`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := kvs.LicenseToken(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var descrambleCmd = &cobra.Command{
	Use:     "descramble LICENSE VIDEO_URL",
	Short:   "Recover the media URL from a KVS function/0/ video_url",
	Example: `  sitegrab descramble '$535195017620112' \
    'function/0/https://thisvid.com/get_file/7/4a5duphej7832kci6noslmt09gvbrqf12f/2123000/2123318/2123318.mp4/'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		realURL, err := kvs.Descramble(args[1], args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), realURL)
		return nil
	},
}
