package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/iphone-cli/internal/imaging"
	"github.com/mj1618/iphone-cli/internal/output"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Capture a full screen snapshot for agents",
	Long:  "Capture screenshot, screen size, foreground app, alert text, and interactive elements in one consistent snapshot.",
	RunE:  runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.Flags().Bool("compress", false, "Recompress the screenshot to a small JPEG")
	contextCmd.Flags().Bool("no-screenshot", false, "Omit the screenshot field")
	contextCmd.Flags().Int("max-elements", 0, "Cap the element list (0 = default)")
}

func runContext(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	snap, err := p.Context(cmd.Context())
	if err != nil {
		return err
	}

	noShot, _ := cmd.Flags().GetBool("no-screenshot")
	compress, _ := cmd.Flags().GetBool("compress")
	maxElements, _ := cmd.Flags().GetInt("max-elements")

	if compress && !noShot {
		small, err := imaging.Compress(snap.Screenshot, imaging.DefaultMaxWidth, imaging.DefaultQuality)
		if err != nil {
			return err
		}
		snap.Screenshot = small
	}

	buf, err := snap.AgentJSON(!noShot, maxElements)
	if err != nil {
		return err
	}
	return output.PrintRaw(buf)
}
