package cmd

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mj1618/iphone-cli/internal/imaging"
	"github.com/mj1618/iphone-cli/internal/output"
)

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Capture the screen",
	Long:  "Capture a screenshot. Written to a file with -o, otherwise printed to stdout as base64 for easy agent consumption.",
	RunE:  runScreenshot,
}

func init() {
	rootCmd.AddCommand(screenshotCmd)
	screenshotCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout as base64)")
	screenshotCmd.Flags().Bool("compress", false, "Downscale and re-encode as JPEG for token efficiency")
	screenshotCmd.Flags().Bool("annotate", false, "Draw boxes and tap coordinates on interactive elements")
	screenshotCmd.Flags().Int("max-width", 0, "Max width in pixels when compressing (default 390)")
	screenshotCmd.Flags().Int("quality", 0, "JPEG quality 1-100 when compressing (default 60)")
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	shot, err := p.Screenshot(ctx)
	if err != nil {
		return err
	}
	data := shot.PNG

	if annotate, _ := cmd.Flags().GetBool("annotate"); annotate {
		els, err := p.Elements(ctx)
		if err != nil {
			return err
		}
		if data, err = imaging.Annotate(data, els, shot.Geometry); err != nil {
			return err
		}
	}
	if compress, _ := cmd.Flags().GetBool("compress"); compress {
		maxWidth, _ := cmd.Flags().GetInt("max-width")
		quality, _ := cmd.Flags().GetInt("quality")
		if data, err = imaging.Compress(data, maxWidth, quality); err != nil {
			return err
		}
	}

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		return output.Print(struct {
			OK     bool   `yaml:"ok" json:"ok"`
			Path   string `yaml:"path" json:"path"`
			Bytes  int    `yaml:"bytes" json:"bytes"`
			Screen string `yaml:"screen" json:"screen"`
		}{true, path, len(data), shot.Geometry.String()})
	}

	enc := base64.NewEncoder(base64.StdEncoding, os.Stdout)
	if _, err := enc.Write(data); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	fmt.Println()
	return nil
}
