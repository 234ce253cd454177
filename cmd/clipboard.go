package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/iphone-cli/internal/output"
)

// clipboardResult is the output of clipboard reads and writes.
type clipboardResult struct {
	OK     bool   `yaml:"ok"     json:"ok"`
	Action string `yaml:"action" json:"action"`
	Text   string `yaml:"text,omitempty" json:"text,omitempty"`
}

var clipboardCmd = &cobra.Command{
	Use:   "clipboard",
	Short: "Read or write the device clipboard",
	Long:  "Read the device clipboard, or set it with \"clipboard set <text>\". Reading requires the WebDriverAgent runner app to be foregrounded on real devices.",
	RunE:  runClipboardRead,
}

var clipboardSetCmd = &cobra.Command{
	Use:   "set [text]",
	Short: "Set the clipboard text",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClipboardSet,
}

func init() {
	rootCmd.AddCommand(clipboardCmd)
	clipboardCmd.AddCommand(clipboardSetCmd)
	clipboardSetCmd.Flags().String("text", "", "Text to place on the clipboard (alternative to positional arg)")
}

func runClipboardRead(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	text, err := p.Clipboard(cmd.Context())
	if err != nil {
		return err
	}
	return output.Print(clipboardResult{OK: true, Action: "clipboard-read", Text: text})
}

func runClipboardSet(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) > 0 {
		text = args[0]
	}
	if flagText, _ := cmd.Flags().GetString("text"); flagText != "" {
		text = flagText
	}
	if text == "" {
		return fmt.Errorf("specify text as a positional argument or --text flag")
	}

	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	if err := p.SetClipboard(cmd.Context(), text); err != nil {
		return err
	}
	return output.Print(clipboardResult{OK: true, Action: "clipboard-set"})
}
