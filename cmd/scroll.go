package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/iphone-cli/internal/output"
	"github.com/mj1618/iphone-cli/phone"
)

var scrollCmd = &cobra.Command{
	Use:   "scroll <up|down>",
	Short: "Scroll the screen",
	Long:  "Scroll the visible content up or down by a fraction of the screen height.",
	Args:  cobra.ExactArgs(1),
	RunE:  runScroll,
}

var scrollToCmd = &cobra.Command{
	Use:   "scroll-to <text>",
	Short: "Scroll until an element matching text is visible",
	Args:  cobra.ExactArgs(1),
	RunE:  runScrollTo,
}

func init() {
	rootCmd.AddCommand(scrollCmd)
	rootCmd.AddCommand(scrollToCmd)
	scrollCmd.Flags().Float64("amount", phone.DefaultScrollAmount, "Fraction of screen height to scroll")
	scrollToCmd.Flags().Bool("tap", false, "Tap the element once found")
	scrollToCmd.Flags().Int("max-scrolls", phone.DefaultMaxScrolls, "Give up after this many scrolls")
}

func runScroll(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	amount, _ := cmd.Flags().GetFloat64("amount")
	switch args[0] {
	case "up":
		err = p.ScrollUp(cmd.Context(), amount)
	case "down":
		err = p.ScrollDown(cmd.Context(), amount)
	default:
		return fmt.Errorf("scroll direction must be up or down, got %q", args[0])
	}
	if err != nil {
		return err
	}
	return output.Print(actionResult{OK: true, Action: "scroll " + args[0]})
}

func runScrollTo(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	tap, _ := cmd.Flags().GetBool("tap")
	maxScrolls, _ := cmd.Flags().GetInt("max-scrolls")
	res, err := p.ScrollTo(cmd.Context(), args[0], phone.ScrollToOptions{Tap: tap, MaxScrolls: maxScrolls})
	if err != nil {
		return err
	}
	return output.Print(res)
}
