package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mj1618/iphone-cli/internal/output"
	"github.com/mj1618/iphone-cli/internal/screen"
)

var tapCmd = &cobra.Command{
	Use:   "tap <x> <y>",
	Short: "Tap the screen",
	Long:  "Tap at pixel coordinates in the screenshot frame, the same frame element centers are reported in.",
	Args:  cobra.ExactArgs(2),
	RunE:  runTap,
}

var tapRecentCmd = &cobra.Command{
	Use:   "recent [N]",
	Short: "Tap a hit from the last find",
	Long:  "Tap the Nth hit (1-based, default 1) of the most recent find or scroll-to.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTapRecent,
}

func init() {
	rootCmd.AddCommand(tapCmd)
	tapCmd.AddCommand(tapRecentCmd)
	tapCmd.PersistentFlags().Bool("double", false, "Double-tap instead")
}

func runTap(cmd *cobra.Command, args []string) error {
	x, err := parseCoord(args[0], "x")
	if err != nil {
		return err
	}
	y, err := parseCoord(args[1], "y")
	if err != nil {
		return err
	}
	return tapAt(cmd, x, y, "")
}

func runTapRecent(cmd *cobra.Command, args []string) error {
	n := 1
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("N must be an integer, got %q", args[0])
		}
		n = v
	}
	lf, err := screen.LoadLastFind()
	if err != nil {
		return err
	}
	if n < 1 || n > len(lf.Hits) {
		return fmt.Errorf("recent hit %d out of range: find %q returned %d hits", n, lf.Query, len(lf.Hits))
	}
	hit := lf.Hits[n-1]
	return tapAt(cmd, hit.Center[0], hit.Center[1], hit.Label)
}

func tapAt(cmd *cobra.Command, x, y float64, detail string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	action := "tap"
	double, _ := cmd.Flags().GetBool("double")
	if double {
		action = "double-tap"
		err = p.DoubleTap(cmd.Context(), x, y)
	} else {
		err = p.Tap(cmd.Context(), x, y)
	}
	if err != nil {
		return err
	}
	return output.Print(actionResult{OK: true, Action: action, X: x, Y: y, Detail: detail})
}
