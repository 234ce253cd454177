package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/iphone-cli/internal/output"
)

var longPressCmd = &cobra.Command{
	Use:   "long-press <x> <y>",
	Short: "Touch and hold at pixel coordinates",
	Args:  cobra.ExactArgs(2),
	RunE:  runLongPress,
}

var swipeCmd = &cobra.Command{
	Use:   "swipe <x1> <y1> <x2> <y2>",
	Short: "Swipe between two points",
	Long:  "Drag from (x1, y1) to (x2, y2) in pixel coordinates. Both endpoints are validated before anything is sent.",
	Args:  cobra.ExactArgs(4),
	RunE:  runSwipe,
}

func init() {
	rootCmd.AddCommand(longPressCmd)
	rootCmd.AddCommand(swipeCmd)
	longPressCmd.Flags().Float64("duration", 1.0, "Hold duration in seconds")
	swipeCmd.Flags().Float64("duration", 0.5, "Swipe duration in seconds")
}

func runLongPress(cmd *cobra.Command, args []string) error {
	x, err := parseCoord(args[0], "x")
	if err != nil {
		return err
	}
	y, err := parseCoord(args[1], "y")
	if err != nil {
		return err
	}
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	if err := p.LongPress(cmd.Context(), x, y, durationFlagSeconds(cmd, "duration")); err != nil {
		return err
	}
	return output.Print(actionResult{OK: true, Action: "long-press", X: x, Y: y})
}

func runSwipe(cmd *cobra.Command, args []string) error {
	coords := make([]float64, 4)
	names := []string{"x1", "y1", "x2", "y2"}
	for i, arg := range args {
		v, err := parseCoord(arg, names[i])
		if err != nil {
			return err
		}
		coords[i] = v
	}
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	if err := p.Swipe(cmd.Context(), coords[0], coords[1], coords[2], coords[3], durationFlagSeconds(cmd, "duration")); err != nil {
		return err
	}
	return output.Print(actionResult{OK: true, Action: "swipe", X: coords[2], Y: coords[3]})
}
