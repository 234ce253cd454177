package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/iphone-cli/internal/output"
	"github.com/mj1618/iphone-cli/internal/wda"
)

var alertCmd = &cobra.Command{
	Use:   "alert [accept|dismiss]",
	Short: "Read or resolve the current alert",
	Long:  "With no argument, report the alert text. \"accept\" taps the default button, \"dismiss\" the cancel button.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAlert,
}

// alertResult reports alert presence and text.
type alertResult struct {
	OK      bool   `yaml:"ok" json:"ok"`
	Present bool   `yaml:"present" json:"present"`
	Text    string `yaml:"text,omitempty" json:"text,omitempty"`
}

func init() {
	rootCmd.AddCommand(alertCmd)
}

func runAlert(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		switch args[0] {
		case "accept":
			err = p.AcceptAlert(cmd.Context())
		case "dismiss":
			err = p.DismissAlert(cmd.Context())
		default:
			return fmt.Errorf("alert action must be accept or dismiss, got %q", args[0])
		}
		if err != nil {
			return err
		}
		return output.Print(actionResult{OK: true, Action: "alert " + args[0]})
	}

	text, err := p.Alert(cmd.Context())
	if errors.Is(err, wda.ErrNoAlert) {
		return output.Print(alertResult{OK: true, Present: false})
	}
	if err != nil {
		return err
	}
	return output.Print(alertResult{OK: true, Present: true, Text: text})
}
