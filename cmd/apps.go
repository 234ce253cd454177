package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/iphone-cli/internal/output"
)

var launchCmd = &cobra.Command{
	Use:   "launch <bundle-id>",
	Short: "Launch an app",
	Args:  cobra.ExactArgs(1),
	RunE:  runLaunch,
}

var killCmd = &cobra.Command{
	Use:   "kill <bundle-id>",
	Short: "Terminate an app",
	Args:  cobra.ExactArgs(1),
	RunE:  runKill,
}

var activeAppCmd = &cobra.Command{
	Use:   "active-app",
	Short: "Show the foreground app",
	RunE:  runActiveApp,
}

var openCmd = &cobra.Command{
	Use:   "open <url>",
	Short: "Open a URL on the device",
	Long:  "Open a URL on the device. Custom schemes deep-link into their apps.",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

// killResult reports whether the app was actually running.
type killResult struct {
	OK         bool   `yaml:"ok" json:"ok"`
	BundleID   string `yaml:"bundle_id" json:"bundle_id"`
	WasRunning bool   `yaml:"was_running" json:"was_running"`
}

func init() {
	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(activeAppCmd)
	rootCmd.AddCommand(openCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	if err := p.Launch(cmd.Context(), args[0]); err != nil {
		return err
	}
	return output.Print(actionResult{OK: true, Action: "launch", Text: args[0]})
}

func runKill(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	wasRunning, err := p.Terminate(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return output.Print(killResult{OK: true, BundleID: args[0], WasRunning: wasRunning})
}

func runActiveApp(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	app, err := p.ActiveApp(cmd.Context())
	if err != nil {
		return err
	}
	return output.Print(app)
}

func runOpen(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	if err := p.OpenURL(cmd.Context(), args[0]); err != nil {
		return err
	}
	return output.Print(actionResult{OK: true, Action: "open", Text: args[0]})
}
