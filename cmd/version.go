package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/iphone-cli/internal/output"
	"github.com/mj1618/iphone-cli/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	RunE:  runVersion,
}

// versionResult is the structured counterpart of --version.
type versionResult struct {
	Version   string `yaml:"version" json:"version"`
	Commit    string `yaml:"commit" json:"commit"`
	BuildDate string `yaml:"build_date" json:"build_date"`
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	return output.Print(versionResult{
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
	})
}
