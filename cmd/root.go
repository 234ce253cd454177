package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mj1618/iphone-cli/internal/output"
	"github.com/mj1618/iphone-cli/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "iphone",
	Short:         "Read and drive an iPhone from the command line",
	Long:          "A CLI that lets AI agents observe an iPhone's screen and drive it through the on-device automation endpoint and companion app.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. Failures print a single structured error object so
// agents never have to parse prose.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.PrintError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	pf := rootCmd.PersistentFlags()
	pf.String("wda-url", "", "Automation endpoint URL (env IPHONE_WDA_URL)")
	pf.String("companion-url", "", "Companion app URL (env IPHONE_COMPANION_URL)")
	pf.Duration("timeout", 30*time.Second, "Per-operation timeout")
	pf.String("format", "", "Output format: json, yaml")
	pf.Bool("pretty", false, "Indent JSON output (default when stdout is a terminal)")
	pf.Bool("verbose", false, "Debug logging on stderr")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		switch format {
		case "", "json":
			output.OutputFormat = output.FormatJSON
		case "yaml":
			output.OutputFormat = output.FormatYAML
		default:
			return fmt.Errorf("unsupported format: %s (use json or yaml)", format)
		}

		// Piped output (agent context) stays compact; a terminal gets
		// indentation unless the caller asked for raw bytes.
		pretty, _ := rootCmd.PersistentFlags().GetBool("pretty")
		output.PrettyOutput = pretty || !output.IsOutputPiped()

		if verbose, _ := rootCmd.PersistentFlags().GetBool("verbose"); verbose {
			cliLog = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
		return nil
	}
}
