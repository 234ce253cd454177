package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/iphone-cli/internal/output"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity to the device",
	Long:  "Probe the automation endpoint and companion app, reporting each check with its latency.",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	report := p.Doctor(cmd.Context())
	return output.Print(report)
}
