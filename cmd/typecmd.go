package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mj1618/iphone-cli/internal/input"
	"github.com/mj1618/iphone-cli/internal/output"
)

var typeCmd = &cobra.Command{
	Use:   "type [text]",
	Short: "Type text into the focused element",
	Long:  "Type text into whatever currently has keyboard focus. Text can be passed as a positional argument or via --text.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runType,
}

var keyCmd = &cobra.Command{
	Use:   "key <name>",
	Short: "Press a hardware key",
	Long:  "Press a hardware key: " + strings.Join(input.Keys(), ", ") + ".",
	Args:  cobra.ExactArgs(1),
	RunE:  runKey,
}

func init() {
	rootCmd.AddCommand(typeCmd)
	rootCmd.AddCommand(keyCmd)
	typeCmd.Flags().String("text", "", "Text to type (alternative to positional arg)")
	typeCmd.Flags().Bool("clear", false, "Clear the focused field first")
}

func runType(cmd *cobra.Command, args []string) error {
	text, _ := cmd.Flags().GetString("text")
	if len(args) > 0 {
		text = args[0]
	}
	clear, _ := cmd.Flags().GetBool("clear")
	if text == "" && !clear {
		return fmt.Errorf("specify text to type, either positionally or via --text")
	}

	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	if clear {
		if err := p.ClearText(cmd.Context()); err != nil {
			return err
		}
	}
	if text != "" {
		if err := p.TypeText(cmd.Context(), text); err != nil {
			return err
		}
	}
	return output.Print(actionResult{OK: true, Action: "type", Text: text})
}

func runKey(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}
	if err := p.PressKey(cmd.Context(), args[0]); err != nil {
		return err
	}
	return output.Print(actionResult{OK: true, Action: "key", Text: args[0]})
}
