// Package output serializes command results to stdout.
package output

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Format represents the output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatJSON

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// IsOutputPiped reports whether stdout is redirected to a pipe or file
// rather than a terminal.
func IsOutputPiped() bool {
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == 0
}

// ErrorResult is the uniform failure object commands print before exiting
// non-zero.
type ErrorResult struct {
	OK    bool   `yaml:"ok"    json:"ok"`
	Error string `yaml:"error" json:"error"`
}

// Print serializes v to stdout in the current output format.
func Print(v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		if PrettyOutput {
			return PrintPrettyJSON(v)
		}
		return PrintJSON(v)
	case FormatYAML:
		return PrintYAML(v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}

// PrintError serializes err to stdout as an ErrorResult in the current
// output format.
func PrintError(err error) error {
	return Print(ErrorResult{OK: false, Error: err.Error()})
}

// PrintRaw writes pre-serialized bytes to stdout, adding a trailing newline
// if missing. Commands whose byte layout is a contract use it to bypass
// re-encoding.
func PrintRaw(b []byte) error {
	if _, err := os.Stdout.Write(b); err != nil {
		return err
	}
	if len(b) == 0 || b[len(b)-1] != '\n' {
		_, err := os.Stdout.Write([]byte{'\n'})
		return err
	}
	return nil
}

// PrintJSON serializes v to stdout as compact single-line JSON.
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// PrintPrettyJSON serializes v to stdout as indented JSON.
func PrintPrettyJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// PrintYAML serializes v to stdout as YAML.
func PrintYAML(v interface{}) error {
	enc := yaml.NewEncoder(os.Stdout)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}
