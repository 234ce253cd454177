package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/iphone-cli/phone"
)

// cliLog is nil unless --verbose armed it; a nil logger is discarded by the
// SDK.
var cliLog *slog.Logger

// getPhone builds the SDK handle from the persistent flags, with environment
// fallbacks for the endpoint URLs.
func getPhone(cmd *cobra.Command) (*phone.Phone, error) {
	pf := rootCmd.PersistentFlags()
	wdaURL, _ := pf.GetString("wda-url")
	if wdaURL == "" {
		wdaURL = os.Getenv("IPHONE_WDA_URL")
	}
	companionURL, _ := pf.GetString("companion-url")
	if companionURL == "" {
		companionURL = os.Getenv("IPHONE_COMPANION_URL")
	}
	timeout, _ := pf.GetDuration("timeout")
	return phone.New(phone.Config{
		WDAEndpoint:       wdaURL,
		CompanionEndpoint: companionURL,
		Timeout:           timeout,
		Logger:            cliLog,
	})
}

// parseCoord parses one coordinate argument, accepting fractions for
// sub-pixel centers like 52.5.
func parseCoord(arg, name string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, arg)
	}
	return v, nil
}

// actionResult is the uniform success object for commands whose effect is
// on the device, not in the output.
type actionResult struct {
	OK     bool    `yaml:"ok" json:"ok"`
	Action string  `yaml:"action" json:"action"`
	X      float64 `yaml:"x,omitempty" json:"x,omitempty"`
	Y      float64 `yaml:"y,omitempty" json:"y,omitempty"`
	Text   string  `yaml:"text,omitempty" json:"text,omitempty"`
	Detail string  `yaml:"detail,omitempty" json:"detail,omitempty"`
}

// Parameter extraction helpers for do-step maps.

func stringParam(params map[string]interface{}, key, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return defaultVal
}

func floatParam(params map[string]interface{}, key string, defaultVal float64) float64 {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	return defaultVal
}

// floatParamPresent distinguishes an absent key from a zero value, since 0
// is a legal coordinate.
func floatParamPresent(params map[string]interface{}, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func intParam(params map[string]interface{}, key string, defaultVal int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case int64:
			return int(n)
		}
	}
	return defaultVal
}

func boolParam(params map[string]interface{}, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

func durationFlagSeconds(cmd *cobra.Command, name string) time.Duration {
	secs, _ := cmd.Flags().GetFloat64(name)
	return time.Duration(secs * float64(time.Second))
}
