package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/iphone-cli/internal/output"
	"github.com/mj1618/iphone-cli/internal/screen"
	"github.com/mj1618/iphone-cli/phone"
)

// DoResult is the output of a batch do command.
type DoResult struct {
	OK        bool                 `yaml:"ok"                 json:"ok"`
	Action    string               `yaml:"action"             json:"action"`
	Steps     int                  `yaml:"steps"              json:"steps"`
	Completed int                  `yaml:"completed"          json:"completed"`
	Error     string               `yaml:"error,omitempty"    json:"error,omitempty"`
	Results   []StepResult         `yaml:"results"            json:"results"`
	Display   []screen.ElementView `yaml:"display,omitempty"  json:"display,omitempty"`
}

// StepResult is the output for a single step within a batch.
type StepResult struct {
	Step    int     `yaml:"step"              json:"step"`
	OK      bool    `yaml:"ok"                json:"ok"`
	Action  string  `yaml:"action"            json:"action"`
	Error   string  `yaml:"error,omitempty"   json:"error,omitempty"`
	X       float64 `yaml:"x,omitempty"       json:"x,omitempty"`
	Y       float64 `yaml:"y,omitempty"       json:"y,omitempty"`
	Text    string  `yaml:"text,omitempty"    json:"text,omitempty"`
	Detail  string  `yaml:"detail,omitempty"  json:"detail,omitempty"`
	Elapsed string  `yaml:"elapsed,omitempty" json:"elapsed,omitempty"`
}

var doCmd = &cobra.Command{
	Use:   "do",
	Short: "Execute multiple actions in a batch",
	Long: `Execute a sequence of actions from a YAML list on stdin.

Each step is an action name with its parameters as a map. Steps execute
sequentially, and by default execution stops on the first error.

Supported step types: tap, type, key, swipe, scroll, scroll-to, wait, launch, open

Example:
  iphone do <<'EOF'
  - launch: { bundle-id: "com.apple.mobilesafari" }
  - tap: { text: "Search" }
  - type: { text: "weather tomorrow" }
  - key: { name: "home" }
  - wait: { ms: 500 }
  EOF`,
	RunE: runDo,
}

func init() {
	rootCmd.AddCommand(doCmd)
	doCmd.Flags().Bool("stop-on-error", true, "Stop execution on first error")
	doCmd.Flags().Bool("display", true, "Collect visible elements after the batch")
}

func runDo(cmd *cobra.Command, args []string) error {
	p, err := getPhone(cmd)
	if err != nil {
		return err
	}

	stopOnError, _ := cmd.Flags().GetBool("stop-on-error")
	withDisplay, _ := cmd.Flags().GetBool("display")

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("no steps provided on stdin, pipe a YAML list of actions")
	}

	var rawSteps []map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &rawSteps); err != nil {
		return fmt.Errorf("failed to parse YAML steps: %w", err)
	}
	if len(rawSteps) == 0 {
		return fmt.Errorf("no steps provided, expected a YAML list of actions")
	}

	results := make([]StepResult, 0, len(rawSteps))
	completed := 0
	hasFailure := false
	var lastErr string

	for i, step := range rawSteps {
		stepNum := i + 1

		if len(step) != 1 {
			errMsg := fmt.Sprintf("step %d: expected exactly one action key, got %d", stepNum, len(step))
			results = append(results, StepResult{Step: stepNum, OK: false, Error: errMsg})
			hasFailure = true
			if stopOnError {
				lastErr = errMsg
				break
			}
			continue
		}

		for action, params := range step {
			result, err := executeStep(cmd.Context(), p, action, params)
			result.Step = stepNum
			if err != nil {
				result.OK = false
				result.Error = err.Error()
				results = append(results, result)
				hasFailure = true
				if stopOnError {
					lastErr = fmt.Sprintf("step %d: %s", stepNum, err.Error())
					goto done
				}
			} else {
				result.OK = true
				completed++
				results = append(results, result)
			}
		}
	}

done:
	// Best-effort view of the screen the batch left behind.
	var display []screen.ElementView
	if withDisplay {
		if els, err := p.Elements(cmd.Context()); err == nil {
			display = screen.Views(els, 0)
		}
	}

	return output.Print(DoResult{
		OK:        !hasFailure,
		Action:    "do",
		Steps:     len(rawSteps),
		Completed: completed,
		Error:     lastErr,
		Results:   results,
		Display:   display,
	})
}

func executeStep(ctx context.Context, p *phone.Phone, action string, params map[string]interface{}) (StepResult, error) {
	switch action {
	case "tap":
		return executeTap(ctx, p, params)
	case "type":
		return executeTypeStep(ctx, p, params)
	case "key":
		return executeKey(ctx, p, params)
	case "swipe":
		return executeSwipe(ctx, p, params)
	case "scroll":
		return executeScrollStep(ctx, p, params)
	case "scroll-to":
		return executeScrollTo(ctx, p, params)
	case "wait", "sleep":
		return executeWait(ctx, params)
	case "launch":
		return executeLaunch(ctx, p, params)
	case "open":
		return executeOpen(ctx, p, params)
	default:
		return StepResult{Action: action}, fmt.Errorf("unknown step type %q (supported: tap, type, key, swipe, scroll, scroll-to, wait, launch, open)", action)
	}
}

func executeTap(ctx context.Context, p *phone.Phone, params map[string]interface{}) (StepResult, error) {
	double := boolParam(params, "double", false)
	action := "tap"
	if double {
		action = "double-tap"
	}
	res := StepResult{Action: action}

	if text := stringParam(params, "text", ""); text != "" {
		hits, err := p.Find(ctx, text, 1)
		if err != nil {
			return res, err
		}
		if len(hits) == 0 {
			return res, fmt.Errorf("no element matching %q", text)
		}
		x, y := hits[0].Center()
		res.X, res.Y = x, y
		res.Detail = hits[0].Label
		if double {
			return res, p.DoubleTap(ctx, x, y)
		}
		return res, p.Tap(ctx, x, y)
	}

	x, okX := floatParamPresent(params, "x")
	y, okY := floatParamPresent(params, "y")
	if !okX || !okY {
		return res, fmt.Errorf("tap needs text or both x and y")
	}
	res.X, res.Y = x, y
	if double {
		return res, p.DoubleTap(ctx, x, y)
	}
	return res, p.Tap(ctx, x, y)
}

func executeTypeStep(ctx context.Context, p *phone.Phone, params map[string]interface{}) (StepResult, error) {
	text := stringParam(params, "text", "")
	clear := boolParam(params, "clear", false)
	res := StepResult{Action: "type", Text: text}
	if text == "" && !clear {
		return res, fmt.Errorf("type needs text")
	}
	if clear {
		if err := p.ClearText(ctx); err != nil {
			return res, err
		}
	}
	if text == "" {
		return res, nil
	}
	return res, p.TypeText(ctx, text)
}

func executeKey(ctx context.Context, p *phone.Phone, params map[string]interface{}) (StepResult, error) {
	name := stringParam(params, "name", "")
	res := StepResult{Action: "key", Text: name}
	if name == "" {
		return res, fmt.Errorf("key needs a name")
	}
	return res, p.PressKey(ctx, name)
}

func executeSwipe(ctx context.Context, p *phone.Phone, params map[string]interface{}) (StepResult, error) {
	res := StepResult{Action: "swipe"}
	x1, ok1 := floatParamPresent(params, "x1")
	y1, ok2 := floatParamPresent(params, "y1")
	x2, ok3 := floatParamPresent(params, "x2")
	y2, ok4 := floatParamPresent(params, "y2")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return res, fmt.Errorf("swipe needs x1, y1, x2, y2")
	}
	seconds := floatParam(params, "duration", 0.5)
	res.X, res.Y = x2, y2
	return res, p.Swipe(ctx, x1, y1, x2, y2, time.Duration(seconds*float64(time.Second)))
}

func executeScrollStep(ctx context.Context, p *phone.Phone, params map[string]interface{}) (StepResult, error) {
	direction := stringParam(params, "direction", "down")
	amount := floatParam(params, "amount", phone.DefaultScrollAmount)
	res := StepResult{Action: "scroll " + direction}
	switch direction {
	case "up":
		return res, p.ScrollUp(ctx, amount)
	case "down":
		return res, p.ScrollDown(ctx, amount)
	default:
		return res, fmt.Errorf("scroll direction must be up or down, got %q", direction)
	}
}

func executeScrollTo(ctx context.Context, p *phone.Phone, params map[string]interface{}) (StepResult, error) {
	text := stringParam(params, "text", "")
	res := StepResult{Action: "scroll-to", Text: text}
	if text == "" {
		return res, fmt.Errorf("scroll-to needs text")
	}
	start := time.Now()
	out, err := p.ScrollTo(ctx, text, phone.ScrollToOptions{
		Tap:        boolParam(params, "tap", false),
		MaxScrolls: intParam(params, "max-scrolls", 0),
	})
	if err != nil {
		return res, err
	}
	x, y := out.Element.Center()
	res.X, res.Y = x, y
	res.Detail = out.Element.Label
	res.Elapsed = time.Since(start).Round(time.Millisecond).String()
	return res, nil
}

func executeWait(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	ms := intParam(params, "ms", 0)
	if ms <= 0 {
		return StepResult{Action: "wait"}, fmt.Errorf("wait needs a positive ms")
	}
	res := StepResult{Action: "wait"}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
	case <-ctx.Done():
		return res, ctx.Err()
	}
	res.Elapsed = fmt.Sprintf("%dms", ms)
	return res, nil
}

func executeLaunch(ctx context.Context, p *phone.Phone, params map[string]interface{}) (StepResult, error) {
	bundleID := stringParam(params, "bundle-id", "")
	res := StepResult{Action: "launch", Text: bundleID}
	if bundleID == "" {
		return res, fmt.Errorf("launch needs a bundle-id")
	}
	return res, p.Launch(ctx, bundleID)
}

func executeOpen(ctx context.Context, p *phone.Phone, params map[string]interface{}) (StepResult, error) {
	url := stringParam(params, "url", "")
	res := StepResult{Action: "open", Text: url}
	if url == "" {
		return res, fmt.Errorf("open needs a url")
	}
	return res, p.OpenURL(ctx, url)
}
