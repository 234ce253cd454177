package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mj1618/iphone-cli/internal/imaging"
	"github.com/mj1618/iphone-cli/internal/screen"
	"github.com/mj1618/iphone-cli/internal/wda"
	"github.com/mj1618/iphone-cli/phone"
)

// mcpMaxElements bounds element lists on MCP responses for token economy.
const mcpMaxElements = 40

// toolResult is the JSON body of a successful action tool call.
type toolResult struct {
	OK     bool    `json:"ok"`
	Action string  `json:"action"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Text   string  `json:"text,omitempty"`
	Detail string  `json:"detail,omitempty"`
}

// jsonText serializes v for an MCP text response, compact and without HTML
// escaping so URLs survive intact.
func jsonText(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf(`{"ok":false,"error":%q}`, err.Error())
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

func argString(params map[string]interface{}, key, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return defaultVal
}

func argFloat(params map[string]interface{}, key string, defaultVal float64) float64 {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return defaultVal
}

// argFloatPresent distinguishes an absent key from a zero value.
func argFloatPresent(params map[string]interface{}, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func argInt(params map[string]interface{}, key string, defaultVal int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return defaultVal
}

func argBool(params map[string]interface{}, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

func (s *Server) handleScreenshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	compress := argBool(params, "compress", true)
	annotate := argBool(params, "annotate", false)

	shot, err := s.phone.Screenshot(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data := shot.PNG
	mimeType := "image/png"

	if annotate {
		els, err := s.cache.elements(ctx, s.phone)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		data, err = imaging.Annotate(data, els, shot.Geometry)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if compress {
		data, err = imaging.Compress(data, imaging.DefaultMaxWidth, imaging.DefaultQuality)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		mimeType = "image/jpeg"
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.ImageContent{
				Type:     "image",
				Data:     base64.StdEncoding.EncodeToString(data),
				MIMEType: mimeType,
			},
		},
	}, nil
}

func (s *Server) handleContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	noShot := argBool(params, "no-screenshot", false)
	maxElements := argInt(params, "max-elements", mcpMaxElements)

	snap, err := s.phone.Context(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// The screenshot rides as image content, so the JSON goes out without it.
	text, err := snap.AgentJSON(false, maxElements)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	content := make([]mcp.Content, 0, 2)
	if !noShot {
		small, err := imaging.Compress(snap.Screenshot, imaging.DefaultMaxWidth, imaging.DefaultQuality)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		content = append(content, mcp.ImageContent{
			Type:     "image",
			Data:     base64.StdEncoding.EncodeToString(small),
			MIMEType: "image/jpeg",
		})
	}
	content = append(content, mcp.TextContent{
		Type: "text",
		Text: string(text),
	})

	return &mcp.CallToolResult{Content: content}, nil
}

func (s *Server) handleTap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	res := toolResult{Action: "tap"}

	if text := argString(params, "text", ""); text != "" {
		hits, err := s.phone.Find(ctx, text, 1)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(hits) == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("no element matching %q", text)), nil
		}
		res.X, res.Y = hits[0].Center()
		res.Detail = hits[0].Label
	} else {
		x, okX := argFloatPresent(params, "x")
		y, okY := argFloatPresent(params, "y")
		if !okX || !okY {
			return mcp.NewToolResultError("tap needs text or both x and y"), nil
		}
		res.X, res.Y = x, y
	}

	if err := s.phone.Tap(ctx, res.X, res.Y); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.invalidate()
	res.OK = true
	return mcp.NewToolResultText(jsonText(res)), nil
}

func (s *Server) handleDoubleTap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	x := argFloat(params, "x", 0)
	y := argFloat(params, "y", 0)
	if err := s.phone.DoubleTap(ctx, x, y); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.invalidate()
	return mcp.NewToolResultText(jsonText(toolResult{OK: true, Action: "double-tap", X: x, Y: y})), nil
}

func (s *Server) handleLongPress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	x := argFloat(params, "x", 0)
	y := argFloat(params, "y", 0)
	seconds := argFloat(params, "duration", 1.0)
	if err := s.phone.LongPress(ctx, x, y, time.Duration(seconds*float64(time.Second))); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.invalidate()
	return mcp.NewToolResultText(jsonText(toolResult{OK: true, Action: "long-press", X: x, Y: y})), nil
}

func (s *Server) handleSwipe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	x1 := argFloat(params, "x1", 0)
	y1 := argFloat(params, "y1", 0)
	x2 := argFloat(params, "x2", 0)
	y2 := argFloat(params, "y2", 0)
	seconds := argFloat(params, "duration", 0.5)
	if err := s.phone.Swipe(ctx, x1, y1, x2, y2, time.Duration(seconds*float64(time.Second))); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.invalidate()
	return mcp.NewToolResultText(jsonText(toolResult{OK: true, Action: "swipe", X: x2, Y: y2})), nil
}

func (s *Server) handleType(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	text := argString(params, "text", "")
	if text == "" {
		return mcp.NewToolResultError("text parameter is required"), nil
	}
	if argBool(params, "clear", false) {
		if err := s.phone.ClearText(ctx); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if err := s.phone.TypeText(ctx, text); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.invalidate()
	return mcp.NewToolResultText(jsonText(toolResult{OK: true, Action: "type", Text: text})), nil
}

func (s *Server) handleKey(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	name := argString(params, "name", "")
	if name == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	if err := s.phone.PressKey(ctx, name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.invalidate()
	return mcp.NewToolResultText(jsonText(toolResult{OK: true, Action: "key", Text: name})), nil
}

func (s *Server) handleElements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	maxElements := argInt(params, "max-elements", mcpMaxElements)

	els, err := s.cache.elements(ctx, s.phone)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	views := screen.Views(els, maxElements)
	if views == nil {
		views = []screen.ElementView{}
	}
	return mcp.NewToolResultText(jsonText(views)), nil
}

func (s *Server) handleFind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	text := argString(params, "text", "")
	if text == "" {
		return mcp.NewToolResultError("text parameter is required"), nil
	}
	limit := argInt(params, "limit", 0)

	hits, err := s.phone.Find(ctx, text, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	views := screen.Views(hits, 0)
	if views == nil {
		views = []screen.ElementView{}
	}
	return mcp.NewToolResultText(jsonText(views)), nil
}

func (s *Server) handleScroll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	direction := argString(params, "direction", "")
	amount := argFloat(params, "amount", phone.DefaultScrollAmount)

	var err error
	switch direction {
	case "up":
		err = s.phone.ScrollUp(ctx, amount)
	case "down":
		err = s.phone.ScrollDown(ctx, amount)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("scroll direction must be up or down, got %q", direction)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.invalidate()
	return mcp.NewToolResultText(jsonText(toolResult{OK: true, Action: "scroll " + direction})), nil
}

func (s *Server) handleScrollTo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	text := argString(params, "text", "")
	if text == "" {
		return mcp.NewToolResultError("text parameter is required"), nil
	}

	res, err := s.phone.ScrollTo(ctx, text, phone.ScrollToOptions{
		Tap:        argBool(params, "tap", false),
		MaxScrolls: argInt(params, "max-scrolls", 0),
	})
	s.cache.invalidate()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(jsonText(res)), nil
}

func (s *Server) handleLaunch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	bundleID := argString(params, "bundle-id", "")
	if bundleID == "" {
		return mcp.NewToolResultError("bundle-id parameter is required"), nil
	}
	if err := s.phone.Launch(ctx, bundleID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.invalidate()
	return mcp.NewToolResultText(jsonText(toolResult{OK: true, Action: "launch", Text: bundleID})), nil
}

func (s *Server) handleKill(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	bundleID := argString(params, "bundle-id", "")
	if bundleID == "" {
		return mcp.NewToolResultError("bundle-id parameter is required"), nil
	}
	wasRunning, err := s.phone.Terminate(ctx, bundleID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.invalidate()
	detail := "was not running"
	if wasRunning {
		detail = "was running"
	}
	return mcp.NewToolResultText(jsonText(toolResult{OK: true, Action: "kill", Text: bundleID, Detail: detail})), nil
}

func (s *Server) handleActiveApp(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	app, err := s.phone.ActiveApp(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(jsonText(app)), nil
}

func (s *Server) handleOpenURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	url := argString(params, "url", "")
	if url == "" {
		return mcp.NewToolResultError("url parameter is required"), nil
	}
	if err := s.phone.OpenURL(ctx, url); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.invalidate()
	return mcp.NewToolResultText(jsonText(toolResult{OK: true, Action: "open", Text: url})), nil
}

func (s *Server) handleAlert(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	action := argString(params, "action", "read")

	switch action {
	case "read":
		text, err := s.phone.Alert(ctx)
		if errors.Is(err, wda.ErrNoAlert) {
			return mcp.NewToolResultText("no alert present"), nil
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(jsonText(toolResult{OK: true, Action: "alert", Text: text})), nil
	case "accept":
		if err := s.phone.AcceptAlert(ctx); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	case "dismiss":
		if err := s.phone.DismissAlert(ctx); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	default:
		return mcp.NewToolResultError(fmt.Sprintf("alert action must be read, accept, or dismiss, got %q", action)), nil
	}
	s.cache.invalidate()
	return mcp.NewToolResultText(jsonText(toolResult{OK: true, Action: "alert " + action})), nil
}

func (s *Server) handleClipboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	action := argString(params, "action", "get")

	switch action {
	case "get":
		text, err := s.phone.Clipboard(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(jsonText(toolResult{OK: true, Action: "clipboard-get", Text: text})), nil
	case "set":
		text := argString(params, "text", "")
		if text == "" {
			return mcp.NewToolResultError("text parameter is required for set"), nil
		}
		if err := s.phone.SetClipboard(ctx, text); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(jsonText(toolResult{OK: true, Action: "clipboard-set"})), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("clipboard action must be get or set, got %q", action)), nil
	}
}

func (s *Server) handleHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	metric := argString(params, "metric", "")
	days := argInt(params, "days", 7)
	limit := argInt(params, "limit", 20)
	c := s.phone.Companion()

	var v any
	var err error
	switch metric {
	case "steps":
		v, err = c.Steps(ctx, days)
	case "heartrate":
		v, err = c.HeartRate(ctx, limit)
	case "sleep":
		v, err = c.Sleep(ctx, days)
	case "workouts":
		v, err = c.Workouts(ctx, days)
	case "summary":
		v, err = c.HealthSummary(ctx)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown health metric %q (use steps, heartrate, sleep, workouts, or summary)", metric)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(jsonText(v)), nil
}

func (s *Server) handleShortcut(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	action := argString(params, "action", "list")
	c := s.phone.Companion()

	switch action {
	case "list":
		shortcuts, err := c.Shortcuts(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(jsonText(shortcuts)), nil
	case "run":
		name := argString(params, "name", "")
		if name == "" {
			return mcp.NewToolResultError("name parameter is required for run"), nil
		}
		res, err := c.RunShortcut(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(jsonText(res)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("shortcut action must be list or run, got %q", action)), nil
	}
}
