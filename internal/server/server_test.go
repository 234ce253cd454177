package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mj1618/iphone-cli/internal/mock"
	"github.com/mj1618/iphone-cli/internal/wda"
	"github.com/mj1618/iphone-cli/phone"
)

// newTestServer wires a Server to a mock device and companion.
func newTestServer(t *testing.T, dev *mock.Device, cacheTTL time.Duration) *Server {
	t.Helper()
	t.Setenv("TMPDIR", t.TempDir())
	srv := httptest.NewServer(dev.Router())
	t.Cleanup(srv.Close)
	comp := httptest.NewServer(mock.NewCompanion().Router())
	t.Cleanup(comp.Close)
	p, err := phone.New(phone.Config{
		WDAEndpoint:       srv.URL,
		CompanionEndpoint: comp.URL,
		Retry:             wda.RetryPolicy{MaxAttempts: 3, BaseDelay: 5 * time.Millisecond, MaxDelay: 20 * time.Millisecond},
	})
	if err != nil {
		t.Fatalf("new phone: %v", err)
	}
	return New(p, Config{CacheTTL: cacheTTL})
}

func callReq(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

// textOf digs the first text content out of a tool result.
func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("result has no text content")
	return ""
}

func TestArgHelpers(t *testing.T) {
	params := map[string]any{
		"f":    2.5,
		"zero": 0.0,
		"n":    3.0,
		"s":    "hello",
		"b":    true,
	}
	if v, ok := argFloatPresent(params, "zero"); !ok || v != 0 {
		t.Errorf("argFloatPresent(zero) = (%g, %v), want (0, true)", v, ok)
	}
	if _, ok := argFloatPresent(params, "absent"); ok {
		t.Error("argFloatPresent(absent) = true, want false")
	}
	if v := argFloat(params, "f", 0); v != 2.5 {
		t.Errorf("argFloat = %g, want 2.5", v)
	}
	if v := argInt(params, "n", 0); v != 3 {
		t.Errorf("argInt from float = %d, want 3", v)
	}
	if v := argString(params, "s", ""); v != "hello" {
		t.Errorf("argString = %q, want hello", v)
	}
	if !argBool(params, "b", false) {
		t.Error("argBool = false, want true")
	}
	if v := argInt(params, "absent", 7); v != 7 {
		t.Errorf("argInt default = %d, want 7", v)
	}
}

func TestHandleTapRequiresTarget(t *testing.T) {
	s := newTestServer(t, mock.NewDevice(), 0)
	res, err := s.handleTap(context.Background(), callReq(map[string]any{}))
	if err != nil {
		t.Fatalf("handleTap: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result when neither text nor coordinates given")
	}
}

func TestHandleTapByCoordinates(t *testing.T) {
	dev := mock.NewDevice()
	dev.LegacyGesturesOnly = true
	s := newTestServer(t, dev, 0)

	res, err := s.handleTap(context.Background(), callReq(map[string]any{"x": 100.0, "y": 200.0}))
	if err != nil {
		t.Fatalf("handleTap: %v", err)
	}
	if res.IsError {
		t.Fatalf("handleTap errored: %s", textOf(t, res))
	}
	if got := len(dev.CallsTo("/wda/tap")); got != 1 {
		t.Errorf("calls to /wda/tap = %d, want 1", got)
	}
	if !strings.Contains(textOf(t, res), `"ok":true`) {
		t.Errorf("result = %q, want ok true", textOf(t, res))
	}
}

func TestHandleScrollRejectsUnknownDirection(t *testing.T) {
	s := newTestServer(t, mock.NewDevice(), 0)
	res, err := s.handleScroll(context.Background(), callReq(map[string]any{"direction": "sideways"}))
	if err != nil {
		t.Fatalf("handleScroll: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result for unknown direction")
	}
	if !strings.Contains(textOf(t, res), "must be up or down") {
		t.Errorf("error = %q, want direction complaint", textOf(t, res))
	}
}

func TestElementsCacheServesRepeatReads(t *testing.T) {
	dev := mock.NewDevice()
	dev.LegacyGesturesOnly = true
	s := newTestServer(t, dev, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := s.handleElements(ctx, callReq(map[string]any{}))
		if err != nil {
			t.Fatalf("handleElements %d: %v", i, err)
		}
		if res.IsError {
			t.Fatalf("handleElements %d errored: %s", i, textOf(t, res))
		}
	}
	if got := len(dev.CallsTo("/source")); got != 1 {
		t.Errorf("tree reads before invalidation = %d, want 1", got)
	}

	// A gesture moves the screen, so the next read must go to the device.
	if res, err := s.handleTap(ctx, callReq(map[string]any{"x": 10.0, "y": 10.0})); err != nil || res.IsError {
		t.Fatalf("handleTap: %v %v", err, res)
	}
	if res, err := s.handleElements(ctx, callReq(map[string]any{})); err != nil || res.IsError {
		t.Fatalf("handleElements after tap: %v %v", err, res)
	}
	if got := len(dev.CallsTo("/source")); got != 2 {
		t.Errorf("tree reads after invalidation = %d, want 2", got)
	}
}

func TestElementsCacheDisabledAtZeroTTL(t *testing.T) {
	dev := mock.NewDevice()
	s := newTestServer(t, dev, 0)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if res, err := s.handleElements(ctx, callReq(map[string]any{})); err != nil || res.IsError {
			t.Fatalf("handleElements %d: %v %v", i, err, res)
		}
	}
	if got := len(dev.CallsTo("/source")); got != 2 {
		t.Errorf("tree reads = %d, want 2 with caching disabled", got)
	}
}

func TestHandleContextContentShape(t *testing.T) {
	dev := mock.NewDevice()
	s := newTestServer(t, dev, 0)
	ctx := context.Background()

	res, err := s.handleContext(ctx, callReq(map[string]any{}))
	if err != nil {
		t.Fatalf("handleContext: %v", err)
	}
	if res.IsError {
		t.Fatalf("handleContext errored: %s", textOf(t, res))
	}
	if len(res.Content) != 2 {
		t.Fatalf("content items = %d, want image + text", len(res.Content))
	}
	img, ok := res.Content[0].(mcp.ImageContent)
	if !ok {
		t.Fatalf("first content is %T, want ImageContent", res.Content[0])
	}
	if img.MIMEType != "image/jpeg" {
		t.Errorf("MIMEType = %q, want image/jpeg", img.MIMEType)
	}
	if img.Data == "" {
		t.Error("image data is empty")
	}
	text := textOf(t, res)
	if !strings.Contains(text, `"screen_size":"1170x2532"`) {
		t.Errorf("text = %q, want pixel screen_size", text)
	}
	if strings.Contains(text, `"screenshot"`) {
		t.Error("text JSON should not carry the screenshot, it rides as image content")
	}

	res, err = s.handleContext(ctx, callReq(map[string]any{"no-screenshot": true}))
	if err != nil || res.IsError {
		t.Fatalf("handleContext no-screenshot: %v %v", err, res)
	}
	if len(res.Content) != 1 {
		t.Fatalf("content items = %d, want text only", len(res.Content))
	}
}

func TestHandleAlertReadWithoutAlert(t *testing.T) {
	s := newTestServer(t, mock.NewDevice(), 0)
	res, err := s.handleAlert(context.Background(), callReq(map[string]any{}))
	if err != nil {
		t.Fatalf("handleAlert: %v", err)
	}
	if res.IsError {
		t.Fatalf("no-alert read should not be an error result: %s", textOf(t, res))
	}
	if !strings.Contains(textOf(t, res), "no alert") {
		t.Errorf("result = %q, want no-alert notice", textOf(t, res))
	}
}

func TestHandleHealthSummary(t *testing.T) {
	s := newTestServer(t, mock.NewDevice(), 0)
	res, err := s.handleHealth(context.Background(), callReq(map[string]any{"metric": "summary"}))
	if err != nil {
		t.Fatalf("handleHealth: %v", err)
	}
	if res.IsError {
		t.Fatalf("handleHealth errored: %s", textOf(t, res))
	}
	if !strings.Contains(textOf(t, res), "steps_today") {
		t.Errorf("result = %q, want steps_today field", textOf(t, res))
	}
}

func TestHandleHealthUnknownMetric(t *testing.T) {
	s := newTestServer(t, mock.NewDevice(), 0)
	res, err := s.handleHealth(context.Background(), callReq(map[string]any{"metric": "mood"}))
	if err != nil {
		t.Fatalf("handleHealth: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result for unknown metric")
	}
}
