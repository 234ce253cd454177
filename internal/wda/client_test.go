package wda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mj1618/iphone-cli/internal/mock"
)

// newTestClient mounts dev on an httptest server and returns a client with a
// fast retry schedule so probe tests do not crawl.
func newTestClient(t *testing.T, dev *mock.Device) *Client {
	t.Helper()
	srv := httptest.NewServer(dev.Router())
	t.Cleanup(srv.Close)
	return New(Config{
		Endpoint: srv.URL,
		Retry: RetryPolicy{
			MaxAttempts: 4,
			BaseDelay:   5 * time.Millisecond,
			MaxDelay:    20 * time.Millisecond,
		},
	})
}

// countCalls counts recorded calls matching method and exact path.
func countCalls(dev *mock.Device, method, path string) int {
	n := 0
	for _, c := range dev.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func TestTapCreatesSessionLazilyAndReusesIt(t *testing.T) {
	dev := mock.NewDevice()
	c := newTestClient(t, dev)
	ctx := context.Background()

	if err := c.Tap(ctx, 100, 200); err != nil {
		t.Fatalf("first tap: %v", err)
	}
	if err := c.Tap(ctx, 100, 200); err != nil {
		t.Fatalf("second tap: %v", err)
	}

	if got := countCalls(dev, "POST", "/session"); got != 1 {
		t.Errorf("session created %d times, want 1", got)
	}
	if got := len(dev.CallsTo("/actions")); got != 2 {
		t.Errorf("got %d action calls, want 2", got)
	}
	if got := c.State(); got != StateReady {
		t.Errorf("state = %v, want %v", got, StateReady)
	}
}

func TestReadinessProbeRetriesUntilReady(t *testing.T) {
	dev := mock.NewDevice()
	dev.FailProbes = 2
	c := newTestClient(t, dev)

	if err := c.Tap(context.Background(), 100, 200); err != nil {
		t.Fatalf("tap after slow start: %v", err)
	}

	if got := len(dev.CallsTo("/status")); got != 3 {
		t.Errorf("got %d probes, want 3 (two not-ready, one ready)", got)
	}
	if got := c.State(); got != StateReady {
		t.Errorf("state = %v, want %v", got, StateReady)
	}
}

func TestUnreachableAfterExhaustingRetries(t *testing.T) {
	dev := mock.NewDevice()
	dev.FailProbes = 100
	c := newTestClient(t, dev)

	err := c.Tap(context.Background(), 100, 200)
	if err == nil {
		t.Fatal("tap against never-ready endpoint returned nil error")
	}
	var ue *UnreachableError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v (%T), want UnreachableError", err, err)
	}
	if ue.Attempts != 4 {
		t.Errorf("UnreachableError.Attempts = %d, want 4", ue.Attempts)
	}
	if got := c.State(); got != StateUnreachable {
		t.Errorf("state = %v, want %v", got, StateUnreachable)
	}
	if got := countCalls(dev, "POST", "/session"); got != 0 {
		t.Errorf("session created %d times before readiness, want 0", got)
	}
}

func TestOperationsDoNotOverlap(t *testing.T) {
	dev := mock.NewDevice()
	dev.DelayPath("/actions", 30*time.Millisecond)
	c := newTestClient(t, dev)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Tap(context.Background(), 100, 200); err != nil {
				t.Errorf("concurrent tap: %v", err)
			}
		}()
	}
	wg.Wait()

	calls := dev.CallsTo("/actions")
	if len(calls) != 3 {
		t.Fatalf("got %d action calls, want 3", len(calls))
	}
	for i := 1; i < len(calls); i++ {
		if calls[i].Start.Before(calls[i-1].End) {
			t.Errorf("call %d started %s before call %d finished",
				i, calls[i-1].End.Sub(calls[i].Start), i-1)
		}
	}
}

func TestQueuedOperationAbandonsWaitOnCancel(t *testing.T) {
	dev := mock.NewDevice()
	dev.DelayPath("/actions", 100*time.Millisecond)
	c := newTestClient(t, dev)

	started := make(chan struct{})
	go func() {
		close(started)
		_ = c.Tap(context.Background(), 100, 200)
	}()
	<-started
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	begin := time.Now()
	err := c.Tap(ctx, 50, 50)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("queued tap error = %v, want context.Canceled", err)
	}
	if waited := time.Since(begin); waited > 80*time.Millisecond {
		t.Errorf("queued tap held the wait %s after cancel", waited)
	}
}

func TestTimeoutDropsStateAndNextOperationReprobes(t *testing.T) {
	dev := mock.NewDevice()
	dev.DelayPath("/screenshot", 250*time.Millisecond)
	c := newTestClient(t, dev)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Screenshot(ctx)
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v (%T), want TimeoutError", err, err)
	}
	if got := c.State(); got != StateUnknown {
		t.Fatalf("state after timeout = %v, want %v", got, StateUnknown)
	}

	// Let the abandoned handler finish recording before the next operation
	// so call order stays readable.
	deadline := time.Now().Add(2 * time.Second)
	for len(dev.CallsTo("/screenshot")) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	dev.DelayPath("/screenshot", 0)
	png, err := c.Screenshot(context.Background())
	if err != nil {
		t.Fatalf("screenshot after recovery: %v", err)
	}
	if len(png) == 0 {
		t.Error("screenshot after recovery returned no bytes")
	}

	// The retry must have re-verified readiness before touching the wire.
	probes := dev.CallsTo("/status")
	if len(probes) != 2 {
		t.Fatalf("got %d probes, want 2 (one per operation)", len(probes))
	}
	shots := dev.CallsTo("/screenshot")
	if len(shots) != 2 {
		t.Fatalf("got %d screenshot calls, want 2", len(shots))
	}
	if probes[1].End.After(shots[1].Start) {
		t.Error("second operation hit /screenshot before its readiness probe finished")
	}
}

func TestStaleSessionRecreatedExactlyOnce(t *testing.T) {
	dev := mock.NewDevice()
	c := newTestClient(t, dev)
	ctx := context.Background()

	if err := c.Tap(ctx, 100, 200); err != nil {
		t.Fatalf("tap: %v", err)
	}
	dev.InvalidateSessions()

	if err := c.Tap(ctx, 100, 200); err != nil {
		t.Fatalf("tap after session invalidation: %v", err)
	}
	if got := countCalls(dev, "POST", "/session"); got != 2 {
		t.Errorf("session created %d times, want 2 (initial + one recreate)", got)
	}
}

func TestStaleSessionRetryDoesNotLoop(t *testing.T) {
	dev := mock.NewDevice()
	c := newTestClient(t, dev)
	ctx := context.Background()

	if err := c.Tap(ctx, 100, 200); err != nil {
		t.Fatalf("tap: %v", err)
	}
	dev.SetRejectSessions(true)

	err := c.Tap(ctx, 100, 200)
	var re *RemoteError
	if !errors.As(err, &re) || re.Code != "invalid session id" {
		t.Fatalf("error = %v, want invalid session id RemoteError", err)
	}
	// Initial session plus a single recreate attempt; persistent rejection
	// must not turn into a create/retry loop.
	if got := countCalls(dev, "POST", "/session"); got != 2 {
		t.Errorf("session created %d times, want 2", got)
	}
}

func TestRemoteErrorLeavesStateReady(t *testing.T) {
	dev := mock.NewDevice()
	c := newTestClient(t, dev)
	ctx := context.Background()

	_, err := c.AlertText(ctx)
	if !errors.Is(err, ErrNoAlert) {
		t.Fatalf("alert text error = %v, want ErrNoAlert", err)
	}
	if got := c.State(); got != StateReady {
		t.Errorf("state after remote error = %v, want %v", got, StateReady)
	}
}

func TestCaptureScreenFusesImageAndGeometry(t *testing.T) {
	dev := mock.NewDevice()
	c := newTestClient(t, dev)

	scr, err := c.CaptureScreen(context.Background())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if !bytes.Equal(scr.PNG, dev.Screenshot) {
		t.Error("captured PNG does not match the device screenshot")
	}
	if scr.PointWidth != 390 || scr.PointHeight != 844 {
		t.Errorf("point size = %gx%g, want 390x844", scr.PointWidth, scr.PointHeight)
	}
	if scr.Scale != 3 {
		t.Errorf("scale = %g, want 3", scr.Scale)
	}
	if scr.Orientation != "PORTRAIT" {
		t.Errorf("orientation = %q, want PORTRAIT", scr.Orientation)
	}
	if got := len(dev.CallsTo("/status")); got != 1 {
		t.Errorf("capture probed %d times, want 1 (image and geometry share one operation)", got)
	}
}

func TestLegacyTapFallback(t *testing.T) {
	dev := mock.NewDevice()
	dev.LegacyGesturesOnly = true
	c := newTestClient(t, dev)

	if err := c.Tap(context.Background(), 120, 240); err != nil {
		t.Fatalf("tap with legacy endpoint: %v", err)
	}
	if got := len(dev.CallsTo("/actions")); got != 1 {
		t.Errorf("got %d actions attempts, want 1", got)
	}
	taps := dev.CallsTo("/wda/tap")
	if len(taps) != 1 {
		t.Fatalf("got %d legacy tap calls, want 1", len(taps))
	}
	var body struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(taps[0].Body, &body); err != nil {
		t.Fatalf("decode legacy tap body: %v", err)
	}
	if body.X != 120 || body.Y != 240 {
		t.Errorf("legacy tap at (%g, %g), want (120, 240)", body.X, body.Y)
	}
}

func TestLegacySwipeFallbackSumsDuration(t *testing.T) {
	dev := mock.NewDevice()
	dev.LegacyGesturesOnly = true
	c := newTestClient(t, dev)

	steps := []PathStep{
		{X: 100, Y: 400},
		{X: 100, Y: 300, Duration: 100 * time.Millisecond},
		{X: 100, Y: 200, Duration: 150 * time.Millisecond},
	}
	if err := c.PerformPointerPath(context.Background(), steps); err != nil {
		t.Fatalf("pointer path with legacy endpoint: %v", err)
	}

	drags := dev.CallsTo("/wda/dragfromtoforduration")
	if len(drags) != 1 {
		t.Fatalf("got %d drag calls, want 1", len(drags))
	}
	var body struct {
		FromX    float64 `json:"fromX"`
		FromY    float64 `json:"fromY"`
		ToX      float64 `json:"toX"`
		ToY      float64 `json:"toY"`
		Duration float64 `json:"duration"`
	}
	if err := json.Unmarshal(drags[0].Body, &body); err != nil {
		t.Fatalf("decode drag body: %v", err)
	}
	if body.FromX != 100 || body.FromY != 400 || body.ToX != 100 || body.ToY != 200 {
		t.Errorf("drag (%g,%g)->(%g,%g), want (100,400)->(100,200)",
			body.FromX, body.FromY, body.ToX, body.ToY)
	}
	if body.Duration != 0.25 {
		t.Errorf("drag duration = %g, want 0.25", body.Duration)
	}
}

func TestPerformPointerPathRejectsShortPaths(t *testing.T) {
	dev := mock.NewDevice()
	c := newTestClient(t, dev)

	err := c.PerformPointerPath(context.Background(), []PathStep{{X: 1, Y: 1}})
	if err == nil {
		t.Fatal("single-step path accepted, want error")
	}
	if got := len(dev.Calls()); got != 0 {
		t.Errorf("short path touched the wire %d times, want 0", got)
	}
}

func TestTypeTextSendsIndividualRunes(t *testing.T) {
	dev := mock.NewDevice()
	c := newTestClient(t, dev)

	text := "héllo\n"
	if err := c.TypeText(context.Background(), text); err != nil {
		t.Fatalf("type: %v", err)
	}
	if got := dev.TypedText(); got != text {
		t.Errorf("device received %q, want %q", got, text)
	}

	keys := dev.CallsTo("/wda/keys")
	if len(keys) != 1 {
		t.Fatalf("got %d keys calls, want 1", len(keys))
	}
	var body struct {
		Value []string `json:"value"`
	}
	if err := json.Unmarshal(keys[0].Body, &body); err != nil {
		t.Fatalf("decode keys body: %v", err)
	}
	if len(body.Value) != 6 {
		t.Errorf("sent %d key entries, want 6 (one per rune)", len(body.Value))
	}
}

func TestTypeTextWithoutKeyboard(t *testing.T) {
	dev := mock.NewDevice()
	dev.NoKeyboard = true
	c := newTestClient(t, dev)

	err := c.TypeText(context.Background(), "hello")
	if !errors.Is(err, ErrNoFocusedElement) {
		t.Fatalf("type error = %v, want ErrNoFocusedElement", err)
	}
}

func TestTerminateAppReportsWasRunning(t *testing.T) {
	dev := mock.NewDevice()
	c := newTestClient(t, dev)
	ctx := context.Background()

	was, err := c.TerminateApp(ctx, "com.example.demo")
	if err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if !was {
		t.Error("terminate of running app reported wasRunning=false")
	}

	was, err = c.TerminateApp(ctx, "com.example.demo")
	if err != nil {
		t.Fatalf("second terminate: %v", err)
	}
	if was {
		t.Error("terminate of stopped app reported wasRunning=true")
	}
}

func TestClipboardRoundTrip(t *testing.T) {
	dev := mock.NewDevice()
	c := newTestClient(t, dev)
	ctx := context.Background()

	if err := c.SetClipboard(ctx, "hello clipboard"); err != nil {
		t.Fatalf("set clipboard: %v", err)
	}
	got, err := c.Clipboard(ctx)
	if err != nil {
		t.Fatalf("clipboard: %v", err)
	}
	if got != "hello clipboard" {
		t.Errorf("clipboard = %q, want %q", got, "hello clipboard")
	}
}

func TestLockUnlock(t *testing.T) {
	dev := mock.NewDevice()
	c := newTestClient(t, dev)
	ctx := context.Background()

	if err := c.Lock(ctx); err != nil {
		t.Fatalf("lock: %v", err)
	}
	locked, err := c.IsLocked(ctx)
	if err != nil {
		t.Fatalf("locked query: %v", err)
	}
	if !locked {
		t.Error("device not locked after Lock")
	}

	if err := c.Unlock(ctx); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	locked, err = c.IsLocked(ctx)
	if err != nil {
		t.Fatalf("locked query: %v", err)
	}
	if locked {
		t.Error("device still locked after Unlock")
	}
}

func TestFindByTextResolvesHits(t *testing.T) {
	dev := mock.NewDevice()
	dev.FindHits = []mock.FindHit{
		{Label: "Sign In", Type: "Button", Rect: mock.TreeRect{X: 50, Y: 10, Width: 100, Height: 15}},
		{Label: "Sign Up", Value: "new", Type: "Link", Rect: mock.TreeRect{X: 50, Y: 40, Width: 100, Height: 15}},
	}
	c := newTestClient(t, dev)

	found, err := c.FindByText(context.Background(), "sign", 10)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("got %d hits, want 2", len(found))
	}
	if found[0].Label != "Sign In" || found[0].Type != "Button" {
		t.Errorf("hit 0 = %+v, want Sign In Button", found[0])
	}
	if found[0].Rect.X != 50 || found[0].Rect.Width != 100 {
		t.Errorf("hit 0 rect = %+v, want x=50 width=100", found[0].Rect)
	}
	if found[1].Value != "new" {
		t.Errorf("hit 1 value = %q, want %q", found[1].Value, "new")
	}
}

func TestFindByTextHonorsLimit(t *testing.T) {
	dev := mock.NewDevice()
	for i := 0; i < 5; i++ {
		dev.FindHits = append(dev.FindHits, mock.FindHit{
			Label: "Row", Type: "Cell",
			Rect: mock.TreeRect{X: 0, Y: float64(i * 50), Width: 390, Height: 44},
		})
	}
	c := newTestClient(t, dev)

	found, err := c.FindByText(context.Background(), "row", 2)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("got %d hits, want 2", len(found))
	}
}

func TestProbeCanceledDuringBackoff(t *testing.T) {
	dev := mock.NewDevice()
	dev.FailProbes = 100
	srv := httptest.NewServer(dev.Router())
	t.Cleanup(srv.Close)
	c := New(Config{
		Endpoint: srv.URL,
		Retry: RetryPolicy{
			MaxAttempts: 5,
			BaseDelay:   200 * time.Millisecond,
			MaxDelay:    time.Second,
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := c.Tap(ctx, 100, 200)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("tap error = %v, want context.Canceled", err)
	}
	if got := c.State(); got != StateUnknown {
		t.Errorf("state after canceled probe = %v, want %v", got, StateUnknown)
	}
}
