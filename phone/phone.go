// Package phone is the public SDK over the device: the automation endpoint
// for screen state and gestures, and the companion app for everything the
// endpoint cannot see (health, contacts, calendars, shortcuts). The CLI and
// the MCP server are both thin layers over this package.
package phone

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mj1618/iphone-cli/internal/companion"
	"github.com/mj1618/iphone-cli/internal/input"
	"github.com/mj1618/iphone-cli/internal/screen"
	"github.com/mj1618/iphone-cli/internal/wda"
)

// Aliases so SDK callers never have to name internal packages.
type (
	// Element is one interactive element in screenshot-pixel coordinates.
	Element = screen.Element
	// ElementView is the compact agent-facing projection of an Element.
	ElementView = screen.ElementView
	// Context is one coherent observation of the screen.
	Context = screen.Context
	// Capture is a screenshot with the geometry that was true when taken.
	Capture = screen.Capture
	// AppInfo identifies the foreground app.
	AppInfo = wda.AppInfo
)

// Config configures a Phone. The zero value talks to the default local
// endpoints.
type Config struct {
	// WDAEndpoint is the automation endpoint base URL.
	WDAEndpoint string
	// CompanionEndpoint is the companion app base URL.
	CompanionEndpoint string
	// Timeout bounds each device operation when the caller's context
	// carries no deadline.
	Timeout time.Duration
	// Retry is the endpoint readiness probe schedule.
	Retry wda.RetryPolicy
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
	// Logger receives transport events. Nil discards.
	Logger *slog.Logger
}

// Phone is a handle on one device. Device operations serialize through the
// underlying client; Phone itself adds no locking and is safe for concurrent
// use.
type Phone struct {
	dev       *wda.Client
	pipeline  *screen.Pipeline
	input     *input.Dispatcher
	companion *companion.Client
	http      *http.Client
}

// New wires a Phone from cfg. It performs no I/O; the first operation
// probes the endpoint.
func New(cfg Config) (*Phone, error) {
	for _, ep := range []string{cfg.WDAEndpoint, cfg.CompanionEndpoint} {
		if ep == "" {
			continue
		}
		if _, err := url.ParseRequestURI(ep); err != nil {
			return nil, fmt.Errorf("invalid endpoint %q: %w", ep, err)
		}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	dev := wda.New(wda.Config{
		Endpoint:   cfg.WDAEndpoint,
		Timeout:    cfg.Timeout,
		Retry:      cfg.Retry,
		HTTPClient: cfg.HTTPClient,
		Logger:     log,
	})
	pipeline := screen.NewPipeline(dev, nil)
	return &Phone{
		dev:      dev,
		pipeline: pipeline,
		input:    input.NewDispatcher(dev, pipeline.Cache()),
		companion: companion.New(companion.Config{
			Endpoint:   cfg.CompanionEndpoint,
			Timeout:    cfg.Timeout,
			HTTPClient: cfg.HTTPClient,
			Logger:     log,
		}),
		http: hc,
	}, nil
}

// Companion returns the typed client for the companion app.
func (p *Phone) Companion() *companion.Client { return p.companion }

// Context builds one coherent observation of the screen: screenshot,
// geometry, foreground app, alert text, and the interactive elements.
func (p *Phone) Context(ctx context.Context) (*Context, error) {
	return p.pipeline.BuildContext(ctx)
}

// Screenshot captures the screen with its geometry.
func (p *Phone) Screenshot(ctx context.Context) (*Capture, error) {
	return p.pipeline.Capture(ctx)
}

// Elements returns the interactive elements currently on screen.
func (p *Phone) Elements(ctx context.Context) ([]Element, error) {
	g, err := p.pipeline.Geometry(ctx)
	if err != nil {
		return nil, err
	}
	return p.pipeline.Elements(ctx, g)
}

// RawTree returns the full decoded element tree, interactive or not.
func (p *Phone) RawTree(ctx context.Context) (*wda.RawElement, error) {
	return p.pipeline.RawTree(ctx)
}

// Find searches labels, names, and values for text and returns up to limit
// normalized matches. Results are remembered so `tap recent` can reuse them.
func (p *Phone) Find(ctx context.Context, text string, limit int) ([]Element, error) {
	els, err := p.pipeline.Find(ctx, text, limit)
	if err != nil {
		return nil, err
	}
	screen.SaveLastFind(text, screen.Views(els, 0))
	return els, nil
}

// Tap touches (x, y) in screenshot-pixel coordinates.
func (p *Phone) Tap(ctx context.Context, x, y float64) error {
	return p.input.Tap(ctx, x, y)
}

// DoubleTap touches (x, y) twice.
func (p *Phone) DoubleTap(ctx context.Context, x, y float64) error {
	return p.input.DoubleTap(ctx, x, y)
}

// TapElement taps the center of el.
func (p *Phone) TapElement(ctx context.Context, el Element) error {
	x, y := el.Center()
	return p.input.Tap(ctx, x, y)
}

// LongPress holds (x, y) for duration.
func (p *Phone) LongPress(ctx context.Context, x, y float64, duration time.Duration) error {
	return p.input.LongPress(ctx, x, y, duration)
}

// Swipe drags from (x1, y1) to (x2, y2) over duration.
func (p *Phone) Swipe(ctx context.Context, x1, y1, x2, y2 float64, duration time.Duration) error {
	return p.input.Swipe(ctx, x1, y1, x2, y2, duration)
}

// TypeText sends text to the focused element.
func (p *Phone) TypeText(ctx context.Context, text string) error {
	return p.input.TypeText(ctx, text)
}

// ClearText empties the focused element.
func (p *Phone) ClearText(ctx context.Context) error {
	return p.input.ClearText(ctx)
}

// PressKey presses a hardware key: home, lock, volumeUp, volumeDown.
func (p *Phone) PressKey(ctx context.Context, name string) error {
	return p.input.PressKey(ctx, name)
}

// Launch starts (or foregrounds) the app with bundleID.
func (p *Phone) Launch(ctx context.Context, bundleID string) error {
	return p.dev.LaunchApp(ctx, bundleID)
}

// Terminate kills the app with bundleID and reports whether it was running.
func (p *Phone) Terminate(ctx context.Context, bundleID string) (bool, error) {
	return p.dev.TerminateApp(ctx, bundleID)
}

// ActiveApp identifies the foreground app.
func (p *Phone) ActiveApp(ctx context.Context) (AppInfo, error) {
	return p.dev.ActiveApp(ctx)
}

// OpenURL opens rawURL on the device, deep links included.
func (p *Phone) OpenURL(ctx context.Context, rawURL string) error {
	return p.dev.OpenURL(ctx, rawURL)
}

// Alert returns the text of the current alert, or wda.ErrNoAlert.
func (p *Phone) Alert(ctx context.Context) (string, error) {
	return p.dev.AlertText(ctx)
}

// AcceptAlert taps the alert's default action.
func (p *Phone) AcceptAlert(ctx context.Context) error {
	return p.dev.AcceptAlert(ctx)
}

// DismissAlert cancels the alert.
func (p *Phone) DismissAlert(ctx context.Context) error {
	return p.dev.DismissAlert(ctx)
}

// Clipboard returns the device pasteboard as plain text.
func (p *Phone) Clipboard(ctx context.Context) (string, error) {
	return p.dev.Clipboard(ctx)
}

// SetClipboard replaces the device pasteboard.
func (p *Phone) SetClipboard(ctx context.Context, text string) error {
	return p.dev.SetClipboard(ctx, text)
}

// Lock locks the device.
func (p *Phone) Lock(ctx context.Context) error { return p.dev.Lock(ctx) }

// Unlock wakes and unlocks the device.
func (p *Phone) Unlock(ctx context.Context) error { return p.dev.Unlock(ctx) }

// Locked reports whether the device is locked.
func (p *Phone) Locked(ctx context.Context) (bool, error) {
	return p.dev.IsLocked(ctx)
}
