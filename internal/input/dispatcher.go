// Package input validates and dispatches gestures. Validation runs against
// the last-known screen geometry before anything touches the wire: a tap
// that cannot land never costs a device round trip.
//
// Public coordinates are screenshot-pixel coordinates. The endpoint wants
// points, so dispatch divides by the geometry's scale. When no geometry is
// known (nothing captured yet), coordinates pass through unvalidated and
// unconverted.
package input

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mj1618/iphone-cli/internal/screen"
	"github.com/mj1618/iphone-cli/internal/wda"
)

// ErrInvalidDuration rejects non-positive gesture durations.
var ErrInvalidDuration = errors.New("duration must be positive")

// OutOfBoundsError rejects a coordinate outside the known screen frame.
type OutOfBoundsError struct {
	X, Y          float64
	Width, Height int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("point (%g, %g) is outside the %dx%d screen", e.X, e.Y, e.Width, e.Height)
}

// Device is the slice of the automation client the dispatcher drives.
type Device interface {
	Tap(ctx context.Context, x, y float64) error
	DoubleTap(ctx context.Context, x, y float64) error
	TouchAndHold(ctx context.Context, x, y float64, d time.Duration) error
	PerformPointerPath(ctx context.Context, steps []wda.PathStep) error
	TypeText(ctx context.Context, text string) error
	ClearText(ctx context.Context) error
	PressHome(ctx context.Context) error
	Lock(ctx context.Context) error
	PressButton(ctx context.Context, name string) error
}

// GeometrySource yields the last-known geometry without device I/O.
type GeometrySource interface {
	Get() (screen.ScreenGeometry, bool)
}

// Dispatcher turns agent intents into wire gestures.
type Dispatcher struct {
	dev Device
	geo GeometrySource
}

// NewDispatcher wires a dispatcher to dev, validating against geo.
func NewDispatcher(dev Device, geo GeometrySource) *Dispatcher {
	return &Dispatcher{dev: dev, geo: geo}
}

// checkPoint validates (x, y) against the known frame and converts it to
// point coordinates. Unknown geometry passes the coordinate through.
func (d *Dispatcher) checkPoint(x, y float64) (float64, float64, error) {
	g, known := d.geo.Get()
	if !known {
		return x, y, nil
	}
	if !g.Contains(x, y) {
		return 0, 0, &OutOfBoundsError{X: x, Y: y, Width: g.Width, Height: g.Height}
	}
	return x / g.Scale, y / g.Scale, nil
}

// Tap touches (x, y).
func (d *Dispatcher) Tap(ctx context.Context, x, y float64) error {
	px, py, err := d.checkPoint(x, y)
	if err != nil {
		return err
	}
	return d.dev.Tap(ctx, px, py)
}

// DoubleTap touches (x, y) twice.
func (d *Dispatcher) DoubleTap(ctx context.Context, x, y float64) error {
	px, py, err := d.checkPoint(x, y)
	if err != nil {
		return err
	}
	return d.dev.DoubleTap(ctx, px, py)
}

// LongPress holds (x, y) for duration.
func (d *Dispatcher) LongPress(ctx context.Context, x, y float64, duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("long-press: %w", ErrInvalidDuration)
	}
	px, py, err := d.checkPoint(x, y)
	if err != nil {
		return err
	}
	return d.dev.TouchAndHold(ctx, px, py, duration)
}

// Swipe drags from (x1, y1) to (x2, y2) over duration, interpolating the
// path linearly in space and time.
func (d *Dispatcher) Swipe(ctx context.Context, x1, y1, x2, y2 float64, duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("swipe: %w", ErrInvalidDuration)
	}
	px1, py1, err := d.checkPoint(x1, y1)
	if err != nil {
		return err
	}
	px2, py2, err := d.checkPoint(x2, y2)
	if err != nil {
		return err
	}
	return d.dev.PerformPointerPath(ctx, Interpolate(px1, py1, px2, py2, duration))
}

// TypeText sends text to the focused element.
func (d *Dispatcher) TypeText(ctx context.Context, text string) error {
	return d.dev.TypeText(ctx, text)
}

// ClearText empties the focused element.
func (d *Dispatcher) ClearText(ctx context.Context) error {
	return d.dev.ClearText(ctx)
}

// PressKey presses a hardware key by name.
func (d *Dispatcher) PressKey(ctx context.Context, name string) error {
	key, err := ParseKey(name)
	if err != nil {
		return err
	}
	switch key {
	case KeyHome:
		return d.dev.PressHome(ctx)
	case KeyLock:
		return d.dev.Lock(ctx)
	default:
		return d.dev.PressButton(ctx, string(key))
	}
}
