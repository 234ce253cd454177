// Package screen turns raw endpoint data into the coordinate-consistent
// snapshot agents consume: one pixel frame shared by the screenshot, the
// element rects, and every gesture coordinate derived from them.
//
// The endpoint reports element geometry in points and screenshots in pixels.
// Everything leaving this package is normalized to the pixel frame, so a
// center picked off a screenshot taps the right target at any display scale.
package screen

import (
	"fmt"
	"math"
	"strings"

	"github.com/mj1618/iphone-cli/internal/wda"
)

// Orientation is the device rotation at capture time.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

func orientationFromWire(s string) Orientation {
	if strings.Contains(strings.ToUpper(s), "LAND") {
		return Landscape
	}
	return Portrait
}

// ScreenGeometry is the pixel frame of a capture: the screenshot's
// dimensions plus the point-to-pixel scale that produced them.
type ScreenGeometry struct {
	Width       int         `yaml:"width" json:"width"`
	Height      int         `yaml:"height" json:"height"`
	Scale       float64     `yaml:"scale" json:"scale"`
	Orientation Orientation `yaml:"orientation" json:"orientation"`
}

// geometryFromScreen converts the endpoint's point-size report into the
// pixel frame. A missing scale means the endpoint already reports pixels.
func geometryFromScreen(s *wda.Screen) ScreenGeometry {
	scale := s.Scale
	if scale <= 0 {
		scale = 1
	}
	return ScreenGeometry{
		Width:       int(math.Round(s.PointWidth * scale)),
		Height:      int(math.Round(s.PointHeight * scale)),
		Scale:       scale,
		Orientation: orientationFromWire(s.Orientation),
	}
}

// String renders the frame as "WxH".
func (g ScreenGeometry) String() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}

// Known reports whether the geometry describes a real screen.
func (g ScreenGeometry) Known() bool {
	return g.Width > 0 && g.Height > 0
}

// Contains reports whether the pixel coordinate lies on screen.
func (g ScreenGeometry) Contains(x, y float64) bool {
	return x >= 0 && y >= 0 && x < float64(g.Width) && y < float64(g.Height)
}

// Rect is an element rectangle in the pixel frame.
type Rect struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// rectFromRaw scales a point-coordinate wire rect into the pixel frame.
func rectFromRaw(r wda.RawRect, scale float64) Rect {
	if scale <= 0 {
		scale = 1
	}
	return Rect{
		X:      r.X * scale,
		Y:      r.Y * scale,
		Width:  r.Width * scale,
		Height: r.Height * scale,
	}
}

// Center is the exact midpoint, not truncated to whole pixels.
func (r Rect) Center() (x, y float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Area returns the rect's area.
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// IntersectsFrame reports whether any part of the rect lies inside the
// geometry's [0,W)x[0,H) frame.
func (r Rect) IntersectsFrame(g ScreenGeometry) bool {
	return r.X < float64(g.Width) &&
		r.Y < float64(g.Height) &&
		r.X+r.Width > 0 &&
		r.Y+r.Height > 0
}
