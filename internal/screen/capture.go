package screen

import (
	"context"
	"time"

	"github.com/mj1618/iphone-cli/internal/wda"
)

// Device is the slice of the automation client the pipelines use.
type Device interface {
	CaptureScreen(ctx context.Context) (*wda.Screen, error)
	ScreenInfo(ctx context.Context) (*wda.Screen, error)
	Source(ctx context.Context) (*wda.RawElement, error)
	ActiveApp(ctx context.Context) (wda.AppInfo, error)
	AlertText(ctx context.Context) (string, error)
	FindByText(ctx context.Context, text string, limit int) ([]wda.FoundElement, error)
}

// Pipeline fuses the capture, element, and context flows over one device.
// Every successful capture refreshes the geometry cache that gesture
// validation reads.
type Pipeline struct {
	dev   Device
	cache *GeometryCache
}

// NewPipeline wires a pipeline to dev. A nil cache gets the default
// file-backed one.
func NewPipeline(dev Device, cache *GeometryCache) *Pipeline {
	if cache == nil {
		cache = NewGeometryCache()
	}
	return &Pipeline{dev: dev, cache: cache}
}

// Cache exposes the geometry cache so gesture dispatch can share it.
func (p *Pipeline) Cache() *GeometryCache { return p.cache }

// Capture is one screenshot with the geometry that was true when it was
// taken. The PNG bytes are opaque here; the imaging package decodes them.
type Capture struct {
	PNG      []byte
	Geometry ScreenGeometry
	Taken    time.Time
}

// Capture grabs the screenshot and geometry as a single device operation,
// so a rotation cannot slip between them.
func (p *Pipeline) Capture(ctx context.Context) (*Capture, error) {
	scr, err := p.dev.CaptureScreen(ctx)
	if err != nil {
		return nil, &CaptureError{Stage: "screenshot", Err: err}
	}
	g := geometryFromScreen(scr)
	p.cache.Put(g)
	return &Capture{PNG: scr.PNG, Geometry: g, Taken: time.Now()}, nil
}

// Geometry returns the current pixel frame, preferring the cache and
// falling back to one device query.
func (p *Pipeline) Geometry(ctx context.Context) (ScreenGeometry, error) {
	if g, ok := p.cache.Get(); ok {
		return g, nil
	}
	scr, err := p.dev.ScreenInfo(ctx)
	if err != nil {
		return ScreenGeometry{}, &CaptureError{Stage: "geometry", Err: err}
	}
	g := geometryFromScreen(scr)
	p.cache.Put(g)
	return g, nil
}
