package screen

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const geometryTTL = 10 * time.Minute

// GeometryCache remembers the last observed screen geometry so gesture
// validation can run without a device round trip. It mirrors to a scratch
// file because CLI invocations are separate processes: the geometry learned
// by `iphone context` has to survive into the `iphone tap` that follows.
//
// The cache is advisory. A rotation between invocations goes unnoticed
// until the next capture, which is why entries expire.
type GeometryCache struct {
	mu   sync.Mutex
	g    ScreenGeometry
	at   time.Time
	path string
	ttl  time.Duration
}

// NewGeometryCache returns the default cache backed by a file in the
// system temp directory.
func NewGeometryCache() *GeometryCache {
	return &GeometryCache{
		path: filepath.Join(os.TempDir(), "iphone-cli-geometry.json"),
		ttl:  geometryTTL,
	}
}

// NewGeometryCacheAt returns a cache backed by an explicit path; tests use
// it to avoid sharing global scratch state.
func NewGeometryCacheAt(path string, ttl time.Duration) *GeometryCache {
	if ttl <= 0 {
		ttl = geometryTTL
	}
	return &GeometryCache{path: path, ttl: ttl}
}

type geometryRecord struct {
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Scale       float64     `json:"scale"`
	Orientation Orientation `json:"orientation"`
	CapturedAt  time.Time   `json:"captured_at"`
}

// Put stores g in memory and best-effort on disk.
func (c *GeometryCache) Put(g ScreenGeometry) {
	if !g.Known() {
		return
	}
	now := time.Now()
	c.mu.Lock()
	c.g = g
	c.at = now
	path := c.path
	c.mu.Unlock()

	if path == "" {
		return
	}
	rec := geometryRecord{
		Width:       g.Width,
		Height:      g.Height,
		Scale:       g.Scale,
		Orientation: g.Orientation,
		CapturedAt:  now,
	}
	buf, err := json.Marshal(rec)
	if err != nil {
		return
	}
	_ = os.WriteFile(path, buf, 0o644)
}

// Get returns the cached geometry if a fresh entry exists in memory or on
// disk.
func (c *GeometryCache) Get() (ScreenGeometry, bool) {
	c.mu.Lock()
	g, at, path := c.g, c.at, c.path
	ttl := c.ttl
	c.mu.Unlock()

	if g.Known() && time.Since(at) < ttl {
		return g, true
	}
	if path == "" {
		return ScreenGeometry{}, false
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return ScreenGeometry{}, false
	}
	var rec geometryRecord
	if err := json.Unmarshal(buf, &rec); err != nil {
		return ScreenGeometry{}, false
	}
	if time.Since(rec.CapturedAt) >= ttl {
		return ScreenGeometry{}, false
	}
	g = ScreenGeometry{
		Width:       rec.Width,
		Height:      rec.Height,
		Scale:       rec.Scale,
		Orientation: rec.Orientation,
	}
	if !g.Known() {
		return ScreenGeometry{}, false
	}
	c.mu.Lock()
	c.g = g
	c.at = rec.CapturedAt
	c.mu.Unlock()
	return g, true
}
