package screen

import (
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/mj1618/iphone-cli/internal/wda"
)

// maxValueLen caps element values on agent surfaces; long field contents
// otherwise dwarf the rest of the snapshot.
const maxValueLen = 100

// interactiveTypes is the set of element types an agent can usefully act on
// or read. Everything else is layout chrome.
var interactiveTypes = map[string]bool{
	"Button":          true,
	"TextField":       true,
	"TextView":        true,
	"Switch":          true,
	"Slider":          true,
	"Link":            true,
	"SearchField":     true,
	"SecureTextField": true,
	"Cell":            true,
	"StaticText":      true,
	"Image":           true,
}

// Element is one interactive node after normalization to the pixel frame.
type Element struct {
	Type    string `yaml:"type" json:"type"`
	Label   string `yaml:"label" json:"label"`
	Value   string `yaml:"value,omitempty" json:"value,omitempty"`
	Rect    Rect   `yaml:"rect" json:"rect"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

// Center is the element's midpoint in the pixel frame.
func (e Element) Center() (x, y float64) { return e.Rect.Center() }

// ElementView is the JSON shape elements take on every agent surface.
// Field order is part of the output contract.
type ElementView struct {
	Type   string     `yaml:"type" json:"type"`
	Label  string     `yaml:"label" json:"label"`
	Value  string     `yaml:"value,omitempty" json:"value,omitempty"`
	Center [2]float64 `yaml:"center" json:"center"`
	Rect   Rect       `yaml:"rect" json:"rect"`
}

// View renders the element for output, truncating oversized values.
func (e Element) View() ElementView {
	v := e.Value
	if utf8.RuneCountInString(v) > maxValueLen {
		v = string([]rune(v)[:maxValueLen])
	}
	cx, cy := e.Center()
	return ElementView{
		Type:   e.Type,
		Label:  e.Label,
		Value:  v,
		Center: [2]float64{cx, cy},
		Rect:   e.Rect,
	}
}

// Views maps a slice of elements to their output shape, capped at limit
// when limit > 0.
func Views(els []Element, limit int) []ElementView {
	if limit > 0 && len(els) > limit {
		els = els[:limit]
	}
	out := make([]ElementView, 0, len(els))
	for _, e := range els {
		out = append(out, e.View())
	}
	return out
}

// FlattenInteractive walks the raw tree in document order and keeps the
// nodes worth acting on: interactive type, visible, positive area, at least
// partly inside g's frame. Containers are never emitted, but their children
// are always visited, so an interactive node nested in decorative chrome
// survives.
func FlattenInteractive(root *wda.RawElement, g ScreenGeometry) []Element {
	if root == nil {
		return nil
	}
	var out []Element
	var walk func(n *wda.RawElement)
	walk = func(n *wda.RawElement) {
		if el, ok := interactive(n, g); ok {
			out = append(out, el)
		}
		for i := range n.Children {
			walk(&n.Children[i])
		}
	}
	walk(root)
	return out
}

func interactive(n *wda.RawElement, g ScreenGeometry) (Element, bool) {
	if !interactiveTypes[n.Type] || !bool(n.Visible) {
		return Element{}, false
	}
	raw, ok := nodeRect(n)
	if !ok {
		return Element{}, false
	}
	r := rectFromRaw(raw, g.Scale)
	if r.Area() <= 0 || !r.IntersectsFrame(g) {
		return Element{}, false
	}
	label := n.Label
	if label == "" {
		label = n.Name
	}
	return Element{
		Type:    n.Type,
		Label:   label,
		Value:   string(n.Value),
		Rect:    r,
		Enabled: bool(n.Enabled),
	}, true
}

// nodeRect pulls a node's rect, falling back to the legacy frame string
// some endpoint builds emit instead.
func nodeRect(n *wda.RawElement) (wda.RawRect, bool) {
	if n.Rect != nil {
		return *n.Rect, true
	}
	if n.Frame != "" {
		return parseFrame(n.Frame)
	}
	return wda.RawRect{}, false
}

// frameRe matches the legacy "{{x, y}, {w, h}}" frame string.
var frameRe = regexp.MustCompile(`\{\{([-\d.]+),\s*([-\d.]+)\},\s*\{([-\d.]+),\s*([-\d.]+)\}\}`)

func parseFrame(frame string) (wda.RawRect, bool) {
	m := frameRe.FindStringSubmatch(frame)
	if m == nil {
		return wda.RawRect{}, false
	}
	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		f, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return wda.RawRect{}, false
		}
		vals[i] = f
	}
	return wda.RawRect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, true
}

// FromFound normalizes a predicate-search hit into the pixel frame.
func FromFound(f wda.FoundElement, g ScreenGeometry) Element {
	return Element{
		Type:    f.Type,
		Label:   f.Label,
		Value:   f.Value,
		Rect:    rectFromRaw(f.Rect, g.Scale),
		Enabled: true,
	}
}
