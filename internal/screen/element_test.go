package screen

import (
	"strings"
	"testing"

	"github.com/mj1618/iphone-cli/internal/wda"
)

// testTree builds a point-coordinate tree with one of everything the filter
// must decide on: a keeper, an invisible node, a zero-area node, an
// off-screen node, and a container wrapping an interactive child.
func testTree() *wda.RawElement {
	return &wda.RawElement{
		Type: "Application", Name: "Demo", Enabled: true, Visible: true,
		Rect: &wda.RawRect{X: 0, Y: 0, Width: 390, Height: 844},
		Children: []wda.RawElement{
			{Type: "Button", Label: "Done", Enabled: true, Visible: true,
				Rect: &wda.RawRect{X: 50, Y: 10, Width: 100, Height: 15}},
			{Type: "Button", Label: "Hidden", Enabled: true, Visible: false,
				Rect: &wda.RawRect{X: 50, Y: 60, Width: 100, Height: 15}},
			{Type: "Button", Label: "Collapsed", Enabled: true, Visible: true,
				Rect: &wda.RawRect{X: 50, Y: 90, Width: 0, Height: 0}},
			{Type: "Button", Label: "Offscreen", Enabled: true, Visible: true,
				Rect: &wda.RawRect{X: 500, Y: 900, Width: 40, Height: 40}},
			{Type: "Other", Name: "toolbar", Enabled: true, Visible: true,
				Rect: &wda.RawRect{X: 0, Y: 700, Width: 390, Height: 100},
				Children: []wda.RawElement{
					{Type: "TextField", Label: "Search", Value: "query", Enabled: true, Visible: true,
						Rect: &wda.RawRect{X: 20, Y: 720, Width: 200, Height: 30}},
				}},
		},
	}
}

func TestFlattenInteractive(t *testing.T) {
	g := ScreenGeometry{Width: 1170, Height: 2532, Scale: 3, Orientation: Portrait}
	els := FlattenInteractive(testTree(), g)

	if len(els) != 2 {
		t.Fatalf("got %d elements, want 2: %+v", len(els), els)
	}

	done := els[0]
	if done.Type != "Button" || done.Label != "Done" {
		t.Errorf("element 0 = %s %q, want Button Done", done.Type, done.Label)
	}
	want := Rect{X: 150, Y: 30, Width: 300, Height: 45}
	if done.Rect != want {
		t.Errorf("Done rect = %+v, want %+v", done.Rect, want)
	}
	cx, cy := done.Center()
	if cx != 300 || cy != 52.5 {
		t.Errorf("Done center = (%g, %g), want (300, 52.5)", cx, cy)
	}

	search := els[1]
	if search.Type != "TextField" || search.Label != "Search" {
		t.Errorf("element 1 = %s %q, want TextField Search", search.Type, search.Label)
	}
	if search.Value != "query" {
		t.Errorf("Search value = %q, want %q", search.Value, "query")
	}
}

func TestFlattenInteractiveDropReasons(t *testing.T) {
	g := ScreenGeometry{Width: 1170, Height: 2532, Scale: 3}
	els := FlattenInteractive(testTree(), g)

	for _, e := range els {
		switch e.Label {
		case "Hidden":
			t.Error("invisible element survived the filter")
		case "Collapsed":
			t.Error("zero-area element survived the filter")
		case "Offscreen":
			t.Error("off-screen element survived the filter")
		}
		if e.Type == "Other" || e.Type == "Application" {
			t.Errorf("container type %s survived the filter", e.Type)
		}
	}
}

func TestFlattenInteractiveNilRoot(t *testing.T) {
	if els := FlattenInteractive(nil, ScreenGeometry{Width: 100, Height: 100, Scale: 1}); els != nil {
		t.Errorf("nil root produced %d elements, want none", len(els))
	}
}

func TestFlattenInteractiveFrameStringFallback(t *testing.T) {
	root := &wda.RawElement{
		Type: "Application", Enabled: true, Visible: true,
		Rect: &wda.RawRect{X: 0, Y: 0, Width: 390, Height: 844},
		Children: []wda.RawElement{
			{Type: "Button", Label: "Legacy", Enabled: true, Visible: true,
				Frame: "{{50, 10}, {100, 15}}"},
		},
	}
	g := ScreenGeometry{Width: 1170, Height: 2532, Scale: 3}

	els := FlattenInteractive(root, g)
	if len(els) != 1 {
		t.Fatalf("got %d elements, want 1", len(els))
	}
	want := Rect{X: 150, Y: 30, Width: 300, Height: 45}
	if els[0].Rect != want {
		t.Errorf("frame-string rect = %+v, want %+v", els[0].Rect, want)
	}
}

func TestFlattenInteractiveLabelFallsBackToName(t *testing.T) {
	root := &wda.RawElement{
		Type: "Button", Name: "submit", Enabled: true, Visible: true,
		Rect: &wda.RawRect{X: 10, Y: 10, Width: 50, Height: 20},
	}
	els := FlattenInteractive(root, ScreenGeometry{Width: 390, Height: 844, Scale: 1})
	if len(els) != 1 {
		t.Fatalf("got %d elements, want 1", len(els))
	}
	if els[0].Label != "submit" {
		t.Errorf("label = %q, want name fallback %q", els[0].Label, "submit")
	}
}

func TestParseFrame(t *testing.T) {
	tests := []struct {
		in     string
		want   wda.RawRect
		wantOK bool
	}{
		{"{{50, 10}, {100, 15}}", wda.RawRect{X: 50, Y: 10, Width: 100, Height: 15}, true},
		{"{{-4.5, 0}, {390, 844}}", wda.RawRect{X: -4.5, Y: 0, Width: 390, Height: 844}, true},
		{"{{0,0},{10,10}}", wda.RawRect{Width: 10, Height: 10}, true},
		{"not a frame", wda.RawRect{}, false},
		{"", wda.RawRect{}, false},
	}

	for _, tt := range tests {
		got, ok := parseFrame(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseFrame(%q) = %+v, %v, want %+v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestViewTruncatesLongValues(t *testing.T) {
	e := Element{
		Type:  "TextView",
		Label: "Notes",
		Value: strings.Repeat("é", 150),
		Rect:  Rect{X: 0, Y: 0, Width: 100, Height: 100},
	}

	v := e.View()
	if got := len([]rune(v.Value)); got != 100 {
		t.Errorf("truncated value has %d runes, want 100", got)
	}
	if !strings.HasPrefix(e.Value, v.Value) {
		t.Error("truncated value is not a prefix of the original")
	}
}

func TestViewsCapsAtLimit(t *testing.T) {
	els := make([]Element, 60)
	for i := range els {
		els[i] = Element{Type: "Cell", Rect: Rect{Width: 10, Height: 10}}
	}

	if got := len(Views(els, 50)); got != 50 {
		t.Errorf("Views capped at %d, want 50", got)
	}
	if got := len(Views(els, 0)); got != 60 {
		t.Errorf("Views with no limit = %d, want 60", got)
	}
}

func TestFromFound(t *testing.T) {
	f := wda.FoundElement{
		Type:  "Button",
		Label: "Sign In",
		Rect:  wda.RawRect{X: 50, Y: 10, Width: 100, Height: 15},
	}
	g := ScreenGeometry{Width: 1170, Height: 2532, Scale: 3}

	e := FromFound(f, g)
	want := Rect{X: 150, Y: 30, Width: 300, Height: 45}
	if e.Rect != want {
		t.Errorf("FromFound rect = %+v, want %+v", e.Rect, want)
	}
	if e.Type != "Button" || e.Label != "Sign In" {
		t.Errorf("FromFound = %s %q, want Button Sign In", e.Type, e.Label)
	}
}
