package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/mj1618/iphone-cli/internal/screen"
)

func solidPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 30, B: 46, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func decodeDims(t *testing.T, b []byte) (format string, w, h int) {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return format, img.Bounds().Dx(), img.Bounds().Dy()
}

func TestCompressDownscalesWideImages(t *testing.T) {
	out, err := Compress(solidPNG(t, 800, 600), 390, 60)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	format, w, h := decodeDims(t, out)
	if format != "jpeg" {
		t.Errorf("output format = %s, want jpeg", format)
	}
	if w != 390 || h != 292 {
		t.Errorf("output = %dx%d, want 390x292", w, h)
	}
}

func TestCompressKeepsNarrowImages(t *testing.T) {
	out, err := Compress(solidPNG(t, 300, 200), 390, 60)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	format, w, h := decodeDims(t, out)
	if format != "jpeg" {
		t.Errorf("output format = %s, want jpeg", format)
	}
	if w != 300 || h != 200 {
		t.Errorf("output = %dx%d, want original 300x200", w, h)
	}
}

func TestCompressDefaults(t *testing.T) {
	out, err := Compress(solidPNG(t, 800, 600), 0, 0)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	_, w, _ := decodeDims(t, out)
	if w != DefaultMaxWidth {
		t.Errorf("output width = %d, want default %d", w, DefaultMaxWidth)
	}
}

func TestCompressRejectsGarbage(t *testing.T) {
	if _, err := Compress([]byte("not a png"), 390, 60); err == nil {
		t.Error("garbage input compressed without error")
	}
}

func TestAnnotateDrawsElementBoxes(t *testing.T) {
	g := screen.ScreenGeometry{Width: 100, Height: 200, Scale: 1}
	els := []screen.Element{
		{Type: "Button", Label: "Done", Rect: screen.Rect{X: 10, Y: 20, Width: 40, Height: 30}},
	}

	out, err := Annotate(solidPNG(t, 100, 200), els, g)
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}

	img, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if format != "png" {
		t.Errorf("output format = %s, want png", format)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 200 {
		t.Errorf("output = %dx%d, want unchanged 100x200", img.Bounds().Dx(), img.Bounds().Dy())
	}

	r, gr, b, _ := img.At(10, 20).RGBA()
	if r>>8 != 255 || gr>>8 != 0 || b>>8 != 0 {
		t.Errorf("box corner pixel = (%d, %d, %d), want red", r>>8, gr>>8, b>>8)
	}
}

func TestAnnotateScalesBoxesToImage(t *testing.T) {
	// Geometry says 200x400 but the image is half that; boxes must land at
	// half their reported coordinates.
	g := screen.ScreenGeometry{Width: 200, Height: 400, Scale: 2}
	els := []screen.Element{
		{Type: "Button", Rect: screen.Rect{X: 20, Y: 40, Width: 80, Height: 60}},
	}

	out, err := Annotate(solidPNG(t, 100, 200), els, g)
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}

	r, gr, b, _ := img.At(10, 20).RGBA()
	if r>>8 != 255 || gr>>8 != 0 || b>>8 != 0 {
		t.Errorf("scaled box corner pixel = (%d, %d, %d), want red", r>>8, gr>>8, b>>8)
	}
}

func TestAnnotateRejectsGarbage(t *testing.T) {
	if _, err := Annotate([]byte("not a png"), nil, screen.ScreenGeometry{}); err == nil {
		t.Error("garbage input annotated without error")
	}
}
