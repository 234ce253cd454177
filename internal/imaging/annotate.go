// Package imaging decodes, shrinks, and annotates screenshots. It lives
// outside the core pipelines on purpose: everything below this package
// treats image bytes as opaque.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mj1618/iphone-cli/internal/screen"
)

// Annotate draws each element's bounding box and center coordinates onto
// the screenshot, so a human can eyeball what an agent would tap. Element
// rects are in the capture's pixel frame; if the image disagrees with the
// reported geometry the boxes are scaled to fit.
func Annotate(pngBytes []byte, elements []screen.Element, g screen.ScreenGeometry) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	rgba := toRGBA(src)

	scaleX, scaleY := 1.0, 1.0
	b := rgba.Bounds()
	if g.Width > 0 {
		scaleX = float64(b.Dx()) / float64(g.Width)
	}
	if g.Height > 0 {
		scaleY = float64(b.Dy()) / float64(g.Height)
	}

	boxColor := color.RGBA{R: 255, G: 0, B: 0, A: 255}
	textColor := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor := color.RGBA{R: 0, G: 0, B: 0, A: 200}

	for _, el := range elements {
		x1 := int(el.Rect.X * scaleX)
		y1 := int(el.Rect.Y * scaleY)
		x2 := int((el.Rect.X + el.Rect.Width) * scaleX)
		y2 := int((el.Rect.Y + el.Rect.Height) * scaleY)
		drawRectangle(rgba, x1, y1, x2, y2, boxColor)

		cx, cy := el.Center()
		label := fmt.Sprintf("(%.0f,%.0f)", cx, cy)
		drawTextWithOutline(rgba, label, (x1+x2)/2, (y1+y2)/2, textColor, outlineColor)
	}

	var out bytes.Buffer
	if err := png.Encode(&out, rgba); err != nil {
		return nil, fmt.Errorf("encode annotated screenshot: %w", err)
	}
	return out.Bytes(), nil
}

func toRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

func within(bounds image.Rectangle, x, y int) bool {
	return x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y
}

// drawRectangle draws a one-pixel rectangle outline, clamped to the image.
func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	bounds := img.Bounds()
	if x1 < bounds.Min.X {
		x1 = bounds.Min.X
	}
	if y1 < bounds.Min.Y {
		y1 = bounds.Min.Y
	}
	if x2 > bounds.Max.X {
		x2 = bounds.Max.X
	}
	if y2 > bounds.Max.Y {
		y2 = bounds.Max.Y
	}
	if x2 <= x1 || y2 <= y1 {
		return
	}

	for x := x1; x < x2; x++ {
		if within(bounds, x, y1) {
			img.Set(x, y1, c)
		}
		if within(bounds, x, y2-1) {
			img.Set(x, y2-1, c)
		}
	}
	for y := y1; y < y2; y++ {
		if within(bounds, x1, y) {
			img.Set(x1, y, c)
		}
		if within(bounds, x2-1, y) {
			img.Set(x2-1, y, c)
		}
	}
}

// drawTextWithOutline centers text at (x, y) with a dark outline so it
// stays readable on any background.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, textColor, outlineColor color.Color) {
	// basicfont.Face7x13: 7px advance, 13px tall.
	textWidth := len(text) * 7
	offsetX := x - textWidth/2
	offsetY := y + 13/2

	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			drawString(img, text, offsetX+dx, offsetY+dy, outlineColor)
		}
	}
	drawString(img, text, offsetX, offsetY, textColor)
}

func drawString(img *image.RGBA, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(y * 64),
		},
	}
	d.DrawString(text)
}
