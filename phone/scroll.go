package phone

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultScrollAmount is the fraction of the screen height one scroll
	// moves when the caller does not say.
	DefaultScrollAmount = 0.5
	// DefaultMaxScrolls bounds a scroll-to search.
	DefaultMaxScrolls = 15

	// Gesture endpoints stay inside the middle 70% of the frame so they
	// never land on the system gesture areas at the edges.
	maxScrollAmount = 0.7
	minScrollAmount = 0.05

	scrollDuration = 400 * time.Millisecond
)

// ErrNotFound means a scroll-to search exhausted its attempts without the
// target entering the visible band.
var ErrNotFound = errors.New("no element matched")

// ScrollUp moves toward the top of the content by amount (fraction of the
// screen height, 0 for the default).
func (p *Phone) ScrollUp(ctx context.Context, amount float64) error {
	return p.scroll(ctx, amount, 1)
}

// ScrollDown reveals content below by amount (fraction of the screen
// height, 0 for the default).
func (p *Phone) ScrollDown(ctx context.Context, amount float64) error {
	return p.scroll(ctx, amount, -1)
}

// scroll drags vertically through the horizontal center of the screen.
// dir +1 drags the finger downward (content moves down, scrolling up);
// -1 drags upward.
func (p *Phone) scroll(ctx context.Context, amount, dir float64) error {
	if amount == 0 {
		amount = DefaultScrollAmount
	}
	if amount < minScrollAmount {
		amount = minScrollAmount
	}
	if amount > maxScrollAmount {
		amount = maxScrollAmount
	}
	g, err := p.pipeline.Geometry(ctx)
	if err != nil {
		return err
	}
	w, h := float64(g.Width), float64(g.Height)
	x := w / 2
	y1 := h/2 - dir*amount*h/2
	y2 := h/2 + dir*amount*h/2
	return p.input.Swipe(ctx, x, y1, x, y2, scrollDuration)
}

// ScrollToOptions tunes a ScrollTo search. The zero value searches without
// tapping, bounded by DefaultMaxScrolls.
type ScrollToOptions struct {
	// Tap touches the element once it is inside the visible band.
	Tap bool
	// MaxScrolls bounds the number of scroll gestures; 0 means the default.
	MaxScrolls int
}

// ScrollToResult reports what a ScrollTo search found and did.
type ScrollToResult struct {
	Element Element `yaml:"element" json:"element"`
	Scrolls int     `yaml:"scrolls" json:"scrolls"`
	Tapped  bool    `yaml:"tapped,omitempty" json:"tapped,omitempty"`
}

// ScrollTo scrolls until an element matching text sits inside the middle
// half of the screen. A match above the band scrolls up to bring it down, a
// match below scrolls down, and no match at all explores downward. The
// search fails with ErrNotFound once MaxScrolls is exhausted.
func (p *Phone) ScrollTo(ctx context.Context, text string, opts ScrollToOptions) (*ScrollToResult, error) {
	maxScrolls := opts.MaxScrolls
	if maxScrolls <= 0 {
		maxScrolls = DefaultMaxScrolls
	}
	for scrolls := 0; ; scrolls++ {
		els, err := p.Find(ctx, text, 1)
		if err != nil {
			return nil, err
		}
		scroll := func(ctx context.Context) error { return p.ScrollDown(ctx, DefaultScrollAmount) }
		if len(els) > 0 {
			el := els[0]
			g, err := p.pipeline.Geometry(ctx)
			if err != nil {
				return nil, err
			}
			h := float64(g.Height)
			_, cy := el.Center()
			top, bottom := h/4, 3*h/4
			switch {
			case cy >= top && cy <= bottom:
				res := &ScrollToResult{Element: el, Scrolls: scrolls}
				if opts.Tap {
					if err := p.TapElement(ctx, el); err != nil {
						return nil, err
					}
					res.Tapped = true
				}
				return res, nil
			case cy < top:
				scroll = func(ctx context.Context) error { return p.ScrollUp(ctx, nudgeAmount(top-cy, h)) }
			default:
				scroll = func(ctx context.Context) error { return p.ScrollDown(ctx, nudgeAmount(cy-bottom, h)) }
			}
		}
		if scrolls >= maxScrolls {
			return nil, fmt.Errorf("scroll-to %q: %w after %d scrolls", text, ErrNotFound, scrolls)
		}
		if err := scroll(ctx); err != nil {
			return nil, err
		}
	}
}

// nudgeAmount scales the scroll to the remaining distance so a near miss
// gets a small correction instead of overshooting back out of the band.
func nudgeAmount(dist, h float64) float64 {
	a := dist / h
	if a < 0.15 {
		return 0.15
	}
	if a > DefaultScrollAmount {
		return DefaultScrollAmount
	}
	return a
}
