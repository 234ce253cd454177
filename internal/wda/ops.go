package wda

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Tap presses and releases at (x, y) in point coordinates. It uses W3C
// pointer actions for a crisp touch and falls back to the legacy tap route
// on endpoints that predate the actions API.
func (c *Client) Tap(ctx context.Context, x, y float64) error {
	return c.execute(ctx, "tap", func(ctx context.Context) error {
		return c.withSession(ctx, "tap", func(ctx context.Context, sid string) error {
			err := c.post(ctx, "tap", "/session/"+sid+"/actions", tapActions(x, y), nil)
			if isUnknownCommand(err) {
				return c.post(ctx, "tap", "/session/"+sid+"/wda/tap", map[string]float64{"x": x, "y": y}, nil)
			}
			return err
		})
	})
}

// DoubleTap taps twice at (x, y).
func (c *Client) DoubleTap(ctx context.Context, x, y float64) error {
	return c.execute(ctx, "double-tap", func(ctx context.Context) error {
		return c.withSession(ctx, "double-tap", func(ctx context.Context, sid string) error {
			return c.post(ctx, "double-tap", "/session/"+sid+"/wda/doubleTap", map[string]float64{"x": x, "y": y}, nil)
		})
	})
}

// TouchAndHold presses at (x, y) and holds for d before releasing.
func (c *Client) TouchAndHold(ctx context.Context, x, y float64, d time.Duration) error {
	return c.execute(ctx, "long-press", func(ctx context.Context) error {
		return c.withSession(ctx, "long-press", func(ctx context.Context, sid string) error {
			body := map[string]any{"x": x, "y": y, "duration": d.Seconds()}
			return c.post(ctx, "long-press", "/session/"+sid+"/wda/touchAndHold", body, nil)
		})
	})
}

// PerformPointerPath runs a pointer gesture along steps: touch down at the
// first step, travel through the rest with each step's duration, release at
// the last. Endpoints without the actions API get the legacy drag between
// the first and last steps over the summed duration, dropping intermediate
// waypoints.
func (c *Client) PerformPointerPath(ctx context.Context, steps []PathStep) error {
	if len(steps) < 2 {
		return fmt.Errorf("pointer path needs at least 2 steps, got %d", len(steps))
	}
	return c.execute(ctx, "swipe", func(ctx context.Context) error {
		return c.withSession(ctx, "swipe", func(ctx context.Context, sid string) error {
			err := c.post(ctx, "swipe", "/session/"+sid+"/actions", pathActions(steps), nil)
			if isUnknownCommand(err) {
				first, last := steps[0], steps[len(steps)-1]
				var total time.Duration
				for _, st := range steps[1:] {
					total += st.Duration
				}
				body := map[string]any{
					"fromX": first.X, "fromY": first.Y,
					"toX": last.X, "toY": last.Y,
					"duration": total.Seconds(),
				}
				return c.post(ctx, "swipe", "/session/"+sid+"/wda/dragfromtoforduration", body, nil)
			}
			return err
		})
	})
}

// TypeText sends text to the focused element one character at a time. When
// nothing on screen accepts keyboard input the endpoint rejects the call;
// that surfaces as ErrNoFocusedElement.
func (c *Client) TypeText(ctx context.Context, text string) error {
	return c.execute(ctx, "type", func(ctx context.Context) error {
		return c.withSession(ctx, "type", func(ctx context.Context, sid string) error {
			body := map[string]any{"value": splitRunes(text)}
			err := c.post(ctx, "type", "/session/"+sid+"/wda/keys", body, nil)
			if isKeyboardMissing(err) {
				return fmt.Errorf("type: %w", ErrNoFocusedElement)
			}
			return err
		})
	})
}

// ClearText clears the focused element's content.
func (c *Client) ClearText(ctx context.Context) error {
	return c.execute(ctx, "clear", func(ctx context.Context) error {
		return c.withSession(ctx, "clear", func(ctx context.Context, sid string) error {
			eid, err := c.focusedElement(ctx, sid)
			if err != nil {
				return err
			}
			if eid == "" {
				return fmt.Errorf("clear: %w", ErrNoFocusedElement)
			}
			return c.post(ctx, "clear", "/session/"+sid+"/element/"+eid+"/clear", map[string]any{}, nil)
		})
	})
}

// PressHome presses the home button.
func (c *Client) PressHome(ctx context.Context) error {
	return c.execute(ctx, "home", func(ctx context.Context) error {
		return c.post(ctx, "home", "/wda/homescreen", map[string]any{}, nil)
	})
}

// Lock presses the lock button.
func (c *Client) Lock(ctx context.Context) error {
	return c.execute(ctx, "lock", func(ctx context.Context) error {
		return c.post(ctx, "lock", "/wda/lock", map[string]any{}, nil)
	})
}

// Unlock wakes and unlocks the device (no passcode support).
func (c *Client) Unlock(ctx context.Context) error {
	return c.execute(ctx, "unlock", func(ctx context.Context) error {
		return c.post(ctx, "unlock", "/wda/unlock", map[string]any{}, nil)
	})
}

// IsLocked reports the device lock state.
func (c *Client) IsLocked(ctx context.Context) (bool, error) {
	var locked bool
	err := c.execute(ctx, "locked", func(ctx context.Context) error {
		return c.get(ctx, "locked", "/wda/locked", &locked)
	})
	return locked, err
}

// PressButton presses a named hardware button, e.g. volumeUp.
func (c *Client) PressButton(ctx context.Context, name string) error {
	return c.execute(ctx, "press-button", func(ctx context.Context) error {
		return c.post(ctx, "press-button", "/wda/pressButton", map[string]string{"name": name}, nil)
	})
}

// LaunchApp brings the app with bundleID to the foreground, starting it if
// needed.
func (c *Client) LaunchApp(ctx context.Context, bundleID string) error {
	return c.execute(ctx, "launch", func(ctx context.Context) error {
		return c.withSession(ctx, "launch", func(ctx context.Context, sid string) error {
			return c.post(ctx, "launch", "/session/"+sid+"/wda/apps/launch", map[string]string{"bundleId": bundleID}, nil)
		})
	})
}

// TerminateApp kills the app with bundleID. It reports whether the app was
// actually running.
func (c *Client) TerminateApp(ctx context.Context, bundleID string) (bool, error) {
	var wasRunning bool
	err := c.execute(ctx, "terminate", func(ctx context.Context) error {
		return c.withSession(ctx, "terminate", func(ctx context.Context, sid string) error {
			return c.post(ctx, "terminate", "/session/"+sid+"/wda/apps/terminate", map[string]string{"bundleId": bundleID}, &wasRunning)
		})
	})
	return wasRunning, err
}

// OpenURL opens any URL scheme at the device level, regardless of the
// foreground app.
func (c *Client) OpenURL(ctx context.Context, url string) error {
	return c.execute(ctx, "open-url", func(ctx context.Context) error {
		return c.withSession(ctx, "open-url", func(ctx context.Context, sid string) error {
			return c.post(ctx, "open-url", "/session/"+sid+"/url", map[string]string{"url": url}, nil)
		})
	})
}

// tapActions is the W3C sequence for a single quick touch. The short pause
// between down and up keeps the tap from registering as a force touch.
func tapActions(x, y float64) map[string]any {
	return pointerSequence([]map[string]any{
		{"type": "pointerMove", "duration": 0, "x": x, "y": y},
		{"type": "pointerDown", "button": 0},
		{"type": "pause", "duration": 30},
		{"type": "pointerUp", "button": 0},
	})
}

// pathActions is the W3C sequence for a multi-step pointer path.
func pathActions(steps []PathStep) map[string]any {
	seq := make([]map[string]any, 0, len(steps)+2)
	seq = append(seq,
		map[string]any{"type": "pointerMove", "duration": 0, "x": steps[0].X, "y": steps[0].Y},
		map[string]any{"type": "pointerDown", "button": 0},
	)
	for _, st := range steps[1:] {
		seq = append(seq, map[string]any{
			"type": "pointerMove", "duration": st.Duration.Milliseconds(), "x": st.X, "y": st.Y,
		})
	}
	seq = append(seq, map[string]any{"type": "pointerUp", "button": 0})
	return pointerSequence(seq)
}

func pointerSequence(seq []map[string]any) map[string]any {
	return map[string]any{
		"actions": []map[string]any{{
			"type":       "pointer",
			"id":         "finger1",
			"parameters": map[string]any{"pointerType": "touch"},
			"actions":    seq,
		}},
	}
}

// isKeyboardMissing matches the endpoint's no-keyboard rejection of a keys
// request. The code varies across endpoint builds; the message is stable.
func isKeyboardMissing(err error) bool {
	if err == nil {
		return false
	}
	var re *RemoteError
	if !errors.As(err, &re) {
		return false
	}
	return strings.Contains(strings.ToLower(re.Message), "keyboard")
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
