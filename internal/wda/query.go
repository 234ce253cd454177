package wda

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// CaptureScreen grabs the screenshot and the display geometry in one
// operation so they cannot observe two different device states. The image
// bytes pass through undecoded.
func (c *Client) CaptureScreen(ctx context.Context) (*Screen, error) {
	var scr Screen
	err := c.execute(ctx, "capture", func(ctx context.Context) error {
		return c.withSession(ctx, "capture", func(ctx context.Context, sid string) error {
			var shot string
			if err := c.get(ctx, "capture", "/screenshot", &shot); err != nil {
				return err
			}
			png, err := base64.StdEncoding.DecodeString(strings.TrimSpace(shot))
			if err != nil {
				return &TransportError{Op: "capture", Err: fmt.Errorf("decode screenshot: %w", err)}
			}
			scr.PNG = png
			return c.screenInfo(ctx, sid, &scr)
		})
	})
	if err != nil {
		return nil, err
	}
	return &scr, nil
}

// Screenshot grabs only the image bytes.
func (c *Client) Screenshot(ctx context.Context) ([]byte, error) {
	var png []byte
	err := c.execute(ctx, "screenshot", func(ctx context.Context) error {
		var shot string
		if err := c.get(ctx, "screenshot", "/screenshot", &shot); err != nil {
			return err
		}
		var derr error
		png, derr = base64.StdEncoding.DecodeString(strings.TrimSpace(shot))
		if derr != nil {
			return &TransportError{Op: "screenshot", Err: fmt.Errorf("decode screenshot: %w", derr)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return png, nil
}

// ScreenInfo reports display geometry without taking a screenshot.
func (c *Client) ScreenInfo(ctx context.Context) (*Screen, error) {
	var scr Screen
	err := c.execute(ctx, "screen-info", func(ctx context.Context) error {
		return c.withSession(ctx, "screen-info", func(ctx context.Context, sid string) error {
			return c.screenInfo(ctx, sid, &scr)
		})
	})
	if err != nil {
		return nil, err
	}
	return &scr, nil
}

// screenInfo fills the geometry half of a Screen: point size, pixel scale,
// orientation. Endpoints that predate the scale route report scale 1.
func (c *Client) screenInfo(ctx context.Context, sid string, scr *Screen) error {
	var size struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := c.get(ctx, "capture", "/session/"+sid+"/window/size", &size); err != nil {
		return err
	}
	scr.PointWidth = size.Width
	scr.PointHeight = size.Height

	var sc struct {
		Scale float64 `json:"scale"`
	}
	err := c.get(ctx, "capture", "/session/"+sid+"/wda/screen", &sc)
	switch {
	case err == nil && sc.Scale > 0:
		scr.Scale = sc.Scale
	case err == nil || isUnknownCommand(err):
		scr.Scale = 1
	default:
		return err
	}

	var orient string
	err = c.get(ctx, "capture", "/session/"+sid+"/orientation", &orient)
	switch {
	case err == nil:
		scr.Orientation = orient
	case isUnknownCommand(err):
		scr.Orientation = "PORTRAIT"
	default:
		return err
	}
	return nil
}

// Source returns the element tree as reported by the endpoint, decoded but
// untouched: point coordinates, no filtering.
func (c *Client) Source(ctx context.Context) (*RawElement, error) {
	var root RawElement
	err := c.execute(ctx, "source", func(ctx context.Context) error {
		return c.get(ctx, "source", "/source?format=json", &root)
	})
	if err != nil {
		return nil, err
	}
	return &root, nil
}

// ActiveApp identifies the foreground application.
func (c *Client) ActiveApp(ctx context.Context) (AppInfo, error) {
	var info AppInfo
	err := c.execute(ctx, "active-app", func(ctx context.Context) error {
		return c.withSession(ctx, "active-app", func(ctx context.Context, sid string) error {
			return c.get(ctx, "active-app", "/session/"+sid+"/wda/activeAppInfo", &info)
		})
	})
	return info, err
}

// FindByText searches labels, names, and values for text (case-insensitive
// contains) and returns up to limit hits with their rects and labels.
// Elements the endpoint can no longer resolve are skipped.
func (c *Client) FindByText(ctx context.Context, text string, limit int) ([]FoundElement, error) {
	if limit <= 0 {
		limit = 10
	}
	var found []FoundElement
	err := c.execute(ctx, "find", func(ctx context.Context) error {
		return c.withSession(ctx, "find", func(ctx context.Context, sid string) error {
			quoted := strings.ReplaceAll(text, `"`, `\"`)
			predicate := fmt.Sprintf(`label CONTAINS[c] "%s" OR name CONTAINS[c] "%s" OR value CONTAINS[c] "%s"`, quoted, quoted, quoted)
			ids, err := c.findElements(ctx, sid, "predicate string", predicate)
			if err != nil {
				return err
			}
			for _, eid := range ids {
				if len(found) >= limit {
					break
				}
				el, err := c.elementInfo(ctx, sid, eid)
				if err != nil {
					continue
				}
				found = append(found, el)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// findElements runs one element search and returns the opaque element ids.
func (c *Client) findElements(ctx context.Context, sid, using, value string) ([]string, error) {
	var hits []map[string]string
	body := map[string]string{"using": using, "value": value}
	if err := c.post(ctx, "find", "/session/"+sid+"/elements", body, &hits); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		eid := h["ELEMENT"]
		if eid == "" {
			eid = h["element-6066-11e4-a52e-4f735466cecf"]
		}
		if eid != "" {
			ids = append(ids, eid)
		}
	}
	return ids, nil
}

// elementInfo resolves rect, label, value, and type for a found element.
func (c *Client) elementInfo(ctx context.Context, sid, eid string) (FoundElement, error) {
	var el FoundElement
	if err := c.get(ctx, "find", "/session/"+sid+"/element/"+eid+"/rect", &el.Rect); err != nil {
		return el, err
	}
	var label string
	if err := c.get(ctx, "find", "/session/"+sid+"/element/"+eid+"/attribute/label", &label); err == nil {
		el.Label = label
	}
	var value FlexString
	if err := c.get(ctx, "find", "/session/"+sid+"/element/"+eid+"/attribute/value", &value); err == nil {
		el.Value = string(value)
	}
	var name string
	if err := c.get(ctx, "find", "/session/"+sid+"/element/"+eid+"/name", &name); err == nil {
		el.Type = strings.TrimPrefix(name, "XCUIElementType")
	}
	return el, nil
}

// focusedElement returns the id of the element holding keyboard focus, or
// "" when nothing is focused.
func (c *Client) focusedElement(ctx context.Context, sid string) (string, error) {
	ids, err := c.findElements(ctx, sid, "predicate string", "hasFocus == true")
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// AlertText returns the text of the active alert, or ErrNoAlert.
func (c *Client) AlertText(ctx context.Context) (string, error) {
	var text string
	err := c.execute(ctx, "alert", func(ctx context.Context) error {
		return c.withSession(ctx, "alert", func(ctx context.Context, sid string) error {
			err := c.get(ctx, "alert", "/session/"+sid+"/alert/text", &text)
			if isNoAlert(err) {
				return ErrNoAlert
			}
			return err
		})
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// AcceptAlert taps the alert's default/accept action.
func (c *Client) AcceptAlert(ctx context.Context) error {
	return c.alertAction(ctx, "accept")
}

// DismissAlert taps the alert's cancel/dismiss action.
func (c *Client) DismissAlert(ctx context.Context) error {
	return c.alertAction(ctx, "dismiss")
}

func (c *Client) alertAction(ctx context.Context, action string) error {
	return c.execute(ctx, "alert-"+action, func(ctx context.Context) error {
		return c.withSession(ctx, "alert-"+action, func(ctx context.Context, sid string) error {
			err := c.post(ctx, "alert-"+action, "/session/"+sid+"/alert/"+action, map[string]any{}, nil)
			if isNoAlert(err) {
				return ErrNoAlert
			}
			return err
		})
	})
}

func isNoAlert(err error) bool {
	code, ok := remoteCode(err)
	return ok && code == "no such alert"
}

// Clipboard returns the device pasteboard as plain text.
func (c *Client) Clipboard(ctx context.Context) (string, error) {
	var text string
	err := c.execute(ctx, "clipboard", func(ctx context.Context) error {
		return c.withSession(ctx, "clipboard", func(ctx context.Context, sid string) error {
			var b64 string
			body := map[string]string{"contentType": "plaintext"}
			if err := c.post(ctx, "clipboard", "/session/"+sid+"/wda/getPasteboard", body, &b64); err != nil {
				return err
			}
			raw, err := base64.StdEncoding.DecodeString(b64)
			if err != nil {
				return &TransportError{Op: "clipboard", Err: fmt.Errorf("decode pasteboard: %w", err)}
			}
			text = string(raw)
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// SetClipboard replaces the device pasteboard with text.
func (c *Client) SetClipboard(ctx context.Context, text string) error {
	return c.execute(ctx, "set-clipboard", func(ctx context.Context) error {
		return c.withSession(ctx, "set-clipboard", func(ctx context.Context, sid string) error {
			body := map[string]string{
				"content":     base64.StdEncoding.EncodeToString([]byte(text)),
				"contentType": "plaintext",
			}
			return c.post(ctx, "set-clipboard", "/session/"+sid+"/wda/setPasteboard", body, nil)
		})
	})
}

// Status runs a single raw readiness probe outside the retry policy,
// reporting what the endpoint said. Doctor uses it to show the endpoint's
// own words rather than the client's belief.
func (c *Client) Status(ctx context.Context) (ready bool, message string, err error) {
	var st struct {
		Ready   bool   `json:"ready"`
		Message string `json:"message"`
	}
	err = c.execute(ctx, "status", func(ctx context.Context) error {
		return c.get(ctx, "status", "/status", &st)
	})
	return st.Ready, st.Message, err
}
