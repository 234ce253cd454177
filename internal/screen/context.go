package screen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/mj1618/iphone-cli/internal/wda"
)

// maxContextElements bounds the element list on the agent JSON surface.
// SDK callers get the uncapped slice on Context itself.
const maxContextElements = 50

// Context is the all-or-nothing screen snapshot: what is on screen, where
// things are, and which app owns it, all in one pixel frame.
type Context struct {
	Geometry   ScreenGeometry
	Screenshot []byte
	App        wda.AppInfo
	Alert      string
	Elements   []Element
	Timestamps ContextTimestamps
}

// ContextTimestamps records when each sub-capture completed. The snapshot
// is not instantaneous; consumers comparing it against live state need to
// know how stale each piece can be.
type ContextTimestamps struct {
	Screenshot time.Time `json:"screenshot"`
	App        time.Time `json:"app"`
	Tree       time.Time `json:"tree"`
	Alert      time.Time `json:"alert"`
}

// BuildContext assembles a snapshot in a fixed order: capture, app
// identity, element tree, alert. Any failure aborts the whole build with
// the stage that sank it; only the alert probe is best-effort, since most
// screens simply have no alert.
func (p *Pipeline) BuildContext(ctx context.Context) (*Context, error) {
	shot, err := p.Capture(ctx)
	if err != nil {
		return nil, &ContextError{Stage: "capture", Err: err}
	}
	out := &Context{
		Geometry:   shot.Geometry,
		Screenshot: shot.PNG,
	}
	out.Timestamps.Screenshot = shot.Taken

	app, err := p.dev.ActiveApp(ctx)
	if err != nil {
		return nil, &ContextError{Stage: "app", Err: err}
	}
	out.App = app
	out.Timestamps.App = time.Now()

	els, err := p.Elements(ctx, shot.Geometry)
	if err != nil {
		return nil, &ContextError{Stage: "elements", Err: err}
	}
	out.Elements = els
	out.Timestamps.Tree = time.Now()

	// No-alert and endpoint hiccups both leave the field empty; the alert
	// probe alone never sinks the snapshot.
	if alert, err := p.dev.AlertText(ctx); err == nil {
		out.Alert = alert
		out.Timestamps.Alert = time.Now()
	}

	return out, nil
}

// agentContext is the JSON surface agents consume. Field order is part of
// the contract: screenshot, screen_size, app, then elements.
type agentContext struct {
	Screenshot string        `json:"screenshot,omitempty"`
	ScreenSize string        `json:"screen_size"`
	App        string        `json:"app"`
	Alert      string        `json:"alert,omitempty"`
	Elements   []ElementView `json:"interactive_elements"`
}

// AgentJSON renders the snapshot for agents. includeScreenshot=false drops
// the field entirely; maxElements<=0 applies the default cap.
func (c *Context) AgentJSON(includeScreenshot bool, maxElements int) ([]byte, error) {
	if maxElements <= 0 {
		maxElements = maxContextElements
	}
	out := agentContext{
		ScreenSize: c.Geometry.String(),
		App:        c.App.BundleID,
		Alert:      c.Alert,
		Elements:   Views(c.Elements, maxElements),
	}
	if includeScreenshot {
		out.Screenshot = base64.StdEncoding.EncodeToString(c.Screenshot)
	}
	if out.Elements == nil {
		out.Elements = []ElementView{}
	}
	return json.Marshal(out)
}
