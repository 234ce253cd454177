// Package mock serves in-memory stand-ins for the device automation
// endpoint and the companion app. The iphone mock-server command runs them
// for local development; tests mount them on httptest servers.
package mock

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Call is one recorded request against the device endpoint.
type Call struct {
	Method string
	Path   string
	Body   []byte
	Start  time.Time
	End    time.Time
}

// TreeNode mirrors the element tree's wire shape, quirks included:
// visibility is the string "1"/"0".
type TreeNode struct {
	Type      string     `json:"type"`
	Name      string     `json:"name,omitempty"`
	Label     string     `json:"label,omitempty"`
	Value     string     `json:"value,omitempty"`
	IsEnabled string     `json:"isEnabled"`
	IsVisible string     `json:"isVisible"`
	Rect      *TreeRect  `json:"rect,omitempty"`
	Children  []TreeNode `json:"children,omitempty"`
}

// TreeRect is a point-coordinate rect on the wire.
type TreeRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FindHit is one element the mock's search route will return.
type FindHit struct {
	Label string
	Value string
	Type  string
	Rect  TreeRect
}

// Device is a scriptable automation endpoint. The zero knobs give a healthy
// 390x844 portrait device at scale 3 with a small fixed element tree.
type Device struct {
	mu sync.Mutex

	PointWidth  float64
	PointHeight float64
	Scale       float64
	Orientation string

	BundleID string
	AppName  string
	AppPID   int

	Tree       TreeNode
	FindHits   []FindHit
	Screenshot []byte

	// FailProbes makes the first n /status calls answer not-ready.
	FailProbes int
	// NoKeyboard makes /wda/keys fail the way a keyboardless screen does.
	NoKeyboard bool
	// LegacyGesturesOnly makes /actions answer 404 so clients fall back.
	LegacyGesturesOnly bool
	// RejectSessions makes every session-scoped route answer invalid
	// session id, even for sessions the mock itself issued.
	RejectSessions bool
	// AlertText, when set, arms the alert routes.
	AlertText string

	delays map[string]time.Duration

	locked     bool
	pasteboard string
	typed      strings.Builder
	sessions   map[string]bool
	running    map[string]bool
	calls      []Call
	probes     int
}

// NewDevice returns a healthy default device.
func NewDevice() *Device {
	return &Device{
		PointWidth:  390,
		PointHeight: 844,
		Scale:       3,
		Orientation: "PORTRAIT",
		BundleID:    "com.example.demo",
		AppName:     "Demo",
		AppPID:      4242,
		Tree:        DefaultTree(),
		Screenshot:  tinyPNG(4, 4),
		delays:      map[string]time.Duration{},
		sessions:    map[string]bool{},
		running:     map[string]bool{"com.example.demo": true},
	}
}

// DefaultTree is an application root with one of everything the element
// filter cares about: a plain button, an invisible one, a zero-area one,
// one off screen, and a container wrapping an interactive child.
func DefaultTree() TreeNode {
	return TreeNode{
		Type: "Application", Name: "Demo", IsEnabled: "1", IsVisible: "1",
		Rect: &TreeRect{X: 0, Y: 0, Width: 390, Height: 844},
		Children: []TreeNode{
			{Type: "Button", Label: "Done", IsEnabled: "1", IsVisible: "1",
				Rect: &TreeRect{X: 50, Y: 10, Width: 100, Height: 15}},
			{Type: "Button", Label: "Hidden", IsEnabled: "1", IsVisible: "0",
				Rect: &TreeRect{X: 50, Y: 60, Width: 100, Height: 15}},
			{Type: "Button", Label: "Collapsed", IsEnabled: "1", IsVisible: "1",
				Rect: &TreeRect{X: 50, Y: 90, Width: 0, Height: 0}},
			{Type: "Button", Label: "Offscreen", IsEnabled: "1", IsVisible: "1",
				Rect: &TreeRect{X: 500, Y: 900, Width: 40, Height: 40}},
			{Type: "Other", Name: "toolbar", IsEnabled: "1", IsVisible: "1",
				Rect: &TreeRect{X: 0, Y: 700, Width: 390, Height: 100},
				Children: []TreeNode{
					{Type: "TextField", Label: "Search", Value: "query", IsEnabled: "1", IsVisible: "1",
						Rect: &TreeRect{X: 20, Y: 720, Width: 200, Height: 30}},
				}},
		},
	}
}

// DelayPath makes every request whose path contains frag take at least d.
func (d *Device) DelayPath(frag string, delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delays[frag] = delay
}

// InvalidateSessions forgets every issued session so the next session-scoped
// call answers invalid session id.
func (d *Device) InvalidateSessions() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions = map[string]bool{}
}

// SetRejectSessions toggles RejectSessions while the server is running.
func (d *Device) SetRejectSessions(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.RejectSessions = v
}

// Calls returns a copy of everything recorded so far.
func (d *Device) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

// CallsTo returns recorded calls whose path contains frag.
func (d *Device) CallsTo(frag string) []Call {
	var out []Call
	for _, c := range d.Calls() {
		if strings.Contains(c.Path, frag) {
			out = append(out, c)
		}
	}
	return out
}

// TypedText returns everything sent through the keys route.
func (d *Device) TypedText() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.typed.String()
}

// Locked reports the mock lock state.
func (d *Device) Locked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locked
}

// Router mounts the endpoint routes.
func (d *Device) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(d.record)

	r.Get("/status", d.handleStatus)
	r.Post("/session", d.handleCreateSession)
	r.Get("/screenshot", d.handleScreenshot)
	r.Get("/source", d.handleSource)
	r.Post("/wda/homescreen", d.ok)
	r.Post("/wda/lock", d.handleLock)
	r.Post("/wda/unlock", d.handleUnlock)
	r.Get("/wda/locked", d.handleLocked)
	r.Post("/wda/pressButton", d.ok)

	r.Route("/session/{sid}", func(r chi.Router) {
		r.Use(d.requireSession)
		r.Get("/window/size", d.handleWindowSize)
		r.Get("/wda/screen", d.handleScreen)
		r.Get("/orientation", d.handleOrientation)
		r.Get("/wda/activeAppInfo", d.handleActiveApp)
		r.Post("/actions", d.handleActions)
		r.Post("/wda/tap", d.ok)
		r.Post("/wda/doubleTap", d.ok)
		r.Post("/wda/touchAndHold", d.ok)
		r.Post("/wda/dragfromtoforduration", d.ok)
		r.Post("/wda/keys", d.handleKeys)
		r.Post("/wda/apps/launch", d.handleLaunch)
		r.Post("/wda/apps/terminate", d.handleTerminate)
		r.Post("/url", d.ok)
		r.Get("/alert/text", d.handleAlertText)
		r.Post("/alert/accept", d.handleAlertDone)
		r.Post("/alert/dismiss", d.handleAlertDone)
		r.Post("/wda/getPasteboard", d.handleGetPasteboard)
		r.Post("/wda/setPasteboard", d.handleSetPasteboard)
		r.Post("/elements", d.handleFind)
		r.Get("/element/{eid}/rect", d.handleElementRect)
		r.Get("/element/{eid}/attribute/{name}", d.handleElementAttr)
		r.Get("/element/{eid}/name", d.handleElementName)
		r.Post("/element/{eid}/clear", d.ok)
	})
	return r
}

// record captures request timing and body for assertions, and applies any
// configured delay.
func (d *Device) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		d.mu.Lock()
		var wait time.Duration
		for frag, delay := range d.delays {
			if strings.Contains(r.URL.Path, frag) && delay > wait {
				wait = delay
			}
		}
		d.mu.Unlock()

		// The delay sits inside the recorded window so overlap assertions
		// can see concurrent handling.
		start := time.Now()
		if wait > 0 {
			time.Sleep(wait)
		}
		next.ServeHTTP(w, r)

		d.mu.Lock()
		d.calls = append(d.calls, Call{
			Method: r.Method,
			Path:   r.URL.Path,
			Body:   body,
			Start:  start,
			End:    time.Now(),
		})
		d.mu.Unlock()
	})
}

func (d *Device) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := chi.URLParam(r, "sid")
		d.mu.Lock()
		ok := d.sessions[sid] && !d.RejectSessions
		d.mu.Unlock()
		if !ok {
			writeError(w, http.StatusNotFound, "invalid session id", "session does not exist")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (d *Device) handleStatus(w http.ResponseWriter, _ *http.Request) {
	d.mu.Lock()
	d.probes++
	ready := d.probes > d.FailProbes
	d.mu.Unlock()
	if !ready {
		writeValue(w, map[string]any{"ready": false, "message": "still starting"})
		return
	}
	writeValue(w, map[string]any{"ready": true, "message": "automation endpoint ready"})
}

func (d *Device) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sid := uuid.NewString()
	d.mu.Lock()
	d.sessions[sid] = true
	d.mu.Unlock()
	writeEnvelope(w, map[string]any{"sessionId": sid, "capabilities": map[string]any{}}, sid)
}

func (d *Device) handleScreenshot(w http.ResponseWriter, _ *http.Request) {
	d.mu.Lock()
	shot := d.Screenshot
	d.mu.Unlock()
	writeValue(w, base64.StdEncoding.EncodeToString(shot))
}

func (d *Device) handleSource(w http.ResponseWriter, _ *http.Request) {
	d.mu.Lock()
	tree := d.Tree
	d.mu.Unlock()
	writeValue(w, tree)
}

func (d *Device) handleWindowSize(w http.ResponseWriter, _ *http.Request) {
	writeValue(w, map[string]float64{"width": d.PointWidth, "height": d.PointHeight})
}

func (d *Device) handleScreen(w http.ResponseWriter, _ *http.Request) {
	writeValue(w, map[string]any{
		"scale":         d.Scale,
		"statusBarSize": map[string]float64{"width": d.PointWidth, "height": 47},
	})
}

func (d *Device) handleOrientation(w http.ResponseWriter, _ *http.Request) {
	writeValue(w, d.Orientation)
}

func (d *Device) handleActiveApp(w http.ResponseWriter, _ *http.Request) {
	writeValue(w, map[string]any{"bundleId": d.BundleID, "name": d.AppName, "pid": d.AppPID})
}

func (d *Device) handleActions(w http.ResponseWriter, _ *http.Request) {
	if d.LegacyGesturesOnly {
		writeError(w, http.StatusNotFound, "unknown command", "actions not implemented")
		return
	}
	writeValue(w, nil)
}

func (d *Device) handleKeys(w http.ResponseWriter, r *http.Request) {
	if d.NoKeyboard {
		writeError(w, http.StatusBadRequest, "invalid element state", "Error: keyboard is not present")
		return
	}
	var body struct {
		Value []string `json:"value"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	d.mu.Lock()
	d.typed.WriteString(strings.Join(body.Value, ""))
	d.mu.Unlock()
	writeValue(w, nil)
}

func (d *Device) handleLaunch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BundleID string `json:"bundleId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	d.mu.Lock()
	d.running[body.BundleID] = true
	d.BundleID = body.BundleID
	d.mu.Unlock()
	writeValue(w, nil)
}

func (d *Device) handleTerminate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BundleID string `json:"bundleId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	d.mu.Lock()
	was := d.running[body.BundleID]
	delete(d.running, body.BundleID)
	d.mu.Unlock()
	writeValue(w, was)
}

func (d *Device) handleLock(w http.ResponseWriter, _ *http.Request) {
	d.mu.Lock()
	d.locked = true
	d.mu.Unlock()
	writeValue(w, nil)
}

func (d *Device) handleUnlock(w http.ResponseWriter, _ *http.Request) {
	d.mu.Lock()
	d.locked = false
	d.mu.Unlock()
	writeValue(w, nil)
}

func (d *Device) handleLocked(w http.ResponseWriter, _ *http.Request) {
	d.mu.Lock()
	locked := d.locked
	d.mu.Unlock()
	writeValue(w, locked)
}

func (d *Device) handleAlertText(w http.ResponseWriter, _ *http.Request) {
	d.mu.Lock()
	text := d.AlertText
	d.mu.Unlock()
	if text == "" {
		writeError(w, http.StatusNotFound, "no such alert", "no alert is present")
		return
	}
	writeValue(w, text)
}

func (d *Device) handleAlertDone(w http.ResponseWriter, _ *http.Request) {
	d.mu.Lock()
	had := d.AlertText != ""
	d.AlertText = ""
	d.mu.Unlock()
	if !had {
		writeError(w, http.StatusNotFound, "no such alert", "no alert is present")
		return
	}
	writeValue(w, nil)
}

func (d *Device) handleGetPasteboard(w http.ResponseWriter, _ *http.Request) {
	d.mu.Lock()
	content := d.pasteboard
	d.mu.Unlock()
	writeValue(w, base64.StdEncoding.EncodeToString([]byte(content)))
}

func (d *Device) handleSetPasteboard(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	raw, err := base64.StdEncoding.DecodeString(body.Content)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid argument", "content is not base64")
		return
	}
	d.mu.Lock()
	d.pasteboard = string(raw)
	d.mu.Unlock()
	writeValue(w, nil)
}

func (d *Device) handleFind(w http.ResponseWriter, _ *http.Request) {
	d.mu.Lock()
	n := len(d.FindHits)
	d.mu.Unlock()
	hits := make([]map[string]string, 0, n)
	for i := 0; i < n; i++ {
		hits = append(hits, map[string]string{"ELEMENT": fmt.Sprintf("el-%d", i)})
	}
	writeValue(w, hits)
}

func (d *Device) findHit(eid string) (FindHit, bool) {
	var idx int
	if _, err := fmt.Sscanf(eid, "el-%d", &idx); err != nil {
		return FindHit{}, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if idx < 0 || idx >= len(d.FindHits) {
		return FindHit{}, false
	}
	return d.FindHits[idx], true
}

func (d *Device) handleElementRect(w http.ResponseWriter, r *http.Request) {
	hit, ok := d.findHit(chi.URLParam(r, "eid"))
	if !ok {
		writeError(w, http.StatusNotFound, "no such element", "stale element reference")
		return
	}
	writeValue(w, hit.Rect)
}

func (d *Device) handleElementAttr(w http.ResponseWriter, r *http.Request) {
	hit, ok := d.findHit(chi.URLParam(r, "eid"))
	if !ok {
		writeError(w, http.StatusNotFound, "no such element", "stale element reference")
		return
	}
	switch chi.URLParam(r, "name") {
	case "label":
		writeValue(w, hit.Label)
	case "value":
		writeValue(w, hit.Value)
	default:
		writeValue(w, "")
	}
}

func (d *Device) handleElementName(w http.ResponseWriter, r *http.Request) {
	hit, ok := d.findHit(chi.URLParam(r, "eid"))
	if !ok {
		writeError(w, http.StatusNotFound, "no such element", "stale element reference")
		return
	}
	writeValue(w, "XCUIElementType"+hit.Type)
}

func (d *Device) ok(w http.ResponseWriter, _ *http.Request) {
	writeValue(w, nil)
}

func writeValue(w http.ResponseWriter, v any) {
	writeEnvelope(w, v, "")
}

func writeEnvelope(w http.ResponseWriter, v any, sid string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"value": v, "sessionId": sid})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"value": map[string]string{"error": code, "message": message},
	})
}

// tinyPNG renders a small opaque image so screenshot consumers get real PNG
// bytes.
func tinyPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 30, B: 46, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
