// Package companion talks to the companion app on the phone: the sibling
// service that exposes health data, contacts, calendars, notifications, and
// shortcuts over plain HTTP. It is independent of the automation endpoint;
// either can be up without the other.
package companion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultEndpoint is where the companion app listens when port-forwarded.
const DefaultEndpoint = "http://localhost:8080"

const (
	defaultTimeout = 10 * time.Second
	retryAttempts  = 3
	retryDelay     = 500 * time.Millisecond
)

// ErrUnavailable means the companion app could not be reached after
// retries. The app must be running on the phone and the port forwarded.
var ErrUnavailable = errors.New("companion app not reachable")

// Config configures a Client. The zero value talks to DefaultEndpoint.
type Config struct {
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a typed client for the companion API.
type Client struct {
	base    string
	timeout time.Duration
	http    *http.Client
	log     *slog.Logger
}

// New returns a Client for cfg.Endpoint.
func New(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{base: cfg.Endpoint, timeout: cfg.Timeout, http: hc, log: log}
}

// Endpoint returns the base URL the client talks to.
func (c *Client) Endpoint() string { return c.base }

// Steps returns daily step counts for the last days days.
func (c *Client) Steps(ctx context.Context, days int) ([]HealthSteps, error) {
	var out []HealthSteps
	err := c.get(ctx, "/api/health/steps", url.Values{"days": {strconv.Itoa(days)}}, &out)
	return out, err
}

// HeartRate returns the most recent limit heart rate samples.
func (c *Client) HeartRate(ctx context.Context, limit int) ([]HeartRate, error) {
	var out []HeartRate
	err := c.get(ctx, "/api/health/heartrate", url.Values{"limit": {strconv.Itoa(limit)}}, &out)
	return out, err
}

// Sleep returns sleep sessions for the last days days.
func (c *Client) Sleep(ctx context.Context, days int) ([]SleepSession, error) {
	var out []SleepSession
	err := c.get(ctx, "/api/health/sleep", url.Values{"days": {strconv.Itoa(days)}}, &out)
	return out, err
}

// Workouts returns workouts for the last days days.
func (c *Client) Workouts(ctx context.Context, days int) ([]Workout, error) {
	var out []Workout
	err := c.get(ctx, "/api/health/workouts", url.Values{"days": {strconv.Itoa(days)}}, &out)
	return out, err
}

// HealthSummary returns the aggregate health picture.
func (c *Client) HealthSummary(ctx context.Context) (HealthSummary, error) {
	var out HealthSummary
	err := c.get(ctx, "/api/health/summary", nil, &out)
	return out, err
}

// Location returns the device's last known position.
func (c *Client) Location(ctx context.Context) (Location, error) {
	var out Location
	err := c.get(ctx, "/api/location", nil, &out)
	return out, err
}

// Contacts lists the address book, filtered by query when non-empty.
func (c *Client) Contacts(ctx context.Context, query string) ([]Contact, error) {
	var params url.Values
	if query != "" {
		params = url.Values{"q": {query}}
	}
	var out []Contact
	err := c.get(ctx, "/api/contacts", params, &out)
	return out, err
}

// CalendarEvents returns events in the next days days.
func (c *Client) CalendarEvents(ctx context.Context, days int) ([]CalendarEvent, error) {
	var out []CalendarEvent
	err := c.get(ctx, "/api/calendar/events", url.Values{"days": {strconv.Itoa(days)}}, &out)
	return out, err
}

// Reminders returns open reminders.
func (c *Client) Reminders(ctx context.Context) ([]Reminder, error) {
	var out []Reminder
	err := c.get(ctx, "/api/calendar/reminders", nil, &out)
	return out, err
}

// Notifications returns recent notifications.
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	var out []Notification
	err := c.get(ctx, "/api/notifications", nil, &out)
	return out, err
}

// Shortcuts lists installed shortcuts.
func (c *Client) Shortcuts(ctx context.Context) ([]Shortcut, error) {
	var out []Shortcut
	err := c.get(ctx, "/api/shortcuts", nil, &out)
	return out, err
}

// RunShortcut runs a shortcut by name and returns its output.
func (c *Client) RunShortcut(ctx context.Context, name string) (ShortcutResult, error) {
	var out ShortcutResult
	err := c.post(ctx, "/api/shortcuts/run", map[string]string{"name": name}, &out)
	return out, err
}

// Status returns the companion app's self-report.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var out Status
	err := c.get(ctx, "/api/status", nil, &out)
	return out, err
}

// PingCheck measures a round trip to the companion app.
func (c *Client) PingCheck(ctx context.Context) (Ping, error) {
	start := time.Now()
	var raw map[string]any
	if err := c.get(ctx, "/api/ping", nil, &raw); err != nil {
		return Ping{}, err
	}
	ms := float64(time.Since(start).Microseconds()) / 1000
	return Ping{OK: true, LatencyMS: ms}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	full := path
	if len(params) > 0 {
		full += "?" + params.Encode()
	}
	return c.request(ctx, http.MethodGet, full, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.request(ctx, http.MethodPost, path, body, out)
}

// request performs one API call with transport-level retries. HTTP-level
// failures are not retried; the companion answered, it just said no.
func (c *Client) request(ctx context.Context, method, path string, body, out any) error {
	var lastErr error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		if attempt > 1 {
			t := time.NewTimer(retryDelay)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return fmt.Errorf("companion %s: %w", path, ctx.Err())
			}
			c.log.Debug("retrying companion request", "path", path, "attempt", attempt)
		}
		err := c.do(ctx, method, path, body, out)
		if err == nil {
			return nil
		}
		var se *statusError
		if errors.As(err, &se) {
			return fmt.Errorf("companion %s: %s", path, se.Error())
		}
		if ctx.Err() != nil {
			return fmt.Errorf("companion %s: %w", path, ctx.Err())
		}
		lastErr = err
	}
	return fmt.Errorf("%w at %s: %v", ErrUnavailable, c.base, lastErr)
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body != "" {
		return fmt.Sprintf("http %d: %s", e.code, e.body)
	}
	return fmt.Sprintf("http %d", e.code)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(rctx, method, c.base+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		return &statusError{code: resp.StatusCode, body: apiErr.Error}
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
