// Package wda is the client for the on-device automation endpoint: an HTTP
// service running on the phone that exposes screenshots, the accessibility
// element tree, and input injection.
//
// The device has one screen and one pointer, so the client executes at most
// one operation at a time. Concurrent callers queue in FIFO order on the
// execution slot. Every operation is gated on endpoint readiness: whenever
// the session is not known to be ready, the client probes /status under an
// exponential backoff policy before letting the operation touch the wire.
// Timeouts and transport failures drop the session back to StateUnknown so
// the next operation re-probes instead of trusting a stale belief.
package wda

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultEndpoint is where a locally forwarded automation endpoint
	// usually listens.
	DefaultEndpoint = "http://localhost:8100"

	defaultTimeout      = 30 * time.Second
	defaultProbeTimeout = 2 * time.Second
)

// Config configures a Client. The zero value works against
// DefaultEndpoint with default timeouts.
type Config struct {
	// Endpoint is the base URL of the automation endpoint.
	Endpoint string
	// Timeout bounds each operation when the caller's context carries no
	// deadline of its own.
	Timeout time.Duration
	// ProbeTimeout bounds a single readiness probe request.
	ProbeTimeout time.Duration
	// Retry is the readiness probe schedule.
	Retry RetryPolicy
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
	// Logger receives probe and state-transition events. Nil discards.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = defaultProbeTimeout
	}
	if c.Retry == (RetryPolicy{}) {
		c.Retry = DefaultRetryPolicy()
	}
}

// Client issues typed operations against one automation endpoint.
type Client struct {
	base         string
	timeout      time.Duration
	probeTimeout time.Duration
	retry        RetryPolicy
	http         *http.Client
	log          *slog.Logger

	session *session

	// slot is the execution permit. Capacity 1; senders park in FIFO order,
	// and parked senders can still abandon the wait on context cancellation.
	slot chan struct{}
}

// New returns a Client for cfg.Endpoint. It performs no I/O; the first
// operation probes the endpoint.
func New(cfg Config) *Client {
	cfg.defaults()
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Client{
		base:         strings.TrimRight(cfg.Endpoint, "/"),
		timeout:      cfg.Timeout,
		probeTimeout: cfg.ProbeTimeout,
		retry:        cfg.Retry,
		http:         hc,
		log:          log,
		session:      &session{},
		slot:         make(chan struct{}, 1),
	}
}

// Endpoint returns the base URL the client talks to.
func (c *Client) Endpoint() string { return c.base }

// State reports the client's current belief about endpoint health.
func (c *Client) State() State { return c.session.currentState() }

// EnsureReady verifies the endpoint answers its readiness probe, retrying
// under the configured policy. Operations call this implicitly; doctor-style
// callers may invoke it directly.
func (c *Client) EnsureReady(ctx context.Context) error {
	if c.session.currentState() == StateReady {
		return nil
	}
	return c.probe(ctx)
}

func (c *Client) probe(ctx context.Context) error {
	c.session.setState(StateConnecting)
	start := time.Now()
	attempts := c.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if d := c.retry.delay(i); d > 0 {
			t := time.NewTimer(d)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				c.session.setState(StateUnknown)
				return opCtxErr("status", time.Since(start), ctx.Err())
			}
		}
		err := c.statusReady(ctx)
		if err == nil {
			c.session.setState(StateReady)
			c.log.Debug("endpoint ready", "endpoint", c.base, "attempt", i+1)
			return nil
		}
		lastErr = err
		c.log.Debug("readiness probe failed", "endpoint", c.base, "attempt", i+1, "error", err)
		// A dead caller context is not endpoint exhaustion; leave health
		// unknown and surface the caller's deadline or cancellation.
		if ctx.Err() != nil {
			c.session.setState(StateUnknown)
			return opCtxErr("status", time.Since(start), ctx.Err())
		}
	}
	c.session.setState(StateUnreachable)
	return &UnreachableError{Endpoint: c.base, Attempts: attempts, Err: lastErr}
}

// statusReady performs one readiness probe: GET /status must answer 200 with
// value.ready true.
func (c *Client) statusReady(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()
	var st struct {
		Ready   bool   `json:"ready"`
		Message string `json:"message"`
	}
	if err := c.get(pctx, "status", "/status", &st); err != nil {
		return err
	}
	if !st.Ready {
		return fmt.Errorf("endpoint reports not ready: %s", st.Message)
	}
	return nil
}

// execute is the command channel: acquire the slot, gate on readiness, apply
// the default deadline, run the wire calls, and translate the failure mode
// into the next session state.
func (c *Client) execute(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	select {
	case c.slot <- struct{}{}:
	case <-ctx.Done():
		return opCtxErr(op, time.Since(start), ctx.Err())
	}
	defer func() { <-c.slot }()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.EnsureReady(ctx); err != nil {
		return err
	}

	err := fn(ctx)
	if err == nil {
		return nil
	}
	var te *TimeoutError
	var tre *TransportError
	if errors.As(err, &te) || errors.As(err, &tre) {
		c.session.setState(StateUnknown)
		c.log.Debug("operation failed, endpoint health unknown", "op", op, "error", err)
	}
	return err
}

// withSession runs fn with a valid remote session id, creating one lazily
// and recreating it exactly once when the endpoint reports ours stale.
func (c *Client) withSession(ctx context.Context, op string, fn func(ctx context.Context, sid string) error) error {
	sid := c.session.sessionID()
	if sid == "" {
		var err error
		if sid, err = c.createSession(ctx, op); err != nil {
			return err
		}
	}
	err := fn(ctx, sid)
	if err != nil && isStaleSession(err) {
		c.session.clearSessionID()
		if sid, err = c.createSession(ctx, op); err != nil {
			return err
		}
		err = fn(ctx, sid)
	}
	return err
}

func (c *Client) createSession(ctx context.Context, op string) (string, error) {
	body := map[string]any{"capabilities": map[string]any{}}
	var val struct {
		SessionID string `json:"sessionId"`
	}
	env, err := c.postEnvelope(ctx, op, "/session", body, &val)
	if err != nil {
		return "", err
	}
	sid := env.SessionID
	if sid == "" {
		sid = val.SessionID
	}
	if sid == "" {
		return "", &TransportError{Op: op, Err: errors.New("session response carried no session id")}
	}
	c.session.setSessionID(sid)
	c.log.Debug("created session", "session", sid)
	return sid, nil
}

// opCtxErr maps a context error to the taxonomy: deadline pressure is a
// TimeoutError, plain cancellation stays a cancellation.
func opCtxErr(op string, elapsed time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Elapsed: elapsed, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
