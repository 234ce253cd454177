package companion_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mj1618/iphone-cli/internal/companion"
	"github.com/mj1618/iphone-cli/internal/mock"
)

func newTestClient(t *testing.T) *companion.Client {
	t.Helper()
	srv := httptest.NewServer(mock.NewCompanion().Router())
	t.Cleanup(srv.Close)
	return companion.New(companion.Config{Endpoint: srv.URL})
}

func TestSteps(t *testing.T) {
	c := newTestClient(t)

	steps, err := c.Steps(context.Background(), 3)
	if err != nil {
		t.Fatalf("steps: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("got %d days, want 3", len(steps))
	}
	for _, s := range steps {
		if s.Count <= 0 {
			t.Errorf("day %s has count %d, want positive", s.Date, s.Count)
		}
		if !s.Mock {
			t.Errorf("day %s not marked mock", s.Date)
		}
	}
}

func TestContactsQuery(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	all, err := c.Contacts(ctx, "")
	if err != nil {
		t.Fatalf("contacts: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("got %d contacts, want 5", len(all))
	}

	janes, err := c.Contacts(ctx, "jane")
	if err != nil {
		t.Fatalf("contacts q=jane: %v", err)
	}
	if len(janes) != 2 {
		t.Fatalf("got %d janes, want 2", len(janes))
	}
	for _, ct := range janes {
		if ct.FirstName != "Jane" {
			t.Errorf("matched %s %s, want first name Jane", ct.FirstName, ct.LastName)
		}
	}
}

func TestHealthSummary(t *testing.T) {
	c := newTestClient(t)

	sum, err := c.HealthSummary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.StepsToday <= 0 {
		t.Errorf("steps today = %d, want positive", sum.StepsToday)
	}
}

func TestRunShortcut(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	res, err := c.RunShortcut(ctx, "Log Water")
	if err != nil {
		t.Fatalf("run shortcut: %v", err)
	}
	if res.Name != "Log Water" {
		t.Errorf("result name = %q, want Log Water", res.Name)
	}

	_, err = c.RunShortcut(ctx, "Does Not Exist")
	if err == nil {
		t.Fatal("unknown shortcut ran without error")
	}
	if !strings.Contains(err.Error(), "shortcut not found") {
		t.Errorf("error = %v, want the companion's not-found message", err)
	}
}

func TestHTTPErrorsAreNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"database locked"}`))
	}))
	t.Cleanup(srv.Close)
	c := companion.New(companion.Config{Endpoint: srv.URL})

	_, err := c.Status(context.Background())
	if err == nil {
		t.Fatal("500 answered without error")
	}
	if errors.Is(err, companion.ErrUnavailable) {
		t.Error("HTTP-level failure reported as unreachable")
	}
	if !strings.Contains(err.Error(), "database locked") {
		t.Errorf("error = %v, want the companion's own message", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1 (no retry on HTTP errors)", n)
	}
}

func TestTransportErrorsRetryThenUnavailable(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("recorder does not support hijacking")
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		conn.Close()
	}))
	t.Cleanup(srv.Close)
	c := companion.New(companion.Config{Endpoint: srv.URL})

	_, err := c.Status(context.Background())
	if !errors.Is(err, companion.ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
	if n := hits.Load(); n != 3 {
		t.Errorf("server hit %d times, want 3 attempts", n)
	}
}

func TestPingCheckMeasuresLatency(t *testing.T) {
	c := newTestClient(t)

	p, err := c.PingCheck(context.Background())
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if !p.OK {
		t.Error("ping OK = false")
	}
	if p.LatencyMS < 0 {
		t.Errorf("latency = %g, want non-negative", p.LatencyMS)
	}
}

func TestStatus(t *testing.T) {
	c := newTestClient(t)

	st, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.Connected {
		t.Error("status connected = false")
	}
	if st.DeviceName != "Mock iPhone" {
		t.Errorf("device name = %q, want Mock iPhone", st.DeviceName)
	}
}
