package wda

import (
	"testing"
	"time"
)

func TestRetryPolicyDelaySchedule(t *testing.T) {
	p := RetryPolicy{
		MaxAttempts: 7,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    3 * time.Second,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1600 * time.Millisecond},
		{5, 3 * time.Second},
		{6, 3 * time.Second},
	}

	for _, tt := range tests {
		if got := p.delay(tt.attempt); got != tt.want {
			t.Errorf("delay(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryPolicyJitterBounds(t *testing.T) {
	p := DefaultRetryPolicy()
	base := 400 * time.Millisecond
	lo := time.Duration(float64(base) * (1 - p.Jitter))
	hi := time.Duration(float64(base) * (1 + p.Jitter))

	for i := 0; i < 100; i++ {
		d := p.delay(2)
		if d < lo || d > hi {
			t.Fatalf("delay(2) = %s outside jitter bounds [%s, %s]", d, lo, hi)
		}
	}
}

func TestRetryPolicyZeroBase(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3}
	for i := 0; i < 3; i++ {
		if got := p.delay(i); got != 0 {
			t.Errorf("delay(%d) with zero base = %s, want 0", i, got)
		}
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUnknown, "unknown"},
		{StateConnecting, "connecting"},
		{StateReady, "ready"},
		{StateUnreachable, "unreachable"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
