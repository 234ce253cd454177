package input

import (
	"testing"
	"time"
)

func TestInterpolateEndpointsExact(t *testing.T) {
	steps := Interpolate(100, 800, 250, 200, 250*time.Millisecond)

	first, last := steps[0], steps[len(steps)-1]
	if first.X != 100 || first.Y != 800 {
		t.Errorf("first step = (%g, %g), want (100, 800)", first.X, first.Y)
	}
	if first.Duration != 0 {
		t.Errorf("press step duration = %s, want 0", first.Duration)
	}
	if last.X != 250 || last.Y != 200 {
		t.Errorf("last step = (%g, %g), want exactly (250, 200)", last.X, last.Y)
	}
}

func TestInterpolateDurationsSumExactly(t *testing.T) {
	// 334ms does not divide evenly across steps; the remainder lands on the
	// final step.
	totals := []time.Duration{
		250 * time.Millisecond,
		334 * time.Millisecond,
		time.Second + time.Nanosecond,
		10 * time.Millisecond,
	}

	for _, total := range totals {
		steps := Interpolate(0, 0, 100, 100, total)
		var sum time.Duration
		for _, st := range steps {
			sum += st.Duration
		}
		if sum != total {
			t.Errorf("total %s: durations sum to %s", total, sum)
		}
	}
}

func TestInterpolateMonotonicPath(t *testing.T) {
	steps := Interpolate(100, 800, 100, 200, 300*time.Millisecond)

	prev := steps[0]
	for _, st := range steps[1:] {
		if st.X != 100 {
			t.Errorf("x drifted to %g on a vertical swipe", st.X)
		}
		if st.Y >= prev.Y {
			t.Errorf("y went %g -> %g, want strictly decreasing", prev.Y, st.Y)
		}
		if st.Duration <= 0 {
			t.Errorf("waypoint duration = %s, want positive", st.Duration)
		}
		prev = st
	}
}

func TestInterpolateStepClamping(t *testing.T) {
	tests := []struct {
		total     time.Duration
		wantSteps int
	}{
		{10 * time.Millisecond, 3},  // below the floor: press + 2 waypoints
		{250 * time.Millisecond, 6}, // one waypoint per 50ms
		{5 * time.Second, 21},       // capped: press + 20 waypoints
	}

	for _, tt := range tests {
		steps := Interpolate(0, 0, 100, 100, tt.total)
		if len(steps) != tt.wantSteps {
			t.Errorf("Interpolate total %s produced %d steps, want %d",
				tt.total, len(steps), tt.wantSteps)
		}
	}
}
