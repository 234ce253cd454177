package input

import (
	"time"

	"github.com/mj1618/iphone-cli/internal/wda"
)

const (
	// stepInterval is the target time between swipe waypoints.
	stepInterval = 50 * time.Millisecond
	minSteps     = 2
	maxSteps     = 20
)

// Interpolate builds the waypoints for a drag from (x1, y1) to (x2, y2):
// linear in space, linear in time. The first step is the press point; each
// later step carries the travel time to reach it, and the step durations
// sum exactly to total. The final waypoint lands exactly on (x2, y2).
func Interpolate(x1, y1, x2, y2 float64, total time.Duration) []wda.PathStep {
	steps := int(total / stepInterval)
	if steps < minSteps {
		steps = minSteps
	}
	if steps > maxSteps {
		steps = maxSteps
	}

	out := make([]wda.PathStep, 0, steps+1)
	out = append(out, wda.PathStep{X: x1, Y: y1})

	seg := total / time.Duration(steps)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		d := seg
		if i == steps {
			// Absorb division remainder so the path duration is exact.
			d = total - seg*time.Duration(steps-1)
		}
		out = append(out, wda.PathStep{
			X:        x1 + (x2-x1)*t,
			Y:        y1 + (y2-y1)*t,
			Duration: d,
		})
	}
	return out
}
