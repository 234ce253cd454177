package wda

import (
	"math/rand/v2"
	"sync"
	"time"
)

// State is the client's current belief about endpoint health. It is a belief,
// not a guarantee: the device can vanish between operations, which is why
// anything other than StateReady forces a probe before the next operation.
type State int

const (
	// StateUnknown means health has not been established, or the last
	// operation failed in a way that says nothing about the endpoint.
	StateUnknown State = iota
	// StateConnecting means a readiness probe is in progress.
	StateConnecting
	// StateReady means the last probe or operation succeeded.
	StateReady
	// StateUnreachable means probing exhausted the retry policy.
	StateUnreachable
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// RetryPolicy controls the readiness probe schedule. Attempt n waits
// BaseDelay doubled n-1 times, capped at MaxDelay, with a random fraction of
// up to +/-Jitter applied so restarting fleets do not probe in lockstep.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64
}

// DefaultRetryPolicy is applied when Config.Retry is the zero value.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    3 * time.Second,
		Jitter:      0.2,
	}
}

// delay returns the backoff before attempt n (0-based). Attempt 0 runs
// immediately.
func (p RetryPolicy) delay(n int) time.Duration {
	if n <= 0 || p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 1; i < n && d < p.MaxDelay; i++ {
		d *= 2
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter > 0 {
		f := 1 + p.Jitter*(2*rand.Float64()-1)
		d = time.Duration(float64(d) * f)
	}
	return d
}

// session tracks endpoint health and the remote session id. Mutating it is
// cheap and frequent, so it has its own lock rather than riding the
// execution slot.
type session struct {
	mu        sync.Mutex
	state     State
	id        string
	lastProbe time.Time
}

func (s *session) currentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	if st == StateReady {
		s.lastProbe = time.Now()
	}
}

func (s *session) sessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *session) setSessionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}

func (s *session) clearSessionID() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
}
