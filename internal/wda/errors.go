package wda

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoAlert is returned by alert operations when nothing modal is on
	// screen.
	ErrNoAlert = errors.New("no alert present")

	// ErrNoFocusedElement is returned by text input when the endpoint
	// reports that no element has keyboard focus.
	ErrNoFocusedElement = errors.New("no focused element accepts text input")
)

// TransportError means the endpoint could not be reached or answered with
// something that is not the protocol: connection refused, reset, or a body
// that does not decode.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UnreachableError means the endpoint did not report ready within the retry
// policy. It carries the last probe failure.
type UnreachableError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("endpoint %s not ready after %d attempts: %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// TimeoutError means an operation exceeded its deadline. The client drops
// the session to StateUnknown so the next operation re-probes health.
type TimeoutError struct {
	Op      string
	Elapsed time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s", e.Op, e.Elapsed.Round(time.Millisecond))
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func (e *TimeoutError) Timeout() bool { return true }

// RemoteError is a well-formed error payload from the endpoint. The endpoint
// is alive, so receiving one does not change session state.
type RemoteError struct {
	Op         string
	Code       string
	Message    string
	HTTPStatus int
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (http %d)", e.Op, e.Code, e.HTTPStatus)
}

// remoteCode extracts the endpoint error code, if err carries one.
func remoteCode(err error) (string, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Code, true
	}
	return "", false
}

// isStaleSession reports whether the endpoint rejected our session id.
// The caller recreates the session and retries the wire call once.
func isStaleSession(err error) bool {
	code, ok := remoteCode(err)
	return ok && code == "invalid session id"
}

// isUnknownCommand reports whether the endpoint does not implement the
// requested route. Gestures fall back to their legacy endpoints on this.
func isUnknownCommand(err error) bool {
	code, ok := remoteCode(err)
	if ok && code == "unknown command" {
		return true
	}
	var re *RemoteError
	return errors.As(err, &re) && re.HTTPStatus == 404
}
