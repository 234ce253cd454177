package screen

import "fmt"

// CaptureError wraps a failure while grabbing the screenshot or geometry.
type CaptureError struct {
	Stage string
	Err   error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %s: %v", e.Stage, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// QueryError wraps a failure while reading or decoding the element tree.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("element query: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ContextError marks which stage sank a snapshot build. A Context is
// all-or-nothing: callers never see a partial one.
type ContextError struct {
	Stage string
	Err   error
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("context %s: %v", e.Stage, e.Err)
}

func (e *ContextError) Unwrap() error { return e.Err }
