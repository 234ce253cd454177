package wda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// envelope is the JSON wrapper on every endpoint response. Value holds the
// payload on success and an error object on failure.
type envelope struct {
	Value     json.RawMessage `json:"value"`
	SessionID string          `json:"sessionId"`
}

// wireError is the error object inside a failed envelope.
type wireError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	_, err := c.roundTrip(ctx, op, http.MethodGet, path, nil, out)
	return err
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	_, err := c.roundTrip(ctx, op, http.MethodPost, path, body, out)
	return err
}

// postEnvelope is post, but also hands back the envelope for the callers
// that need the top-level sessionId.
func (c *Client) postEnvelope(ctx context.Context, op, path string, body, out any) (*envelope, error) {
	return c.roundTrip(ctx, op, http.MethodPost, path, body, out)
}

// roundTrip performs one HTTP exchange and decodes the envelope. Failures
// are mapped to the taxonomy: I/O problems become TransportError or
// TimeoutError, well-formed endpoint failures become RemoteError.
func (c *Client) roundTrip(ctx context.Context, op, method, path string, body, out any) (*envelope, error) {
	start := time.Now()

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, mapDoErr(op, time.Since(start), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, mapDoErr(op, time.Since(start), err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			if resp.StatusCode/100 != 2 {
				return nil, &RemoteError{Op: op, Code: http.StatusText(resp.StatusCode), HTTPStatus: resp.StatusCode}
			}
			return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}

	if resp.StatusCode/100 != 2 {
		var we wireError
		if len(env.Value) > 0 {
			_ = json.Unmarshal(env.Value, &we)
		}
		if we.Code == "" {
			we.Code = http.StatusText(resp.StatusCode)
		}
		return nil, &RemoteError{Op: op, Code: we.Code, Message: we.Message, HTTPStatus: resp.StatusCode}
	}

	if out != nil && len(env.Value) > 0 {
		if err := json.Unmarshal(env.Value, out); err != nil {
			return nil, &TransportError{Op: op, Err: fmt.Errorf("decode value: %w", err)}
		}
	}
	return &env, nil
}

// mapDoErr classifies an http.Client failure. Context deadline and net
// timeouts count as timeouts; everything else is transport.
func mapDoErr(op string, elapsed time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Op: op, Elapsed: elapsed, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TimeoutError{Op: op, Elapsed: elapsed, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &TransportError{Op: op, Err: err}
}
