package phone

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const doctorProbeTimeout = 2 * time.Second

// DoctorCheck is one probe in a doctor run.
type DoctorCheck struct {
	Name      string  `yaml:"name" json:"name"`
	OK        bool    `yaml:"ok" json:"ok"`
	LatencyMS float64 `yaml:"latency_ms" json:"latency_ms"`
	Detail    string  `yaml:"detail,omitempty" json:"detail,omitempty"`
	Error     string  `yaml:"error,omitempty" json:"error,omitempty"`
}

// DoctorReport is the outcome of probing every layer between this process
// and the device.
type DoctorReport struct {
	Healthy bool          `yaml:"healthy" json:"healthy"`
	Checks  []DoctorCheck `yaml:"checks" json:"checks"`
}

// Doctor probes the endpoint, readiness, session creation, screenshot
// capture, and the companion app, reporting each check with its latency.
// Failures land in the report, not in an error.
func (p *Phone) Doctor(ctx context.Context) *DoctorReport {
	r := &DoctorReport{Healthy: true}

	r.run("endpoint", func() (string, error) {
		return p.rawStatusProbe(ctx)
	})
	ready := r.run("ready", func() (string, error) {
		return "", p.dev.EnsureReady(ctx)
	})
	if ready {
		r.run("session", func() (string, error) {
			info, err := p.dev.ActiveApp(ctx)
			return info.BundleID, err
		})
		r.run("screenshot", func() (string, error) {
			cap, err := p.pipeline.Capture(ctx)
			if err != nil {
				return "", err
			}
			return cap.Geometry.String(), nil
		})
	} else {
		r.skip("session", "endpoint not ready")
		r.skip("screenshot", "endpoint not ready")
	}
	r.run("companion", func() (string, error) {
		st, err := p.companion.Status(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (v%s)", st.DeviceName, st.Version), nil
	})
	return r
}

// rawStatusProbe hits /status directly, outside the command channel, so the
// report can separate "nothing answers there" from "answers but not ready".
func (p *Phone) rawStatusProbe(ctx context.Context) (string, error) {
	pctx, cancel := context.WithTimeout(ctx, doctorProbeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(pctx, http.MethodGet, p.dev.Endpoint()+"/status", nil)
	if err != nil {
		return "", err
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return "", err
	}
	resp.Body.Close()
	return fmt.Sprintf("http %d from %s", resp.StatusCode, p.dev.Endpoint()), nil
}

func (r *DoctorReport) run(name string, fn func() (string, error)) bool {
	start := time.Now()
	detail, err := fn()
	c := DoctorCheck{
		Name:      name,
		OK:        err == nil,
		LatencyMS: float64(time.Since(start).Microseconds()) / 1000,
		Detail:    detail,
	}
	if err != nil {
		c.Error = err.Error()
		r.Healthy = false
	}
	r.Checks = append(r.Checks, c)
	return c.OK
}

func (r *DoctorReport) skip(name, why string) {
	r.Healthy = false
	r.Checks = append(r.Checks, DoctorCheck{Name: name, Error: "skipped: " + why})
}
