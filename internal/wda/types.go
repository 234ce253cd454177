package wda

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Screen is one capture as observed on the wire: raw image bytes plus the
// endpoint-reported display geometry. Coordinates here are points; the
// screen package converts to the pixel frame.
type Screen struct {
	PNG         []byte
	PointWidth  float64
	PointHeight float64
	Scale       float64
	Orientation string
}

// AppInfo identifies the foreground application.
type AppInfo struct {
	BundleID string `yaml:"bundleId" json:"bundleId"`
	Name     string `yaml:"name" json:"name"`
	PID      int    `yaml:"pid" json:"pid"`
}

// PathStep is one waypoint of a pointer gesture. Duration is the time the
// pointer spends travelling to (X, Y) from the previous step.
type PathStep struct {
	X        float64
	Y        float64
	Duration time.Duration
}

// FoundElement is one hit from a predicate search, still in point
// coordinates.
type FoundElement struct {
	Type  string
	Label string
	Value string
	Rect  RawRect
}

// RawRect is the endpoint's rect object.
type RawRect struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// RawElement is one node of the element tree as decoded off the wire,
// before any coordinate normalization or filtering.
type RawElement struct {
	Type     string       `yaml:"type" json:"type"`
	Name     string       `yaml:"name" json:"name"`
	Label    string       `yaml:"label" json:"label"`
	Value    FlexString   `yaml:"value" json:"value"`
	Enabled  FlexBool     `yaml:"isEnabled" json:"isEnabled"`
	Visible  FlexBool     `yaml:"isVisible" json:"isVisible"`
	Rect     *RawRect     `yaml:"rect" json:"rect"`
	Frame    string       `yaml:"frame" json:"frame"`
	Children []RawElement `yaml:"children" json:"children"`
}

// FlexBool decodes the endpoint's assorted boolean spellings: true, 1, "1",
// "true". Everything else is false.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	switch s {
	case "true", "1", `"1"`, `"true"`:
		*b = true
	default:
		*b = false
	}
	return nil
}

// FlexString decodes a value that may arrive as a string, number, or bool.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) > 0 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = FlexString(v)
		return nil
	}
	if s == "true" || s == "false" {
		*f = FlexString(s)
		return nil
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		*f = FlexString(strconv.FormatFloat(n, 'f', -1, 64))
		return nil
	}
	*f = FlexString(s)
	return nil
}
