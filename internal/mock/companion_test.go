package mock

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mj1618/iphone-cli/internal/companion"
)

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestContactsQueryFilter(t *testing.T) {
	h := NewCompanion().Router()
	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"no filter returns all", "/api/contacts", 5},
		{"first name", "/api/contacts?q=jane", 2},
		{"case insensitive", "/api/contacts?q=JANE", 2},
		{"full name", "/api/contacts?q=jane%20smith", 1},
		{"no match", "/api/contacts?q=zebra", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := perform(t, h, http.MethodGet, tt.target, "")
			var contacts []companion.Contact
			decodeJSON(t, rec, &contacts)
			if len(contacts) != tt.want {
				t.Errorf("got %d contacts, want %d", len(contacts), tt.want)
			}
		})
	}
}

func TestStepsHonorsDaysParam(t *testing.T) {
	h := NewCompanion().Router()
	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"default", "/api/health/steps", 7},
		{"explicit", "/api/health/steps?days=3", 3},
		{"zero falls back", "/api/health/steps?days=0", 7},
		{"garbage falls back", "/api/health/steps?days=x", 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := perform(t, h, http.MethodGet, tt.target, "")
			var steps []companion.HealthSteps
			decodeJSON(t, rec, &steps)
			if len(steps) != tt.want {
				t.Errorf("got %d days, want %d", len(steps), tt.want)
			}
			for _, s := range steps {
				if !s.Mock {
					t.Fatal("record missing mock marker")
				}
			}
		})
	}
}

func TestCollectionSizes(t *testing.T) {
	h := NewCompanion().Router()
	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"heart rate default", "/api/health/heartrate", 10},
		{"heart rate limited", "/api/health/heartrate?limit=3", 3},
		{"sleep default", "/api/health/sleep", 7},
		{"workouts alternate days", "/api/health/workouts?days=7", 4},
		{"events", "/api/calendar/events?days=2", 2},
		{"reminders fixed", "/api/calendar/reminders", 3},
		{"notifications fixed", "/api/notifications", 3},
		{"shortcuts fixed", "/api/shortcuts", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := perform(t, h, http.MethodGet, tt.target, "")
			var items []json.RawMessage
			decodeJSON(t, rec, &items)
			if len(items) != tt.want {
				t.Errorf("got %d items, want %d", len(items), tt.want)
			}
		})
	}
}

func TestShortcutRunMatchesCaseInsensitively(t *testing.T) {
	h := NewCompanion().Router()

	rec := perform(t, h, http.MethodPost, "/api/shortcuts/run", `{"name":"log water"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("http %d, want 200", rec.Code)
	}
	var res companion.ShortcutResult
	decodeJSON(t, rec, &res)
	if res.Name != "Log Water" || res.Output != "ok" {
		t.Errorf("result = %+v", res)
	}

	rec = perform(t, h, http.MethodPost, "/api/shortcuts/run", `{"name":"Self Destruct"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("http %d, want 404", rec.Code)
	}
	var e map[string]string
	decodeJSON(t, rec, &e)
	if !strings.Contains(e["error"], "Self Destruct") {
		t.Errorf("error = %q", e["error"])
	}
}

func TestStatusReportsDeviceIdentity(t *testing.T) {
	h := NewCompanion().Router()
	rec := perform(t, h, http.MethodGet, "/api/status", "")
	var st companion.Status
	decodeJSON(t, rec, &st)
	if st.DeviceName != "Mock iPhone" || st.Version != "0.3.0" || !st.Connected {
		t.Errorf("status = %+v", st)
	}
}
