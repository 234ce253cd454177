package mock

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mj1618/iphone-cli/internal/companion"
)

// Companion is an in-memory companion app serving deterministic-enough
// sample data for development and tests. Every record carries mock=true.
type Companion struct {
	DeviceName string
	Version    string
}

// NewCompanion returns the default mock companion.
func NewCompanion() *Companion {
	return &Companion{DeviceName: "Mock iPhone", Version: "0.3.0"}
}

// Router mounts the companion API routes.
func (c *Companion) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/health/steps", c.handleSteps)
	r.Get("/api/health/heartrate", c.handleHeartRate)
	r.Get("/api/health/sleep", c.handleSleep)
	r.Get("/api/health/workouts", c.handleWorkouts)
	r.Get("/api/health/summary", c.handleSummary)
	r.Get("/api/location", c.handleLocation)
	r.Get("/api/contacts", c.handleContacts)
	r.Get("/api/calendar/events", c.handleEvents)
	r.Get("/api/calendar/reminders", c.handleReminders)
	r.Get("/api/notifications", c.handleNotifications)
	r.Get("/api/shortcuts", c.handleShortcuts)
	r.Post("/api/shortcuts/run", c.handleShortcutRun)
	r.Get("/api/status", c.handleStatus)
	r.Get("/api/ping", c.handlePing)
	return r
}

func intQuery(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (c *Companion) handleSteps(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 7)
	out := make([]companion.HealthSteps, 0, days)
	for i := 0; i < days; i++ {
		day := time.Now().AddDate(0, 0, -i)
		out = append(out, companion.HealthSteps{
			Date:       day.Format("2006-01-02"),
			Count:      6500 + (i*937)%4200,
			DistanceKM: 4.2 + float64(i%3),
			Mock:       true,
		})
	}
	writeJSON(w, out)
}

func (c *Companion) handleHeartRate(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 10)
	contexts := []string{"resting", "walking", "workout"}
	out := make([]companion.HeartRate, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, companion.HeartRate{
			Timestamp: time.Now().Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
			BPM:       65 + i*3 + (i%3)*10,
			Context:   contexts[i%len(contexts)],
			Mock:      true,
		})
	}
	writeJSON(w, out)
}

func (c *Companion) handleSleep(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 7)
	out := make([]companion.SleepSession, 0, days)
	for i := 0; i < days; i++ {
		day := time.Now().AddDate(0, 0, -i)
		start := time.Date(day.Year(), day.Month(), day.Day(), 23, 15, 0, 0, time.Local).AddDate(0, 0, -1)
		end := start.Add(7*time.Hour + 40*time.Minute)
		out = append(out, companion.SleepSession{
			Date:          day.Format("2006-01-02"),
			Start:         start.Format(time.RFC3339),
			End:           end.Format(time.RFC3339),
			DurationHours: 7.7,
			Stages:        map[string]float64{"deep": 1.4, "rem": 1.9, "core": 4.4},
			Mock:          true,
		})
	}
	writeJSON(w, out)
}

func (c *Companion) handleWorkouts(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 7)
	kinds := []string{"running", "cycling", "swimming"}
	out := make([]companion.Workout, 0, days/2+1)
	for i := 0; i < days; i += 2 {
		day := time.Now().AddDate(0, 0, -i)
		out = append(out, companion.Workout{
			Date:            day.Format("2006-01-02"),
			Type:            kinds[(i/2)%len(kinds)],
			DurationMinutes: 35 + float64((i*7)%25),
			Calories:        320 + float64((i*41)%180),
			DistanceKM:      5.5,
			HeartRateAvg:    132,
			Mock:            true,
		})
	}
	writeJSON(w, out)
}

func (c *Companion) handleSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, companion.HealthSummary{
		StepsToday:     8432,
		RestingBPM:     61,
		SleepHoursLast: 7.7,
		WorkoutsWeek:   3,
		Mock:           true,
	})
}

func (c *Companion) handleLocation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, companion.Location{
		Latitude:  37.7749,
		Longitude: -122.4194,
		Altitude:  16,
		Accuracy:  5,
		Timestamp: time.Now().Format(time.RFC3339),
		Mock:      true,
	})
}

func mockContacts() []companion.Contact {
	return []companion.Contact{
		{ID: "c1", FirstName: "Jane", LastName: "Smith", PhoneNumbers: []string{"+1-555-0101"}, EmailAddresses: []string{"jane@example.com"}, Mock: true},
		{ID: "c2", FirstName: "John", LastName: "Doe", PhoneNumbers: []string{"+1-555-0102", "+1-555-0103"}, EmailAddresses: []string{"john@example.com"}, Mock: true},
		{ID: "c3", FirstName: "Alice", LastName: "Johnson", PhoneNumbers: []string{"+1-555-0104"}, EmailAddresses: []string{"alice@example.com", "ajohnson@work.com"}, Mock: true},
		{ID: "c4", FirstName: "Bob", LastName: "Williams", PhoneNumbers: []string{"+1-555-0105"}, Mock: true},
		{ID: "c5", FirstName: "Jane", LastName: "Doe", PhoneNumbers: []string{"+1-555-0106"}, EmailAddresses: []string{"jane.doe@example.com"}, Mock: true},
	}
}

func (c *Companion) handleContacts(w http.ResponseWriter, r *http.Request) {
	all := mockContacts()
	q := strings.ToLower(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, all)
		return
	}
	out := make([]companion.Contact, 0, len(all))
	for _, ct := range all {
		if strings.Contains(strings.ToLower(ct.FirstName+" "+ct.LastName), q) {
			out = append(out, ct)
		}
	}
	writeJSON(w, out)
}

func (c *Companion) handleEvents(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 7)
	titles := []string{"Team Standup", "Lunch with Alex", "Project Review", "Gym", "Dentist"}
	out := make([]companion.CalendarEvent, 0, days)
	for i := 0; i < days; i++ {
		start := time.Now().AddDate(0, 0, i).Truncate(time.Hour)
		out = append(out, companion.CalendarEvent{
			ID:           "e" + strconv.Itoa(i+1),
			Title:        titles[i%len(titles)],
			Start:        start.Format(time.RFC3339),
			End:          start.Add(time.Hour).Format(time.RFC3339),
			CalendarName: "Work",
			Mock:         true,
		})
	}
	writeJSON(w, out)
}

func (c *Companion) handleReminders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, []companion.Reminder{
		{ID: "r1", Title: "Buy groceries", DueDate: time.Now().AddDate(0, 0, 1).Format("2006-01-02"), ListName: "Personal", Mock: true},
		{ID: "r2", Title: "Submit report", DueDate: time.Now().Format("2006-01-02"), ListName: "Work", Mock: true},
		{ID: "r3", Title: "Call dentist", Completed: true, ListName: "Personal", Mock: true},
	})
}

func (c *Companion) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, []companion.Notification{
		{ID: "n1", App: "Messages", Title: "Jane Smith", Body: "Hey, are you free for lunch?", Timestamp: time.Now().Add(-5 * time.Minute).Format(time.RFC3339), Mock: true},
		{ID: "n2", App: "Mail", Title: "Project Update", Body: "The deployment is scheduled for...", Timestamp: time.Now().Add(-30 * time.Minute).Format(time.RFC3339), Mock: true},
		{ID: "n3", App: "Calendar", Title: "Team Standup in 15 min", Body: "Zoom meeting starting soon", Timestamp: time.Now().Add(-time.Hour).Format(time.RFC3339), Mock: true},
	})
}

func mockShortcuts() []companion.Shortcut {
	return []companion.Shortcut{
		{Name: "Good Morning", ID: "s1", Description: "Reads the day's schedule aloud", Mock: true},
		{Name: "Log Water", ID: "s2", Description: "Adds a glass of water to Health", Mock: true},
		{Name: "Heading Home", ID: "s3", Description: "Texts ETA to favorites", Mock: true},
	}
}

func (c *Companion) handleShortcuts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, mockShortcuts())
}

func (c *Companion) handleShortcutRun(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	for _, s := range mockShortcuts() {
		if strings.EqualFold(s.Name, body.Name) {
			writeJSON(w, companion.ShortcutResult{Name: s.Name, Output: "ok", Mock: true})
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "shortcut not found: " + body.Name})
}

func (c *Companion) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, companion.Status{
		Connected:    true,
		Version:      c.Version,
		DeviceName:   c.DeviceName,
		BatteryLevel: 82,
		Mock:         true,
	})
}

func (c *Companion) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"ok": true})
}
