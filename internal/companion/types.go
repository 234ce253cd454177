package companion

// Response shapes of the companion app's HTTP API. Field names follow the
// wire's snake_case. Records served from canned fixtures carry mock=true so
// agents can tell sample data from the real thing.

// HealthSteps is one day of step data.
type HealthSteps struct {
	Date       string  `yaml:"date" json:"date"`
	Count      int     `yaml:"count" json:"count"`
	DistanceKM float64 `yaml:"distance_km,omitempty" json:"distance_km,omitempty"`
	Mock       bool    `yaml:"mock,omitempty" json:"mock,omitempty"`
}

// HeartRate is one heart rate sample.
type HeartRate struct {
	Timestamp string `yaml:"timestamp" json:"timestamp"`
	BPM       int    `yaml:"bpm" json:"bpm"`
	Context   string `yaml:"context,omitempty" json:"context,omitempty"`
	Mock      bool   `yaml:"mock,omitempty" json:"mock,omitempty"`
}

// SleepSession is one night of sleep.
type SleepSession struct {
	Date          string             `yaml:"date" json:"date"`
	Start         string             `yaml:"start" json:"start"`
	End           string             `yaml:"end" json:"end"`
	DurationHours float64            `yaml:"duration_hours" json:"duration_hours"`
	Stages        map[string]float64 `yaml:"stages,omitempty" json:"stages,omitempty"`
	Mock          bool               `yaml:"mock,omitempty" json:"mock,omitempty"`
}

// Workout is one recorded workout.
type Workout struct {
	Date            string  `yaml:"date" json:"date"`
	Type            string  `yaml:"type" json:"type"`
	DurationMinutes float64 `yaml:"duration_minutes" json:"duration_minutes"`
	Calories        float64 `yaml:"calories,omitempty" json:"calories,omitempty"`
	DistanceKM      float64 `yaml:"distance_km,omitempty" json:"distance_km,omitempty"`
	HeartRateAvg    int     `yaml:"heart_rate_avg,omitempty" json:"heart_rate_avg,omitempty"`
	Mock            bool    `yaml:"mock,omitempty" json:"mock,omitempty"`
}

// HealthSummary aggregates the recent health picture.
type HealthSummary struct {
	StepsToday     int     `yaml:"steps_today" json:"steps_today"`
	RestingBPM     int     `yaml:"resting_bpm,omitempty" json:"resting_bpm,omitempty"`
	SleepHoursLast float64 `yaml:"sleep_hours_last,omitempty" json:"sleep_hours_last,omitempty"`
	WorkoutsWeek   int     `yaml:"workouts_week,omitempty" json:"workouts_week,omitempty"`
	Mock           bool    `yaml:"mock,omitempty" json:"mock,omitempty"`
}

// Location is the device's last known position.
type Location struct {
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
	Altitude  float64 `yaml:"altitude,omitempty" json:"altitude,omitempty"`
	Accuracy  float64 `yaml:"accuracy,omitempty" json:"accuracy,omitempty"`
	Timestamp string  `yaml:"timestamp,omitempty" json:"timestamp,omitempty"`
	Mock      bool    `yaml:"mock,omitempty" json:"mock,omitempty"`
}

// Contact is one address book entry.
type Contact struct {
	ID             string   `yaml:"id" json:"id"`
	FirstName      string   `yaml:"first_name" json:"first_name"`
	LastName       string   `yaml:"last_name" json:"last_name"`
	PhoneNumbers   []string `yaml:"phone_numbers,omitempty" json:"phone_numbers,omitempty"`
	EmailAddresses []string `yaml:"email_addresses,omitempty" json:"email_addresses,omitempty"`
	Mock           bool     `yaml:"mock,omitempty" json:"mock,omitempty"`
}

// CalendarEvent is one calendar entry.
type CalendarEvent struct {
	ID           string `yaml:"id" json:"id"`
	Title        string `yaml:"title" json:"title"`
	Start        string `yaml:"start" json:"start"`
	End          string `yaml:"end" json:"end"`
	Location     string `yaml:"location,omitempty" json:"location,omitempty"`
	CalendarName string `yaml:"calendar_name,omitempty" json:"calendar_name,omitempty"`
	AllDay       bool   `yaml:"all_day,omitempty" json:"all_day,omitempty"`
	Mock         bool   `yaml:"mock,omitempty" json:"mock,omitempty"`
}

// Reminder is one reminders-app entry.
type Reminder struct {
	ID        string `yaml:"id" json:"id"`
	Title     string `yaml:"title" json:"title"`
	DueDate   string `yaml:"due_date,omitempty" json:"due_date,omitempty"`
	Completed bool   `yaml:"completed,omitempty" json:"completed,omitempty"`
	ListName  string `yaml:"list_name,omitempty" json:"list_name,omitempty"`
	Mock      bool   `yaml:"mock,omitempty" json:"mock,omitempty"`
}

// Notification is one notification center entry.
type Notification struct {
	ID        string `yaml:"id" json:"id"`
	App       string `yaml:"app" json:"app"`
	Title     string `yaml:"title" json:"title"`
	Body      string `yaml:"body,omitempty" json:"body,omitempty"`
	Timestamp string `yaml:"timestamp,omitempty" json:"timestamp,omitempty"`
	Mock      bool   `yaml:"mock,omitempty" json:"mock,omitempty"`
}

// Shortcut is one installed Shortcuts automation.
type Shortcut struct {
	Name        string `yaml:"name" json:"name"`
	ID          string `yaml:"id,omitempty" json:"id,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Mock        bool   `yaml:"mock,omitempty" json:"mock,omitempty"`
}

// ShortcutResult is the outcome of running a shortcut.
type ShortcutResult struct {
	Name   string `yaml:"name" json:"name"`
	Output any    `yaml:"output,omitempty" json:"output,omitempty"`
	Error  string `yaml:"error,omitempty" json:"error,omitempty"`
	Mock   bool   `yaml:"mock,omitempty" json:"mock,omitempty"`
}

// Status describes the companion app itself.
type Status struct {
	Connected    bool   `yaml:"connected" json:"connected"`
	Version      string `yaml:"version,omitempty" json:"version,omitempty"`
	DeviceName   string `yaml:"device_name,omitempty" json:"device_name,omitempty"`
	BatteryLevel int    `yaml:"battery_level,omitempty" json:"battery_level,omitempty"`
	Mock         bool   `yaml:"mock,omitempty" json:"mock,omitempty"`
}

// Ping is a round-trip check with the measured latency attached client-side.
type Ping struct {
	OK        bool    `yaml:"ok" json:"ok"`
	LatencyMS float64 `yaml:"latency_ms" json:"latency_ms"`
}
