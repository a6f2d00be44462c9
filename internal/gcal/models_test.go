package gcal

import (
	"testing"
	"time"
)

func TestEventAllDay(t *testing.T) {
	t.Parallel()

	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{name: "one_hour", start: day.Add(9 * time.Hour), end: day.Add(10 * time.Hour), want: false},
		{name: "exactly_one_day", start: day, end: day.AddDate(0, 0, 1), want: true},
		{name: "one_minute_short", start: day, end: day.Add(23*time.Hour + 59*time.Minute), want: false},
		{name: "several_days", start: day, end: day.AddDate(0, 0, 3), want: true},
		{name: "zero_length", start: day, end: day, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			event := Event{Start: tc.start, End: tc.end}
			if got := event.AllDay(); got != tc.want {
				t.Fatalf("AllDay() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEventAllDay_AcrossDaylightSaving(t *testing.T) {
	t.Parallel()

	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	// 2024-03-31 has 23 hours in Berlin.
	start := time.Date(2024, 3, 31, 0, 0, 0, 0, berlin)
	event := Event{Start: start, End: time.Date(2024, 4, 1, 0, 0, 0, 0, berlin)}
	if !event.AllDay() {
		t.Fatalf("expected short DST day to count as all-day")
	}
}
