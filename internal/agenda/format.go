package agenda

import (
	"strconv"
	"strings"
	"time"
)

// FormatDuration renders d as whole hours and minutes, e.g. "1 hour 30 minutes".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	minutes := int(d.Round(time.Minute) / time.Minute)
	hours := minutes / 60
	minutes %= 60

	parts := make([]string, 0, 2)
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 || hours == 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

// TimeRange is the "15:04 - 16:00 (1 hour)" subtitle of a timed event.
func TimeRange(start, end time.Time) string {
	return start.Format("15:04") + " - " + end.Format("15:04") + " (" + FormatDuration(end.Sub(start)) + ")"
}
