package main

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bobuk/gcalagenda/internal/gcal"
	"github.com/bobuk/gcalagenda/internal/settings"
)

// sortCalendars orders visible calendars first, then by name.
func sortCalendars(calendars []gcal.Calendar, cfg settings.Configuration) {
	slices.SortStableFunc(calendars, func(a, b gcal.Calendar) int {
		aHidden, bHidden := cfg.IsHidden(a.ID), cfg.IsHidden(b.ID)
		if aHidden != bHidden {
			if aHidden {
				return 1
			}
			return -1
		}
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
}

func visibleCalendars(calendars []gcal.Calendar, cfg settings.Configuration) []gcal.Calendar {
	visible := make([]gcal.Calendar, 0, len(calendars))
	for _, cal := range calendars {
		if !cfg.IsHidden(cal.ID) {
			visible = append(visible, cal)
		}
	}
	return visible
}

func findCalendar(calendars []gcal.Calendar, calendarID string) (gcal.Calendar, bool) {
	for _, cal := range calendars {
		if cal.ID == calendarID {
			return cal, true
		}
	}
	return gcal.Calendar{}, false
}

type calendarsOptions struct {
	details bool
}

func parseCalendarsFlags(args []string) (calendarsOptions, error) {
	var opts calendarsOptions
	for _, arg := range args {
		switch arg {
		case "--details", "-d":
			opts.details = true
		default:
			return opts, fmt.Errorf("unknown flag for calendars: %s", arg)
		}
	}
	return opts, nil
}

func listCalendars(ctx context.Context, s *session, opts calendarsOptions) error {
	calendars, err := s.api.ListCalendars(ctx)
	if err != nil {
		return fmt.Errorf("error retrieving calendars: %w", err)
	}
	cfg := s.settings.Get(ctx)
	sortCalendars(calendars, cfg)

	fmt.Fprintln(s.out, "📋 Here's the list of your calendars:")
	for _, cal := range calendars {
		mark := "👁 "
		if cfg.IsHidden(cal.ID) {
			mark = "🙈"
		}
		fmt.Fprintf(s.out, "  %s %s (📅 %s)\n", mark, cal.Name, cal.ID)
		if opts.details {
			printCalendarDetails(s, cal)
		}
	}
	return nil
}

// printCalendarDetails writes the non-empty Google properties of cal.
func printCalendarDetails(s *session, cal gcal.Calendar) {
	details := []struct{ label, value string }{
		{"Description", cal.Description},
		{"Time zone", cal.Timezone},
		{"Location", cal.Location},
		{"Color", cal.BackgroundColor},
	}
	for _, d := range details {
		if d.value != "" {
			fmt.Fprintf(s.out, "      %s: %s\n", d.label, d.value)
		}
	}
	if cal.Hidden {
		fmt.Fprintln(s.out, "      Hidden in Google Calendar")
	}
}

// toggleCalendar flips the hidden flag of one calendar and saves the record.
func toggleCalendar(ctx context.Context, s *session, calendarID string) error {
	calendars, err := s.api.ListCalendars(ctx)
	if err != nil {
		return fmt.Errorf("error retrieving calendars: %w", err)
	}
	cal, ok := findCalendar(calendars, calendarID)
	if !ok {
		return fmt.Errorf("calendar %s does not exist", calendarID)
	}

	cfg := s.settings.Get(ctx)
	hidden := !cfg.IsHidden(cal.ID)
	if err := s.settings.Set(ctx, cfg.WithHidden(cal.ID, hidden)); err != nil {
		return s.reportFailure(ctx, "Failed to update calendar visibility", err)
	}

	if hidden {
		fmt.Fprintf(s.out, "🙈 Calendar %s is now hidden\n", cal.Name)
	} else {
		fmt.Fprintf(s.out, "👁  Calendar %s is now shown\n", cal.Name)
	}
	return nil
}
