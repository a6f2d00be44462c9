package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/emersion/go-ical"

	"github.com/bobuk/gcalagenda/internal/gcal"
)

const (
	defaultExportFile = "gcalagenda.ics"
	productID         = "-//bobuk//gcalagenda//EN"
)

// buildICalendar converts events into a VCALENDAR. Events Google returned as
// date-only are written with DATE values, everything else in UTC.
func buildICalendar(events []gcal.Event, stamp time.Time) *ical.Calendar {
	calendar := ical.NewCalendar()
	calendar.Props.SetText(ical.PropVersion, "2.0")
	calendar.Props.SetText(ical.PropProductID, productID)

	for _, event := range events {
		icalEvent := ical.NewEvent()
		icalEvent.Props.SetText(ical.PropUID, event.ID+"@"+event.Calendar.ID)
		icalEvent.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
		icalEvent.Props.SetText(ical.PropSummary, event.Title)
		if event.Description != "" {
			icalEvent.Props.SetText(ical.PropDescription, event.Description)
		}
		if event.DateOnly {
			icalEvent.Props.SetDate(ical.PropDateTimeStart, event.Start)
			icalEvent.Props.SetDate(ical.PropDateTimeEnd, event.End)
		} else {
			icalEvent.Props.SetDateTime(ical.PropDateTimeStart, event.Start.UTC())
			icalEvent.Props.SetDateTime(ical.PropDateTimeEnd, event.End.UTC())
		}
		if event.MeetLink != "" {
			icalEvent.Props.SetText(ical.PropURL, event.MeetLink)
		}
		if event.Organizer != nil && event.Organizer.Email != "" {
			organizer := ical.NewProp(ical.PropOrganizer)
			organizer.Value = "mailto:" + event.Organizer.Email
			if event.Organizer.DisplayName != "" {
				organizer.Params.Set(ical.ParamCommonName, event.Organizer.DisplayName)
			}
			icalEvent.Props.Set(organizer)
		}
		icalEvent.Props.SetText(ical.PropStatus, "CONFIRMED")

		calendar.Children = append(calendar.Children, icalEvent.Component)
	}
	return calendar
}

func writeICalendar(w io.Writer, events []gcal.Event, stamp time.Time) error {
	if err := ical.NewEncoder(w).Encode(buildICalendar(events, stamp)); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// exportEvents writes the upcoming events of visible calendars to filename,
// or to stdout when filename is "-".
func exportEvents(ctx context.Context, s *session, filename string) error {
	if filename == "" {
		filename = defaultExportFile
	}

	cfg := s.settings.Get(ctx)
	events, err := fetchEvents(ctx, s, cfg, gcal.Window{After: s.config.UpcomingWindow()})
	if err != nil {
		return err
	}
	now := s.now()

	if filename == "-" {
		return writeICalendar(s.out, events, now)
	}

	f, err := os.Create(filename)
	if err != nil {
		return s.reportFailure(ctx, "Failed to export events", err)
	}
	if err := writeICalendar(f, events, now); err != nil {
		f.Close()
		return s.reportFailure(ctx, "Failed to export events", err)
	}
	if err := f.Close(); err != nil {
		return s.reportFailure(ctx, "Failed to export events", err)
	}

	fmt.Fprintf(s.out, "✅ Exported %d events to %s\n", len(events), filename)
	return nil
}
