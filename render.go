package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/bobuk/gcalagenda/internal/agenda"
	"github.com/bobuk/gcalagenda/internal/gcal"
)

var responseLabels = map[string]string{
	gcal.ResponseAccepted:    "✅ going",
	gcal.ResponseDeclined:    "❌ not going",
	gcal.ResponseTentative:   "❔ maybe",
	gcal.ResponseNeedsAction: "⏳ awaiting",
}

func responseLabel(status string) string {
	if label, ok := responseLabels[status]; ok {
		return label
	}
	return status
}

func renderSections(w io.Writer, sections []agenda.Section, now time.Time, details bool) {
	if len(sections) == 0 {
		fmt.Fprintln(w, "🎉 Nothing planned")
		return
	}
	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "🗓  %s\n", section.Label)
		for _, item := range section.Items {
			switch item.Kind {
			case agenda.KindEvent:
				renderEvent(w, *item.Event, now, details)
			case agenda.KindTask:
				renderTask(w, *item.Task, now, details)
			}
		}
	}
}

func eventSubtitle(event gcal.Event) string {
	if event.AllDay() {
		days := int(event.Duration().Round(24*time.Hour) / (24 * time.Hour))
		if days > 1 {
			return fmt.Sprintf("All day (%d days)", days)
		}
		return "All day"
	}
	return agenda.TimeRange(event.Start, event.End)
}

func renderEvent(w io.Writer, event gcal.Event, now time.Time, details bool) {
	title := event.Title
	if title == "" {
		title = "(no title)"
	}
	fmt.Fprintf(w, "  📅 %s  %s  [%s]\n", eventSubtitle(event), title, event.Calendar.Name)
	if !details {
		return
	}

	if !event.AllDay() {
		fmt.Fprintf(w, "     ⏱  %s\n", humanize.RelTime(event.Start, now, "ago", "from now"))
	}
	if description := strings.TrimSpace(event.Description); description != "" {
		for _, line := range strings.Split(description, "\n") {
			fmt.Fprintf(w, "     %s\n", strings.TrimRight(line, "\r "))
		}
	}
	if event.Organizer != nil {
		fmt.Fprintf(w, "     👤 %s (organizer)\n", event.Organizer.Label())
	}
	for _, guest := range event.Guests() {
		fmt.Fprintf(w, "     👥 %s %s\n", guest.Label(), responseLabel(guest.ResponseStatus))
	}
	if event.MeetLink != "" {
		fmt.Fprintf(w, "     🎥 %s\n", event.MeetLink)
	}
	if event.Conference != nil {
		for _, participant := range event.Conference.Participants {
			name := participant.DisplayName
			if name == "" {
				name = participant.Name
			}
			if participant.JoinTime.IsZero() {
				fmt.Fprintf(w, "     🙋 %s\n", name)
				continue
			}
			fmt.Fprintf(w, "     🙋 %s joined %s\n", name, participant.JoinTime.In(now.Location()).Format("15:04"))
		}
	}
	fmt.Fprintf(w, "     🆔 %s\n", event.ID)
}

func renderTask(w io.Writer, task gcal.Task, now time.Time, details bool) {
	mark := "☑️ "
	if task.Status == "completed" {
		mark = "✅"
	}
	fmt.Fprintf(w, "  %s %s\n", mark, task.Title)
	if details && !task.Updated.IsZero() {
		fmt.Fprintf(w, "     ✏️  updated %s\n", humanize.RelTime(task.Updated, now, "ago", "from now"))
	}
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
