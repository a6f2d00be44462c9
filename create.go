package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/bobuk/gcalagenda/internal/gcal"
)

var (
	durationChoices = []int{15, 30, 45, 60, 90, 120}
	durationPattern = regexp.MustCompile(`^(\d+)\s*([mh])$`)
	startLayouts    = []string{"2006-01-02 15:04", "2006-01-02T15:04"}
)

const defaultDurationMinutes = 30

var startParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// parseDuration accepts "30m", "2h" or a bare number of minutes.
func parseDuration(input string) (int, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return 0, errors.New("duration is empty")
	}

	if minutes, err := strconv.Atoi(input); err == nil {
		if minutes <= 0 {
			return 0, fmt.Errorf("duration must be positive, got %d", minutes)
		}
		return minutes, nil
	}

	match := durationPattern.FindStringSubmatch(input)
	if match == nil {
		return 0, fmt.Errorf("invalid duration %q, use e.g. 30m or 2h", input)
	}
	value, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", input, err)
	}
	if match[2] == "h" {
		value *= 60
	}
	if value <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", input)
	}
	return value, nil
}

// parseStart understands "YYYY-MM-DD HH:MM" and natural language such as
// "tomorrow 3pm". Empty input means the next full hour.
func parseStart(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nextHour(now), nil
	}
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, input, now.Location()); err == nil {
			return t, nil
		}
	}

	result, err := startParser.Parse(input, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot understand start %q: %w", input, err)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("cannot understand start %q", input)
	}
	return result.Time, nil
}

func nextHour(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), now.Hour()+1, 0, 0, 0, now.Location())
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (p *prompter) ask(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && line != "":
	case errors.Is(err, io.EOF):
		return "", io.ErrUnexpectedEOF
	default:
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// askUntil repeats the question until parse accepts the answer.
func askUntil[T any](p *prompter, label string, parse func(string) (T, error)) (T, error) {
	for {
		answer, err := p.ask(label)
		if err != nil {
			var zero T
			return zero, err
		}
		value, err := parse(answer)
		if err == nil {
			return value, nil
		}
		fmt.Fprintf(p.out, "  ❗️ %v\n", err)
	}
}

func createEvent(ctx context.Context, s *session, args []string) error {
	calendars, err := s.api.ListCalendars(ctx)
	if err != nil {
		return fmt.Errorf("error retrieving calendars: %w", err)
	}
	if len(calendars) == 0 {
		return errors.New("no calendars available")
	}
	cfg := s.settings.Get(ctx)
	sortCalendars(calendars, cfg)

	now := s.now()
	p := newPrompter(s.in, s.out)
	fmt.Fprintln(s.out, "🚀 Creating a new event...")

	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		title, err = askUntil(p, "📝 Title: ", func(answer string) (string, error) {
			if answer == "" {
				return "", errors.New("title is required")
			}
			return answer, nil
		})
		if err != nil {
			return err
		}
	}

	description, err := p.ask("🗒  Description (optional): ")
	if err != nil {
		return err
	}

	start, err := askUntil(p, fmt.Sprintf("🕒 Start (e.g. tomorrow 3pm) [%s]: ", nextHour(now).Format("Mon Jan 2 15:04")),
		func(answer string) (time.Time, error) { return parseStart(answer, now) })
	if err != nil {
		return err
	}

	choices := make([]string, len(durationChoices))
	for i, minutes := range durationChoices {
		choices[i] = strconv.Itoa(minutes)
	}
	duration, err := askUntil(p, fmt.Sprintf("⏱  Duration in minutes or 30m/2h (%s) [%d]: ", strings.Join(choices, ", "), defaultDurationMinutes),
		func(answer string) (int, error) {
			if answer == "" {
				return defaultDurationMinutes, nil
			}
			return parseDuration(answer)
		})
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, "📅 Calendars:")
	for i, cal := range calendars {
		suffix := ""
		if cfg.IsHidden(cal.ID) {
			suffix = " (hidden)"
		}
		fmt.Fprintf(s.out, "  %d: %s%s\n", i+1, cal.Name, suffix)
	}
	cal, err := askUntil(p, "Enter calendar number [1]: ", func(answer string) (gcal.Calendar, error) {
		if answer == "" {
			return calendars[0], nil
		}
		n, err := strconv.Atoi(answer)
		if err != nil || n < 1 || n > len(calendars) {
			return gcal.Calendar{}, fmt.Errorf("pick a number between 1 and %d", len(calendars))
		}
		return calendars[n-1], nil
	})
	if err != nil {
		return err
	}

	req := gcal.CreateEventRequest{
		Title:           title,
		Description:     description,
		Start:           start,
		DurationMinutes: duration,
		Calendar:        cal,
	}
	eventID, err := s.api.CreateEvent(ctx, req)
	if err != nil {
		return s.reportFailure(ctx, "Failed to create event", err)
	}

	fmt.Fprintf(s.out, "✅ Event %s created in %s: %s (%s)\n", title, cal.Name,
		req.Start.Format("Mon Jan 2 15:04"), eventID)
	return nil
}
