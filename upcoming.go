package main

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobuk/gcalagenda/internal/agenda"
	"github.com/bobuk/gcalagenda/internal/gcal"
	"github.com/bobuk/gcalagenda/internal/settings"
)

type upcomingOptions struct {
	details bool
	json    bool
}

func parseUpcomingFlags(args []string) (upcomingOptions, error) {
	var opts upcomingOptions
	for _, arg := range args {
		switch arg {
		case "--details", "-d":
			opts.details = true
		case "--json":
			opts.json = true
		default:
			return opts, fmt.Errorf("unknown flag for upcoming: %s", arg)
		}
	}
	return opts, nil
}

// fetchEvents loads events of the calendars visible in cfg within window.
func fetchEvents(ctx context.Context, s *session, cfg settings.Configuration, window gcal.Window) ([]gcal.Event, error) {
	calendars, err := s.api.ListCalendars(ctx)
	if err != nil {
		return nil, fmt.Errorf("error retrieving calendars: %w", err)
	}
	calendars = visibleCalendars(calendars, cfg)
	for _, cal := range calendars {
		printVerbosely(2, "  ↪️ Fetching calendar: %s\n", cal.Name)
	}

	events, err := gcal.ListEventsForCalendars(ctx, s.api, calendars, window)
	if err != nil {
		return nil, fmt.Errorf("error retrieving events: %w", err)
	}
	return events, nil
}

func upcomingSections(ctx context.Context, s *session) ([]agenda.Section, error) {
	cfg := s.settings.Get(ctx)
	window := gcal.Window{After: s.config.UpcomingWindow()}

	var (
		events []gcal.Event
		tasks  []gcal.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = fetchEvents(gctx, s, cfg, window)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = s.api.ListUpcomingTasks(gctx)
		if err != nil {
			return fmt.Errorf("error retrieving tasks: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	printVerbosely(1, "📥 Loaded %d events and %d tasks\n", len(events), len(tasks))
	return agenda.Build(events, tasks, cfg, s.now()), nil
}

func showUpcoming(ctx context.Context, s *session, opts upcomingOptions) error {
	sections, err := upcomingSections(ctx, s)
	if err != nil {
		return err
	}
	if opts.json {
		return renderJSON(s.out, sections)
	}
	renderSections(s.out, sections, s.now(), opts.details)
	return nil
}

// showEvents lists past events of one calendar, or of every visible one when
// calendarID is empty.
func showEvents(ctx context.Context, s *session, calendarID string) error {
	cfg := s.settings.Get(ctx)
	window := gcal.Window{Before: s.config.LookbackWindow()}

	var events []gcal.Event
	if calendarID == "" {
		var err error
		events, err = fetchEvents(ctx, s, cfg, window)
		if err != nil {
			return err
		}
	} else {
		calendars, err := s.api.ListCalendars(ctx)
		if err != nil {
			return fmt.Errorf("error retrieving calendars: %w", err)
		}
		cal, ok := findCalendar(calendars, calendarID)
		if !ok {
			return fmt.Errorf("calendar %s does not exist", calendarID)
		}
		events, err = s.api.ListEvents(ctx, cal, window)
		if err != nil {
			return fmt.Errorf("error retrieving events: %w", err)
		}
		// An explicitly requested calendar is shown even when hidden.
		cfg = settings.Default()
	}

	renderSections(s.out, agenda.Build(events, nil, cfg, s.now()), s.now(), true)
	return nil
}

func showTasks(ctx context.Context, s *session) error {
	var (
		lists []gcal.TaskList
		tasks []gcal.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lists, err = s.api.ListTaskLists(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = s.api.ListTasks(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("error retrieving tasks: %w", err)
	}

	byList := make(map[string][]gcal.Task, len(lists))
	for _, task := range tasks {
		byList[task.ListID] = append(byList[task.ListID], task)
	}

	now := s.now()
	for _, list := range lists {
		fmt.Fprintf(s.out, "📋 %s\n", list.Title)
		items := byList[list.ID]
		if len(items) == 0 {
			fmt.Fprintln(s.out, "  (empty)")
			continue
		}
		for _, task := range items {
			renderTask(s.out, task, now, false)
			if !task.Due.IsZero() {
				fmt.Fprintf(s.out, "     📆 due %s\n", dueLabel(now, task.Due))
			}
		}
	}
	return nil
}

// dueLabel names the day within the coming week and falls back to the date.
func dueLabel(now, due time.Time) string {
	offset := agenda.DayOffset(now, due)
	if offset < 0 || offset > 6 {
		return due.Format("Mon, Jan 2")
	}
	return agenda.DayLabel(now, offset)
}
