package gcal

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type EventLister interface {
	ListEvents(ctx context.Context, cal Calendar, window Window) ([]Event, error)
}

// ListEventsForCalendars fetches every calendar concurrently and flattens the
// results in calendar order. The first failing calendar fails the whole batch.
func ListEventsForCalendars(ctx context.Context, lister EventLister, calendars []Calendar, window Window) ([]Event, error) {
	results := make([][]Event, len(calendars))
	g, gctx := errgroup.WithContext(ctx)
	for i, cal := range calendars {
		g.Go(func() error {
			events, err := lister.ListEvents(gctx, cal, window)
			if err != nil {
				return err
			}
			results[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var events []Event
	for _, items := range results {
		events = append(events, items...)
	}
	return events, nil
}
