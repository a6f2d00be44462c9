package main

import (
	"context"
	"fmt"

	"github.com/bobuk/gcalagenda/internal/gcal"
)

// deleteEvent removes one event and shows the refreshed upcoming agenda.
func deleteEvent(ctx context.Context, s *session, calendarID, eventID string) error {
	fmt.Fprintf(s.out, "🗑  Deleting event %s from calendar %s...\n", eventID, calendarID)

	if err := s.api.DeleteEvent(ctx, eventID, calendarID); err != nil {
		if gcal.IsNotFound(err) {
			return s.reportFailure(ctx, "Event does not exist", err)
		}
		return s.reportFailure(ctx, "Failed to delete event", err)
	}
	fmt.Fprintf(s.out, "✅ Event %s deleted successfully\n\n", eventID)

	return showUpcoming(ctx, s, upcomingOptions{})
}
