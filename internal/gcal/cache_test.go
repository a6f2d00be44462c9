package gcal

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingAPI struct {
	calls     map[string]int
	deleteErr error
}

func newCountingAPI() *countingAPI {
	return &countingAPI{calls: make(map[string]int)}
}

func (c *countingAPI) ListCalendars(context.Context) ([]Calendar, error) {
	c.calls["calendars"]++
	return []Calendar{{ID: "work"}}, nil
}

func (c *countingAPI) ListEvents(_ context.Context, cal Calendar, _ Window) ([]Event, error) {
	c.calls["events:"+cal.ID]++
	return []Event{{ID: "e1", Calendar: cal}}, nil
}

func (c *countingAPI) ListTaskLists(context.Context) ([]TaskList, error) {
	c.calls["tasklists"]++
	return nil, nil
}

func (c *countingAPI) ListTasks(context.Context) ([]Task, error) {
	c.calls["tasks"]++
	return nil, nil
}

func (c *countingAPI) ListUpcomingTasks(context.Context) ([]Task, error) {
	c.calls["upcoming"]++
	return []Task{{ID: "t1"}}, nil
}

func (c *countingAPI) CreateEvent(context.Context, CreateEventRequest) (string, error) {
	c.calls["create"]++
	return "new", nil
}

func (c *countingAPI) DeleteEvent(context.Context, string, string) error {
	c.calls["delete"]++
	return c.deleteErr
}

func TestCachedClient_ReusesReadsUntilMutation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	api := newCountingAPI()
	cached := NewCachedClient(api, 16, time.Minute)
	cal := Calendar{ID: "work"}

	for range 3 {
		if _, err := cached.ListEvents(ctx, cal, NextWeek); err != nil {
			t.Fatalf("list events: %v", err)
		}
	}
	if api.calls["events:work"] != 1 {
		t.Fatalf("expected 1 upstream call, got %d", api.calls["events:work"])
	}

	if _, err := cached.ListEvents(ctx, cal, PastWeek); err != nil {
		t.Fatalf("list events: %v", err)
	}
	if api.calls["events:work"] != 2 {
		t.Fatalf("different window must miss the cache, got %d calls", api.calls["events:work"])
	}

	if _, err := cached.CreateEvent(ctx, CreateEventRequest{Calendar: cal, DurationMinutes: 30}); err != nil {
		t.Fatalf("create event: %v", err)
	}
	if cached.Len() != 0 {
		t.Fatalf("expected cache purged after create, has %d entries", cached.Len())
	}

	if _, err := cached.ListEvents(ctx, cal, NextWeek); err != nil {
		t.Fatalf("list events: %v", err)
	}
	if api.calls["events:work"] != 3 {
		t.Fatalf("expected refetch after mutation, got %d calls", api.calls["events:work"])
	}
}

func TestCachedClient_FailedMutationKeepsEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	api := newCountingAPI()
	api.deleteErr = &APIError{Status: 404}
	cached := NewCachedClient(api, 16, time.Minute)

	if _, err := cached.ListUpcomingTasks(ctx); err != nil {
		t.Fatalf("list tasks: %v", err)
	}

	err := cached.DeleteEvent(ctx, "missing", "work")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if cached.Len() != 1 {
		t.Fatalf("expected cache untouched, has %d entries", cached.Len())
	}
}

func TestCachedClient_ReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cached := NewCachedClient(newCountingAPI(), 16, time.Minute)

	first, err := cached.ListCalendars(ctx)
	if err != nil {
		t.Fatalf("list calendars: %v", err)
	}
	first[0].Name = "mutated"

	second, err := cached.ListCalendars(ctx)
	if err != nil {
		t.Fatalf("list calendars: %v", err)
	}
	if second[0].Name == "mutated" {
		t.Fatalf("cached slice shared with caller")
	}
}
