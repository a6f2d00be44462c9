package gcal

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// API is the surface shared by Client and CachedClient.
type API interface {
	ListCalendars(ctx context.Context) ([]Calendar, error)
	ListEvents(ctx context.Context, cal Calendar, window Window) ([]Event, error)
	ListTaskLists(ctx context.Context) ([]TaskList, error)
	ListTasks(ctx context.Context) ([]Task, error)
	ListUpcomingTasks(ctx context.Context) ([]Task, error)
	CreateEvent(ctx context.Context, req CreateEventRequest) (string, error)
	DeleteEvent(ctx context.Context, eventID, calendarID string) error
}

const defaultCacheSize = 256

// CachedClient memoizes reads by request signature. Any successful mutation
// purges every entry.
type CachedClient struct {
	api     API
	entries *expirable.LRU[string, any]
}

func NewCachedClient(api API, size int, ttl time.Duration) *CachedClient {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedClient{
		api:     api,
		entries: expirable.NewLRU[string, any](size, nil, ttl),
	}
}

func (c *CachedClient) ListCalendars(ctx context.Context) ([]Calendar, error) {
	return cachedList(c, signature("calendars"), func() ([]Calendar, error) {
		return c.api.ListCalendars(ctx)
	})
}

func (c *CachedClient) ListEvents(ctx context.Context, cal Calendar, window Window) ([]Event, error) {
	key := signature("events", cal.ID, window.Before.String(), window.After.String())
	return cachedList(c, key, func() ([]Event, error) {
		return c.api.ListEvents(ctx, cal, window)
	})
}

func (c *CachedClient) ListTaskLists(ctx context.Context) ([]TaskList, error) {
	return cachedList(c, signature("tasklists"), func() ([]TaskList, error) {
		return c.api.ListTaskLists(ctx)
	})
}

func (c *CachedClient) ListTasks(ctx context.Context) ([]Task, error) {
	return cachedList(c, signature("tasks"), func() ([]Task, error) {
		return c.api.ListTasks(ctx)
	})
}

func (c *CachedClient) ListUpcomingTasks(ctx context.Context) ([]Task, error) {
	return cachedList(c, signature("tasks", "upcoming"), func() ([]Task, error) {
		return c.api.ListUpcomingTasks(ctx)
	})
}

func (c *CachedClient) CreateEvent(ctx context.Context, req CreateEventRequest) (string, error) {
	id, err := c.api.CreateEvent(ctx, req)
	if err != nil {
		return "", err
	}
	c.Invalidate()
	return id, nil
}

func (c *CachedClient) DeleteEvent(ctx context.Context, eventID, calendarID string) error {
	if err := c.api.DeleteEvent(ctx, eventID, calendarID); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

func (c *CachedClient) Invalidate() {
	c.entries.Purge()
}

func (c *CachedClient) Len() int {
	return c.entries.Len()
}

func cachedList[T any](c *CachedClient, key string, load func() ([]T, error)) ([]T, error) {
	if value, ok := c.entries.Get(key); ok {
		if items, ok := value.([]T); ok {
			return slices.Clone(items), nil
		}
	}

	items, err := load()
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, slices.Clone(items))
	return items, nil
}

func signature(parts ...string) string {
	return strings.Join(parts, "|")
}
