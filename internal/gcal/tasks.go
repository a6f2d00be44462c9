package gcal

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	tasksapi "google.golang.org/api/tasks/v1"
)

func (c *Client) ListTaskLists(ctx context.Context) ([]TaskList, error) {
	resp, err := c.tasks.Tasklists.List().Context(ctx).Do()
	if err != nil {
		return nil, classify("list task lists", err)
	}

	lists := make([]TaskList, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Id == "" {
			continue
		}
		lists = append(lists, TaskList{ID: item.Id, Title: item.Title})
	}
	return lists, nil
}

// ListTasks returns every task of every list owned by the account.
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	return c.collectTasks(ctx, nil)
}

// ListUpcomingTasks returns open tasks due today or later. Tasks stores due
// dates as UTC midnight, so the bound is today's local date at UTC midnight.
func (c *Client) ListUpcomingTasks(ctx context.Context) ([]Task, error) {
	year, month, day := c.now().In(c.location).Date()
	dueMin := time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
	return c.collectTasks(ctx, func(call *tasksapi.TasksListCall) *tasksapi.TasksListCall {
		return call.ShowCompleted(false).ShowDeleted(false).DueMin(dueMin)
	})
}

func (c *Client) collectTasks(ctx context.Context, scope func(*tasksapi.TasksListCall) *tasksapi.TasksListCall) ([]Task, error) {
	lists, err := c.ListTaskLists(ctx)
	if err != nil {
		return nil, err
	}

	results := make([][]Task, len(lists))
	g, gctx := errgroup.WithContext(ctx)
	for i, list := range lists {
		g.Go(func() error {
			call := c.tasks.Tasks.List(list.ID)
			if scope != nil {
				call = scope(call)
			}
			resp, err := call.Context(gctx).Do()
			if err != nil {
				return classify("list tasks", err)
			}
			items := make([]Task, 0, len(resp.Items))
			for _, item := range resp.Items {
				if item == nil || item.Id == "" {
					continue
				}
				items = append(items, c.taskFromAPI(item, list.ID))
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var tasks []Task
	for _, items := range results {
		tasks = append(tasks, items...)
	}
	return tasks, nil
}

func (c *Client) taskFromAPI(item *tasksapi.Task, listID string) Task {
	task := Task{
		ID:      item.Id,
		ListID:  listID,
		Title:   item.Title,
		Status:  item.Status,
		Due:     c.dueDate(item.Due),
		Updated: parseTimestamp(item.Updated),
		Deleted: item.Deleted,
		Hidden:  item.Hidden,
	}
	if item.Completed != nil {
		if completed := parseTimestamp(*item.Completed); !completed.IsZero() {
			task.Completed = &completed
		}
	}
	return task
}

// dueDate maps the Tasks API due stamp to local midnight. The API only keeps
// the date portion, always serialized as UTC midnight.
func (c *Client) dueDate(value string) time.Time {
	due := parseTimestamp(value)
	if due.IsZero() {
		return time.Time{}
	}
	due = due.UTC()
	return time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, c.location)
}
