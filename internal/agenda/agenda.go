// Package agenda turns fetched events and tasks into day sections ready for
// rendering. Everything here is a pure function of its inputs and the
// supplied clock value.
package agenda

import (
	"maps"
	"slices"
	"time"

	"github.com/bobuk/gcalagenda/internal/gcal"
	"github.com/bobuk/gcalagenda/internal/settings"
)

type Kind string

const (
	KindEvent Kind = "event"
	KindTask  Kind = "task"
)

// Item is either an event or a task; exactly one pointer is set.
type Item struct {
	Kind  Kind        `json:"kind"`
	Event *gcal.Event `json:"event,omitempty"`
	Task  *gcal.Task  `json:"task,omitempty"`
}

func EventItem(event gcal.Event) Item {
	return Item{Kind: KindEvent, Event: &event}
}

func TaskItem(task gcal.Task) Item {
	return Item{Kind: KindTask, Task: &task}
}

// When is the timestamp used for bucketing: event start or task due.
func (i Item) When() time.Time {
	switch i.Kind {
	case KindEvent:
		return i.Event.Start
	case KindTask:
		return i.Task.Due
	default:
		return time.Time{}
	}
}

func (i Item) ID() string {
	if i.Kind == KindTask {
		return i.Task.ID
	}
	return i.Event.ID
}

type Section struct {
	Offset int    `json:"offset"`
	Label  string `json:"label"`
	Items  []Item `json:"items"`
}

// VisibleEvents drops events whose calendar is hidden in cfg.
func VisibleEvents(events []gcal.Event, cfg settings.Configuration) []gcal.Event {
	visible := make([]gcal.Event, 0, len(events))
	for _, event := range events {
		if cfg.IsHidden(event.Calendar.ID) {
			continue
		}
		visible = append(visible, event)
	}
	return visible
}

// Build filters, buckets and sorts events and tasks into sections ordered by
// day offset. Tasks are not subject to calendar visibility. Tasks without a
// due date have no place on the timeline and are left out.
func Build(events []gcal.Event, tasks []gcal.Task, cfg settings.Configuration, now time.Time) []Section {
	items := make([]Item, 0, len(events)+len(tasks))
	for _, event := range VisibleEvents(events, cfg) {
		items = append(items, EventItem(event))
	}
	for _, task := range tasks {
		if task.Due.IsZero() {
			continue
		}
		items = append(items, TaskItem(task))
	}

	buckets := Bucket(items, now)
	sections := make([]Section, 0, len(buckets))
	for _, offset := range slices.Sorted(maps.Keys(buckets)) {
		bucket := buckets[offset]
		SortItems(bucket)
		sections = append(sections, Section{
			Offset: offset,
			Label:  DayLabel(now, offset),
			Items:  bucket,
		})
	}
	return sections
}

// Bucket groups items by DayOffset. Order inside a bucket is input order.
func Bucket(items []Item, now time.Time) map[int][]Item {
	buckets := make(map[int][]Item)
	for _, item := range items {
		offset := DayOffset(now, item.When())
		buckets[offset] = append(buckets[offset], item)
	}
	return buckets
}

// DayOffset is the number of calendar days from now's day to t's day, both
// taken in now's location. Past days are negative.
func DayOffset(now, t time.Time) int {
	return civilDay(t.In(now.Location())) - civilDay(now)
}

func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func DayLabel(now time.Time, offset int) string {
	weekday := now.AddDate(0, 0, offset).Weekday().String()
	switch offset {
	case 0:
		return "Today (" + weekday + ")"
	case 1:
		return "Tomorrow (" + weekday + ")"
	default:
		return weekday
	}
}

// SortItems orders one day: events before tasks, timed events before all-day
// ones, then by start or due time. Equal items keep their order.
func SortItems(items []Item) {
	slices.SortStableFunc(items, compareItems)
}

func compareItems(a, b Item) int {
	switch {
	case a.Kind == KindEvent && b.Kind == KindEvent:
		aAllDay, bAllDay := a.Event.AllDay(), b.Event.AllDay()
		if aAllDay != bAllDay {
			if aAllDay {
				return 1
			}
			return -1
		}
		return a.Event.Start.Compare(b.Event.Start)
	case a.Kind == KindTask && b.Kind == KindTask:
		return a.Task.Due.Compare(b.Task.Due)
	case a.Kind == KindEvent:
		return -1
	default:
		return 1
	}
}
