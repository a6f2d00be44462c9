package gcal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	meet "google.golang.org/api/meet/v2"
	"google.golang.org/api/option"
	tasksapi "google.golang.org/api/tasks/v1"
)

const dateLayout = "2006-01-02"

type Options struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
	Location   *time.Location
	Now        func() time.Time

	// ResolveConferences enables the Meet participant lookup for events
	// carrying a conference id.
	ResolveConferences bool

	// Endpoint overrides, one per REST surface. Empty means Google's default.
	CalendarEndpoint string
	TasksEndpoint    string
	MeetEndpoint     string
}

// Client talks to the Calendar, Tasks and Meet REST APIs on behalf of one
// authorized account.
type Client struct {
	calendar *calendar.Service
	tasks    *tasksapi.Service
	meet     *meet.Service

	logger             *slog.Logger
	location           *time.Location
	now                func() time.Time
	resolveConferences bool
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.HTTPClient == nil {
		return nil, errors.New("gcal: http client is required")
	}

	calendarService, err := calendar.NewService(ctx, serviceOptions(opts.HTTPClient, opts.CalendarEndpoint)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	tasksService, err := tasksapi.NewService(ctx, serviceOptions(opts.HTTPClient, opts.TasksEndpoint)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}
	meetService, err := meet.NewService(ctx, serviceOptions(opts.HTTPClient, opts.MeetEndpoint)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create meet service: %w", err)
	}

	client := &Client{
		calendar:           calendarService,
		tasks:              tasksService,
		meet:               meetService,
		logger:             opts.Logger,
		location:           opts.Location,
		now:                opts.Now,
		resolveConferences: opts.ResolveConferences,
	}
	if client.logger == nil {
		client.logger = slog.Default()
	}
	if client.location == nil {
		client.location = time.Local
	}
	if client.now == nil {
		client.now = time.Now
	}
	return client, nil
}

func serviceOptions(httpClient *http.Client, endpoint string) []option.ClientOption {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if strings.TrimSpace(endpoint) != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return opts
}

func (c *Client) ListCalendars(ctx context.Context) ([]Calendar, error) {
	resp, err := c.calendar.CalendarList.List().ShowHidden(true).Context(ctx).Do()
	if err != nil {
		return nil, classify("list calendars", err)
	}

	calendars := make([]Calendar, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Id == "" {
			continue
		}
		calendars = append(calendars, Calendar{
			ID:              item.Id,
			Name:            calendarName(item),
			BackgroundColor: item.BackgroundColor,
			Location:        item.Location,
			Description:     item.Description,
			Timezone:        item.TimeZone,
			Hidden:          item.Hidden,
		})
	}
	return calendars, nil
}

func calendarName(item *calendar.CalendarListEntry) string {
	if item.SummaryOverride != "" {
		return item.SummaryOverride
	}
	return item.Summary
}

// ListEvents returns the single (expanded) events of cal inside window.
// A non-2xx answer from Google yields an empty list; transport failures are
// returned as *NetworkError.
func (c *Client) ListEvents(ctx context.Context, cal Calendar, window Window) ([]Event, error) {
	timeMin, timeMax := window.Bounds(c.now())

	resp, err := c.calendar.Events.List(cal.ID).
		SingleEvents(true).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		Context(ctx).
		Do(googleapi.QueryParameter("conferenceDataVersion", "1"))
	if err != nil {
		err = classify("list events", err)
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			c.logger.Warn("event listing failed", "calendar", cal.ID, "status", apiErr.Status)
			return nil, nil
		}
		return nil, err
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		event, ok := c.eventFromAPI(item, cal)
		if !ok {
			continue
		}
		events = append(events, event)
	}

	c.attachConferences(ctx, events)
	return events, nil
}

func (c *Client) ListUpcomingEvents(ctx context.Context, cal Calendar) ([]Event, error) {
	return c.ListEvents(ctx, cal, NextWeek)
}

func (c *Client) eventFromAPI(item *calendar.Event, cal Calendar) (Event, bool) {
	if item == nil || item.Start == nil {
		return Event{}, false
	}

	start, dateOnly, err := c.parseEventTime(item.Start)
	if err != nil {
		c.logger.Debug("skipping event with unreadable start", "event", item.Id, "error", err)
		return Event{}, false
	}
	end := start
	if item.End != nil {
		if parsed, _, err := c.parseEventTime(item.End); err == nil {
			end = parsed
		}
	}
	if end.Before(start) {
		end = start
	}

	event := Event{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Start:       start,
		End:         end,
		DateOnly:    dateOnly,
		Calendar:    cal,
		MeetLink:    item.HangoutLink,
	}

	if item.Organizer != nil {
		event.Organizer = &Person{DisplayName: item.Organizer.DisplayName, Email: item.Organizer.Email}
	}
	if len(item.Attendees) > 0 {
		event.Attendees = make([]Attendee, 0, len(item.Attendees))
		for _, attendee := range item.Attendees {
			if attendee == nil {
				continue
			}
			event.Attendees = append(event.Attendees, Attendee{
				Person:         Person{DisplayName: attendee.DisplayName, Email: attendee.Email},
				ResponseStatus: attendee.ResponseStatus,
			})
		}
	}
	if data := item.ConferenceData; data != nil && data.ConferenceId != "" {
		if data.ConferenceSolution == nil || data.ConferenceSolution.Key == nil ||
			data.ConferenceSolution.Key.Type == "hangoutsMeet" {
			event.ConferenceID = data.ConferenceId
		}
	}
	return event, true
}

// parseEventTime prefers the date-only field; an all-day event has no dateTime.
func (c *Client) parseEventTime(value *calendar.EventDateTime) (time.Time, bool, error) {
	if value.Date != "" {
		t, err := time.ParseInLocation(dateLayout, value.Date, c.location)
		return t, true, err
	}
	if value.DateTime == "" {
		return time.Time{}, false, errors.New("event time has neither date nor dateTime")
	}
	t, err := time.Parse(time.RFC3339, value.DateTime)
	if err != nil {
		return time.Time{}, false, err
	}
	return t.In(c.location), false, nil
}

type conferenceResult struct {
	conference *Conference
	err        error
}

// attachConferences resolves Meet participants for every event that has a
// conference id. Lookups are best-effort: a failure only drops the detail.
func (c *Client) attachConferences(ctx context.Context, events []Event) {
	if !c.resolveConferences || len(events) == 0 {
		return
	}

	results := make([]conferenceResult, len(events))
	var g errgroup.Group
	for i := range events {
		conferenceID := events[i].ConferenceID
		if conferenceID == "" {
			continue
		}
		g.Go(func() error {
			conference, err := c.Conference(ctx, conferenceID)
			results[i] = conferenceResult{conference: conference, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, result := range results {
		if result.err != nil {
			c.logger.Warn("conference lookup failed",
				"event", events[i].ID, "conference", events[i].ConferenceID, "error", result.err)
			continue
		}
		events[i].Conference = result.conference
	}
}

func (c *Client) Conference(ctx context.Context, conferenceID string) (*Conference, error) {
	parent := "conferenceRecords/" + conferenceID
	resp, err := c.meet.ConferenceRecords.Participants.List(parent).Context(ctx).Do()
	if err != nil {
		return nil, classify("list conference participants", err)
	}

	conference := &Conference{ID: conferenceID, Participants: make([]Participant, 0, len(resp.Participants))}
	for _, item := range resp.Participants {
		if item == nil {
			continue
		}
		conference.Participants = append(conference.Participants, Participant{
			Name:        item.Name,
			DisplayName: participantDisplayName(item),
			JoinTime:    parseTimestamp(item.EarliestStartTime),
			LeaveTime:   parseTimestamp(item.LatestEndTime),
		})
	}
	return conference, nil
}

func participantDisplayName(p *meet.Participant) string {
	switch {
	case p.SignedinUser != nil && p.SignedinUser.DisplayName != "":
		return p.SignedinUser.DisplayName
	case p.AnonymousUser != nil && p.AnonymousUser.DisplayName != "":
		return p.AnonymousUser.DisplayName
	case p.PhoneUser != nil && p.PhoneUser.DisplayName != "":
		return p.PhoneUser.DisplayName
	default:
		return ""
	}
}

func (c *Client) CreateEvent(ctx context.Context, req CreateEventRequest) (string, error) {
	if strings.TrimSpace(req.Calendar.ID) == "" {
		return "", errors.New("create event: calendar is required")
	}
	if req.DurationMinutes <= 0 {
		return "", fmt.Errorf("create event: invalid duration %d minutes", req.DurationMinutes)
	}

	eventID := newEventID()
	body := &calendar.Event{
		Id:          eventID,
		Summary:     req.Title,
		Description: req.Description,
		Start: &calendar.EventDateTime{
			DateTime: req.Start.Format(time.RFC3339),
			TimeZone: req.Calendar.Timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: req.End().Format(time.RFC3339),
			TimeZone: req.Calendar.Timezone,
		},
	}

	created, err := c.calendar.Events.Insert(req.Calendar.ID, body).Context(ctx).Do()
	if err != nil {
		return "", classify("create event", err)
	}
	if created != nil && created.Id != "" {
		return created.Id, nil
	}
	return eventID, nil
}

// DeleteEvent removes an event. Deleting an event that is already gone
// fails with an *APIError.
func (c *Client) DeleteEvent(ctx context.Context, eventID, calendarID string) error {
	if err := c.calendar.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return classify("delete event", err)
	}
	return nil
}

// newEventID returns an id in the base32hex alphabet Calendar accepts for
// client-assigned event ids.
func newEventID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
