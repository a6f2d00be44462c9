package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bobuk/gcalagenda/internal/agenda"
	"github.com/bobuk/gcalagenda/internal/gcal"
	"github.com/bobuk/gcalagenda/internal/settings"
	"github.com/bobuk/gcalagenda/internal/store"
)

// Monday.
var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeAPI struct {
	calendars []gcal.Calendar
	events    map[string][]gcal.Event
	lists     []gcal.TaskList
	tasks     []gcal.Task

	created   []gcal.CreateEventRequest
	deleted   []string
	deleteErr error
	createErr error
}

func (f *fakeAPI) ListCalendars(context.Context) ([]gcal.Calendar, error) {
	return append([]gcal.Calendar(nil), f.calendars...), nil
}

func (f *fakeAPI) ListEvents(_ context.Context, cal gcal.Calendar, _ gcal.Window) ([]gcal.Event, error) {
	return f.events[cal.ID], nil
}

func (f *fakeAPI) ListTaskLists(context.Context) ([]gcal.TaskList, error) {
	return f.lists, nil
}

func (f *fakeAPI) ListTasks(context.Context) ([]gcal.Task, error) {
	return f.tasks, nil
}

func (f *fakeAPI) ListUpcomingTasks(context.Context) ([]gcal.Task, error) {
	return f.tasks, nil
}

func (f *fakeAPI) CreateEvent(_ context.Context, req gcal.CreateEventRequest) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, req)
	return "created1", nil
}

func (f *fakeAPI) DeleteEvent(_ context.Context, eventID, calendarID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, calendarID+"/"+eventID)
	return nil
}

type recordingNotifier struct {
	summaries []string
}

func (r *recordingNotifier) Notify(_ context.Context, summary, _ string) error {
	r.summaries = append(r.summaries, summary)
	return nil
}

func (r *recordingNotifier) Close() error { return nil }

func newTestSession(t *testing.T, api gcal.API, input string) (*session, *bytes.Buffer, *recordingNotifier) {
	t.Helper()

	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "gcalagenda.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	config := &Config{}
	applyDefaults(config)

	out := &bytes.Buffer{}
	notifier := &recordingNotifier{}
	return &session{
		config:   config,
		logger:   logger,
		store:    db,
		settings: settings.NewStore(db, logger),
		notifier: notifier,
		api:      api,
		now:      func() time.Time { return testNow },
		in:       strings.NewReader(input),
		out:      out,
	}, out, notifier
}

func sampleAPI() *fakeAPI {
	work := gcal.Calendar{ID: "work", Name: "Work", Timezone: "Europe/Berlin"}
	home := gcal.Calendar{ID: "home", Name: "Home"}
	return &fakeAPI{
		calendars: []gcal.Calendar{work, home},
		events: map[string][]gcal.Event{
			"work": {{
				ID: "standup", Title: "Standup", Calendar: work,
				Start: testNow.Add(22 * time.Hour), End: testNow.Add(22*time.Hour + 15*time.Minute),
			}},
			"home": {{
				ID: "dinner", Title: "Dinner", Calendar: home,
				Start: testNow.Add(7 * time.Hour), End: testNow.Add(9 * time.Hour),
			}},
		},
		lists: []gcal.TaskList{{ID: "inbox", Title: "Inbox"}},
		tasks: []gcal.Task{{ID: "milk", ListID: "inbox", Title: "Buy milk", Due: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}},
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "30m", want: 30},
		{in: "2h", want: 120},
		{in: " 90 ", want: 90},
		{in: "45M", want: 45},
		{in: "1 h", want: 60},
		{in: "0", wantErr: true},
		{in: "0m", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "", wantErr: true},
		{in: "soon", wantErr: true},
		{in: "1d", wantErr: true},
	}
	for _, tc := range tests {
		got, err := parseDuration(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseDuration(%q) expected error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("parseDuration(%q) = %d, %v, want %d", tc.in, got, err, tc.want)
		}
	}
}

func TestParseStart(t *testing.T) {
	t.Parallel()

	got, err := parseStart("", testNow)
	if err != nil || !got.Equal(time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)) {
		t.Fatalf("empty start = %v, %v", got, err)
	}

	got, err = parseStart("2024-01-03 09:30", testNow)
	if err != nil || !got.Equal(time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC)) {
		t.Fatalf("layout start = %v, %v", got, err)
	}

	got, err = parseStart("tomorrow 3pm", testNow)
	if err != nil {
		t.Fatalf("natural start: %v", err)
	}
	if got.Day() != 2 || got.Hour() != 15 {
		t.Fatalf("natural start = %v, want Jan 2 15:00", got)
	}

	if _, err := parseStart("qwerty", testNow); err == nil {
		t.Fatalf("expected error for gibberish")
	}
}

func TestSortCalendars_VisibleFirstThenByName(t *testing.T) {
	t.Parallel()

	calendars := []gcal.Calendar{
		{ID: "c", Name: "charlie"},
		{ID: "a", Name: "Alpha"},
		{ID: "b", Name: "bravo"},
		{ID: "z", Name: "Zulu"},
	}
	cfg := settings.Default().WithHidden("a", true)
	sortCalendars(calendars, cfg)

	var ids []string
	for _, cal := range calendars {
		ids = append(ids, cal.ID)
	}
	if got := strings.Join(ids, ","); got != "b,c,z,a" {
		t.Fatalf("order = %s, want b,c,z,a", got)
	}
}

func TestParseCalendarsFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args    []string
		details bool
		wantErr bool
	}{
		{args: nil},
		{args: []string{"--details"}, details: true},
		{args: []string{"-d"}, details: true},
		{args: []string{"--json"}, wantErr: true},
	}
	for _, tc := range tests {
		opts, err := parseCalendarsFlags(tc.args)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%v: expected error", tc.args)
			}
			continue
		}
		if err != nil || opts.details != tc.details {
			t.Fatalf("%v: opts = %+v, %v", tc.args, opts, err)
		}
	}
}

func TestListCalendars_Details(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	api := sampleAPI()
	api.calendars[1].Description = "Family plans"
	api.calendars[1].Location = "Berlin"
	api.calendars[1].BackgroundColor = "#16a765"
	api.calendars[1].Hidden = true

	s, out, _ := newTestSession(t, api, "")
	if err := listCalendars(ctx, s, calendarsOptions{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Contains(out.String(), "Family plans") || strings.Contains(out.String(), "Time zone") {
		t.Fatalf("details printed without the flag:\n%s", out.String())
	}

	out.Reset()
	if err := listCalendars(ctx, s, calendarsOptions{details: true}); err != nil {
		t.Fatalf("list details: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Home (📅 home)",
		"Description: Family plans",
		"Location: Berlin",
		"Color: #16a765",
		"Hidden in Google Calendar",
		"Work (📅 work)",
		"Time zone: Europe/Berlin",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output lacks %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "Hidden in Google Calendar") != 1 {
		t.Fatalf("only the home calendar is hidden in Google:\n%s", got)
	}
}

func TestAuthorizationCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare", input: "4/abc", want: "4/abc"},
		{name: "redirect", input: "http://127.0.0.1:8085/callback?state=s1&code=4%2Fxyz", want: "4/xyz"},
		{name: "redirect_without_state", input: "http://127.0.0.1:8085/callback?code=c", want: "c"},
		{name: "state_mismatch", input: "http://127.0.0.1:8085/callback?state=other&code=c", wantErr: true},
		{name: "denied", input: "http://127.0.0.1:8085/callback?error=access_denied", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := authorizationCode(tc.input, "s1")
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("authorizationCode() = %q, %v, want %q", got, err, tc.want)
			}
		})
	}
}

func TestToggleCalendar_PersistsFlag(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, out, _ := newTestSession(t, sampleAPI(), "")

	if err := toggleCalendar(ctx, s, "work"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !s.settings.Get(ctx).IsHidden("work") {
		t.Fatalf("expected work hidden")
	}
	if err := toggleCalendar(ctx, s, "work"); err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if s.settings.Get(ctx).IsHidden("work") {
		t.Fatalf("expected work visible")
	}
	if !strings.Contains(out.String(), "now hidden") || !strings.Contains(out.String(), "now shown") {
		t.Fatalf("unexpected output: %s", out.String())
	}

	if err := toggleCalendar(ctx, s, "nope"); err == nil {
		t.Fatalf("expected error for unknown calendar")
	}
}

func TestShowUpcoming_SkipsHiddenCalendars(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s, out, _ := newTestSession(t, sampleAPI(), "")
	if err := s.settings.Set(ctx, settings.Default().WithHidden("home", true)); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := showUpcoming(ctx, s, upcomingOptions{json: true}); err != nil {
		t.Fatalf("upcoming: %v", err)
	}

	var sections []agenda.Section
	if err := json.Unmarshal(out.Bytes(), &sections); err != nil {
		t.Fatalf("decode: %v\n%s", err, out.String())
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	if sections[0].Label != "Today (Monday)" || len(sections[0].Items) != 1 || sections[0].Items[0].Kind != agenda.KindTask {
		t.Fatalf("unexpected today section: %+v", sections[0])
	}
	if sections[1].Label != "Tomorrow (Tuesday)" || sections[1].Items[0].Event.ID != "standup" {
		t.Fatalf("unexpected tomorrow section: %+v", sections[1])
	}
}

func TestShowUpcoming_TextRendering(t *testing.T) {
	t.Parallel()

	s, out, _ := newTestSession(t, sampleAPI(), "")
	if err := showUpcoming(context.Background(), s, upcomingOptions{details: true}); err != nil {
		t.Fatalf("upcoming: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Today (Monday)",
		"19:00 - 21:00 (2 hours)  Dinner  [Home]",
		"7 hours from now",
		"Buy milk",
		"Tomorrow (Tuesday)",
		"10:00 - 10:15 (15 minutes)  Standup  [Work]",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output lacks %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "Dinner") > strings.Index(text, "Buy milk") {
		t.Fatalf("events must precede tasks:\n%s", text)
	}
}

func TestCreateEvent_PromptsAndCreates(t *testing.T) {
	t.Parallel()

	api := sampleAPI()
	input := strings.Join([]string{
		"Planning",         // title
		"Quarterly goals",  // description
		"2024-01-02 10:00", // start
		"later",            // rejected duration
		"1h",               // duration
		"9",                // rejected calendar number
		"2",                // calendar
	}, "\n") + "\n"
	s, out, _ := newTestSession(t, api, input)

	if err := createEvent(context.Background(), s, nil); err != nil {
		t.Fatalf("create: %v\n%s", err, out.String())
	}
	if len(api.created) != 1 {
		t.Fatalf("expected one created event, got %d", len(api.created))
	}
	req := api.created[0]
	if req.Title != "Planning" || req.Description != "Quarterly goals" || req.DurationMinutes != 60 {
		t.Fatalf("unexpected request: %+v", req)
	}
	// Both calendars are visible, so they are ordered by name: Home, Work.
	if req.Calendar.ID != "work" {
		t.Fatalf("calendar = %s, want work", req.Calendar.ID)
	}
	if !req.Start.Equal(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", req.Start)
	}
	if !strings.Contains(out.String(), "invalid duration") || !strings.Contains(out.String(), "pick a number") {
		t.Fatalf("expected validation messages:\n%s", out.String())
	}
}

func TestCreateEvent_TitleFromArgsAndDefaults(t *testing.T) {
	t.Parallel()

	api := sampleAPI()
	s, _, _ := newTestSession(t, api, "\n\n\n\n")

	if err := createEvent(context.Background(), s, []string{"Quick", "sync"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	req := api.created[0]
	if req.Title != "Quick sync" || req.DurationMinutes != defaultDurationMinutes || req.Calendar.ID != "home" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if !req.Start.Equal(time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", req.Start)
	}
}

func TestCreateEvent_ClosedInputAborts(t *testing.T) {
	t.Parallel()

	api := sampleAPI()
	s, _, _ := newTestSession(t, api, "")
	if err := createEvent(context.Background(), s, nil); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
	if len(api.created) != 0 {
		t.Fatalf("nothing should be created")
	}
}

func TestDeleteEvent_ReportsFailure(t *testing.T) {
	t.Parallel()

	api := sampleAPI()
	api.deleteErr = &gcal.APIError{Status: 404, Body: "Not Found"}
	s, out, notifier := newTestSession(t, api, "")

	err := deleteEvent(context.Background(), s, "work", "standup")
	var apiErr *gcal.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 404 {
		t.Fatalf("expected APIError 404, got %v", err)
	}
	if len(notifier.summaries) != 1 || !strings.Contains(out.String(), "❌") {
		t.Fatalf("expected failure line and notification, got %v / %s", notifier.summaries, out.String())
	}
}

func TestDeleteEvent_RendersUpcomingAfterwards(t *testing.T) {
	t.Parallel()

	api := sampleAPI()
	s, out, notifier := newTestSession(t, api, "")

	if err := deleteEvent(context.Background(), s, "work", "standup"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(api.deleted) != 1 || api.deleted[0] != "work/standup" {
		t.Fatalf("deleted = %v", api.deleted)
	}
	if len(notifier.summaries) != 0 {
		t.Fatalf("no notification expected on success")
	}
	if !strings.Contains(out.String(), "Today (Monday)") {
		t.Fatalf("expected refreshed agenda:\n%s", out.String())
	}
}

func TestShowTasks_GroupsByList(t *testing.T) {
	t.Parallel()

	api := sampleAPI()
	api.lists = append(api.lists, gcal.TaskList{ID: "later", Title: "Someday"})
	s, out, _ := newTestSession(t, api, "")

	if err := showTasks(context.Background(), s); err != nil {
		t.Fatalf("tasks: %v", err)
	}
	text := out.String()
	for _, want := range []string{"📋 Inbox", "Buy milk", "due Today (Monday)", "📋 Someday", "(empty)"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output lacks %q:\n%s", want, text)
		}
	}
}
