package gcal

import "time"

type Calendar struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	Location        string `json:"location,omitempty"`
	Description     string `json:"description,omitempty"`
	Timezone        string `json:"timezone,omitempty"`
	Hidden          bool   `json:"hidden"`
}

type Person struct {
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Label prefers the display name and falls back to the email address.
func (p Person) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Email
}

// Attendee response statuses as reported by Calendar v3.
const (
	ResponseNeedsAction = "needsAction"
	ResponseTentative   = "tentative"
	ResponseAccepted    = "accepted"
	ResponseDeclined    = "declined"
)

type Attendee struct {
	Person
	ResponseStatus string `json:"responseStatus,omitempty"`
}

type Participant struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName,omitempty"`
	JoinTime    time.Time `json:"joinTime"`
	LeaveTime   time.Time `json:"leaveTime"`
}

type Conference struct {
	ID           string        `json:"id"`
	Participants []Participant `json:"participants"`
}

type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Start       time.Time  `json:"start"`
	End         time.Time  `json:"end"`
	DateOnly    bool       `json:"dateOnly,omitempty"`
	Calendar    Calendar   `json:"calendar"`
	Organizer   *Person    `json:"organizer,omitempty"`
	Attendees   []Attendee `json:"attendees,omitempty"`

	MeetLink     string      `json:"meetLink,omitempty"`
	ConferenceID string      `json:"conferenceId,omitempty"`
	Conference   *Conference `json:"conference,omitempty"`
}

// AllDay reports whether the event covers at least one full calendar day.
// A 24h event starting at midnight is all-day, a 23h59m one is not.
func (e Event) AllDay() bool {
	if e.End.Before(e.Start) {
		return false
	}
	return !e.End.Before(e.Start.AddDate(0, 0, 1))
}

func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Guests returns the attendees other than the organizer.
func (e Event) Guests() []Attendee {
	if len(e.Attendees) == 0 {
		return nil
	}
	guests := make([]Attendee, 0, len(e.Attendees))
	for _, attendee := range e.Attendees {
		if e.Organizer != nil && e.Organizer.Email != "" && attendee.Email == e.Organizer.Email {
			continue
		}
		guests = append(guests, attendee)
	}
	return guests
}

type CreateEventRequest struct {
	Title           string
	Description     string
	Start           time.Time
	DurationMinutes int
	Calendar        Calendar
}

func (r CreateEventRequest) End() time.Time {
	return r.Start.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

type TaskList struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Task struct {
	ID        string     `json:"id"`
	ListID    string     `json:"listId"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	Due       time.Time  `json:"due"`
	Updated   time.Time  `json:"updated"`
	Completed *time.Time `json:"completed,omitempty"`
	Deleted   bool       `json:"deleted,omitempty"`
	Hidden    bool       `json:"hidden,omitempty"`
}

// Window is a fetch range relative to the time of the request.
type Window struct {
	Before time.Duration
	After  time.Duration
}

var (
	// PastWeek is the default range for event listing.
	PastWeek = Window{Before: 7 * 24 * time.Hour}
	// NextWeek is the range used for upcoming events.
	NextWeek = Window{After: 7 * 24 * time.Hour}
)

func (w Window) Bounds(now time.Time) (time.Time, time.Time) {
	return now.Add(-w.Before), now.Add(w.After)
}
