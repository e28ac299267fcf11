package model

import (
	"errors"
	"fmt"
	"time"
)

// Category is the closed set of things that can appear on the club calendar.
type Category string

const (
	CategoryYacht   Category = "yacht"
	CategoryService Category = "service"
	CategoryEvent   Category = "event"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryYacht, CategoryService, CategoryEvent}

// ParseCategory accepts the category names used by the REST back end.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryYacht, CategoryService, CategoryEvent:
		return Category(s), nil
	}
	return "", fmt.Errorf("model: unknown category %q", s)
}

// Style holds presentation attributes for a category.
type Style struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Style returns the presentation attributes for c. Adding a category means
// extending this switch; unknown values get a neutral style.
func (c Category) Style() Style {
	switch c {
	case CategoryYacht:
		return Style{Label: "Yacht charter", Color: "#1d4ed8", Icon: "sailboat"}
	case CategoryService:
		return Style{Label: "Concierge service", Color: "#047857", Icon: "concierge-bell"}
	case CategoryEvent:
		return Style{Label: "Club event", Color: "#b91c1c", Icon: "calendar-star"}
	default:
		return Style{Label: string(c), Color: "#6b7280", Icon: "circle"}
	}
}

// Detail is the category-specific payload of an Event. The unexported
// method keeps the set of implementations closed to this package.
type Detail interface {
	Category() Category
	isDetail()
}

// YachtCharter is a member's booking of a club yacht.
type YachtCharter struct {
	Yacht  string `json:"yacht"`
	Berth  string `json:"berth,omitempty"`
	Guests int    `json:"guests,omitempty"`
}

// ServiceAppointment is a concierge service booked with a provider.
type ServiceAppointment struct {
	Service  string `json:"service"`
	Provider string `json:"provider,omitempty"`
}

// EventRegistration is a member's registration for a club event, or an
// occurrence pulled from an external event calendar.
type EventRegistration struct {
	Event     string `json:"event"`
	Venue     string `json:"venue,omitempty"`
	Attendees int    `json:"attendees,omitempty"`
}

func (YachtCharter) Category() Category       { return CategoryYacht }
func (ServiceAppointment) Category() Category { return CategoryService }
func (EventRegistration) Category() Category  { return CategoryEvent }

func (YachtCharter) isDetail()       {}
func (ServiceAppointment) isDetail() {}
func (EventRegistration) isDetail()  {}

// Event is a single timed item on the calendar, after any recurrence
// expansion. Events are rebuilt on every refresh and never mutated.
type Event struct {
	// ID is unique and stable for the lifetime of the upstream record.
	ID       string
	SourceID string

	// InstanceKey distinguishes occurrences of a recurring item.
	InstanceKey string

	Title    string
	Location string
	AllDay   bool

	Start time.Time
	End   time.Time

	Detail Detail
}

var (
	ErrMissingID      = errors.New("model: event id is empty")
	ErrMissingDetail  = errors.New("model: event detail is nil")
	ErrEndBeforeStart = errors.New("model: event ends before it starts")
)

// NewEvent validates the invariants shared by every event source.
func NewEvent(id string, start, end time.Time, detail Detail) (Event, error) {
	if id == "" {
		return Event{}, ErrMissingID
	}
	if detail == nil {
		return Event{}, ErrMissingDetail
	}
	if end.Before(start) {
		return Event{}, fmt.Errorf("%w: id=%s start=%s end=%s", ErrEndBeforeStart, id,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Event{ID: id, Start: start, End: end, Detail: detail}, nil
}

// Category reports the category of the event's detail payload.
func (e Event) Category() Category {
	if e.Detail == nil {
		return ""
	}
	return e.Detail.Category()
}

// Duration is End - Start.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}
