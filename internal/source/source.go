// Package source decodes the club back end's JSON collections (bookings,
// services, registrations) into calendar events.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"clubcal/internal/model"
)

// ErrInvalidRecord wraps every rejection of an upstream record.
var ErrInvalidRecord = errors.New("source: invalid record")

// Record is the wire shape of one booking-like item.
type Record struct {
	ID        string `json:"id" validate:"required"`
	Type      string `json:"type" validate:"omitempty,oneof=yacht service event"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
	Title     string `json:"title"`
	Location  string `json:"location"`
	AllDay    bool   `json:"allDay"`

	Yacht *struct {
		Name   string `json:"name" validate:"required"`
		Berth  string `json:"berth"`
		Guests int    `json:"guests" validate:"gte=0"`
	} `json:"yacht" validate:"omitempty"`

	Service *struct {
		Name     string `json:"name" validate:"required"`
		Provider string `json:"provider"`
	} `json:"service" validate:"omitempty"`

	Event *struct {
		Name      string `json:"name" validate:"required"`
		Venue     string `json:"venue"`
		Attendees int    `json:"attendees" validate:"gte=0"`
	} `json:"event" validate:"omitempty"`
}

// envelope is the paginated response form: {"data": [...]}.
type envelope struct {
	Data []Record `json:"data"`
}

// kindCategory maps feed kinds to the category assumed when a record has
// no explicit type.
var kindCategory = map[string]model.Category{
	"bookings":      model.CategoryYacht,
	"services":      model.CategoryService,
	"registrations": model.CategoryEvent,
}

// Decoder turns feed bodies into events.
type Decoder struct {
	// Location interprets timestamps without a UTC offset. Nil means UTC.
	Location *time.Location

	validate *validator.Validate
}

// NewDecoder returns a Decoder reading zone-less timestamps in loc.
func NewDecoder(loc *time.Location) *Decoder {
	if loc == nil {
		loc = time.UTC
	}
	return &Decoder{Location: loc, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Decode parses a JSON array (or {"data": [...]} envelope) of records from
// a feed of the given kind. Any bad record rejects the whole body: a
// partial snapshot would silently hide bookings.
func (d *Decoder) Decode(sourceID, kind string, body []byte) ([]model.Event, error) {
	records, err := unmarshalRecords(body)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", sourceID, err)
	}

	events := make([]model.Event, 0, len(records))
	for i, rec := range records {
		ev, err := d.toEvent(kind, rec)
		if err != nil {
			return nil, fmt.Errorf("source %s: record %d (id=%q): %w", sourceID, i, rec.ID, err)
		}
		ev.SourceID = sourceID
		events = append(events, ev)
	}
	return events, nil
}

func unmarshalRecords(body []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty body")
	}
	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		return env.Data, nil
	}
	var records []Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (d *Decoder) toEvent(kind string, rec Record) (model.Event, error) {
	if err := d.validate.Struct(rec); err != nil {
		return model.Event{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	start, err := d.ParseTime(rec.StartTime)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: startTime: %v", ErrInvalidRecord, err)
	}
	end, err := d.ParseTime(rec.EndTime)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: endTime: %v", ErrInvalidRecord, err)
	}

	category, err := recordCategory(kind, rec)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	detail := detailFor(category, rec)

	ev, err := model.NewEvent(rec.ID, start, end, detail)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	ev.InstanceKey = rec.ID
	ev.Title = rec.Title
	if ev.Title == "" {
		ev.Title = defaultTitle(detail)
	}
	ev.Location = rec.Location
	ev.AllDay = rec.AllDay
	return ev, nil
}

func recordCategory(kind string, rec Record) (model.Category, error) {
	if rec.Type != "" {
		return model.ParseCategory(rec.Type)
	}
	if c, ok := kindCategory[kind]; ok {
		return c, nil
	}
	return "", fmt.Errorf("record has no type and feed kind %q implies none", kind)
}

func detailFor(c model.Category, rec Record) model.Detail {
	switch c {
	case model.CategoryYacht:
		var d model.YachtCharter
		if rec.Yacht != nil {
			d = model.YachtCharter{Yacht: rec.Yacht.Name, Berth: rec.Yacht.Berth, Guests: rec.Yacht.Guests}
		}
		return d
	case model.CategoryService:
		var d model.ServiceAppointment
		if rec.Service != nil {
			d = model.ServiceAppointment{Service: rec.Service.Name, Provider: rec.Service.Provider}
		}
		return d
	default:
		var d model.EventRegistration
		if rec.Event != nil {
			d = model.EventRegistration{Event: rec.Event.Name, Venue: rec.Event.Venue, Attendees: rec.Event.Attendees}
		}
		return d
	}
}

func defaultTitle(d model.Detail) string {
	switch v := d.(type) {
	case model.YachtCharter:
		return v.Yacht
	case model.ServiceAppointment:
		return v.Service
	case model.EventRegistration:
		return v.Event
	}
	return ""
}

// zonelessLayouts are accepted when a timestamp carries no offset.
var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses an ISO-8601 timestamp. Values with an offset keep it;
// values without one are read in d.Location.
func (d *Decoder) ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, d.Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", s)
}
