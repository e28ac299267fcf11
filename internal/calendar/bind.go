package calendar

import (
	"slices"
	"time"

	"clubcal/internal/model"
)

// EventsForDay returns the events whose start falls on day, in input order.
//
// The start date is read in loc. With a nil loc the date fields of each
// event's own location are compared as-is, which is what a caller wants
// when upstream timestamps are already in the viewer's zone.
func EventsForDay(events []model.Event, day Date, loc *time.Location) []model.Event {
	out := make([]model.Event, 0)
	for _, ev := range events {
		if DateIn(ev.Start, loc) == day {
			out = append(out, ev)
		}
	}
	return out
}

// DayEvents pairs a grid cell with the events that start on it.
type DayEvents struct {
	Day
	Events []model.Event `json:"events"`
}

// BindMonth attaches events to every cell of grid in one pass. Events that
// start outside the grid are dropped. Within a cell, input order is kept.
func BindMonth(grid []Day, events []model.Event, loc *time.Location) []DayEvents {
	index := make(map[Date]int, len(grid))
	out := make([]DayEvents, len(grid))
	for i, d := range grid {
		index[d.Date] = i
		out[i] = DayEvents{Day: d, Events: []model.Event{}}
	}
	for _, ev := range events {
		if i, ok := index[DateIn(ev.Start, loc)]; ok {
			out[i].Events = append(out[i].Events, ev)
		}
	}
	return out
}

// SortByStart returns a copy of events ordered by start time, then end
// time. Ties keep input order.
func SortByStart(events []model.Event) []model.Event {
	out := slices.Clone(events)
	slices.SortStableFunc(out, func(a, b model.Event) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.End.Compare(b.End)
	})
	return out
}
