package calendar

import (
	"time"

	"clubcal/internal/model"
)

// Default hour-row geometry of the week and day views.
const (
	DefaultRowHeightPx = 64
	DefaultMinHeightPx = 48
)

// LayoutOptions controls how events are sized inside an hour row.
type LayoutOptions struct {
	// RowHeightPx is the rendered height of one hour row.
	RowHeightPx int
	// MinHeightPx keeps short events tall enough to read.
	MinHeightPx int
}

// DefaultLayoutOptions returns the 64px row / 48px minimum geometry.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{RowHeightPx: DefaultRowHeightPx, MinHeightPx: DefaultMinHeightPx}
}

// MinHeight is the minimum block height as a fraction of a row.
func (o LayoutOptions) MinHeight() float64 {
	if o.RowHeightPx <= 0 {
		o = DefaultLayoutOptions()
	}
	if o.MinHeightPx <= 0 {
		return 0
	}
	return float64(o.MinHeightPx) / float64(o.RowHeightPx)
}

// Block positions an event within its hour row. Both values are fractions
// of the row height; Height may exceed 1 for events that run into
// following rows.
type Block struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Pixels converts the block to pixel offsets for a row of rowHeight px.
func (b Block) Pixels(rowHeight int) (top, height float64) {
	return b.Top * float64(rowHeight), b.Height * float64(rowHeight)
}

// LayoutWithinHour positions ev inside the row that begins at hourStart.
// Top is the minutes from hourStart to the event start over 60. Height is
// the duration in minutes over 60, never less than opts.MinHeight() and
// never capped; clipping long events is up to the renderer.
func LayoutWithinHour(ev model.Event, hourStart time.Time, opts LayoutOptions) Block {
	top := ev.Start.Sub(hourStart).Minutes() / 60
	height := ev.Duration().Minutes() / 60
	if floor := opts.MinHeight(); height < floor {
		height = floor
	}
	return Block{Top: top, Height: height}
}

// HourStart truncates t to the start of its hour as read in loc. A nil loc
// uses t's own location.
func HourStart(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	// Truncate the instant rather than rebuilding the wall clock, so the
	// repeated hour at a DST fall-back keeps its own offset.
	return t.Add(-(time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())))
}

// Placement is an event anchored to the hour row of its start.
type Placement struct {
	Event model.Event `json:"-"`
	Hour  int         `json:"hour"`
	Block Block       `json:"block"`
}

// Visible reports whether the anchoring hour lies in [startHour, endHour).
func (p Placement) Visible(startHour, endHour int) bool {
	return p.Hour >= startHour && p.Hour < endHour
}

// LayoutDay places every event starting on day, ordered by start. Each
// event is anchored once to the hour of its literal start, including
// events outside the visible hour range.
func LayoutDay(events []model.Event, day Date, loc *time.Location, opts LayoutOptions) []Placement {
	dayEvents := SortByStart(EventsForDay(events, day, loc))
	out := make([]Placement, 0, len(dayEvents))
	for _, ev := range dayEvents {
		hs := HourStart(ev.Start, loc)
		out = append(out, Placement{
			Event: ev,
			Hour:  hs.Hour(),
			Block: LayoutWithinHour(ev, hs, opts),
		})
	}
	return out
}

// LayoutWeek runs LayoutDay for each date, returning one column per date.
func LayoutWeek(events []model.Event, dates []Date, loc *time.Location, opts LayoutOptions) [][]Placement {
	cols := make([][]Placement, len(dates))
	for i, d := range dates {
		cols[i] = LayoutDay(events, d, loc, opts)
	}
	return cols
}
