package ics

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	appLog "clubcal/internal/log"
	"clubcal/internal/model"
)

const defaultMaxOccurrencesPerEvent = 2000

// occurrenceNamespace scopes the deterministic occurrence IDs.
var occurrenceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("clubcal/ics-occurrence"))

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// DisplayLocation is the zone occurrences are converted to. Nil means
	// time.Local.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd bound the occurrences (inclusive).
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps runaway rules. Zero means the default.
	MaxOccurrencesPerEvent int
}

// ExpandResult holds the expanded events, sorted by start.
type ExpandResult struct {
	Events []model.Event
	// TruncatedUIDs lists UIDs that hit MaxOccurrencesPerEvent.
	TruncatedUIDs []string
}

// Expand turns parsed VEVENTs into concrete club events within the range,
// applying RRULE, EXDATE and RECURRENCE-ID overrides.
func Expand(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("ics: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	uids := make([]string, 0)
	for _, ev := range events {
		if ev.IsOverride {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			uids = append(uids, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	out := make([]model.Event, 0)
	for _, uid := range uids {
		truncated := false
		for _, ev := range baseByUID[uid] {
			occ, hitCap := expandEvent(ev, overridesByUID[uid], cfg)
			truncated = truncated || hitCap
			out = append(out, occ...)
		}
		if truncated {
			result.TruncatedUIDs = append(result.TruncatedUIDs, uid)
			appLog.Warn("ics: occurrences truncated", "uid", uid, "cap", cfg.MaxOccurrencesPerEvent)
		}
	}

	slices.SortStableFunc(out, func(a, b model.Event) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	result.Events = out
	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Event, bool) {
	if ev.RawRRule == "" {
		if !overlaps(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
			return nil, false
		}
		base, start, end := applyOverride(ev, overrides, ev.Start, ev.End)
		return []model.Event{makeEvent(base, ev.UID, start, end, ev.Start, cfg.DisplayLocation)}, false
	}
	return expandRecurring(ev, overrides, cfg)
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Event, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("ics: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	loc := ev.Start.Location()
	// Widen the lower bound by the event length so occurrences that began
	// before the range but still run into it are kept.
	dur := ev.End.Sub(ev.Start)
	starts := set.Between(cfg.RangeStart.Add(-dur).In(loc), cfg.RangeEnd.In(loc), true)

	hitCap := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	out := make([]model.Event, 0, len(starts))
	for _, s := range starts {
		e := s.Add(dur)
		if ev.AllDay {
			s = time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, s.Location())
			e = s.AddDate(0, 0, max(1, int(dur.Hours()/24)))
		}
		base, start, end := applyOverride(ev, overrides, s, e)
		out = append(out, makeEvent(base, ev.UID, start, end, s, cfg.DisplayLocation))
	}
	return out, hitCap
}

// applyOverride swaps in the override whose RECURRENCE-ID equals start.
func applyOverride(ev ParsedEvent, overrides []ParsedEvent, start, end time.Time) (ParsedEvent, time.Time, time.Time) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, ov.Start, ov.End
		}
	}
	return ev, start, end
}

// makeEvent builds a club event for one occurrence. instance is the
// unmodified recurrence start, so IDs survive overrides moving the time.
func makeEvent(ev ParsedEvent, uid string, start, end, instance time.Time, loc *time.Location) model.Event {
	key := instance.UTC().Format(time.RFC3339)
	if ev.AllDay {
		// DATE values carry no zone; keep the calendar date rather than
		// converting the instant, which would shift it across midnight.
		start, end = wallMidnight(start, loc), wallMidnight(end, loc)
	} else {
		start, end = start.In(loc), end.In(loc)
	}
	return model.Event{
		ID:          uuid.NewSHA1(occurrenceNamespace, []byte(ev.SourceID+"\x00"+uid+"\x00"+key)).String(),
		SourceID:    ev.SourceID,
		InstanceKey: key,
		Title:       ev.Summary,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		Start:       start,
		End:         end,
		Detail:      model.EventRegistration{Event: ev.Summary, Venue: ev.Location},
	}
}

// wallMidnight is midnight in loc on the calendar date t reads in its own
// location.
func wallMidnight(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
