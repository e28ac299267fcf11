package source

import (
	"errors"
	"strings"
	"testing"
	"time"

	"clubcal/internal/model"
)

func TestDecode_Bookings(t *testing.T) {
	t.Parallel()

	body := `[
	  {"id":"b-1","startTime":"2024-03-10T09:00:00Z","endTime":"2024-03-10T12:00:00Z",
	   "yacht":{"name":"Aurora","berth":"A3","guests":6}},
	  {"id":"b-2","type":"service","startTime":"2024-03-10T14:00:00+01:00","endTime":"2024-03-10T14:30:00+01:00",
	   "title":"Hull wash","service":{"name":"Hull cleaning","provider":"Marina Services"}}
	]`

	events, err := NewDecoder(time.UTC).Decode("charters", "bookings", []byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	yacht := events[0]
	if yacht.Category() != model.CategoryYacht || yacht.Title != "Aurora" || yacht.SourceID != "charters" {
		t.Fatalf("unexpected yacht event %+v", yacht)
	}
	detail, ok := yacht.Detail.(model.YachtCharter)
	if !ok || detail.Guests != 6 || detail.Berth != "A3" {
		t.Fatalf("unexpected yacht detail %#v", yacht.Detail)
	}

	svc := events[1]
	if svc.Category() != model.CategoryService || svc.Title != "Hull wash" {
		t.Fatalf("explicit type should win over feed kind: %+v", svc)
	}
	if _, offset := svc.Start.Zone(); offset != 3600 {
		t.Fatalf("expected +01:00 offset preserved, got %d", offset)
	}
}

func TestDecode_Envelope(t *testing.T) {
	t.Parallel()

	body := `{"data":[{"id":"r-1","startTime":"2024-06-01T18:00","endTime":"2024-06-01T23:00",
	  "event":{"name":"Commodore's Ball","venue":"Clubhouse","attendees":2}}]}`

	monaco := time.FixedZone("CEST", 2*3600)
	events, err := NewDecoder(monaco).Decode("regs", "registrations", []byte(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 1 || events[0].Category() != model.CategoryEvent {
		t.Fatalf("unexpected events %+v", events)
	}
	if events[0].Start.Location() != monaco || events[0].Start.Hour() != 18 {
		t.Fatalf("zone-less time should be read in decoder location, got %v", events[0].Start)
	}
}

func TestDecode_FailsFast(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind string
		body string
	}{
		{name: "bad_time", kind: "bookings", body: `[{"id":"x","startTime":"tomorrow","endTime":"2024-03-10T10:00:00Z"}]`},
		{name: "missing_id", kind: "bookings", body: `[{"startTime":"2024-03-10T09:00:00Z","endTime":"2024-03-10T10:00:00Z"}]`},
		{name: "end_before_start", kind: "bookings", body: `[{"id":"x","startTime":"2024-03-10T10:00:00Z","endTime":"2024-03-10T09:00:00Z"}]`},
		{name: "unknown_type", kind: "bookings", body: `[{"id":"x","type":"jet","startTime":"2024-03-10T09:00:00Z","endTime":"2024-03-10T10:00:00Z"}]`},
		{name: "no_type_unknown_kind", kind: "misc", body: `[{"id":"x","startTime":"2024-03-10T09:00:00Z","endTime":"2024-03-10T10:00:00Z"}]`},
		{name: "yacht_without_name", kind: "bookings", body: `[{"id":"x","startTime":"2024-03-10T09:00:00Z","endTime":"2024-03-10T10:00:00Z","yacht":{"berth":"A1"}}]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			events, err := NewDecoder(time.UTC).Decode("feed", tc.kind, []byte(tc.body))
			if !errors.Is(err, ErrInvalidRecord) {
				t.Fatalf("expected ErrInvalidRecord, got %v", err)
			}
			if events != nil {
				t.Fatalf("expected no events on failure, got %d", len(events))
			}
		})
	}
}

func TestDecode_MalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := NewDecoder(nil).Decode("feed", "bookings", []byte(`[{"id":`))
	if err == nil || !strings.Contains(err.Error(), "source feed") {
		t.Fatalf("expected wrapped JSON error, got %v", err)
	}
	if _, err := NewDecoder(nil).Decode("feed", "bookings", []byte("  ")); err == nil {
		t.Fatalf("expected error for empty body")
	}
}

func TestParseTime(t *testing.T) {
	t.Parallel()

	d := NewDecoder(time.UTC)
	for _, in := range []string{"2024-03-10T09:00:00Z", "2024-03-10T09:00:00.5+02:00", "2024-03-10T09:00:00", "2024-03-10T09:00", "2024-03-10"} {
		if _, err := d.ParseTime(in); err != nil {
			t.Fatalf("ParseTime(%q): %v", in, err)
		}
	}
	if _, err := d.ParseTime("10/03/2024"); err == nil {
		t.Fatalf("expected error for non-ISO date")
	}
}
