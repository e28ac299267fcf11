package model

import (
	"errors"
	"testing"
	"time"
)

func TestNewEvent_RejectsEndBeforeStart(t *testing.T) {
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	_, err := NewEvent("b-1", start, start.Add(-time.Minute), YachtCharter{Yacht: "Aurora"})
	if !errors.Is(err, ErrEndBeforeStart) {
		t.Fatalf("expected ErrEndBeforeStart, got %v", err)
	}

	ev, err := NewEvent("b-1", start, start, YachtCharter{Yacht: "Aurora"})
	if err != nil {
		t.Fatalf("zero-length event should be valid: %v", err)
	}
	if ev.Duration() != 0 {
		t.Fatalf("expected zero duration, got %v", ev.Duration())
	}
}

func TestNewEvent_RequiresIDAndDetail(t *testing.T) {
	now := time.Now()
	if _, err := NewEvent("", now, now, EventRegistration{}); !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
	if _, err := NewEvent("x", now, now, nil); !errors.Is(err, ErrMissingDetail) {
		t.Fatalf("expected ErrMissingDetail, got %v", err)
	}
}

func TestCategoryFromDetail(t *testing.T) {
	tests := []struct {
		detail Detail
		want   Category
	}{
		{detail: YachtCharter{Yacht: "Aurora"}, want: CategoryYacht},
		{detail: ServiceAppointment{Service: "Hull cleaning"}, want: CategoryService},
		{detail: EventRegistration{Event: "Commodore's Ball"}, want: CategoryEvent},
	}
	for _, tc := range tests {
		ev := Event{ID: "x", Detail: tc.detail}
		if got := ev.Category(); got != tc.want {
			t.Fatalf("Category() = %q, want %q", got, tc.want)
		}
		if ev.Category().Style().Label == "" {
			t.Fatalf("missing style label for %q", tc.want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategory(string(c))
		if err != nil || got != c {
			t.Fatalf("ParseCategory(%q) = %q, %v", c, got, err)
		}
	}
	if _, err := ParseCategory("helicopter"); err == nil {
		t.Fatalf("expected error for unknown category")
	}
}
