package store

import (
	"sync"
	"testing"
	"time"

	"clubcal/internal/model"
)

func TestReplace_DiscardsPreviousSnapshot(t *testing.T) {
	s := New()
	if s.Snapshot().Generation != 0 || len(s.Snapshot().Events) != 0 {
		t.Fatalf("new store should be empty")
	}

	at := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	first := []model.Event{{ID: "a"}, {ID: "b"}}
	errs := map[string]string{"regatta": "timeout"}
	s.Replace(first, errs, at)

	first[0].ID = "mutated"
	errs["regatta"] = "mutated"

	snap := s.Snapshot()
	if len(snap.Events) != 2 || snap.Events[0].ID != "a" {
		t.Fatalf("snapshot should hold a copy, got %+v", snap.Events)
	}
	if snap.Errors["regatta"] != "timeout" || !snap.UpdatedAt.Equal(at) {
		t.Fatalf("unexpected snapshot metadata %+v", snap)
	}

	s.Replace([]model.Event{{ID: "c"}}, nil, at.Add(time.Minute))
	snap = s.Snapshot()
	if len(snap.Events) != 1 || snap.Events[0].ID != "c" || len(snap.Errors) != 0 {
		t.Fatalf("second replace should discard previous events, got %+v", snap)
	}
	if s.Snapshot().Generation != 2 {
		t.Fatalf("expected generation 2, got %d", s.Snapshot().Generation)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Replace([]model.Event{{ID: "x"}}, nil, time.Now())
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	if s.Snapshot().Generation != 8 {
		t.Fatalf("expected 8 replaces, got %d", s.Snapshot().Generation)
	}
}
