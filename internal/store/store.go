// Package store holds the latest calendar snapshot. It is created once in
// main and handed to the refresher and the HTTP server.
package store

import (
	"slices"
	"sync"
	"time"

	"clubcal/internal/model"
)

// Snapshot is an immutable view of the events from one refresh.
type Snapshot struct {
	Events    []model.Event
	UpdatedAt time.Time

	// Generation increases on every Replace; zero means never refreshed.
	Generation uint64

	// Errors holds per-source failure messages from the refresh.
	Errors map[string]string
}

// Store guards the current snapshot.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
}

func New() *Store {
	return &Store{}
}

// Replace discards the previous events and installs a fresh list. The
// caller's slice and map are copied.
func (s *Store) Replace(events []model.Event, errs map[string]string, at time.Time) {
	copied := make(map[string]string, len(errs))
	for k, v := range errs {
		copied[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = Snapshot{
		Events:     slices.Clone(events),
		UpdatedAt:  at,
		Generation: s.snap.Generation + 1,
		Errors:     copied,
	}
}

// Snapshot returns the current snapshot. The Events slice is shared and
// must not be modified.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
