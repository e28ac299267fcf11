// Package refresh rebuilds the calendar snapshot from the configured feeds,
// once or on a cron schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"clubcal/internal/config"
	"clubcal/internal/fetch"
	"clubcal/internal/ics"
	appLog "clubcal/internal/log"
	"clubcal/internal/model"
	"clubcal/internal/source"
	"clubcal/internal/store"
)

// Refresher runs fetch → decode → expand → store cycles.
type Refresher struct {
	cfg     *config.Config
	fetcher *fetch.Fetcher
	decoder *source.Decoder
	store   *store.Store
	loc     *time.Location

	// Now is the clock used for the ICS horizon and snapshot time.
	Now func() time.Time

	hooks []func(context.Context)

	// mu serializes cycles so hooks such as the PNG capture never overlap.
	mu sync.Mutex
}

// New builds a Refresher writing into st.
func New(cfg *config.Config, st *store.Store, fetcher *fetch.Fetcher) *Refresher {
	loc := cfg.Location()
	return &Refresher{
		cfg:     cfg,
		fetcher: fetcher,
		decoder: source.NewDecoder(loc),
		store:   st,
		loc:     loc,
		Now:     time.Now,
	}
}

// OnRefresh registers fn to run after every completed cycle.
func (r *Refresher) OnRefresh(fn func(context.Context)) {
	r.hooks = append(r.hooks, fn)
}

// RunOnce performs a single refresh. The snapshot is always replaced; the
// returned error joins every per-source failure. Concurrent calls run one
// after another.
func (r *Refresher) RunOnce(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := r.Now()

	sources := make([]fetch.Source, 0, len(r.cfg.Feeds))
	for _, f := range r.cfg.Feeds {
		if f.URL == "" {
			continue
		}
		sources = append(sources, fetch.Source{ID: f.SourceID(), Kind: f.Kind, URL: f.URL})
	}

	results, fetchErrs := r.fetcher.FetchAll(ctx, sources)

	failures := make(map[string]string)
	errs := append([]error(nil), fetchErrs...)
	for _, err := range fetchErrs {
		var se *fetch.SourceError
		if errors.As(err, &se) {
			failures[se.SourceID] = se.Err.Error()
		}
	}

	events := make([]model.Event, 0)
	var parsed []ics.ParsedEvent
	var icsIDs []string
	for _, res := range results {
		switch res.Source.Kind {
		case config.KindICS:
			pe, err := ics.ParseICS(res.Source.ID, res.Body)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", res.Source.ID, err))
				failures[res.Source.ID] = err.Error()
				continue
			}
			parsed = append(parsed, pe...)
			icsIDs = append(icsIDs, res.Source.ID)
		default:
			evs, err := r.decoder.Decode(res.Source.ID, res.Source.Kind, res.Body)
			if err != nil {
				appLog.Error("feed decode failed", err, "id", res.Source.ID)
				errs = append(errs, err)
				failures[res.Source.ID] = err.Error()
				continue
			}
			events = append(events, evs...)
		}
	}

	if len(parsed) > 0 {
		expanded, err := ics.Expand(parsed, ics.ExpandConfig{
			DisplayLocation: r.loc,
			RangeStart:      started.AddDate(0, 0, -r.cfg.BackfillDays),
			RangeEnd:        started.AddDate(0, 0, r.cfg.HorizonDays),
		})
		if err != nil {
			errs = append(errs, err)
			for _, id := range icsIDs {
				failures[id] = err.Error()
			}
		} else {
			events = append(events, expanded.Events...)
		}
	}

	r.store.Replace(events, failures, r.Now())
	appLog.Info("calendar refreshed",
		"events", len(events),
		"sources", len(sources),
		"failed", len(failures),
		"elapsed", time.Since(started).Round(time.Millisecond),
	)

	for _, hook := range r.hooks {
		hook(ctx)
	}
	return errors.Join(errs...)
}

// Start schedules RunOnce on the configured cron expression in the club's
// timezone. The scheduler stops when ctx is canceled.
func (r *Refresher) Start(ctx context.Context) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLocation(r.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	_, err := c.AddFunc(r.cfg.RefreshCron, func() {
		if err := r.RunOnce(ctx); err != nil {
			appLog.Error("scheduled refresh had failures", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("refresh: invalid cron %q: %w", r.cfg.RefreshCron, err)
	}
	c.Start()
	appLog.Info("refresh scheduled", "cron", r.cfg.RefreshCron, "timezone", r.loc.String())

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
