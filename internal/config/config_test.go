package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.WeekStart != "sunday" || cfg.MatchZone != MatchDisplay {
		t.Fatalf("unexpected defaults: week_start=%q match_zone=%q", cfg.WeekStart, cfg.MatchZone)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file to be created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 perms, got %o", perm)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if again.Listen != cfg.Listen || again.Layout != cfg.Layout {
		t.Fatalf("reloaded config differs: %+v vs %+v", again, cfg)
	}
}

func TestLoad_PartialFileIsNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
timezone: Europe/Monaco
week_start: Monday
match_zone: bogus
layout:
  row_height_px: 80
  day_start_hour: 8
  day_end_hour: 4
feeds:
  - id: charters
    kind: " Bookings "
    url: https://club.example/api/bookings
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.FirstWeekday() != time.Monday {
		t.Fatalf("expected monday week start, got %v", cfg.FirstWeekday())
	}
	if cfg.MatchZone != MatchDisplay {
		t.Fatalf("unknown match_zone should fall back to display, got %q", cfg.MatchZone)
	}
	if cfg.Layout.RowHeightPx != 80 || cfg.Layout.MinHeightPx != 48 {
		t.Fatalf("unexpected layout %+v", cfg.Layout)
	}
	if cfg.Layout.DayEndHour != 24 {
		t.Fatalf("end hour before start should widen to 24, got %d", cfg.Layout.DayEndHour)
	}
	if len(cfg.Feeds) != 1 || cfg.Feeds[0].Kind != KindBookings {
		t.Fatalf("unexpected feeds %+v", cfg.Feeds)
	}
	if cfg.Listen == "" || cfg.RefreshCron == "" {
		t.Fatalf("missing defaults: %+v", cfg)
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("CLUBCAL_LISTEN", "0.0.0.0:9090")
	t.Setenv("CLUBCAL_MATCH_ZONE", "event")
	t.Setenv("CLUBCAL_HORIZON_DAYS", "30")
	t.Setenv("CLUBCAL_SNAPSHOT_ENABLED", "true")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	if cfg.Listen != "0.0.0.0:9090" {
		t.Fatalf("listen not overridden: %q", cfg.Listen)
	}
	if cfg.MatchZone != MatchEvent || cfg.MatchLocation() != nil {
		t.Fatalf("expected event match zone with nil location, got %q", cfg.MatchZone)
	}
	if cfg.HorizonDays != 30 {
		t.Fatalf("horizon not overridden: %d", cfg.HorizonDays)
	}
	if !cfg.Snapshot.Enabled {
		t.Fatalf("snapshot should be enabled")
	}
}

func TestFeedConfig_SourceID(t *testing.T) {
	tests := []struct {
		feed FeedConfig
		want string
	}{
		{feed: FeedConfig{ID: "a", Name: "b", URL: "c"}, want: "a"},
		{feed: FeedConfig{Name: "b", URL: "c"}, want: "b"},
		{feed: FeedConfig{URL: "c"}, want: "c"},
	}
	for _, tc := range tests {
		if got := tc.feed.SourceID(); got != tc.want {
			t.Fatalf("SourceID() = %q, want %q", got, tc.want)
		}
	}
}

func TestLocation_FallsBackToLocal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Nowhere/Atlantis"
	if cfg.Location() != time.Local {
		t.Fatalf("expected time.Local fallback")
	}
}
