package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"clubcal/internal/calendar"
	appLog "clubcal/internal/log"
)

// Feed kinds understood by the refresh pipeline.
const (
	KindBookings      = "bookings"
	KindServices      = "services"
	KindRegistrations = "registrations"
	KindICS           = "ics"
)

// Match zones for binding events to calendar days.
const (
	// MatchDisplay reads event start dates in the configured Timezone.
	MatchDisplay = "display"
	// MatchEvent reads event start dates in the zone the timestamp carries.
	MatchEvent = "event"
)

// FeedConfig describes one upstream collection.
type FeedConfig struct {
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Kind is one of bookings, services, registrations or ics.
	Kind string `yaml:"kind" json:"kind"`
	URL  string `yaml:"url" json:"url"`
}

// SourceID returns ID, falling back to Name and then URL.
func (f FeedConfig) SourceID() string {
	switch {
	case f.ID != "":
		return f.ID
	case f.Name != "":
		return f.Name
	default:
		return f.URL
	}
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the staff API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// LayoutConfig is the hour-row geometry of the week and day views.
type LayoutConfig struct {
	RowHeightPx  int `yaml:"row_height_px" json:"row_height_px"`
	MinHeightPx  int `yaml:"min_height_px" json:"min_height_px"`
	DayStartHour int `yaml:"day_start_hour" json:"day_start_hour"`
	DayEndHour   int `yaml:"day_end_hour" json:"day_end_hour"`
}

// SnapshotConfig controls the headless PNG capture of the month page.
type SnapshotConfig struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	OutputPath string `yaml:"output_path" json:"output_path"`
	Width      int    `yaml:"width" json:"width"`
	Height     int    `yaml:"height" json:"height"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the calendar API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone of the club (e.g. "Europe/Monaco").
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is the first grid column: "sunday" (default) or "monday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// MatchZone selects how event starts are mapped to days: "display"
	// (default) or "event".
	MatchZone string `yaml:"match_zone" json:"match_zone"`

	// RefreshCron is a cron expression for periodic refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays / BackfillDays bound recurrence expansion of ICS feeds.
	HorizonDays  int `yaml:"horizon_days" json:"horizon_days"`
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`

	Layout LayoutConfig `yaml:"layout" json:"layout"`

	Feeds []FeedConfig `yaml:"feeds" json:"feeds"`

	// BasicAuth, if set, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`

	// CacheDir holds per-feed HTTP cache entries.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		Timezone:     "UTC",
		WeekStart:    "sunday",
		MatchZone:    MatchDisplay,
		RefreshCron:  "*/5 * * * *",
		HorizonDays:  90,
		BackfillDays: 31,
		Layout: LayoutConfig{
			RowHeightPx:  calendar.DefaultRowHeightPx,
			MinHeightPx:  calendar.DefaultMinHeightPx,
			DayStartHour: 6,
			DayEndHour:   22,
		},
		Feeds: []FeedConfig{},
		Snapshot: SnapshotConfig{
			OutputPath: "/var/lib/clubcal/month.png",
			Width:      1280,
			Height:     960,
		},
		CacheDir: "/var/lib/clubcal/feed-cache",
		LogLevel: "info",
	}
}

// Normalize fills in missing/zero values with defaults so that partial
// configs still behave correctly.
func (c *Config) Normalize() {
	d := DefaultConfig()

	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	c.WeekStart = strings.ToLower(strings.TrimSpace(c.WeekStart))
	if c.WeekStart != "sunday" && c.WeekStart != "monday" {
		c.WeekStart = d.WeekStart
	}
	c.MatchZone = strings.ToLower(strings.TrimSpace(c.MatchZone))
	if c.MatchZone != MatchDisplay && c.MatchZone != MatchEvent {
		c.MatchZone = d.MatchZone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = d.HorizonDays
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = 0
	}

	if c.Layout.RowHeightPx <= 0 {
		c.Layout.RowHeightPx = d.Layout.RowHeightPx
	}
	if c.Layout.MinHeightPx <= 0 {
		c.Layout.MinHeightPx = d.Layout.MinHeightPx
	}
	if c.Layout.DayStartHour < 0 || c.Layout.DayStartHour > 23 {
		c.Layout.DayStartHour = d.Layout.DayStartHour
	}
	if c.Layout.DayEndHour <= c.Layout.DayStartHour || c.Layout.DayEndHour > 24 {
		c.Layout.DayEndHour = 24
	}

	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
	for i := range c.Feeds {
		c.Feeds[i].Kind = strings.ToLower(strings.TrimSpace(c.Feeds[i].Kind))
	}

	if c.Snapshot.OutputPath == "" {
		c.Snapshot.OutputPath = d.Snapshot.OutputPath
	}
	if c.Snapshot.Width <= 0 {
		c.Snapshot.Width = d.Snapshot.Width
	}
	if c.Snapshot.Height <= 0 {
		c.Snapshot.Height = d.Snapshot.Height
	}
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	if _, ok := appLog.ParseLevel(c.LogLevel); !ok {
		c.LogLevel = d.LogLevel
	}
}

// ApplyEnv overrides scalar settings from CLUBCAL_* environment variables.
func (c *Config) ApplyEnv() {
	v := viper.New()
	v.SetEnvPrefix("CLUBCAL")
	for _, key := range []string{
		"listen", "timezone", "week_start", "match_zone", "refresh",
		"horizon_days", "backfill_days", "cache_dir", "log_level",
		"snapshot_enabled", "snapshot_output_path",
	} {
		_ = v.BindEnv(key)
	}

	setString := func(key string, dst *string) {
		if s := strings.TrimSpace(v.GetString(key)); s != "" {
			*dst = s
		}
	}
	setString("listen", &c.Listen)
	setString("timezone", &c.Timezone)
	setString("week_start", &c.WeekStart)
	setString("match_zone", &c.MatchZone)
	setString("refresh", &c.RefreshCron)
	setString("cache_dir", &c.CacheDir)
	setString("log_level", &c.LogLevel)
	setString("snapshot_output_path", &c.Snapshot.OutputPath)

	if n := v.GetInt("horizon_days"); n > 0 {
		c.HorizonDays = n
	}
	if v.IsSet("backfill_days") {
		c.BackfillDays = v.GetInt("backfill_days")
	}
	if v.IsSet("snapshot_enabled") {
		c.Snapshot.Enabled = v.GetBool("snapshot_enabled")
	}

	c.Normalize()
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// MatchLocation is the zone passed to day binding: the display location,
// or nil to read each event's own zone.
func (c *Config) MatchLocation() *time.Location {
	if c.MatchZone == MatchEvent {
		return nil
	}
	return c.Location()
}

// FirstWeekday maps WeekStart to a time.Weekday.
func (c *Config) FirstWeekday() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

// LayoutOptions converts the layout section for the calendar package.
func (c *Config) LayoutOptions() calendar.LayoutOptions {
	return calendar.LayoutOptions{
		RowHeightPx: c.Layout.RowHeightPx,
		MinHeightPx: c.Layout.MinHeightPx,
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, write a default config with 0600 perms
//     (creating the parent directory) and return it.
//   - Otherwise unmarshal the YAML and normalize defaults.
//
// Environment overrides are applied by the caller via ApplyEnv.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory with 0700.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".clubcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
