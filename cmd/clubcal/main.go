package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"clubcal/internal/calendar"
	"clubcal/internal/capture"
	"clubcal/internal/config"
	"clubcal/internal/fetch"
	appLog "clubcal/internal/log"
	"clubcal/internal/refresh"
	"clubcal/internal/store"
	"clubcal/internal/termview"
	"clubcal/internal/web"
)

const version = "0.3.0"

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	envFile    string
	listen     string
	once       bool
	printMonth string
	snapshot   bool
}

func main() {
	flags := parseFlags()

	// .env is optional; a missing file is not an error.
	if err := godotenv.Load(flags.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		appLog.Warn("failed to load env file", "path", flags.envFile, "error", err)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	conf.ApplyEnv()

	// CLI --listen overrides config and environment.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.snapshot {
		conf.Snapshot.Enabled = true
	}
	if lvl, ok := appLog.ParseLevel(conf.LogLevel); ok {
		appLog.SetLevel(lvl)
	}

	appLog.Info("clubcal starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"match_zone", conf.MatchZone,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"feeds", len(conf.Feeds),
		"snapshot", conf.Snapshot.Enabled,
		"once", flags.once,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := store.New()
	fetcher := fetch.NewFetcher(conf.CacheDir, &http.Client{Timeout: 30 * time.Second})
	refresher := refresh.New(conf, st, fetcher)

	if flags.printMonth != "" {
		if err := printMonth(ctx, conf, st, refresher, flags.printMonth); err != nil {
			appLog.Error("print month failed", err, "month", flags.printMonth)
			os.Exit(1)
		}
		return
	}

	if conf.Snapshot.Enabled {
		refresher.OnRefresh(snapshotHook(conf))
	}

	if flags.once {
		// Snapshot capture needs the page server; bind it before refreshing.
		if conf.Snapshot.Enabled {
			ln, err := net.Listen("tcp", conf.Listen)
			if err != nil {
				appLog.Error("failed to listen", err, "listen", conf.Listen)
				os.Exit(1)
			}
			srvCtx, cancelSrv := context.WithCancel(ctx)
			defer cancelSrv()
			go func() {
				if err := web.NewServer(conf, st).Serve(srvCtx, ln); err != nil {
					appLog.Error("HTTP server failed", err, "listen", conf.Listen)
				}
			}()
		}
		if err := refresher.RunOnce(ctx); err != nil {
			appLog.Error("refresh had failures", err)
			os.Exit(1)
		}
		appLog.Info("clubcal exiting")
		return
	}

	// The first cycle runs in the background so the server is up before
	// any snapshot hook tries to load the page.
	go func() {
		if err := refresher.RunOnce(ctx); err != nil {
			appLog.Error("initial refresh had failures", err)
		}
	}()
	if _, err := refresher.Start(ctx); err != nil {
		appLog.Error("failed to start scheduler", err)
		os.Exit(1)
	}

	serve(ctx, conf, st)
	appLog.Info("clubcal exiting")
}

func serve(ctx context.Context, conf *config.Config, st *store.Store) {
	if err := web.NewServer(conf, st).ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLog.Error("HTTP server failed", err, "listen", conf.Listen)
	}
}

// snapshotHook captures the current month page after each refresh.
func snapshotHook(conf *config.Config) func(context.Context) {
	loc := conf.Location()
	return func(ctx context.Context) {
		month := calendar.DateOf(time.Now().In(loc)).FirstOfMonth()
		opts := capture.Options{
			URL:        capture.MonthURL(conf.Listen, month),
			OutputPath: conf.Snapshot.OutputPath,
			Width:      conf.Snapshot.Width,
			Height:     conf.Snapshot.Height,
		}
		if conf.BasicAuth != nil {
			opts.Username = conf.BasicAuth.Username
			opts.Password = conf.BasicAuth.Password
		}
		if err := capture.MonthPNG(ctx, opts); err != nil {
			appLog.Error("month snapshot failed", err, "url", opts.URL)
			return
		}
		appLog.Info("month snapshot written", "path", opts.OutputPath)
	}
}

// printMonth refreshes once and writes the month grid to stdout.
func printMonth(ctx context.Context, conf *config.Config, st *store.Store, r *refresh.Refresher, month string) error {
	ref, err := calendar.ParseMonth(month)
	if err != nil {
		return err
	}
	if err := r.RunOnce(ctx); err != nil {
		appLog.Warn("refresh had failures", "error", err)
	}

	loc := conf.Location()
	today := calendar.DateOf(time.Now().In(loc))
	grid := calendar.BuildMonthGridFrom(ref, today, conf.FirstWeekday())
	cells := calendar.BindMonth(grid, st.Snapshot().Events, conf.MatchLocation())

	_, err = fmt.Fprint(os.Stdout, termview.RenderMonth(ref, cells, conf.FirstWeekday()))
	return err
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/clubcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.envFile, "env-file", ".env", "Optional dotenv file with CLUBCAL_* overrides")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one refresh cycle and exit")
	flag.StringVar(&cfg.printMonth, "print-month", "", "Refresh once and print the month (YYYY-MM) to the terminal")
	flag.BoolVar(&cfg.snapshot, "snapshot", false, "Capture the month page as PNG after each refresh")

	flag.Parse()

	return cfg
}
