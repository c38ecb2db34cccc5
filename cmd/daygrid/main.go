package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"daygrid/internal/agenda"
	"daygrid/internal/config"
	"daygrid/internal/feed"
	"daygrid/internal/layout"
	appLog "daygrid/internal/log"
	"daygrid/internal/model"
	"daygrid/internal/preview"
	"daygrid/internal/urgency"
	"daygrid/internal/web"
)

// flagConfig holds parsed CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	snapshot   string
	date       string
	once       bool
	debug      bool
}

func main() {
	flags := parseFlags()

	if lvl := os.Getenv("DAYGRID_LOG"); lvl != "" {
		appLog.SetLevel(appLog.ParseLevel(lvl))
	}
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}
	appLog.Info("daygrid starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI flags override the config file where given.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.snapshot != "" {
		conf.TasksFile = flags.snapshot
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"tasks_file", conf.TasksFile,
		"feed_count", len(conf.Feeds),
		"once", flags.once,
		"debug", flags.debug,
	)

	loc := resolveLocationOrLocal(conf.Timezone)

	cacheDir := "/var/lib/daygrid/feed-cache"
	if flags.debug {
		cacheDir = "./cache/feed-cache"
	}
	store := feed.NewStore(feed.NewFetcher(cacheDir), feedSources(conf), loc, conf.HorizonDays)

	ag := agenda.New(agenda.Options{
		SnapshotPath: conf.TasksFile,
		HorizonDays:  conf.HorizonDays,
		Location:     loc,
		Layout: layout.Options{
			MinHeightPercent: conf.Layout.MinHeightPercent,
			EventMinutes:     conf.Layout.EventMinutes,
			TaskMinutes:      conf.Layout.TaskMinutes,
		},
		Urgency: urgency.Options{
			HorizonDays:  conf.Urgency.HorizonDays,
			MinImportant: model.ParsePriority(conf.Urgency.ImportantMin),
		},
	}, store)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.once {
		if err := runOnce(ctx, ag, store, flags.date); err != nil {
			appLog.Error("single-shot run failed", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, conf, ag, store, flags.debug); err != nil {
		appLog.Error("server failed", err)
		os.Exit(1)
	}
	appLog.Info("daygrid exiting")
}

// serve runs the long-lived mode: HTTP server, cron-driven feed refresh
// and the preview capture after each refresh.
func serve(ctx context.Context, conf *config.Config, ag *agenda.Agenda, store *feed.Store, debug bool) error {
	if err := store.Refresh(ctx); err != nil {
		// The cron schedule retries; start serving whatever we have.
		appLog.Error("initial feed refresh failed", err)
	}

	srv := &http.Server{
		Addr:    conf.Listen,
		Handler: web.NewServer(conf, ag, debug).Handler(),
	}

	// Listen before the first capture so the view is reachable.
	ln, err := net.Listen("tcp", conf.Listen)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen, "debug", debug)
		errCh <- srv.Serve(ln)
	}()

	runCapturePipeline(ctx, conf, debug)

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		if err := store.Refresh(ctx); err != nil {
			appLog.Error("scheduled feed refresh failed", err)
		}
		runCapturePipeline(ctx, conf, debug)
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		return err
	}
	c.Start()
	defer c.Stop()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// runOnce refreshes the feeds once, lays out the requested day and prints
// it as indented JSON on stdout.
func runOnce(ctx context.Context, ag *agenda.Agenda, store *feed.Store, dateFlag string) error {
	if err := store.Refresh(ctx); err != nil {
		appLog.Error("feed refresh failed, using cached feeds if any", err)
	}

	date := model.DateOf(time.Now().In(ag.Location()))
	if dateFlag != "" {
		d, err := model.ParseDate(dateFlag)
		if err != nil {
			return fmt.Errorf("invalid -date %q: %w", dateFlag, err)
		}
		date = d
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(ag.Day(date))
}

// runCapturePipeline refreshes the PNG preview by screenshotting the
// local day view. Failures only log; headless Chromium is optional on
// dev machines. Path rule shared with web.Server.handlePreview:
//   - default: /var/lib/daygrid/preview.png
//   - debug:   ./cache/preview.png
func runCapturePipeline(ctx context.Context, conf *config.Config, debug bool) {
	outPath := "/var/lib/daygrid/preview.png"
	if debug {
		outPath = "./cache/preview.png"
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		appLog.Error("preview dir create failed", err, "path", outPath)
		return
	}

	opts := preview.Options{
		URL:        "http://" + conf.Listen + "/view/day",
		OutputPath: outPath,
	}
	if conf.BasicAuth != nil {
		opts.BasicAuthUser = conf.BasicAuth.Username
		opts.BasicAuthPass = conf.BasicAuth.Password
	}

	if err := preview.Capture(ctx, opts); err != nil {
		appLog.Error("preview capture failed", err, "url", opts.URL)
		return
	}
	appLog.Info("preview updated", "path", outPath)
}

// feedSources maps configured feeds onto fetchable sources, filling a
// missing id from the name or the URL.
func feedSources(conf *config.Config) []feed.Source {
	sources := make([]feed.Source, 0, len(conf.Feeds))
	for _, fc := range conf.Feeds {
		if fc.URL == "" {
			continue
		}
		id := fc.ID
		if id == "" {
			if fc.Name != "" {
				id = fc.Name
			} else {
				id = fc.URL
			}
		}
		sources = append(sources, feed.Source{ID: id, URL: fc.URL})
	}
	return sources
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/daygrid/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.snapshot, "snapshot", "", "Task snapshot path (overrides config if set)")
	flag.StringVar(&cfg.date, "date", "", "Day to lay out with -once, YYYY-MM-DD (default today)")
	flag.BoolVar(&cfg.once, "once", false, "Refresh feeds, print one day layout as JSON and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Debug logging and local cache paths")

	flag.Parse()

	return cfg
}
