package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"weekslot/internal/browser"
	"weekslot/internal/clip"
	"weekslot/internal/config"
	"weekslot/internal/drag"
	"weekslot/internal/export"
	"weekslot/internal/format"
	"weekslot/internal/grid"
	appLog "weekslot/internal/log"
	"weekslot/internal/mode"
	"weekslot/internal/selection"
	"weekslot/internal/viewsync"
	"weekslot/internal/web"
)

// initialAnalyzeTimeout bounds how long a silent grid search runs before
// the user gets told anything. Retries continue past it; only the toast is
// one-shot.
const initialAnalyzeTimeout = 30 * time.Second

type flagConfig struct {
	configPath string
	listen     string
	pageURL    string
	attachWS   string
}

func main() {
	appLog.Info("weekslot starting", "version", "0.1.0-dev")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI overrides.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.pageURL != "" {
		conf.Browser.PageURL = flags.pageURL
	}
	if flags.attachWS != "" {
		conf.Browser.AttachWS = flags.attachWS
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"locale", conf.Locale,
		"marker_attr", conf.Grid.MarkerAttr,
		"snap_minutes", conf.Select.SnapMinutes,
		"min_drag_px", conf.Select.MinDragPx,
		"refresh", conf.RefreshCron,
		"attach_ws", conf.Browser.AttachWS != "",
	)

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("unknown timezone, falling back to local", err, "timezone", conf.Timezone)
		loc = time.Local
	}

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

	if err := run(ctx, conf, loc); err != nil {
		appLog.Error("weekslot failed", err)
		os.Exit(1)
	}

	appLog.Info("weekslot exiting")
}

func run(ctx context.Context, conf *config.Config, loc *time.Location) error {
	analyzer := grid.NewAnalyzer(grid.Params{
		MinGridHeight:     conf.Grid.MinGridHeight,
		MinHourHeight:     conf.Grid.MinHourHeight,
		MaxHourHeight:     conf.Grid.MaxHourHeight,
		DefaultHourHeight: conf.Grid.DefaultHourHeight,
		SnapMinutes:       conf.Select.SnapMinutes,
		Locale:            conf.Locale,
		Location:          loc,
	})
	store := selection.NewStore()
	modes := mode.NewController()

	// Unrecoverable construction failure: surface one error and leave the
	// page untouched; no listeners were attached yet.
	session, err := browser.Connect(ctx, conf.Browser, conf.Grid)
	if err != nil {
		return err
	}
	defer session.Close()

	sync := viewsync.New(viewsync.Config{
		MutationDebounce: time.Duration(conf.MutationDebounceMS) * time.Millisecond,
		ViewportDebounce: time.Duration(conf.ViewportDebounceMS) * time.Millisecond,
	}, analyzer, store, modes, session.Snapshot, session.RepositionGrid)
	defer sync.Close()
	session.SetSyncHooks(sync.OnMutation, sync.OnViewportChange)

	machine := drag.NewMachine(
		drag.Config{MinDragDistance: conf.Select.MinDragPx},
		analyzer, store, modes, session,
	)
	machine.AttachListeners(session)
	defer machine.DetachListeners()

	modes.AddListener(func(active bool) {
		session.SetActive(active)
		if active {
			session.RepositionGrid(analyzer.Columns(), analyzer.GridTop(), analyzer.HourHeight())
		}
	})

	if err := clip.Init(); err != nil {
		// Copy falls back to logging the text; everything else still works.
		appLog.Error("clipboard unavailable", err)
	}

	go waitForGrid(ctx, sync, analyzer, session)

	// Safety net: periodic re-analysis even when no mutation or viewport
	// event fires (the host can repaint without structural changes).
	sched := cron.New()
	if _, err := sched.AddFunc(conf.RefreshCron, sync.ForceResync); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", conf.RefreshCron, err)
	}
	sched.Start()
	defer sched.Stop()

	srv := web.NewServer(conf, store, analyzer, modes)
	go func() {
		if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-session.Commands():
			handleCommand(cmd, conf, store, modes, session)
		}
	}
}

// waitForGrid retries the initial analysis until the grid shows up. Past
// the timeout the user gets one toast; retries keep going on the cron
// schedule regardless.
func waitForGrid(ctx context.Context, sync *viewsync.Sync, analyzer *grid.Analyzer, session *browser.Session) {
	deadline := time.Now().Add(initialAnalyzeTimeout)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	notified := false
	for {
		sync.ForceResync()
		if len(analyzer.Columns()) > 0 {
			appLog.Info("grid found", "columns", len(analyzer.Columns()))
			session.ShowToast("weekslot ready")
			return
		}
		if !notified && time.Now().After(deadline) {
			appLog.Warn("grid not found yet; is the calendar in week view?")
			session.ShowToast("weekslot: calendar grid not found (week view?)")
			notified = true
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func handleCommand(cmd browser.Command, conf *config.Config, store *selection.Store, modes *mode.Controller, session *browser.Session) {
	switch cmd {
	case browser.CmdToggle:
		active := modes.Toggle()
		if active {
			session.ShowToast("Selection mode on: drag to pick slots")
		} else {
			session.ShowToast("Selection mode off")
		}

	case browser.CmdCopy:
		slots := store.Slots()
		if len(slots) == 0 {
			session.ShowToast("No slots selected")
			return
		}
		text := format.Text(slots, conf.Locale, conf.Use24h)
		if err := clip.WriteText(text); err != nil {
			appLog.Error("copy failed; dumping text", err)
			appLog.Info("selected slots", "text", text)
			session.ShowToast("Copy failed (see logs)")
			return
		}
		session.ShowToast(fmt.Sprintf("Copied %d slot(s)", len(slots)))

	case browser.CmdExport:
		slots := store.Slots()
		if len(slots) == 0 {
			session.ShowToast("No slots selected")
			return
		}
		err := export.WriteFile(conf.Export.Path, slots, export.Options{
			RepeatWeeks: conf.Export.RepeatWeeks,
			Locale:      conf.Locale,
			Use24h:      conf.Use24h,
		})
		if err != nil {
			appLog.Error("export failed", err)
			session.ShowToast("Export failed (see logs)")
			return
		}
		session.ShowToast("Exported " + conf.Export.Path)

	case browser.CmdClear:
		store.ClearAll()
		session.ShowToast("Cleared")

	default:
		appLog.Warn("unknown panel command", "cmd", string(cmd))
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", defaultConfigPath(), "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.pageURL, "url", "", "Calendar page URL to open (overrides config if set)")
	flag.StringVar(&cfg.attachWS, "attach", "", "DevTools websocket endpoint to attach to (overrides config if set)")

	flag.Parse()

	return cfg
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./weekslot.yaml"
	}
	return home + "/.config/weekslot/config.yaml"
}
