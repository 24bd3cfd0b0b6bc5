package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// BrowserConfig describes how to reach the host calendar page.
type BrowserConfig struct {
	// PageURL is the calendar page to open when launching a fresh browser.
	// Ignored when AttachWS is set.
	PageURL string `yaml:"page_url" json:"page_url"`

	// AttachWS is a DevTools websocket endpoint (ws://...) of an already
	// running browser to attach to instead of launching one.
	AttachWS string `yaml:"attach_ws" json:"attach_ws"`

	// Headless controls whether a launched browser runs headless. Attaching
	// to an existing browser ignores this.
	Headless bool `yaml:"headless" json:"headless"`
}

// GridConfig holds the grid-analysis tuning knobs.
type GridConfig struct {
	// MarkerAttr is the host page's per-day marker attribute name. The host
	// reuses it for headers and widgets, so candidates are filtered by
	// rendered height as well.
	MarkerAttr string `yaml:"marker_attr" json:"marker_attr"`

	// HourMarkSelector is the CSS selector for the host's hour-line
	// elements, used to calibrate pixels-per-hour.
	HourMarkSelector string `yaml:"hour_mark_selector" json:"hour_mark_selector"`

	// MinGridHeight is the minimum rendered height in pixels for an element
	// carrying the marker to qualify as a time-grid column body.
	MinGridHeight float64 `yaml:"min_grid_height" json:"min_grid_height"`

	// MinHourHeight / MaxHourHeight bound the plausible pixels-per-hour band
	// used when falling back to columnHeight/24.
	MinHourHeight float64 `yaml:"min_hour_height" json:"min_hour_height"`
	MaxHourHeight float64 `yaml:"max_hour_height" json:"max_hour_height"`

	// DefaultHourHeight is the last-resort pixels-per-hour value when the
	// page exposes nothing measurable.
	DefaultHourHeight float64 `yaml:"default_hour_height" json:"default_hour_height"`
}

// SelectConfig holds the selection behavior knobs.
type SelectConfig struct {
	// SnapMinutes is the time quantum selection boundaries are rounded to.
	SnapMinutes int `yaml:"snap_minutes" json:"snap_minutes"`

	// MinDragPx is the minimum vertical pointer travel for a drag to count
	// as a selection rather than a stray click.
	MinDragPx float64 `yaml:"min_drag_px" json:"min_drag_px"`
}

// ExportConfig controls the ICS export of selected slots.
type ExportConfig struct {
	// Path is where the .ics file is written on an export command.
	Path string `yaml:"path" json:"path"`

	// RepeatWeeks > 1 attaches a weekly recurrence to each exported slot.
	RepeatWeeks int `yaml:"repeat_weeks" json:"repeat_weeks"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the read-only status API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone dates are interpreted in (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	// Locale selects date-parsing patterns and output formatting. Supported
	// values: "en" (default), "ko".
	Locale string `yaml:"locale" json:"locale"`

	// Use24h renders slot times as 24-hour "H:MM" instead of "H:MMAM/PM".
	Use24h bool `yaml:"use_24h" json:"use_24h"`

	Browser BrowserConfig `yaml:"browser" json:"browser"`
	Grid    GridConfig    `yaml:"grid" json:"grid"`
	Select  SelectConfig  `yaml:"select" json:"select"`
	Export  ExportConfig  `yaml:"export" json:"export"`

	// MutationDebounceMS / ViewportDebounceMS are the debounce windows for
	// DOM-mutation-driven and scroll/resize-driven re-analysis. Mutations
	// get the coarser window; scroll and resize fire far more often and are
	// debounced tighter.
	MutationDebounceMS int `yaml:"mutation_debounce_ms" json:"mutation_debounce_ms"`
	ViewportDebounceMS int `yaml:"viewport_debounce_ms" json:"viewport_debounce_ms"`

	// RefreshCron is a cron-style schedule (robfig/cron syntax, e.g.
	// "@every 30s") for the periodic safety re-analysis that runs even when
	// no mutation or viewport event fired.
	RefreshCron string `yaml:"refresh" json:"refresh"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:8099",
		Timezone: "Asia/Seoul",
		Locale:   "en",
		Use24h:   true,
		Browser: BrowserConfig{
			PageURL:  "",
			AttachWS: "",
			Headless: false,
		},
		Grid: GridConfig{
			MarkerAttr:        "data-datekey",
			HourMarkSelector:  "[data-hourline]",
			MinGridHeight:     400,
			MinHourHeight:     30,
			MaxHourHeight:     100,
			DefaultHourHeight: 48,
		},
		Select: SelectConfig{
			SnapMinutes: 15,
			MinDragPx:   5,
		},
		Export: ExportConfig{
			Path:        "./slots.ics",
			RepeatWeeks: 1,
		},
		MutationDebounceMS: 350,
		ViewportDebounceMS: 120,
		RefreshCron:        "@every 30s",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	switch c.Locale {
	case "en", "ko":
		// ok
	case "":
		c.Locale = "en"
	default:
		// Unknown locale; fall back to English rather than failing startup.
		c.Locale = "en"
	}

	if c.Grid.MarkerAttr == "" {
		c.Grid.MarkerAttr = def.Grid.MarkerAttr
	}
	if c.Grid.HourMarkSelector == "" {
		c.Grid.HourMarkSelector = def.Grid.HourMarkSelector
	}
	if c.Grid.MinGridHeight <= 0 {
		c.Grid.MinGridHeight = def.Grid.MinGridHeight
	}
	if c.Grid.MinHourHeight <= 0 {
		c.Grid.MinHourHeight = def.Grid.MinHourHeight
	}
	if c.Grid.MaxHourHeight <= c.Grid.MinHourHeight {
		c.Grid.MaxHourHeight = def.Grid.MaxHourHeight
	}
	if c.Grid.DefaultHourHeight <= 0 {
		c.Grid.DefaultHourHeight = def.Grid.DefaultHourHeight
	}

	// Snap granularity must divide an hour evenly; anything else makes the
	// snapped boundaries drift across hour edges.
	if c.Select.SnapMinutes <= 0 || 60%c.Select.SnapMinutes != 0 {
		c.Select.SnapMinutes = def.Select.SnapMinutes
	}
	if c.Select.MinDragPx <= 0 {
		c.Select.MinDragPx = def.Select.MinDragPx
	}

	if c.Export.Path == "" {
		c.Export.Path = def.Export.Path
	}
	if c.Export.RepeatWeeks < 1 {
		c.Export.RepeatWeeks = 1
	}

	if c.MutationDebounceMS <= 0 {
		c.MutationDebounceMS = def.MutationDebounceMS
	}
	if c.ViewportDebounceMS <= 0 {
		c.ViewportDebounceMS = def.ViewportDebounceMS
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
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

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
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

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".weekslot-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
