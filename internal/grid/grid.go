// Package grid turns host-page DOM snapshots into a pixel-to-time mapping.
//
// The host page is an external, unversioned system: its markup changes
// without notice, its per-day marker attribute is reused for unrelated
// widgets, and its layout shifts whenever the page re-renders. Everything
// here is therefore written as ordered fallback chains that degrade rather
// than fail, and every analysis pass rebuilds the cache wholesale instead
// of patching stale measurements.
package grid

import "time"

// Column is one calendar day as currently rendered. Columns are value
// snapshots taken during an analysis pass; they are never mutated in place
// and go stale as soon as the next pass replaces the cache.
type Column struct {
	// NodeIndex is the column's element within the snapshot it was built
	// from. Borrowed, not owned: the host may destroy the element at any time.
	NodeIndex int

	// Date is the calendar day at midnight in the configured timezone.
	Date time.Time

	// DateKey is the host-assigned marker value, used as the join key
	// between columns and selections across analysis passes. It may be an
	// opaque serial number rather than a literal date.
	DateKey string

	Left   float64
	Right  float64
	Top    float64
	Width  float64
	Height float64
}

// ContainsX reports whether x falls inside the column's horizontal span.
func (c *Column) ContainsX(x float64) bool {
	return x >= c.Left && x <= c.Right
}

// Cache is the latest analysis snapshot. It is replaced atomically on every
// successful Analyze call and never partially updated.
type Cache struct {
	// HourHeight is the measured pixels-per-hour, always > 0.
	HourHeight float64

	// Columns is sorted left to right; this ordering defines day order for
	// all consumers regardless of DOM order.
	Columns []Column

	// GridTop is the viewport Y of the top of the grid body.
	GridTop float64

	CapturedAt time.Time
}

// TimeOfDay is a snapped wall-clock time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Minutes returns the offset from midnight in minutes.
func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

// Params holds the grid-analysis tuning knobs. Zero values are replaced
// with defaults by NewAnalyzer.
type Params struct {
	// MinGridHeight filters marker-bearing elements: only those at least
	// this tall are treated as time-grid column bodies. The grid body is
	// hundreds of pixels tall; headers and mini-widgets reusing the marker
	// are not.
	MinGridHeight float64

	// MinHourHeight / MaxHourHeight bound the plausible pixels-per-hour
	// band accepted from the columnHeight/24 fallback.
	MinHourHeight float64
	MaxHourHeight float64

	// DefaultHourHeight is the last-resort value when nothing on the page
	// is measurable.
	DefaultHourHeight float64

	// SnapMinutes is the granularity selection times are rounded to.
	SnapMinutes int

	// Locale orders the date-parsing patterns ("en" or "ko"). Both locales
	// are always attempted; the configured one goes first.
	Locale string

	// Location is the timezone resolved dates are anchored in.
	Location *time.Location
}

func (p Params) withDefaults() Params {
	if p.MinGridHeight <= 0 {
		p.MinGridHeight = 400
	}
	if p.MinHourHeight <= 0 {
		p.MinHourHeight = 30
	}
	if p.MaxHourHeight <= p.MinHourHeight {
		p.MaxHourHeight = 100
	}
	if p.DefaultHourHeight <= 0 {
		p.DefaultHourHeight = 48
	}
	if p.SnapMinutes <= 0 || 60%p.SnapMinutes != 0 {
		p.SnapMinutes = 15
	}
	if p.Locale == "" {
		p.Locale = "en"
	}
	if p.Location == nil {
		p.Location = time.Local
	}
	return p
}
