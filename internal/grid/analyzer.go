package grid

import (
	"math"
	"sort"
	"sync"
	"time"

	"weekslot/internal/hostdom"
	appLog "weekslot/internal/log"
)

// Analyzer owns the grid cache. All other components treat the cache as
// read-only through the accessor methods; only Analyze replaces it.
type Analyzer struct {
	mu     sync.RWMutex
	params Params
	cache  *Cache

	// now is the clock used for year inference; overridable in tests.
	now func() time.Time
}

// NewAnalyzer returns an Analyzer with zero params replaced by defaults.
func NewAnalyzer(p Params) *Analyzer {
	return &Analyzer{
		params: p.withDefaults(),
		now:    time.Now,
	}
}

// Analyze scans the snapshot for day-column candidates, resolves their
// dates, measures the hour height and atomically replaces the cache.
//
// Returns false when no usable columns were found, which signals "not in
// week view" or "page not yet loaded"; the caller retries rather than
// treating it as fatal. On failure the previous cache is left untouched so
// a transient mid-render snapshot cannot wipe valid state.
func (a *Analyzer) Analyze(snap *hostdom.Snapshot) bool {
	if snap == nil || len(snap.Nodes) == 0 {
		appLog.Debug("grid: empty snapshot")
		return false
	}

	// Candidate filter: the host reuses the marker attribute for headers
	// and mini-widgets; only elements tall enough to be the grid body pass.
	var candidates []int
	for _, i := range snap.MarkerNodes() {
		if snap.Nodes[i].Rect.Height >= a.params.MinGridHeight {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		appLog.Debug("grid: no column candidates", "marker_nodes", len(snap.MarkerNodes()))
		return false
	}

	seen := make(map[string]bool, len(candidates))
	cols := make([]Column, 0, len(candidates))
	for _, i := range candidates {
		node := &snap.Nodes[i]
		if seen[node.Marker] {
			continue
		}
		date, ok := a.resolveDate(snap, i)
		if !ok {
			// Partial success is acceptable; total failure is not.
			appLog.Warn("grid: dropping column with unresolvable date", "marker", node.Marker)
			continue
		}
		seen[node.Marker] = true
		cols = append(cols, Column{
			NodeIndex: i,
			Date:      date,
			DateKey:   node.Marker,
			Left:      node.Rect.Left,
			Right:     node.Rect.Right(),
			Top:       node.Rect.Top,
			Width:     node.Rect.Width,
			Height:    node.Rect.Height,
		})
	}
	if len(cols) == 0 {
		appLog.Warn("grid: no candidate resolved to a date", "candidates", len(candidates))
		return false
	}

	// Day order is screen order, not DOM order.
	sort.Slice(cols, func(i, j int) bool { return cols[i].Left < cols[j].Left })

	gridTop := cols[0].Top
	tallest := 0.0
	for _, c := range cols {
		if c.Top < gridTop {
			gridTop = c.Top
		}
		if c.Height > tallest {
			tallest = c.Height
		}
	}

	cache := &Cache{
		HourHeight: a.measureHourHeight(snap.HourMarks, tallest),
		Columns:    cols,
		GridTop:    gridTop,
		CapturedAt: snap.CapturedAt,
	}

	a.mu.Lock()
	a.cache = cache
	a.mu.Unlock()

	appLog.Debug("grid: analyzed", "columns", len(cols), "hour_height", cache.HourHeight, "grid_top", gridTop)
	return true
}

// TimeFromY converts a viewport Y coordinate within col to a snapped
// time-of-day. This runs inside pointer-move handling: invalid input
// returns a zero time and logs instead of panicking, and non-finite values
// are rejected before any division so NaN never reaches the UI.
func (a *Analyzer) TimeFromY(y float64, col *Column) TimeOfDay {
	hh := a.HourHeight()
	if col == nil || !isFinite(y) || !isFinite(hh) || hh <= 0 {
		appLog.Warn("grid: invalid TimeFromY input", "y", y, "hour_height", hh, "have_column", col != nil)
		return TimeOfDay{}
	}

	rel := y - col.Top
	if rel < 0 {
		rel = 0
	}

	total := Snap(rel/hh*60, a.params.SnapMinutes)
	hour := total / 60
	minute := total % 60
	if hour > 23 {
		hour = 23
	}
	if minute > 59 {
		minute = 59
	}
	return TimeOfDay{Hour: hour, Minute: minute}
}

// Snap rounds raw minutes to the nearest multiple of granularity,
// half-up.
func Snap(minutes float64, granularity int) int {
	if granularity <= 0 {
		granularity = 15
	}
	if !isFinite(minutes) {
		return 0
	}
	g := float64(granularity)
	snapped := math.Floor(minutes/g+0.5) * g
	if snapped < 0 {
		return 0
	}
	return int(snapped)
}

// ColumnFromX returns a copy of the column whose horizontal span contains
// x, or nil when the pointer is outside every column (page margin, gutter).
// Day counts are small, so a linear scan is all it takes.
func (a *Analyzer) ColumnFromX(x float64) *Column {
	if !isFinite(x) {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.cache == nil {
		return nil
	}
	for i := range a.cache.Columns {
		if a.cache.Columns[i].ContainsX(x) {
			c := a.cache.Columns[i]
			return &c
		}
	}
	return nil
}

// Columns returns a copy of the current column list, left to right.
func (a *Analyzer) Columns() []Column {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.cache == nil {
		return nil
	}
	return append([]Column(nil), a.cache.Columns...)
}

// HourHeight returns the current pixels-per-hour, or 0 before the first
// successful analysis.
func (a *Analyzer) HourHeight() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.cache == nil {
		return 0
	}
	return a.cache.HourHeight
}

// GridTop returns the viewport Y of the grid body's top edge.
func (a *Analyzer) GridTop() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.cache == nil {
		return 0
	}
	return a.cache.GridTop
}

// VisibleDateKeys returns the set of dateKeys currently on screen.
func (a *Analyzer) VisibleDateKeys() map[string]struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	keys := make(map[string]struct{})
	if a.cache == nil {
		return keys
	}
	for i := range a.cache.Columns {
		keys[a.cache.Columns[i].DateKey] = struct{}{}
	}
	return keys
}
