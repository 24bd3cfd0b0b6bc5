package grid

import (
	"math"
	"sort"

	"weekslot/internal/hostdom"
	appLog "weekslot/internal/log"
)

// Hour-height calibration. Three tiers, because the host page's internal
// structure is not a contract:
//
//  1. spacing between consecutive hour-line elements (median of up to
//     maxGapSamples gaps, to resist one malformed line),
//  2. columnHeight/24, accepted only inside the configured plausible band,
//  3. the configured default.
const maxGapSamples = 5

func (a *Analyzer) measureHourHeight(marks []hostdom.Rect, columnHeight float64) float64 {
	if hh, ok := hourHeightFromMarks(marks); ok {
		return hh
	}
	if hh, ok := hourHeightFromColumn(columnHeight, a.params.MinHourHeight, a.params.MaxHourHeight); ok {
		appLog.Debug("grid: hour height from column fallback", "column_height", columnHeight, "hour_height", hh)
		return hh
	}
	appLog.Warn("grid: hour height unmeasurable, using default",
		"marks", len(marks), "column_height", columnHeight, "default", a.params.DefaultHourHeight)
	return a.params.DefaultHourHeight
}

// hourHeightFromMarks measures the vertical spacing between consecutive
// hour-line elements. Needs at least two marks.
func hourHeightFromMarks(marks []hostdom.Rect) (float64, bool) {
	if len(marks) < 2 {
		return 0, false
	}

	tops := make([]float64, 0, len(marks))
	for _, m := range marks {
		if !isFinite(m.Top) {
			continue
		}
		tops = append(tops, m.Top)
	}
	if len(tops) < 2 {
		return 0, false
	}
	sort.Float64s(tops)

	gaps := make([]float64, 0, maxGapSamples)
	for i := 0; i+1 < len(tops) && len(gaps) < maxGapSamples; i++ {
		gap := tops[i+1] - tops[i]
		if gap > 0 && isFinite(gap) {
			gaps = append(gaps, gap)
		}
	}
	if len(gaps) == 0 {
		return 0, false
	}

	m := median(gaps)
	if m <= 0 || !isFinite(m) {
		return 0, false
	}
	return m, true
}

// hourHeightFromColumn derives pixels-per-hour from the full column height,
// trusting it only when it implies a sane per-hour value.
func hourHeightFromColumn(columnHeight, minHour, maxHour float64) (float64, bool) {
	if !isFinite(columnHeight) || columnHeight <= 0 {
		return 0, false
	}
	if columnHeight < minHour*24 || columnHeight > maxHour*24 {
		return 0, false
	}
	return columnHeight / 24, true
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
