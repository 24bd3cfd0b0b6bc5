package grid

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"weekslot/internal/hostdom"
	appLog "weekslot/internal/log"
)

// Date resolution for a column candidate. The host's marker value is not
// guaranteed to be a literal date: depending on page state it can be an
// opaque serial number, with the human-readable date living in a sibling's
// accessible label instead. Resolution is an ordered fallback chain; the
// first strategy that yields a date wins, and a candidate that defeats all
// strategies is dropped (logged, not fatal).

var (
	literalCompactRe = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	literalISORe     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)

	// Embedded forms accepted during the ancestry/descendant scan, where
	// the date may sit inside a longer attribute value.
	embeddedCompactRe = regexp.MustCompile(`\b(\d{4})(\d{2})(\d{2})\b`)
	embeddedISORe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)

	enMonthPat = `(Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`

	// "August 31, 2026" / "August 31", month first. The \b after the day
	// keeps a trailing year from being eaten as the day ("August 2026").
	enMonthDayRe = regexp.MustCompile(enMonthPat + `\s+(\d{1,2})\b(?:\s*,?\s*(\d{4})\b)?`)
	// "31 August 2026" / "31 August", day first.
	enDayMonthRe = regexp.MustCompile(`(\d{1,2})\s+` + enMonthPat + `(?:\s*,?\s*(\d{4})\b)?`)

	// "2026년 8월 31일" / "8월 31일".
	koDateRe = regexp.MustCompile(`(?:(\d{4})년\s*)?(\d{1,2})월\s*(\d{1,2})일`)
)

var enMonths = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// resolveDate resolves the calendar date of the candidate node at idx.
func (a *Analyzer) resolveDate(snap *hostdom.Snapshot, idx int) (time.Time, bool) {
	node := &snap.Nodes[idx]

	// Strategy (a): the marker itself is a literal date.
	if d, ok := a.parseLiteralKey(node.Marker); ok {
		return d, true
	}

	// Strategy (b): another element sharing the marker value carries a
	// human-readable date in its accessible label or text.
	for _, j := range snap.NodesWithMarker(node.Marker) {
		sib := &snap.Nodes[j]
		if d, ok := a.parseLocaleDate(sib.AriaLabel); ok {
			return d, true
		}
		if d, ok := a.parseLocaleDate(sib.Text); ok {
			return d, true
		}
	}

	// Strategy (c): walk the candidate's ancestry and descendants for any
	// parseable date attribute or text.
	related := append(snap.Ancestors(idx), snap.Descendants(idx)...)
	for _, j := range related {
		rel := &snap.Nodes[j]
		for _, v := range rel.Attrs {
			if d, ok := a.parseEmbedded(v); ok {
				return d, true
			}
		}
		if d, ok := a.parseLocaleDate(rel.AriaLabel); ok {
			return d, true
		}
		if d, ok := a.parseLocaleDate(rel.Text); ok {
			return d, true
		}
	}

	return time.Time{}, false
}

// parseLiteralKey accepts only whole-string YYYYMMDD or ISO forms.
func (a *Analyzer) parseLiteralKey(key string) (time.Time, bool) {
	key = strings.TrimSpace(key)
	if m := literalCompactRe.FindStringSubmatch(key); m != nil {
		return a.makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := literalISORe.FindStringSubmatch(key); m != nil {
		return a.makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	return time.Time{}, false
}

// parseEmbedded additionally accepts dates embedded in longer values, for
// attribute scans where the date is one token among several.
func (a *Analyzer) parseEmbedded(s string) (time.Time, bool) {
	if m := embeddedISORe.FindStringSubmatch(s); m != nil {
		if d, ok := a.makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return d, true
		}
	}
	if m := embeddedCompactRe.FindStringSubmatch(s); m != nil {
		if d, ok := a.makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return d, true
		}
	}
	return a.parseLocaleDate(s)
}

// parseLocaleDate tries the locale-specific day/month patterns, configured
// locale first, with and without a year in both orderings.
func (a *Analyzer) parseLocaleDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	locales := []string{a.params.Locale, otherLocale(a.params.Locale)}
	for _, loc := range locales {
		var d time.Time
		var ok bool
		switch loc {
		case "ko":
			d, ok = a.parseKoDate(s)
		default:
			d, ok = a.parseEnDate(s)
		}
		if ok {
			return d, true
		}
	}
	return time.Time{}, false
}

func (a *Analyzer) parseEnDate(s string) (time.Time, bool) {
	if m := enMonthDayRe.FindStringSubmatch(s); m != nil {
		if mon, ok := enMonths[strings.ToLower(m[1][:3])]; ok {
			return a.makeDateInferYear(int(mon), atoi(m[2]), m[3])
		}
	}
	if m := enDayMonthRe.FindStringSubmatch(s); m != nil {
		if mon, ok := enMonths[strings.ToLower(m[2][:3])]; ok {
			return a.makeDateInferYear(int(mon), atoi(m[1]), m[3])
		}
	}
	return time.Time{}, false
}

func (a *Analyzer) parseKoDate(s string) (time.Time, bool) {
	if m := koDateRe.FindStringSubmatch(s); m != nil {
		return a.makeDateInferYear(atoi(m[2]), atoi(m[3]), m[1])
	}
	return time.Time{}, false
}

// makeDateInferYear builds a date from month/day plus an optional year
// capture. A missing year is resolved to whichever of the surrounding years
// puts the date closest to now: a week view near a year boundary can show
// days of the neighboring year.
func (a *Analyzer) makeDateInferYear(month, day int, yearStr string) (time.Time, bool) {
	if yearStr != "" {
		return a.makeDate(atoi(yearStr), month, day)
	}
	now := a.now()
	best := time.Time{}
	var bestDiff time.Duration
	for _, y := range []int{now.Year() - 1, now.Year(), now.Year() + 1} {
		d, ok := a.makeDate(y, month, day)
		if !ok {
			continue
		}
		diff := d.Sub(now)
		if diff < 0 {
			diff = -diff
		}
		if best.IsZero() || diff < bestDiff {
			best, bestDiff = d, diff
		}
	}
	return best, !best.IsZero()
}

// makeDate validates month/day ranges by round-tripping through time.Date;
// normalized overflow (e.g. month 13) is rejected.
func (a *Analyzer) makeDate(year, month, day int) (time.Time, bool) {
	if year < 1970 || year > 9999 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, a.params.Location)
	if int(d.Month()) != month || d.Day() != day {
		appLog.Debug("grid: rejected overflowing date", "year", year, "month", month, "day", day)
		return time.Time{}, false
	}
	return d, true
}

func otherLocale(loc string) string {
	if loc == "ko" {
		return "en"
	}
	return "ko"
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
