// Package export writes the selected slots out as an iCalendar file, so a
// picked set of availability slots can be dropped straight into any
// calendar client.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"weekslot/internal/format"
	appLog "weekslot/internal/log"
	"weekslot/internal/selection"
)

// Options controls the generated calendar.
type Options struct {
	// Summary is the VEVENT summary; defaults to "Available".
	Summary string

	// RepeatWeeks > 1 attaches a weekly RRULE so each slot recurs that
	// many weeks in total.
	RepeatWeeks int

	// Locale / Use24h drive the human-readable description line.
	Locale string
	Use24h bool
}

// Build assembles a VCALENDAR with one VEVENT per slot.
func Build(slots []*selection.Slot, opts Options) (*ical.Calendar, error) {
	if len(slots) == 0 {
		return nil, errors.New("export: no slots selected")
	}
	if opts.Summary == "" {
		opts.Summary = "Available"
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//weekslot//weekslot//EN")

	now := time.Now()
	for _, s := range slots {
		if !s.Valid() {
			appLog.Warn("export: skipping invalid slot", "slot", s.String())
			continue
		}
		ev := cal.AddEvent(eventUID(s))
		ev.SetCreatedTime(now)
		ev.SetDtStampTime(now)
		ev.SetStartAt(s.Start())
		ev.SetEndAt(s.End())
		ev.SetSummary(opts.Summary)
		ev.SetDescription(format.Line(s, opts.Locale, opts.Use24h))

		if opts.RepeatWeeks > 1 {
			r, err := rrule.NewRRule(rrule.ROption{
				Freq:    rrule.WEEKLY,
				Count:   opts.RepeatWeeks,
				Dtstart: s.Start(),
			})
			if err != nil {
				return nil, fmt.Errorf("export: building weekly rule: %w", err)
			}
			// RRuleString omits the DTSTART line String() would prepend;
			// the property value must be the bare rule.
			ev.AddRrule(r.OrigOptions.RRuleString())
		}
	}

	return cal, nil
}

// WriteFile serializes the calendar for the given slots to path.
func WriteFile(path string, slots []*selection.Slot, opts Options) error {
	if path == "" {
		return errors.New("export: path is empty")
	}
	cal, err := Build(slots, opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(cal.Serialize()), 0o644); err != nil {
		return fmt.Errorf("export: writing %s: %w", path, err)
	}
	appLog.Info("export: wrote ICS", "path", path, "slots", len(slots))
	return nil
}

func eventUID(s *selection.Slot) string {
	return fmt.Sprintf("%s-%02d%02d-%02d%02d@weekslot",
		s.Date.Format("20060102"), s.StartHour, s.StartMin, s.EndHour, s.EndMin)
}
