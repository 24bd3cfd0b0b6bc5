// Package format renders selected slots as the shareable text lines the
// picker exists to produce.
package format

import (
	"fmt"
	"strings"
	"time"

	"weekslot/internal/selection"
)

var koWeekdays = [7]string{"일", "월", "화", "수", "목", "금", "토"}

// Lines renders one line per slot in the stored (chronological) order:
//
//	August 31 (Sun) 9-10:30
//	8월 31일 (일) 9-10:30
//
// Minutes are omitted when zero; use24h false switches to 9AM-10:30AM style.
func Lines(slots []*selection.Slot, locale string, use24h bool) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, Line(s, locale, use24h))
	}
	return out
}

// Text joins Lines with newlines.
func Text(slots []*selection.Slot, locale string, use24h bool) string {
	return strings.Join(Lines(slots, locale, use24h), "\n")
}

// Line renders a single slot.
func Line(s *selection.Slot, locale string, use24h bool) string {
	day := dayLabel(s.Date, locale)
	return fmt.Sprintf("%s %s-%s",
		day,
		timeLabel(s.StartHour, s.StartMin, use24h),
		timeLabel(s.EndHour, s.EndMin, use24h))
}

func dayLabel(d time.Time, locale string) string {
	if locale == "ko" {
		return fmt.Sprintf("%d월 %d일 (%s)", int(d.Month()), d.Day(), koWeekdays[int(d.Weekday())])
	}
	return fmt.Sprintf("%s %d (%s)", d.Month().String(), d.Day(), d.Weekday().String()[:3])
}

func timeLabel(hour, minute int, use24h bool) string {
	if use24h {
		if minute == 0 {
			return fmt.Sprintf("%d", hour)
		}
		return fmt.Sprintf("%d:%02d", hour, minute)
	}

	suffix := "AM"
	h := hour
	switch {
	case hour == 0:
		h = 12
	case hour == 12:
		suffix = "PM"
	case hour > 12:
		h = hour - 12
		suffix = "PM"
	}
	if minute == 0 {
		return fmt.Sprintf("%d%s", h, suffix)
	}
	return fmt.Sprintf("%d:%02d%s", h, minute, suffix)
}
