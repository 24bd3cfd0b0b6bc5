package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekslot/internal/selection"
)

func slot(d time.Time, sh, sm, eh, em int) *selection.Slot {
	return &selection.Slot{
		Date:      d,
		StartHour: sh, StartMin: sm,
		EndHour: eh, EndMin: em,
	}
}

func TestBuildProducesOneEventPerSlot(t *testing.T) {
	day := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	cal, err := Build([]*selection.Slot{
		slot(day, 9, 0, 10, 30),
		slot(day.AddDate(0, 0, 1), 14, 0, 15, 0),
	}, Options{Locale: "en", Use24h: true})
	require.NoError(t, err)

	out := cal.Serialize()
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "UID:20260831-0900-1030@weekslot")
	assert.Contains(t, out, "UID:20260901-1400-1500@weekslot")
	assert.Contains(t, out, "SUMMARY:Available")
	assert.Contains(t, out, "DESCRIPTION:August 31 (Mon) 9-10:30")
	assert.Contains(t, out, "METHOD:PUBLISH")
	assert.NotContains(t, out, "RRULE")
}

func TestBuildCustomSummary(t *testing.T) {
	day := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	cal, err := Build([]*selection.Slot{slot(day, 9, 0, 10, 0)}, Options{Summary: "Office hours"})
	require.NoError(t, err)
	assert.Contains(t, cal.Serialize(), "SUMMARY:Office hours")
}

func TestBuildWeeklyRepeat(t *testing.T) {
	day := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	cal, err := Build([]*selection.Slot{slot(day, 9, 0, 10, 0)},
		Options{RepeatWeeks: 4, Locale: "en", Use24h: true})
	require.NoError(t, err)

	out := cal.Serialize()
	assert.Contains(t, out, "RRULE:FREQ=WEEKLY;COUNT=4")
}

func TestBuildRejectsEmptySelection(t *testing.T) {
	_, err := Build(nil, Options{})
	assert.Error(t, err)
}

func TestBuildSkipsInvalidSlots(t *testing.T) {
	day := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	cal, err := Build([]*selection.Slot{
		slot(day, 10, 0, 9, 0), // end before start
		slot(day, 9, 0, 10, 0),
	}, Options{Locale: "en", Use24h: true})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(cal.Serialize(), "BEGIN:VEVENT"))
}

func TestWriteFileCreatesParentDirs(t *testing.T) {
	day := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "out", "week.ics")

	err := WriteFile(path, []*selection.Slot{slot(day, 9, 0, 10, 0)},
		Options{Locale: "en", Use24h: true})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "BEGIN:VCALENDAR"))
	assert.Contains(t, string(data), "END:VCALENDAR")
}

func TestWriteFileRejectsEmptyPath(t *testing.T) {
	err := WriteFile("", nil, Options{})
	assert.Error(t, err)
}
