package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"weekslot/internal/selection"
)

func slot(y int, m time.Month, d, sh, sm, eh, em int) *selection.Slot {
	return &selection.Slot{
		Date:      time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		StartHour: sh, StartMin: sm,
		EndHour: eh, EndMin: em,
	}
}

func TestLineEnglish24h(t *testing.T) {
	cases := []struct {
		name string
		s    *selection.Slot
		want string
	}{
		{"whole hours", slot(2026, time.August, 31, 9, 0, 10, 0), "August 31 (Mon) 9-10"},
		{"half hour end", slot(2026, time.August, 31, 9, 0, 10, 30), "August 31 (Mon) 9-10:30"},
		{"quarter start", slot(2026, time.September, 6, 14, 15, 15, 45), "September 6 (Sun) 14:15-15:45"},
		{"midnight start", slot(2026, time.September, 1, 0, 0, 1, 0), "September 1 (Tue) 0-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Line(tc.s, "en", true))
		})
	}
}

func TestLineEnglish12h(t *testing.T) {
	cases := []struct {
		name string
		s    *selection.Slot
		want string
	}{
		{"morning", slot(2026, time.August, 31, 9, 0, 10, 30), "August 31 (Mon) 9AM-10:30AM"},
		{"across noon", slot(2026, time.August, 31, 11, 30, 13, 0), "August 31 (Mon) 11:30AM-1PM"},
		{"noon itself", slot(2026, time.August, 31, 12, 0, 12, 30), "August 31 (Mon) 12PM-12:30PM"},
		{"midnight", slot(2026, time.August, 31, 0, 0, 0, 30), "August 31 (Mon) 12AM-12:30AM"},
		{"evening", slot(2026, time.August, 31, 22, 45, 23, 45), "August 31 (Mon) 10:45PM-11:45PM"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Line(tc.s, "en", false))
		})
	}
}

func TestLineKorean(t *testing.T) {
	assert.Equal(t, "8월 31일 (월) 9-10:30",
		Line(slot(2026, time.August, 31, 9, 0, 10, 30), "ko", true))
	assert.Equal(t, "9월 6일 (일) 9AM-10AM",
		Line(slot(2026, time.September, 6, 9, 0, 10, 0), "ko", false))
}

func TestTextJoinsInStoreOrder(t *testing.T) {
	slots := []*selection.Slot{
		slot(2026, time.August, 31, 9, 0, 10, 0),
		slot(2026, time.September, 1, 13, 0, 14, 30),
	}
	want := "August 31 (Mon) 9-10\nSeptember 1 (Tue) 13-14:30"
	assert.Equal(t, want, Text(slots, "en", true))
}

func TestTextEmpty(t *testing.T) {
	assert.Equal(t, "", Text(nil, "en", true))
}
