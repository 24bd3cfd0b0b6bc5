// Package selection holds the confirmed time-range selections.
package selection

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"weekslot/internal/grid"
	appLog "weekslot/internal/log"
)

// Overlay is the visual feedback element a slot owns. The concrete
// implementation lives in the browser bridge; tests use fakes.
type Overlay interface {
	Remove()
}

// Slot is one confirmed user selection. Minutes are multiples of the snap
// granularity. The Column is a value copy taken at creation time and is
// consulted only for its DateKey; its geometry goes stale with the next
// analysis pass.
type Slot struct {
	Date      time.Time
	StartHour int
	StartMin  int
	EndHour   int
	EndMin    int

	Column  grid.Column
	Overlay Overlay
}

// StartMinutes returns the start offset from midnight in minutes.
func (s *Slot) StartMinutes() int { return s.StartHour*60 + s.StartMin }

// EndMinutes returns the end offset from midnight in minutes.
func (s *Slot) EndMinutes() int { return s.EndHour*60 + s.EndMin }

// Valid reports whether the slot has a date and a positive duration.
func (s *Slot) Valid() bool {
	return !s.Date.IsZero() && s.StartMinutes() < s.EndMinutes()
}

// Start returns the absolute start time of the slot.
func (s *Slot) Start() time.Time {
	return s.Date.Add(time.Duration(s.StartMinutes()) * time.Minute)
}

// End returns the absolute end time of the slot.
func (s *Slot) End() time.Time {
	return s.Date.Add(time.Duration(s.EndMinutes()) * time.Minute)
}

func (s *Slot) String() string {
	return fmt.Sprintf("%s %02d:%02d-%02d:%02d",
		s.Date.Format("2006-01-02"), s.StartHour, s.StartMin, s.EndHour, s.EndMin)
}

// sameRange reports multi-field equality on (date, start, end).
func (s *Slot) sameRange(o *Slot) bool {
	return s.Date.Equal(o.Date) &&
		s.StartHour == o.StartHour && s.StartMin == o.StartMin &&
		s.EndHour == o.EndHour && s.EndMin == o.EndMin
}

// Store is the ordered, deduplicated collection of confirmed slots. It
// exclusively owns its internal slice; callers go through the public
// operations and never see the backing storage.
type Store struct {
	mu    sync.Mutex
	slots []*Slot
}

func NewStore() *Store {
	return &Store{}
}

// Add appends the slot and re-sorts by date then start time, so the
// UI-facing order is always chronological regardless of creation order.
// Duplicates and malformed slots are rejected.
func (st *Store) Add(slot *Slot) bool {
	if slot == nil {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.isDuplicateLocked(slot) {
		appLog.Debug("selection: rejected duplicate slot", "slot", slot.String())
		return false
	}

	st.slots = append(st.slots, slot)
	st.sortLocked()
	appLog.Info("selection: slot added", "slot", slot.String(), "count", len(st.slots))
	return true
}

// IsDuplicate reports whether an existing slot matches candidate on all of
// (date, start, end). Malformed candidates are treated as duplicates so bad
// data never enters the store.
func (st *Store) IsDuplicate(candidate *Slot) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.isDuplicateLocked(candidate)
}

func (st *Store) isDuplicateLocked(candidate *Slot) bool {
	if candidate == nil || !candidate.Valid() {
		return true
	}
	for _, s := range st.slots {
		if s.sameRange(candidate) {
			return true
		}
	}
	return false
}

// Remove drops the slot and releases its overlay. Identity is by range
// equality, so a re-derived slot value removes the stored one.
func (st *Store) Remove(slot *Slot) bool {
	if slot == nil {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	for i, s := range st.slots {
		if s == slot || s.sameRange(slot) {
			releaseOverlay(s)
			st.slots = append(st.slots[:i], st.slots[i+1:]...)
			appLog.Info("selection: slot removed", "slot", s.String(), "count", len(st.slots))
			return true
		}
	}
	return false
}

// ClearAll releases every overlay and empties the store.
func (st *Store) ClearAll() {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, s := range st.slots {
		releaseOverlay(s)
	}
	n := len(st.slots)
	st.slots = nil
	if n > 0 {
		appLog.Info("selection: cleared", "removed", n)
	}
}

// Slots returns the current slots in chronological order.
func (st *Store) Slots() []*Slot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]*Slot(nil), st.slots...)
}

// Len returns the number of stored slots.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.slots)
}

// FilterByVisibleDates removes every slot whose column dateKey is not in
// keys and returns the removal count. When nothing matches, nothing is
// touched, so callers can skip UI refreshes on a zero return.
func (st *Store) FilterByVisibleDates(keys map[string]struct{}) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	kept := st.slots[:0]
	removed := 0
	for _, s := range st.slots {
		if _, ok := keys[s.Column.DateKey]; ok {
			kept = append(kept, s)
			continue
		}
		releaseOverlay(s)
		removed++
	}
	st.slots = kept
	if removed > 0 {
		appLog.Info("selection: pruned off-screen slots", "removed", removed, "remaining", len(st.slots))
	}
	return removed
}

func (st *Store) sortLocked() {
	sort.SliceStable(st.slots, func(i, j int) bool {
		a, b := st.slots[i], st.slots[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.StartMinutes() < b.StartMinutes()
	})
}

func releaseOverlay(s *Slot) {
	if s.Overlay != nil {
		s.Overlay.Remove()
		s.Overlay = nil
	}
}
