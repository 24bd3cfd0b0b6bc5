// Package viewsync keeps the grid cache and selection store consistent
// with a host page this system does not control.
package viewsync

import (
	"sync"
	"time"

	"weekslot/internal/grid"
	"weekslot/internal/hostdom"
	appLog "weekslot/internal/log"
	"weekslot/internal/mode"
	"weekslot/internal/selection"
)

// SnapshotFunc captures a fresh host-page snapshot.
type SnapshotFunc func() (*hostdom.Snapshot, error)

// RepositionFunc moves the persistent full-grid overlay to the new bounds.
type RepositionFunc func(cols []grid.Column, gridTop, hourHeight float64)

// Config holds the two debounce windows. Structural mutations are debounced
// coarser; scroll/resize fire far more often and get the finer window.
type Config struct {
	MutationDebounce time.Duration
	ViewportDebounce time.Duration
}

// Sync re-runs the analyzer on debounced host-page changes and prunes
// selections whose day scrolled out of the visible week.
type Sync struct {
	mu         sync.Mutex
	cfg        Config
	analyzer   *grid.Analyzer
	store      *selection.Store
	modes      *mode.Controller
	snapshot   SnapshotFunc
	reposition RepositionFunc

	lastKeys map[string]struct{}
	mutTimer *time.Timer
	vpTimer  *time.Timer
	closed   bool
}

// New wires a Sync. reposition may be nil when there is no persistent
// overlay to maintain.
func New(cfg Config, analyzer *grid.Analyzer, store *selection.Store, modes *mode.Controller, snapshot SnapshotFunc, reposition RepositionFunc) *Sync {
	if cfg.MutationDebounce <= 0 {
		cfg.MutationDebounce = 350 * time.Millisecond
	}
	if cfg.ViewportDebounce <= 0 {
		cfg.ViewportDebounce = 120 * time.Millisecond
	}
	return &Sync{
		cfg:        cfg,
		analyzer:   analyzer,
		store:      store,
		modes:      modes,
		snapshot:   snapshot,
		reposition: reposition,
	}
}

// OnMutation schedules a re-analysis after the mutation debounce window.
// Each call replaces the pending timer, so only the last burst member fires.
func (s *Sync) OnMutation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.mutTimer != nil {
		s.mutTimer.Stop()
	}
	s.mutTimer = time.AfterFunc(s.cfg.MutationDebounce, s.ForceResync)
}

// OnViewportChange schedules a re-analysis after the scroll/resize
// debounce window.
func (s *Sync) OnViewportChange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.vpTimer != nil {
		s.vpTimer.Stop()
	}
	s.vpTimer = time.AfterFunc(s.cfg.ViewportDebounce, s.ForceResync)
}

// ForceResync runs the re-analysis immediately, bypassing debounce. The
// periodic safety schedule and the initial bring-up use this directly.
func (s *Sync) ForceResync() {
	snap, err := s.snapshot()
	if err != nil {
		// Transient: the page may be navigating or mid-render.
		appLog.Debug("viewsync: snapshot failed", "err", err)
		return
	}
	if !s.analyzer.Analyze(snap) {
		// A failed analysis must not wipe existing selections; skip
		// silently and let the next trigger retry.
		appLog.Debug("viewsync: analysis failed, keeping previous state")
		return
	}

	newKeys := s.analyzer.VisibleDateKeys()

	s.mu.Lock()
	changed := !keysEqual(s.lastKeys, newKeys)
	s.lastKeys = newKeys
	reposition := s.reposition
	s.mu.Unlock()

	if changed {
		removed := s.store.FilterByVisibleDates(newKeys)
		appLog.Debug("viewsync: visible days changed", "days", len(newKeys), "pruned", removed)
	}

	// Overlay geometry depends on rects, not just the day set: a scroll
	// moves every column without changing which days are visible.
	if reposition != nil && s.modes.IsActive() {
		reposition(s.analyzer.Columns(), s.analyzer.GridTop(), s.analyzer.HourHeight())
	}
}

// Close stops any pending debounce timers.
func (s *Sync) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.mutTimer != nil {
		s.mutTimer.Stop()
		s.mutTimer = nil
	}
	if s.vpTimer != nil {
		s.vpTimer.Stop()
		s.vpTimer = nil
	}
}

func keysEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
