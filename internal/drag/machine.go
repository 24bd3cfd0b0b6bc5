// Package drag converts raw pointer sequences into confirmed time slots.
package drag

import (
	"math"
	"sync"

	"weekslot/internal/grid"
	appLog "weekslot/internal/log"
	"weekslot/internal/mode"
	"weekslot/internal/selection"
)

// EventKind identifies a pointer event.
type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
)

// Event is one raw pointer event in viewport coordinates. OverPanel marks
// events originating on this system's own floating panel, which must never
// start a drag.
type Event struct {
	Kind      EventKind
	X, Y      float64
	OverPanel bool
}

// Source is a capture surface delivering pointer events. The browser
// bridge implements it in production; tests use a fake.
type Source interface {
	Subscribe(fn func(Event)) (unsubscribe func())
}

// TempOverlay is the in-progress drag rectangle.
type TempOverlay interface {
	Move(top, bottom float64)
	Remove()
}

// Surface creates the visual overlays a drag produces.
type Surface interface {
	// ShowTemp shows the transient rectangle for an in-progress drag.
	ShowTemp(col grid.Column, top, bottom float64) TempOverlay

	// ShowSlot materializes the permanent overlay for a confirmed slot.
	ShowSlot(col grid.Column, top, bottom float64) selection.Overlay
}

// Config holds the drag thresholds.
type Config struct {
	// MinDragDistance is the minimum vertical travel in pixels; anything
	// shorter is treated as an accidental click and produces no slot.
	MinDragDistance float64
}

// Machine is the two-state (idle/dragging) pointer state machine. The
// event source guarantees down -> move* -> up ordering, so the machine does
// not re-validate sequencing.
type Machine struct {
	mu      sync.Mutex
	cfg     Config
	grid    *grid.Analyzer
	store   *selection.Store
	modes   *mode.Controller
	surface Surface

	dragging bool
	startX   float64
	startY   float64
	currentX float64
	currentY float64
	column   grid.Column
	temp     TempOverlay

	unsubscribe func()
}

// NewMachine wires the machine to its collaborators. All dependencies are
// explicit; nothing here reaches for ambient globals.
func NewMachine(cfg Config, g *grid.Analyzer, store *selection.Store, modes *mode.Controller, surface Surface) *Machine {
	if cfg.MinDragDistance <= 0 {
		cfg.MinDragDistance = 5
	}
	return &Machine{
		cfg:     cfg,
		grid:    g,
		store:   store,
		modes:   modes,
		surface: surface,
	}
}

// AttachListeners binds the machine to a capture surface. A previous
// binding is released first.
func (m *Machine) AttachListeners(src Source) {
	m.DetachListeners()
	m.mu.Lock()
	m.unsubscribe = src.Subscribe(m.Handle)
	m.mu.Unlock()
}

// DetachListeners unbinds from the current capture surface, if any.
func (m *Machine) DetachListeners() {
	m.mu.Lock()
	unsub := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Handle dispatches one pointer event.
func (m *Machine) Handle(ev Event) {
	switch ev.Kind {
	case PointerDown:
		m.pointerDown(ev)
	case PointerMove:
		m.pointerMove(ev)
	case PointerUp:
		m.pointerUp(ev)
	}
}

// IsDragging reports whether a drag is in progress.
func (m *Machine) IsDragging() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dragging
}

func (m *Machine) pointerDown(ev Event) {
	// Mode is checked only at drag start. A drag already in flight when
	// the mode flips off still completes.
	if !m.modes.IsActive() || ev.OverPanel {
		return
	}
	col := m.grid.ColumnFromX(ev.X)
	if col == nil {
		appLog.Debug("drag: pointer down outside grid", "x", ev.X, "y", ev.Y)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dragging = true
	m.startX, m.startY = ev.X, ev.Y
	m.currentX, m.currentY = ev.X, ev.Y
	m.column = *col
	m.temp = m.surface.ShowTemp(m.column, ev.Y, ev.Y)
}

func (m *Machine) pointerMove(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dragging {
		return
	}
	m.advanceLocked(ev)
	if m.temp != nil {
		top := math.Min(m.startY, m.currentY)
		bottom := math.Max(m.startY, m.currentY)
		m.temp.Move(top, bottom)
	}
}

// advanceLocked applies the same-column clamp: a selection cannot cross
// days, so when the pointer strays into another column the effective X
// snaps back to the start X while the Y-derived range stays live.
func (m *Machine) advanceLocked(ev Event) {
	x := ev.X
	if at := m.grid.ColumnFromX(x); at == nil || at.DateKey != m.column.DateKey {
		x = m.startX
	}
	m.currentX = x
	m.currentY = ev.Y
}

func (m *Machine) pointerUp(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dragging {
		return
	}
	m.advanceLocked(ev)

	temp := m.temp
	startY, endY := m.startY, m.currentY
	col := m.column

	// Back to idle regardless of the outcome.
	m.dragging = false
	m.temp = nil

	if temp != nil {
		temp.Remove()
	}

	if math.Abs(endY-startY) < m.cfg.MinDragDistance {
		appLog.Debug("drag: below minimum distance, discarding", "delta", math.Abs(endY-startY))
		return
	}

	topY := math.Min(startY, endY)
	bottomY := math.Max(startY, endY)
	start := m.grid.TimeFromY(topY, &col)
	end := m.grid.TimeFromY(bottomY, &col)
	if start.Minutes() >= end.Minutes() {
		// Snapping collapsed the range to nothing.
		appLog.Debug("drag: degenerate range after snap", "start", start, "end", end)
		return
	}

	slot := &selection.Slot{
		Date:      col.Date,
		StartHour: start.Hour,
		StartMin:  start.Minute,
		EndHour:   end.Hour,
		EndMin:    end.Minute,
		Column:    col,
	}
	if m.store.IsDuplicate(slot) {
		appLog.Debug("drag: duplicate slot, discarding", "slot", slot.String())
		return
	}

	// Permanent overlay sits on the snapped boundaries, not the raw drag.
	hh := m.grid.HourHeight()
	overlayTop := col.Top + float64(start.Minutes())/60*hh
	overlayBottom := col.Top + float64(end.Minutes())/60*hh
	slot.Overlay = m.surface.ShowSlot(col, overlayTop, overlayBottom)

	if !m.store.Add(slot) {
		// Lost a race with an identical slot; drop the overlay again.
		if slot.Overlay != nil {
			slot.Overlay.Remove()
		}
	}
}
