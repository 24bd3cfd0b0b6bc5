package drag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekslot/internal/grid"
	"weekslot/internal/hostdom"
	"weekslot/internal/mode"
	"weekslot/internal/selection"
)

// Fixture geometry: three day columns, 100px wide, grid top at 100,
// hour height 48 (marks spaced 48px).
func fixtureAnalyzer(t *testing.T) *grid.Analyzer {
	t.Helper()
	a := grid.NewAnalyzer(grid.Params{
		MinGridHeight:     400,
		MinHourHeight:     30,
		MaxHourHeight:     100,
		DefaultHourHeight: 48,
		SnapMinutes:       15,
		Locale:            "en",
		Location:          time.UTC,
	})
	snap := &hostdom.Snapshot{CapturedAt: time.Now()}
	for i, marker := range []string{"20260831", "20260901", "20260902"} {
		snap.Nodes = append(snap.Nodes, hostdom.Node{
			Index:  i,
			Parent: -1,
			Marker: marker,
			Rect:   hostdom.Rect{Left: float64(i) * 100, Top: 100, Width: 100, Height: 1152},
		})
	}
	snap.HourMarks = []hostdom.Rect{
		{Top: 100}, {Top: 148}, {Top: 196}, {Top: 244},
	}
	require.True(t, a.Analyze(snap))
	require.Equal(t, 48.0, a.HourHeight())
	return a
}

type fakeTemp struct {
	moves   int
	removed int
	top     float64
	bottom  float64
}

func (f *fakeTemp) Move(top, bottom float64) {
	f.moves++
	f.top, f.bottom = top, bottom
}

func (f *fakeTemp) Remove() { f.removed++ }

type fakeSlotOverlay struct {
	removed int
}

func (f *fakeSlotOverlay) Remove() { f.removed++ }

type fakeSurface struct {
	temps []*fakeTemp
	slots []*fakeSlotOverlay
}

func (f *fakeSurface) ShowTemp(_ grid.Column, top, bottom float64) TempOverlay {
	tmp := &fakeTemp{top: top, bottom: bottom}
	f.temps = append(f.temps, tmp)
	return tmp
}

func (f *fakeSurface) ShowSlot(_ grid.Column, _, _ float64) selection.Overlay {
	ov := &fakeSlotOverlay{}
	f.slots = append(f.slots, ov)
	return ov
}

func fixtureMachine(t *testing.T) (*Machine, *selection.Store, *mode.Controller, *fakeSurface) {
	t.Helper()
	analyzer := fixtureAnalyzer(t)
	store := selection.NewStore()
	modes := mode.NewController()
	surface := &fakeSurface{}
	m := NewMachine(Config{MinDragDistance: 5}, analyzer, store, modes, surface)
	return m, store, modes, surface
}

func drag(m *Machine, x, y1, y2 float64) {
	m.Handle(Event{Kind: PointerDown, X: x, Y: y1})
	m.Handle(Event{Kind: PointerMove, X: x, Y: (y1 + y2) / 2})
	m.Handle(Event{Kind: PointerMove, X: x, Y: y2})
	m.Handle(Event{Kind: PointerUp, X: x, Y: y2})
}

func TestDragCreatesOneHourSlot(t *testing.T) {
	m, store, modes, surface := fixtureMachine(t)
	modes.Activate()

	// 48px of travel from the grid top is exactly one hour.
	drag(m, 50, 100, 148)

	slots := store.Slots()
	require.Len(t, slots, 1)
	s := slots[0]
	assert.Equal(t, 0, s.StartHour)
	assert.Equal(t, 0, s.StartMin)
	assert.Equal(t, 1, s.EndHour)
	assert.Equal(t, 0, s.EndMin)
	assert.Equal(t, 60, s.EndMinutes()-s.StartMinutes())
	assert.Equal(t, "20260831", s.Column.DateKey)

	// Temp overlay was shown, moved and discarded; permanent one remains.
	require.Len(t, surface.temps, 1)
	assert.Equal(t, 1, surface.temps[0].removed)
	assert.Positive(t, surface.temps[0].moves)
	require.Len(t, surface.slots, 1)
	assert.Zero(t, surface.slots[0].removed)
}

func TestUpwardDragNormalizes(t *testing.T) {
	m, store, modes, _ := fixtureMachine(t)
	modes.Activate()

	// Dragging bottom-to-top yields the same slot as top-to-bottom.
	drag(m, 50, 196, 100)

	slots := store.Slots()
	require.Len(t, slots, 1)
	assert.Equal(t, 0, slots[0].StartMinutes())
	assert.Equal(t, 120, slots[0].EndMinutes())
}

func TestTinyDragIsDiscarded(t *testing.T) {
	m, store, modes, surface := fixtureMachine(t)
	modes.Activate()

	drag(m, 50, 100, 103)

	assert.Equal(t, 0, store.Len())
	require.Len(t, surface.temps, 1)
	assert.Equal(t, 1, surface.temps[0].removed)
	assert.Empty(t, surface.slots)
}

func TestInactiveModeIgnoresPointer(t *testing.T) {
	m, store, _, surface := fixtureMachine(t)

	drag(m, 50, 100, 148)

	assert.Equal(t, 0, store.Len())
	assert.Empty(t, surface.temps)
	assert.False(t, m.IsDragging())
}

func TestPanelEventsNeverStartDrags(t *testing.T) {
	m, store, modes, surface := fixtureMachine(t)
	modes.Activate()

	m.Handle(Event{Kind: PointerDown, X: 50, Y: 100, OverPanel: true})
	assert.False(t, m.IsDragging())
	m.Handle(Event{Kind: PointerUp, X: 50, Y: 148, OverPanel: true})

	assert.Equal(t, 0, store.Len())
	assert.Empty(t, surface.temps)
}

func TestPointerDownOutsideGridIgnored(t *testing.T) {
	m, _, modes, surface := fixtureMachine(t)
	modes.Activate()

	m.Handle(Event{Kind: PointerDown, X: 500, Y: 100})
	assert.False(t, m.IsDragging())
	assert.Empty(t, surface.temps)
}

func TestCrossColumnDragClampsToStartColumn(t *testing.T) {
	m, store, modes, _ := fixtureMachine(t)
	modes.Activate()

	// Start in the first column, stray into the third, release there.
	m.Handle(Event{Kind: PointerDown, X: 50, Y: 100})
	m.Handle(Event{Kind: PointerMove, X: 250, Y: 150})
	m.Handle(Event{Kind: PointerUp, X: 250, Y: 196})

	slots := store.Slots()
	require.Len(t, slots, 1)
	// The slot belongs to the origin column with the full Y-derived range.
	assert.Equal(t, "20260831", slots[0].Column.DateKey)
	assert.Equal(t, 0, slots[0].StartMinutes())
	assert.Equal(t, 120, slots[0].EndMinutes())
}

func TestDuplicateDragCreatesNothing(t *testing.T) {
	m, store, modes, surface := fixtureMachine(t)
	modes.Activate()

	drag(m, 50, 100, 148)
	drag(m, 50, 100, 148)

	assert.Equal(t, 1, store.Len())
	// The second drag never materialized a permanent overlay.
	assert.Len(t, surface.slots, 1)
	// Both temp overlays were discarded.
	require.Len(t, surface.temps, 2)
	assert.Equal(t, 1, surface.temps[1].removed)
}

func TestSequentialDragsSortByDateNotClickOrder(t *testing.T) {
	m, store, modes, _ := fixtureMachine(t)
	modes.Activate()

	// Later day first, earlier day second.
	drag(m, 250, 148, 244) // 2026-09-02
	drag(m, 50, 100, 148)  // 2026-08-31

	slots := store.Slots()
	require.Len(t, slots, 2)
	assert.Equal(t, "20260831", slots[0].Column.DateKey)
	assert.Equal(t, "20260902", slots[1].Column.DateKey)
}

func TestMidDragDeactivationCompletesTheDrag(t *testing.T) {
	m, store, modes, _ := fixtureMachine(t)
	modes.Activate()

	m.Handle(Event{Kind: PointerDown, X: 50, Y: 100})
	modes.Deactivate()
	m.Handle(Event{Kind: PointerMove, X: 50, Y: 148})
	m.Handle(Event{Kind: PointerUp, X: 50, Y: 148})

	// Deactivation gates new drags only; the in-flight one still lands.
	assert.Equal(t, 1, store.Len())
	assert.False(t, m.IsDragging())

	// But no new drag can start now.
	m.Handle(Event{Kind: PointerDown, X: 50, Y: 300})
	assert.False(t, m.IsDragging())
}

func TestAttachDetachListeners(t *testing.T) {
	m, store, modes, _ := fixtureMachine(t)
	modes.Activate()

	src := &fakeSource{}
	m.AttachListeners(src)
	require.NotNil(t, src.fn)

	src.fn(Event{Kind: PointerDown, X: 50, Y: 100})
	src.fn(Event{Kind: PointerMove, X: 50, Y: 148})
	src.fn(Event{Kind: PointerUp, X: 50, Y: 148})
	assert.Equal(t, 1, store.Len())

	m.DetachListeners()
	assert.Equal(t, 1, src.unsubscribed)
}

type fakeSource struct {
	fn           func(Event)
	unsubscribed int
}

func (f *fakeSource) Subscribe(fn func(Event)) func() {
	f.fn = fn
	return func() { f.unsubscribed++ }
}
