package browser

import (
	"fmt"

	"weekslot/internal/grid"
)

// overlay is a rectangle the agent renders over one grid column. The same
// type backs the transient drag rectangle (drag.TempOverlay) and the
// permanent slot highlight (selection.Overlay).
type overlay struct {
	s    *Session
	id   int64
	col  grid.Column
	temp bool
}

func (o *overlay) place(top, bottom float64) {
	if bottom < top {
		top, bottom = bottom, top
	}
	o.s.eval(fmt.Sprintf("window.__weekslot.show(%d, %.2f, %.2f, %.2f, %.2f, %t)",
		o.id, o.col.Left, top, o.col.Width, bottom-top, o.temp))
}

// Move implements drag.TempOverlay.
func (o *overlay) Move(top, bottom float64) {
	o.place(top, bottom)
}

// Remove implements both drag.TempOverlay and selection.Overlay.
func (o *overlay) Remove() {
	o.s.eval(fmt.Sprintf("window.__weekslot.remove(%d)", o.id))
}
