package hostdom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectGeometry(t *testing.T) {
	r := Rect{Left: 100, Top: 50, Width: 80, Height: 40}
	assert.Equal(t, 180.0, r.Right())
	assert.Equal(t, 90.0, r.Bottom())
	assert.True(t, r.ContainsX(100))
	assert.True(t, r.ContainsX(180))
	assert.True(t, r.ContainsX(140))
	assert.False(t, r.ContainsX(99.9))
	assert.False(t, r.ContainsX(180.1))
}

// A tiny tree: 0 is root, 1 and 2 its children, 3 a child of 2.
func treeSnapshot() *Snapshot {
	return &Snapshot{Nodes: []Node{
		{Index: 0, Parent: -1},
		{Index: 1, Parent: 0, Marker: "20260831"},
		{Index: 2, Parent: 0, Marker: "20260901"},
		{Index: 3, Parent: 2, Attrs: map[string]string{"role": "heading"}},
	}}
}

func TestMarkerLookups(t *testing.T) {
	s := treeSnapshot()
	assert.Equal(t, []int{1, 2}, s.MarkerNodes())
	assert.Equal(t, []int{2}, s.NodesWithMarker("20260901"))
	assert.Empty(t, s.NodesWithMarker("20261225"))
}

func TestAncestorsNearestFirst(t *testing.T) {
	s := treeSnapshot()
	assert.Equal(t, []int{2, 0}, s.Ancestors(3))
	assert.Equal(t, []int{0}, s.Ancestors(1))
	assert.Empty(t, s.Ancestors(0))
	// Out-of-range indices are harmless.
	assert.Empty(t, s.Ancestors(-1))
	assert.Empty(t, s.Ancestors(99))
}

func TestDescendants(t *testing.T) {
	s := treeSnapshot()
	assert.Equal(t, []int{1, 2, 3}, s.Descendants(0))
	assert.Equal(t, []int{3}, s.Descendants(2))
	assert.Empty(t, s.Descendants(1))
}

func TestAttr(t *testing.T) {
	s := treeSnapshot()
	assert.Equal(t, "heading", s.Nodes[3].Attr("role"))
	assert.Equal(t, "", s.Nodes[3].Attr("missing"))
	assert.Equal(t, "", s.Nodes[0].Attr("role"))
}
