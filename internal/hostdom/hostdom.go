// Package hostdom models a point-in-time snapshot of the host calendar
// page's DOM, reduced to the plain data the grid analyzer needs. The live
// page belongs to the host and can be re-rendered at any moment; everything
// downstream therefore works on immutable snapshots, never on live nodes.
package hostdom

import "time"

// Rect is a viewport-space bounding box in CSS pixels.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.Left + r.Width }
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// ContainsX reports whether x falls inside [Left, Right].
func (r Rect) ContainsX(x float64) bool {
	return x >= r.Left && x <= r.Right()
}

// Node is one element captured from the host page. Parent is the index of
// the parent node within the same snapshot, or -1 for a root. The node is
// borrowed data: nothing here keeps the underlying DOM element alive.
type Node struct {
	Index     int               `json:"index"`
	Parent    int               `json:"parent"`
	Marker    string            `json:"marker"`
	AriaLabel string            `json:"ariaLabel"`
	Text      string            `json:"text"`
	Attrs     map[string]string `json:"attrs"`
	Rect      Rect              `json:"rect"`
}

// Attr returns the named attribute value, or "" when absent.
func (n *Node) Attr(name string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// Snapshot is one capture of the host page. Snapshots are replaced
// wholesale on every collection; consumers must not patch them.
type Snapshot struct {
	CapturedAt     time.Time `json:"-"`
	ScrollY        float64   `json:"scrollY"`
	ViewportWidth  float64   `json:"viewportWidth"`
	ViewportHeight float64   `json:"viewportHeight"`

	// Nodes holds every captured element, parents before children.
	Nodes []Node `json:"nodes"`

	// HourMarks are the bounding boxes of the host's hour-line elements,
	// top to bottom, used to calibrate pixels-per-hour.
	HourMarks []Rect `json:"hourMarks"`
}

// NodesWithMarker returns the indices of all nodes whose marker equals value.
func (s *Snapshot) NodesWithMarker(value string) []int {
	var out []int
	for i := range s.Nodes {
		if s.Nodes[i].Marker == value {
			out = append(out, i)
		}
	}
	return out
}

// MarkerNodes returns the indices of all nodes carrying any marker value.
func (s *Snapshot) MarkerNodes() []int {
	var out []int
	for i := range s.Nodes {
		if s.Nodes[i].Marker != "" {
			out = append(out, i)
		}
	}
	return out
}

// Ancestors returns the indices of node i's ancestors, nearest first.
func (s *Snapshot) Ancestors(i int) []int {
	var out []int
	for p := s.parentOf(i); p >= 0; p = s.parentOf(p) {
		out = append(out, p)
	}
	return out
}

// Descendants returns the indices of node i's descendants in snapshot order.
func (s *Snapshot) Descendants(i int) []int {
	// Snapshots are small (tens of nodes); a scan per call is fine.
	inSubtree := map[int]bool{i: true}
	var out []int
	for j := range s.Nodes {
		p := s.Nodes[j].Parent
		if p >= 0 && inSubtree[p] {
			inSubtree[j] = true
			out = append(out, j)
		}
	}
	return out
}

func (s *Snapshot) parentOf(i int) int {
	if i < 0 || i >= len(s.Nodes) {
		return -1
	}
	p := s.Nodes[i].Parent
	if p < 0 || p >= len(s.Nodes) {
		return -1
	}
	return p
}
