package selection

import "github.com/wudi/redactkit/coords"

// QuadTree is a spatial index over rectangles. Each entry carries the
// position of its selection in the store so hits can be ordered.
type QuadTree struct {
	Bounds   coords.Rect
	Capacity int
	Points   []PointData
	Nodes    []*QuadTree
}

type PointData struct {
	Rect  coords.Rect
	Index int
}

func NewQuadTree(bounds coords.Rect, capacity int) *QuadTree {
	return &QuadTree{
		Bounds:   bounds,
		Capacity: capacity,
		Points:   make([]PointData, 0, capacity),
	}
}

func (qt *QuadTree) Insert(rect coords.Rect, index int) bool {
	if !qt.Bounds.Intersects(rect) {
		return false
	}

	if qt.Nodes != nil {
		for _, node := range qt.Nodes {
			if node.Bounds.Encloses(rect) && node.Insert(rect, index) {
				return true
			}
		}
		// Straddles a split line: keep it at this level.
		qt.Points = append(qt.Points, PointData{Rect: rect, Index: index})
		return true
	}

	if len(qt.Points) < qt.Capacity || qt.Bounds.Width <= 1 || qt.Bounds.Height <= 1 {
		qt.Points = append(qt.Points, PointData{Rect: rect, Index: index})
		return true
	}

	qt.subdivide()
	old := qt.Points
	qt.Points = make([]PointData, 0, qt.Capacity)
	for _, p := range old {
		qt.Insert(p.Rect, p.Index)
	}
	return qt.Insert(rect, index)
}

func (qt *QuadTree) subdivide() {
	hw, hh := qt.Bounds.Width/2, qt.Bounds.Height/2
	x, y := qt.Bounds.X, qt.Bounds.Y
	qt.Nodes = []*QuadTree{
		NewQuadTree(coords.Rect{X: x, Y: y, Width: hw, Height: hh}, qt.Capacity),
		NewQuadTree(coords.Rect{X: x + hw, Y: y, Width: hw, Height: hh}, qt.Capacity),
		NewQuadTree(coords.Rect{X: x, Y: y + hh, Width: hw, Height: hh}, qt.Capacity),
		NewQuadTree(coords.Rect{X: x + hw, Y: y + hh, Width: hw, Height: hh}, qt.Capacity),
	}
}

// Query returns the indices of all rectangles intersecting r.
func (qt *QuadTree) Query(r coords.Rect) []int {
	var found []int
	if !qt.Bounds.Intersects(r) {
		return found
	}
	for _, p := range qt.Points {
		if p.Rect.Intersects(r) {
			found = append(found, p.Index)
		}
	}
	for _, node := range qt.Nodes {
		found = append(found, node.Query(r)...)
	}
	return found
}

const indexCapacity = 8

func (s *Store) invalidate(page int) {
	if s.index != nil {
		delete(s.index, page)
	}
}

func (s *Store) pageIndex(page int) *QuadTree {
	if qt, ok := s.index[page]; ok {
		return qt
	}
	var bounds coords.Rect
	first := true
	for _, sel := range s.items {
		if sel.Page != page {
			continue
		}
		if first {
			bounds = sel.Rect()
			first = false
			continue
		}
		bounds = union(bounds, sel.Rect())
	}
	qt := NewQuadTree(bounds, indexCapacity)
	for i, sel := range s.items {
		if sel.Page == page {
			qt.Insert(sel.Rect(), i)
		}
	}
	if s.index == nil {
		s.index = make(map[int]*QuadTree)
	}
	s.index[page] = qt
	return qt
}

// HitTest returns the most recently added selection on page that contains p
// (PDF space).
func (s *Store) HitTest(page int, p coords.Point) (Selection, bool) {
	if len(s.items) == 0 {
		return Selection{}, false
	}
	best := -1
	for _, i := range s.pageIndex(page).Query(coords.Rect{X: p.X, Y: p.Y}) {
		if i > best && s.items[i].Rect().Contains(p) {
			best = i
		}
	}
	if best < 0 {
		return Selection{}, false
	}
	return s.items[best], true
}

func union(a, b coords.Rect) coords.Rect {
	minX, minY := min(a.X, b.X), min(a.Y, b.Y)
	maxX := max(a.X+a.Width, b.X+b.Width)
	maxY := max(a.Y+a.Height, b.Y+b.Height)
	return coords.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
