package coords

// PageSizer resolves the intrinsic size of a 1-based page in PDF points.
type PageSizer interface {
	PageSize(page int) (Size, bool)
}

// Mapper converts between display pixels (relative to the rendered page
// element) and PDF points (top-left origin). It never looks at zoom or pan;
// the caller passes the display size that is currently on screen.
//
// When the display size or the page entry is unusable the input point is
// returned unchanged.
type Mapper struct {
	pages PageSizer
}

func NewMapper(pages PageSizer) Mapper { return Mapper{pages: pages} }

func (m Mapper) resolve(page int, display Size) (Size, bool) {
	if m.pages == nil || !display.Valid() {
		return Size{}, false
	}
	size, ok := m.pages.PageSize(page)
	if !ok || !size.Valid() {
		return Size{}, false
	}
	return size, true
}

// ToPDF maps a display point to PDF space.
func (m Mapper) ToPDF(p Point, page int, display Size) Point {
	size, ok := m.resolve(page, display)
	if !ok {
		return p
	}
	return Point{
		X: p.X / display.Width * size.Width,
		Y: p.Y / display.Height * size.Height,
	}
}

// ToDisplay is the inverse of ToPDF.
func (m Mapper) ToDisplay(p Point, page int, display Size) Point {
	size, ok := m.resolve(page, display)
	if !ok {
		return p
	}
	return Point{
		X: p.X / size.Width * display.Width,
		Y: p.Y / size.Height * display.Height,
	}
}

// RectToPDF maps both corners independently, so width and height come out of
// the mapped corners rather than from scaling the extent.
func (m Mapper) RectToPDF(r Rect, page int, display Size) Rect {
	tl := m.ToPDF(r.Min(), page, display)
	br := m.ToPDF(r.Max(), page, display)
	return Rect{X: tl.X, Y: tl.Y, Width: br.X - tl.X, Height: br.Y - tl.Y}
}

// RectToDisplay maps both corners of a PDF-space rectangle to display space.
func (m Mapper) RectToDisplay(r Rect, page int, display Size) Rect {
	tl := m.ToDisplay(r.Min(), page, display)
	br := m.ToDisplay(r.Max(), page, display)
	return Rect{X: tl.X, Y: tl.Y, Width: br.X - tl.X, Height: br.Y - tl.Y}
}
