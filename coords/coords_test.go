package coords

import (
	"math"
	"testing"
)

type pageTable map[int]Size

func (t pageTable) PageSize(page int) (Size, bool) {
	s, ok := t[page]
	return s, ok
}

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) <= eps*math.Max(1, math.Abs(b)) }

func TestRoundTripDisplayToPDF(t *testing.T) {
	pages := pageTable{1: {600, 800}, 2: {612, 792}, 3: {1190.55, 841.89}}
	m := NewMapper(pages)
	displays := []Size{{300, 400}, {612, 792}, {1234.5, 987.25}, {77, 33}, {1, 1}}

	for page := range pages {
		for _, d := range displays {
			for i := 0; i <= 10; i++ {
				for j := 0; j <= 10; j++ {
					p := Point{X: d.Width * float64(i) / 10, Y: d.Height * float64(j) / 10}
					back := m.ToDisplay(m.ToPDF(p, page, d), page, d)
					if !near(back.X, p.X) || !near(back.Y, p.Y) {
						t.Fatalf("page %d display %v: %v -> %v", page, d, p, back)
					}
				}
			}
		}
	}
}

func TestToPDFHalfScaleScenario(t *testing.T) {
	m := NewMapper(pageTable{1: {600, 800}})
	display := Size{300, 400}

	r := m.RectToPDF(NormalizeRect(Point{100, 100}, Point{150, 160}), 1, display)
	want := Rect{X: 200, Y: 200, Width: 100, Height: 120}
	if !near(r.X, want.X) || !near(r.Y, want.Y) || !near(r.Width, want.Width) || !near(r.Height, want.Height) {
		t.Fatalf("got %+v want %+v", r, want)
	}

	back := m.RectToDisplay(r, 1, display)
	if !near(back.X, 100) || !near(back.Y, 100) || !near(back.Width, 50) || !near(back.Height, 60) {
		t.Fatalf("display rect %+v", back)
	}
}

func TestMapperIdentityFallback(t *testing.T) {
	m := NewMapper(pageTable{1: {600, 800}})
	p := Point{12, 34}

	cases := []struct {
		name    string
		page    int
		display Size
	}{
		{"zero width", 1, Size{0, 400}},
		{"negative height", 1, Size{300, -1}},
		{"unknown page", 7, Size{300, 400}},
	}
	for _, c := range cases {
		if got := m.ToPDF(p, c.page, c.display); got != p {
			t.Errorf("%s: ToPDF = %v", c.name, got)
		}
		if got := m.ToDisplay(p, c.page, c.display); got != p {
			t.Errorf("%s: ToDisplay = %v", c.name, got)
		}
	}

	var zero Mapper
	if got := zero.ToPDF(p, 1, Size{10, 10}); got != p {
		t.Errorf("zero mapper: %v", got)
	}
}

func TestNormalizeRectAnyDirection(t *testing.T) {
	want := Rect{X: 10, Y: 20, Width: 30, Height: 40}
	corners := [][2]Point{
		{{10, 20}, {40, 60}},
		{{40, 60}, {10, 20}},
		{{40, 20}, {10, 60}},
		{{10, 60}, {40, 20}},
	}
	for _, c := range corners {
		if got := NormalizeRect(c[0], c[1]); got != want {
			t.Errorf("NormalizeRect(%v, %v) = %+v", c[0], c[1], got)
		}
	}
}

func TestRectPredicates(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	if !r.Contains(Point{10, 10}) || r.Contains(Point{10.1, 5}) {
		t.Fatalf("Contains")
	}
	if !r.Intersects(Rect{X: 10, Y: 10, Width: 1, Height: 1}) || r.Intersects(Rect{X: 11, Y: 0, Width: 1, Height: 1}) {
		t.Fatalf("Intersects")
	}
	if !r.Encloses(Rect{X: 1, Y: 1, Width: 9, Height: 9}) || r.Encloses(Rect{X: 1, Y: 1, Width: 10, Height: 1}) {
		t.Fatalf("Encloses")
	}
}

func TestMatrixInverse(t *testing.T) {
	m := Translate(40, -7).Multiply(Scale(2, 0.5))
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	p := Point{3, 9}
	back := inv.Transform(m.Transform(p))
	if !near(back.X, p.X) || !near(back.Y, p.Y) {
		t.Fatalf("got %v want %v", back, p)
	}
	if _, err := Scale(0, 1).Inverse(); err == nil {
		t.Fatalf("expected singular matrix error")
	}
}
