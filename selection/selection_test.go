package selection

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/wudi/redactkit/coords"
)

func seqIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("sel-%d", n)
	})
}

func mustAdd(t *testing.T, s *Store, sel Selection) Selection {
	t.Helper()
	out, err := s.Add(sel)
	if err != nil {
		t.Fatalf("add %+v: %v", sel, err)
	}
	return out
}

func TestAddAssignsIDs(t *testing.T) {
	s := NewStore(seqIDs())
	a := mustAdd(t, s, Selection{Page: 1, X: 10, Y: 10, Width: 50, Height: 20})
	b := mustAdd(t, s, Selection{Page: 1, X: 0, Y: 0, Width: 5, Height: 5})
	if a.ID != "sel-1" || b.ID != "sel-2" {
		t.Fatalf("ids = %q %q", a.ID, b.ID)
	}
	if s.Len() != 2 {
		t.Fatalf("len = %d", s.Len())
	}
	got, ok := s.Get("sel-1")
	if !ok || got != a {
		t.Fatalf("get = %+v %v", got, ok)
	}
}

func TestDefaultIDsAreUnique(t *testing.T) {
	s := NewStore()
	a := mustAdd(t, s, Selection{Page: 1, Width: 1, Height: 1})
	b := mustAdd(t, s, Selection{Page: 1, Width: 1, Height: 1})
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids %q %q", a.ID, b.ID)
	}
}

func TestAddRejectsInvalid(t *testing.T) {
	s := NewStore(seqIDs())
	mustAdd(t, s, Selection{ID: "fixed", Page: 1, Width: 1, Height: 1})

	cases := []struct {
		name string
		sel  Selection
		want error
	}{
		{"duplicate", Selection{ID: "fixed", Page: 2, Width: 1, Height: 1}, ErrDuplicateID},
		{"page zero", Selection{Page: 0, Width: 1, Height: 1}, ErrInvalidPage},
		{"negative width", Selection{Page: 1, Width: -1, Height: 1}, ErrInvalidSize},
		{"nan", Selection{Page: 1, X: math.NaN(), Width: 1, Height: 1}, ErrInvalidSize},
		{"inf", Selection{Page: 1, Width: 1, Height: math.Inf(1)}, ErrInvalidSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Add(tc.sel); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
	if s.Len() != 1 {
		t.Fatalf("rejected selections were stored: len = %d", s.Len())
	}
}

func TestListForPageIsolatesPages(t *testing.T) {
	s := NewStore(seqIDs())
	mustAdd(t, s, Selection{Page: 2, Width: 1, Height: 1})
	mustAdd(t, s, Selection{Page: 1, Width: 2, Height: 2})
	mustAdd(t, s, Selection{Page: 2, Width: 3, Height: 3})

	for page, want := range map[int]int{1: 1, 2: 2, 3: 0} {
		got := s.ListForPage(page)
		if len(got) != want {
			t.Fatalf("page %d: %d selections, want %d", page, len(got), want)
		}
		for _, sel := range got {
			if sel.Page != page {
				t.Fatalf("page %d listing contains %+v", page, sel)
			}
		}
	}
	if p := s.Pages(); len(p) != 2 || p[0] != 1 || p[1] != 2 {
		t.Fatalf("pages = %v", p)
	}
}

func TestListAllReturnsCopy(t *testing.T) {
	s := NewStore(seqIDs())
	mustAdd(t, s, Selection{Page: 1, Width: 1, Height: 1})
	all := s.ListAll()
	all[0].Width = 99
	if got, _ := s.Get("sel-1"); got.Width != 1 {
		t.Fatalf("store mutated through ListAll: %+v", got)
	}
}

func TestRemove(t *testing.T) {
	s := NewStore(seqIDs())
	mustAdd(t, s, Selection{Page: 1, Width: 1, Height: 1})
	mustAdd(t, s, Selection{Page: 1, Width: 2, Height: 2})
	if !s.Remove("sel-1") {
		t.Fatalf("remove existing returned false")
	}
	if s.Remove("sel-1") {
		t.Fatalf("second remove returned true")
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d", s.Len())
	}
	// The freed id may be reused.
	if _, err := s.Add(Selection{ID: "sel-1", Page: 1, Width: 1, Height: 1}); err != nil {
		t.Fatalf("re-add: %v", err)
	}
}

type countingConfirmer struct {
	answer bool
	err    error
	asked  []string
}

func (c *countingConfirmer) Confirm(msg string) (bool, error) {
	c.asked = append(c.asked, msg)
	return c.answer, c.err
}

func TestClearOnEmptyStoreDoesNotPrompt(t *testing.T) {
	s := NewStore()
	c := &countingConfirmer{answer: true}
	for i := 0; i < 2; i++ {
		n, err := s.Clear(c)
		if err != nil || n != 0 {
			t.Fatalf("clear empty = %d %v", n, err)
		}
	}
	if len(c.asked) != 0 {
		t.Fatalf("prompted %d times on empty store", len(c.asked))
	}
}

func TestClearDeclinedKeepsSelections(t *testing.T) {
	s := NewStore(seqIDs())
	mustAdd(t, s, Selection{Page: 1, Width: 1, Height: 1})
	c := &countingConfirmer{answer: false}
	n, err := s.Clear(c)
	if err != nil || n != 0 {
		t.Fatalf("declined clear = %d %v", n, err)
	}
	if s.Len() != 1 {
		t.Fatalf("declined clear removed selections")
	}
	if len(c.asked) != 1 || c.asked[0] != ClearPrompt {
		t.Fatalf("prompts = %v", c.asked)
	}
}

func TestClearConfirmed(t *testing.T) {
	s := NewStore(seqIDs())
	mustAdd(t, s, Selection{Page: 1, Width: 1, Height: 1})
	mustAdd(t, s, Selection{Page: 3, Width: 1, Height: 1})
	n, err := s.Clear(ConfirmFunc(func(string) (bool, error) { return true, nil }))
	if err != nil || n != 2 {
		t.Fatalf("clear = %d %v", n, err)
	}
	if s.Len() != 0 || len(s.Pages()) != 0 {
		t.Fatalf("store not empty after clear")
	}
}

func TestClearPropagatesPromptError(t *testing.T) {
	s := NewStore(seqIDs())
	mustAdd(t, s, Selection{Page: 1, Width: 1, Height: 1})
	boom := errors.New("tty closed")
	if _, err := s.Clear(&countingConfirmer{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("failed prompt cleared the store")
	}
}

func TestHitTestPrefersMostRecent(t *testing.T) {
	s := NewStore(seqIDs())
	mustAdd(t, s, Selection{Page: 1, X: 0, Y: 0, Width: 100, Height: 100})
	mustAdd(t, s, Selection{Page: 1, X: 50, Y: 50, Width: 100, Height: 100})
	mustAdd(t, s, Selection{Page: 2, X: 0, Y: 0, Width: 500, Height: 500})

	hit, ok := s.HitTest(1, coords.Point{X: 75, Y: 75})
	if !ok || hit.ID != "sel-2" {
		t.Fatalf("overlap hit = %+v %v", hit, ok)
	}
	hit, ok = s.HitTest(1, coords.Point{X: 10, Y: 10})
	if !ok || hit.ID != "sel-1" {
		t.Fatalf("single hit = %+v %v", hit, ok)
	}
	if _, ok := s.HitTest(1, coords.Point{X: 300, Y: 300}); ok {
		t.Fatalf("miss reported a hit")
	}
	if _, ok := s.HitTest(3, coords.Point{X: 1, Y: 1}); ok {
		t.Fatalf("page without selections reported a hit")
	}

	s.Remove("sel-2")
	hit, ok = s.HitTest(1, coords.Point{X: 75, Y: 75})
	if !ok || hit.ID != "sel-1" {
		t.Fatalf("after remove = %+v %v", hit, ok)
	}
	hit, ok = s.HitTest(2, coords.Point{X: 400, Y: 400})
	if !ok || hit.ID != "sel-3" {
		t.Fatalf("other page after remove = %+v %v", hit, ok)
	}
}

func TestHitTestManySelections(t *testing.T) {
	s := NewStore(seqIDs())
	for i := 0; i < 40; i++ {
		x := float64(i%8) * 60
		y := float64(i/8) * 60
		mustAdd(t, s, Selection{Page: 1, X: x, Y: y, Width: 50, Height: 50})
	}
	hit, ok := s.HitTest(1, coords.Point{X: 185, Y: 125})
	if !ok || hit.X != 180 || hit.Y != 120 {
		t.Fatalf("hit = %+v %v", hit, ok)
	}
	if _, ok := s.HitTest(1, coords.Point{X: 55, Y: 55}); ok {
		t.Fatalf("gap reported a hit")
	}
	mustAdd(t, s, Selection{Page: 1, X: 170, Y: 110, Width: 30, Height: 30})
	hit, _ = s.HitTest(1, coords.Point{X: 185, Y: 125})
	if hit.ID != "sel-41" {
		t.Fatalf("index not refreshed after add: %+v", hit)
	}
}

func TestSortedByPageIsStable(t *testing.T) {
	in := []Selection{
		{ID: "a", Page: 3},
		{ID: "b", Page: 1},
		{ID: "c", Page: 3},
		{ID: "d", Page: 1},
	}
	out := SortedByPage(in)
	want := []string{"b", "d", "a", "c"}
	for i, id := range want {
		if out[i].ID != id {
			t.Fatalf("order = %v", out)
		}
	}
	if in[0].ID != "a" {
		t.Fatalf("input slice was reordered")
	}
}
