// Package selection stores redaction rectangles in PDF page space.
//
// A Selection never changes once stored: zoom, pan, re-render and page
// navigation only change how it is displayed.
package selection

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/wudi/redactkit/coords"
)

var (
	ErrDuplicateID = errors.New("duplicate selection id")
	ErrInvalidSize = errors.New("selection size must be finite and non-negative")
	ErrInvalidPage = errors.New("selection page must be >= 1")
	ErrNotFound    = errors.New("selection not found")
)

// Selection is a rectangle on a 1-based page, in PDF points with a top-left
// origin.
type Selection struct {
	ID     string
	Page   int
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (s Selection) Rect() coords.Rect {
	return coords.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

// FromRect builds an unsaved selection (empty ID) for page.
func FromRect(page int, r coords.Rect) Selection {
	return Selection{Page: page, X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// Confirmer asks the user before a destructive operation.
type Confirmer interface {
	Confirm(message string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(message string) (bool, error)

func (f ConfirmFunc) Confirm(message string) (bool, error) { return f(message) }

// ClearPrompt is the question asked before clearing every selection.
const ClearPrompt = "Clear all selections?"

type Option func(*Store)

// WithIDGenerator replaces the uuid-based id source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// Store keeps selections in insertion order. It is not safe for concurrent
// use; the session drives it from a single event loop.
type Store struct {
	items []Selection
	ids   map[string]struct{}
	newID func() string
	index map[int]*QuadTree
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		ids:   make(map[string]struct{}),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add validates sel, assigns an id when it has none and appends it.
func (s *Store) Add(sel Selection) (Selection, error) {
	if sel.Page < 1 {
		return Selection{}, fmt.Errorf("%w: %d", ErrInvalidPage, sel.Page)
	}
	for _, v := range []float64{sel.X, sel.Y, sel.Width, sel.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Selection{}, ErrInvalidSize
		}
	}
	if sel.Width < 0 || sel.Height < 0 {
		return Selection{}, fmt.Errorf("%w: %gx%g", ErrInvalidSize, sel.Width, sel.Height)
	}
	if sel.ID == "" {
		sel.ID = s.newID()
	}
	if _, dup := s.ids[sel.ID]; dup {
		return Selection{}, fmt.Errorf("%w: %s", ErrDuplicateID, sel.ID)
	}
	s.items = append(s.items, sel)
	s.ids[sel.ID] = struct{}{}
	s.invalidate(sel.Page)
	return sel, nil
}

// Remove deletes the selection with id and reports whether it existed.
func (s *Store) Remove(id string) bool {
	for i, sel := range s.items {
		if sel.ID != id {
			continue
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		delete(s.ids, id)
		// Later positions shifted; every page index is stale.
		s.index = nil
		return true
	}
	return false
}

// Get returns the selection with id.
func (s *Store) Get(id string) (Selection, bool) {
	for _, sel := range s.items {
		if sel.ID == id {
			return sel, true
		}
	}
	return Selection{}, false
}

// Clear removes everything after c confirms. An empty store returns
// immediately without asking. A declined prompt leaves the store untouched.
func (s *Store) Clear(c Confirmer) (int, error) {
	if len(s.items) == 0 {
		return 0, nil
	}
	if c != nil {
		ok, err := c.Confirm(ClearPrompt)
		if err != nil {
			return 0, fmt.Errorf("confirm clear: %w", err)
		}
		if !ok {
			return 0, nil
		}
	}
	n := len(s.items)
	s.Reset()
	return n, nil
}

// Reset drops every selection without confirmation. Used when the document
// itself goes away.
func (s *Store) Reset() {
	s.items = nil
	s.ids = make(map[string]struct{})
	s.index = nil
}

func (s *Store) Len() int { return len(s.items) }

// ListAll returns a copy of all selections in insertion order.
func (s *Store) ListAll() []Selection {
	out := make([]Selection, len(s.items))
	copy(out, s.items)
	return out
}

// ListForPage returns the selections on page in insertion order.
func (s *Store) ListForPage(page int) []Selection {
	var out []Selection
	for _, sel := range s.items {
		if sel.Page == page {
			out = append(out, sel)
		}
	}
	return out
}

// Pages returns the distinct pages that carry selections, ascending.
func (s *Store) Pages() []int {
	seen := make(map[int]struct{})
	var pages []int
	for _, sel := range s.items {
		if _, ok := seen[sel.Page]; ok {
			continue
		}
		seen[sel.Page] = struct{}{}
		pages = append(pages, sel.Page)
	}
	sort.Ints(pages)
	return pages
}

// SortedByPage returns all selections ordered by page, insertion order
// within a page. This is the order the selection list is shown in.
func SortedByPage(sels []Selection) []Selection {
	out := make([]Selection, len(sels))
	copy(out, sels)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Page < out[j].Page })
	return out
}
