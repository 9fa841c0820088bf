// Package geometry caches the intrinsic (scale 1.0) size of every page of a
// loaded document.
package geometry

import (
	"context"
	"errors"
	"fmt"

	"github.com/wudi/redactkit/coords"
)

var ErrInvalidPage = errors.New("invalid page size")

// Sizer is the part of a rasteriser document that geometry needs.
type Sizer interface {
	PageCount() int
	PageSize(ctx context.Context, page int) (coords.Size, error)
}

// Entry is the intrinsic size of one page in PDF points.
type Entry struct {
	Page   int
	Width  float64
	Height float64
}

// Table holds one Entry per page. It is immutable after Build.
type Table struct {
	entries []Entry
}

// Build reads every page size from src. Either all pages are recorded or an
// error is returned and no table exists.
func Build(ctx context.Context, src Sizer) (*Table, error) {
	n := src.PageCount()
	if n <= 0 {
		return nil, fmt.Errorf("document has %d pages", n)
	}
	entries := make([]Entry, 0, n)
	for page := 1; page <= n; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		size, err := src.PageSize(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("page %d size: %w", page, err)
		}
		if !size.Valid() {
			return nil, fmt.Errorf("page %d: %w (%gx%g)", page, ErrInvalidPage, size.Width, size.Height)
		}
		entries = append(entries, Entry{Page: page, Width: size.Width, Height: size.Height})
	}
	return &Table{entries: entries}, nil
}

// FromSizes builds a table from already known sizes, page 1 first.
func FromSizes(sizes ...coords.Size) (*Table, error) {
	entries := make([]Entry, 0, len(sizes))
	for i, s := range sizes {
		if !s.Valid() {
			return nil, fmt.Errorf("page %d: %w", i+1, ErrInvalidPage)
		}
		entries = append(entries, Entry{Page: i + 1, Width: s.Width, Height: s.Height})
	}
	return &Table{entries: entries}, nil
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

func (t *Table) Entry(page int) (Entry, bool) {
	if t == nil || page < 1 || page > len(t.entries) {
		return Entry{}, false
	}
	return t.entries[page-1], true
}

// PageSize implements coords.PageSizer.
func (t *Table) PageSize(page int) (coords.Size, bool) {
	e, ok := t.Entry(page)
	if !ok {
		return coords.Size{}, false
	}
	return coords.Size{Width: e.Width, Height: e.Height}, true
}
