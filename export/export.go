// Package export burns stored selections into a copy of the source PDF.
//
// Selections are kept with a top-left origin; the document model paints with
// a bottom-left origin, so every rectangle is flipped against its page height
// on the way out.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/wudi/redactkit/contentstream"
	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/observability"
	"github.com/wudi/redactkit/selection"
)

var (
	ErrNothingToRedact = errors.New("no selections to redact")
	ErrPageOutOfRange  = errors.New("selection page out of range")
)

// Document is a mutable PDF. Page indexes are 0-based.
type Document interface {
	PageCount() int
	PageSize(index int) (coords.Size, error)
	// FillRects paints opaque rectangles given in the document's own
	// bottom-left coordinate convention.
	FillRects(index int, rects []coords.Rect, c contentstream.Color) error
	Save(w io.Writer) error
}

type Opener interface {
	Open(ctx context.Context, data []byte) (Document, error)
}

type OpenerFunc func(ctx context.Context, data []byte) (Document, error)

func (fn OpenerFunc) Open(ctx context.Context, data []byte) (Document, error) { return fn(ctx, data) }

type Options struct {
	Color  contentstream.Color
	Prefix string
	Logger observability.Logger
	Tracer observability.Tracer
}

func DefaultOptions() Options {
	return Options{Color: contentstream.Black, Prefix: "redacted_"}
}

// Result is a fully assembled output document.
type Result struct {
	Name  string
	Data  []byte
	Pages int
	Rects int
}

type Assembler struct {
	opener Opener
	opts   Options
}

func NewAssembler(opener Opener, opts Options) *Assembler {
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger{}
	}
	if opts.Tracer == nil {
		opts.Tracer = observability.NopTracer()
	}
	return &Assembler{opener: opener, opts: opts}
}

// Assemble opens source, paints every selection and serializes the result.
// Nothing is returned unless every page was painted.
func (a *Assembler) Assemble(ctx context.Context, source []byte, name string, sels []selection.Selection) (*Result, error) {
	if len(sels) == 0 {
		return nil, ErrNothingToRedact
	}
	ctx, span := a.opts.Tracer.StartSpan(ctx, observability.SpanSave)
	defer span.Finish()

	res, err := a.assemble(ctx, source, name, sels)
	if err != nil {
		span.SetError(err)
		a.opts.Logger.Error("export failed", observability.String("name", name), observability.Error("error", err))
		return nil, err
	}
	span.SetTag("rects", res.Rects)
	a.opts.Logger.Info("export assembled",
		observability.String("name", res.Name),
		observability.Int("pages", res.Pages),
		observability.Int("rects", res.Rects),
		observability.Int("bytes", len(res.Data)),
	)
	return res, nil
}

func (a *Assembler) assemble(ctx context.Context, source []byte, name string, sels []selection.Selection) (*Result, error) {
	doc, err := a.opener.Open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}

	pages, byPage := GroupByPage(sels)
	rects := 0
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if page < 1 || page > doc.PageCount() {
			return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, doc.PageCount())
		}
		size, err := doc.PageSize(page - 1)
		if err != nil {
			return nil, fmt.Errorf("page %d size: %w", page, err)
		}
		converted := make([]coords.Rect, 0, len(byPage[page]))
		for _, sel := range byPage[page] {
			converted = append(converted, ToBottomLeft(sel.Rect(), size.Height))
		}
		if err := doc.FillRects(page-1, converted, a.opts.Color); err != nil {
			return nil, fmt.Errorf("redact page %d: %w", page, err)
		}
		rects += len(converted)
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	return &Result{
		Name:  OutputName(a.opts.Prefix, name),
		Data:  buf.Bytes(),
		Pages: len(pages),
		Rects: rects,
	}, nil
}

// GroupByPage returns the distinct pages in ascending order and the
// selections of each page in their original order.
func GroupByPage(sels []selection.Selection) ([]int, map[int][]selection.Selection) {
	byPage := make(map[int][]selection.Selection)
	for _, sel := range sels {
		byPage[sel.Page] = append(byPage[sel.Page], sel)
	}
	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, byPage
}

// ToBottomLeft converts a top-left-origin rectangle to a bottom-left origin
// on a page of the given height.
func ToBottomLeft(r coords.Rect, pageHeight float64) coords.Rect {
	return coords.Rect{X: r.X, Y: pageHeight - r.Y - r.Height, Width: r.Width, Height: r.Height}
}

// OutputName derives the saved file name from the source file name.
func OutputName(prefix, name string) string {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		base = "document.pdf"
	}
	return prefix + base
}
