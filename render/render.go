// Package render orchestrates one page render: viewport resolution, bitmap
// rasterisation, overlay projection and pan, producing a Frame for a Target.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/observability"
	"github.com/wudi/redactkit/selection"
	"github.com/wudi/redactkit/viewport"
)

var (
	ErrRender  = errors.New("render failed")
	ErrNoFrame = errors.New("no frame rendered yet")
)

// Document is the rasteriser's view of a loaded PDF. Pages are 1-based.
type Document interface {
	PageCount() int
	// PageSize is the intrinsic page size in points at scale 1.0.
	PageSize(ctx context.Context, page int) (coords.Size, error)
	// Render paints page at scale (1.0 == 72 DPI).
	Render(ctx context.Context, page int, scale float64) (image.Image, error)
	Close() error
}

// Loader opens raw document bytes.
type Loader interface {
	Load(ctx context.Context, data []byte) (Document, error)
}

type LoaderFunc func(ctx context.Context, data []byte) (Document, error)

func (fn LoaderFunc) Load(ctx context.Context, data []byte) (Document, error) { return fn(ctx, data) }

// SelectionSource is read-only access to persisted selections.
type SelectionSource interface {
	ListForPage(page int) []selection.Selection
}

// Input is the per-render state owned by the caller.
type Input struct {
	Page      int
	Container coords.Size
	// Preview is the live draw rectangle in surface coordinates.
	Preview    *coords.Rect
	PanEnabled bool
	Panning    bool
}

type Options struct {
	Logger observability.Logger
	Tracer observability.Tracer
}

type Coordinator struct {
	doc        Document
	pages      coords.PageSizer
	mapper     coords.Mapper
	viewport   *viewport.Viewport
	selections SelectionSource
	target     Target
	log        observability.Logger
	tracer     observability.Tracer

	last *Frame
}

func NewCoordinator(doc Document, pages coords.PageSizer, vp *viewport.Viewport, sels SelectionSource, target Target, opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger{}
	}
	if opts.Tracer == nil {
		opts.Tracer = observability.NopTracer()
	}
	return &Coordinator{
		doc:        doc,
		pages:      pages,
		mapper:     coords.NewMapper(pages),
		viewport:   vp,
		selections: sels,
		target:     target,
		log:        opts.Logger,
		tracer:     opts.Tracer,
	}
}

// Last is the most recent frame that was presented successfully.
func (c *Coordinator) Last() *Frame { return c.last }

// Reset forgets the last frame and drops the bitmap it holds.
func (c *Coordinator) Reset() { c.last = nil }

// Render performs a full render of in.Page. On failure the previous frame
// stays current and is returned together with an ErrRender error.
func (c *Coordinator) Render(ctx context.Context, in Input) (*Frame, error) {
	ctx, span := c.tracer.StartSpan(ctx, observability.SpanRender)
	defer span.Finish()
	span.SetTag("page", in.Page)

	size, ok := c.pages.PageSize(in.Page)
	if !ok {
		err := fmt.Errorf("%w: page %d has no geometry", ErrRender, in.Page)
		span.SetError(err)
		c.log.Error("render failed", observability.Int("page", in.Page), observability.Error("error", err))
		return c.last, err
	}

	layout := c.viewport.Layout(in.Container, size)
	bitmap, err := c.doc.Render(ctx, in.Page, layout.RenderScale)
	if err != nil {
		err = fmt.Errorf("%w: page %d: %w", ErrRender, in.Page, err)
		span.SetError(err)
		c.log.Error("render failed",
			observability.Int("page", in.Page),
			observability.Float64("scale", layout.RenderScale),
			observability.Error("error", err),
		)
		return c.last, err
	}

	f := &Frame{
		Page:      in.Page,
		PageCount: c.doc.PageCount(),
		Container: in.Container,
		Layout:    layout,
		Bitmap:    bitmap,
	}
	c.decorate(f, in)
	if err := c.present(f); err != nil {
		span.SetError(err)
		return c.last, err
	}
	c.log.Debug("page rendered",
		observability.Int("page", in.Page),
		observability.Float64("render_scale", layout.RenderScale),
		observability.Int("overlays", len(f.Overlays)),
	)
	return f, nil
}

// Redraw rebuilds overlays, preview, pan and cursors on top of the last
// bitmap without rasterising again.
func (c *Coordinator) Redraw(in Input) (*Frame, error) {
	if c.last == nil || c.last.Page != in.Page {
		return c.last, ErrNoFrame
	}
	f := *c.last
	c.decorate(&f, in)
	if err := c.present(&f); err != nil {
		return c.last, err
	}
	return &f, nil
}

func (c *Coordinator) decorate(f *Frame, in Input) {
	f.ZoomPercent = c.viewport.ZoomPercent()
	f.Pan = c.viewport.PanOffset()

	sels := c.selections.ListForPage(in.Page)
	f.Overlays = make([]Overlay, 0, len(sels))
	for _, sel := range sels {
		f.Overlays = append(f.Overlays, Overlay{
			ID:   sel.ID,
			Rect: c.mapper.RectToDisplay(sel.Rect(), in.Page, f.Layout.Display),
		})
	}

	f.Preview = nil
	if in.Preview != nil {
		p := *in.Preview
		f.Preview = &p
	}

	switch {
	case in.Panning:
		f.BitmapCursor, f.SurfaceCursor, f.SurfaceInteractive = CursorGrabbing, CursorGrabbing, false
	case in.PanEnabled:
		f.BitmapCursor, f.SurfaceCursor, f.SurfaceInteractive = CursorGrab, CursorGrab, false
	default:
		f.BitmapCursor, f.SurfaceCursor, f.SurfaceInteractive = CursorDefault, CursorCrosshair, true
	}
}

func (c *Coordinator) present(f *Frame) error {
	if c.target != nil {
		if err := c.target.Present(f); err != nil {
			c.log.Error("present frame failed", observability.Int("page", f.Page), observability.Error("error", err))
			return fmt.Errorf("present page %d: %w", f.Page, err)
		}
	}
	c.last = f
	return nil
}
