// Package raster rasterises PDF pages with MuPDF (go-fitz) for the render
// coordinator.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/gen2brain/go-fitz"

	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/pdfdoc"
	"github.com/wudi/redactkit/render"
)

// DefaultMaxPixels caps a single page bitmap (about 160 MB of RGBA).
const DefaultMaxPixels = 40_000_000

var ErrPassword = errors.New("document is password protected")

// Sizer reports exact page sizes for 0-based page indexes. MuPDF bounds are
// truncated to whole points, which is not precise enough for export.
type Sizer interface {
	PageSize(index int) (coords.Size, error)
}

type Option func(*Document)

// WithSizer takes page sizes from s instead of MuPDF.
func WithSizer(s Sizer) Option {
	return func(d *Document) { d.sizer = s }
}

// WithMaxPixels lowers the render scale of pages whose bitmap would exceed
// n pixels. The display size is unaffected; only sharpness drops.
func WithMaxPixels(n int) Option {
	return func(d *Document) { d.maxPixels = n }
}

type Document struct {
	doc       *fitz.Document
	sizer     Sizer
	maxPixels int
}

// Open loads data into MuPDF.
func Open(ctx context.Context, data []byte, opts ...Option) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		if errors.Is(err, fitz.ErrNeedsPassword) {
			return nil, ErrPassword
		}
		return nil, fmt.Errorf("mupdf open: %w", err)
	}
	d := &Document{doc: doc, maxPixels: DefaultMaxPixels}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Loader opens documents with MuPDF for bitmaps and pdfcpu for page sizes.
func Loader(opts ...Option) render.Loader {
	return render.LoaderFunc(func(ctx context.Context, data []byte) (render.Document, error) {
		sizes, err := pdfdoc.Open(ctx, data)
		if err != nil {
			return nil, err
		}
		return Open(ctx, data, append([]Option{WithSizer(sizes)}, opts...)...)
	})
}

func (d *Document) PageCount() int { return d.doc.NumPage() }

// PageSize returns the size of the 1-based page in points.
func (d *Document) PageSize(ctx context.Context, page int) (coords.Size, error) {
	if err := ctx.Err(); err != nil {
		return coords.Size{}, err
	}
	if page < 1 || page > d.PageCount() {
		return coords.Size{}, fmt.Errorf("page %d out of range 1..%d", page, d.PageCount())
	}
	if d.sizer != nil {
		return d.sizer.PageSize(page - 1)
	}
	b, err := d.doc.Bound(page - 1)
	if err != nil {
		return coords.Size{}, fmt.Errorf("page %d bounds: %w", page, err)
	}
	return coords.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}, nil
}

// Render rasterises the 1-based page. Scale 1.0 is 72 DPI.
func (d *Document) Render(ctx context.Context, page int, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("invalid render scale %g", scale)
	}
	if page < 1 || page > d.PageCount() {
		return nil, fmt.Errorf("page %d out of range 1..%d", page, d.PageCount())
	}
	if d.maxPixels > 0 {
		if size, err := d.PageSize(ctx, page); err == nil {
			scale = capScale(size, scale, d.maxPixels)
		}
	}
	img, err := d.doc.ImageDPI(page-1, scale*72)
	if err != nil {
		return nil, fmt.Errorf("mupdf render page %d: %w", page, err)
	}
	return img, nil
}

func capScale(size coords.Size, scale float64, maxPixels int) float64 {
	px := size.Width * size.Height * scale * scale
	if px <= float64(maxPixels) || px == 0 {
		return scale
	}
	return math.Sqrt(float64(maxPixels) / (size.Width * size.Height))
}

func (d *Document) Close() error { return d.doc.Close() }
