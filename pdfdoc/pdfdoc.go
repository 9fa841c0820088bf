// Package pdfdoc adapts pdfcpu to the export.Document interface.
//
// Redactions are written as an extra content stream per page. The page's
// existing content is wrapped in q/Q first so a leftover CTM or clip from the
// original streams cannot move or hide the fill.
package pdfdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/wudi/redactkit/contentstream"
	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/export"
)

func init() {
	// Keep pdfcpu from creating a config directory under the user's home.
	model.ConfigPath = "disable"
}

var (
	ErrNoPage   = errors.New("page not found")
	ErrRotation = errors.New("page rotation is not a multiple of 90")
)

type Document struct {
	ctx *model.Context
}

// Open parses and validates data in relaxed mode.
func Open(ctx context.Context, data []byte) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pc, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	if err := pc.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("pdfcpu page count: %w", err)
	}
	return &Document{ctx: pc}, nil
}

// Opener is an export.Opener backed by Open.
func Opener() export.Opener {
	return export.OpenerFunc(func(ctx context.Context, data []byte) (export.Document, error) {
		return Open(ctx, data)
	})
}

func (d *Document) PageCount() int { return d.ctx.PageCount }

type page struct {
	dict types.Dict
	box  types.Rectangle
	// rotate is the clockwise display rotation: 0, 90, 180 or 270.
	rotate int
}

func (d *Document) page(index int) (page, error) {
	if index < 0 || index >= d.ctx.PageCount {
		return page{}, fmt.Errorf("%w: index %d of %d", ErrNoPage, index, d.ctx.PageCount)
	}
	dict, _, inh, err := d.ctx.PageDict(index+1, false)
	if err != nil {
		return page{}, fmt.Errorf("page %d: %w", index+1, err)
	}
	if dict == nil || inh == nil {
		return page{}, fmt.Errorf("%w: index %d", ErrNoPage, index)
	}
	box := inh.CropBox
	if box == nil {
		box = inh.MediaBox
	}
	if box == nil {
		return page{}, fmt.Errorf("page %d: no media box", index+1)
	}
	rotate := (inh.Rotate%360 + 360) % 360
	if rotate%90 != 0 {
		return page{}, fmt.Errorf("page %d: %w: %d", index+1, ErrRotation, inh.Rotate)
	}
	return page{dict: dict, box: *box, rotate: rotate}, nil
}

// size is the page as displayed, after rotation.
func (p page) size() coords.Size {
	if p.rotate == 90 || p.rotate == 270 {
		return coords.Size{Width: p.box.Height(), Height: p.box.Width()}
	}
	return coords.Size{Width: p.box.Width(), Height: p.box.Height()}
}

// toUser maps a rectangle given with a lower-left origin on the displayed
// page into unrotated user space.
func (p page) toUser(r coords.Rect) coords.Rect {
	w, h := p.box.Width(), p.box.Height()
	// Top-left origin on the displayed page.
	x, y := r.X, p.size().Height-r.Y-r.Height
	var u coords.Rect
	switch p.rotate {
	case 90:
		u = coords.Rect{X: y, Y: x, Width: r.Height, Height: r.Width}
	case 180:
		u = coords.Rect{X: w - x - r.Width, Y: y, Width: r.Width, Height: r.Height}
	case 270:
		u = coords.Rect{X: w - y - r.Height, Y: h - x - r.Width, Width: r.Height, Height: r.Width}
	default:
		u = r
	}
	u.X += p.box.LL.X
	u.Y += p.box.LL.Y
	return u
}

// PageSize is the visible (crop) box size in points as displayed, so width
// and height are swapped on pages rotated by 90 or 270 degrees.
func (d *Document) PageSize(index int) (coords.Size, error) {
	p, err := d.page(index)
	if err != nil {
		return coords.Size{}, err
	}
	return p.size(), nil
}

// FillRects paints rects, given relative to the lower-left corner of the
// page as displayed, on page index.
func (d *Document) FillRects(index int, rects []coords.Rect, c contentstream.Color) error {
	if len(rects) == 0 {
		return nil
	}
	p, err := d.page(index)
	if err != nil {
		return err
	}
	dict := p.dict
	shifted := make([]coords.Rect, len(rects))
	for i, r := range rects {
		shifted[i] = p.toUser(r)
	}

	open, err := d.ctx.StreamDictIndRef([]byte("q\n"))
	if err != nil {
		return fmt.Errorf("page %d: %w", index+1, err)
	}
	paint := append([]byte("Q\n"), contentstream.Encode(contentstream.FillRects(shifted, c))...)
	closing, err := d.ctx.StreamDictIndRef(paint)
	if err != nil {
		return fmt.Errorf("page %d: %w", index+1, err)
	}

	contents := types.Array{*open}
	if obj, found := dict.Find("Contents"); found && obj != nil {
		existing, err := d.ctx.Dereference(obj)
		if err != nil {
			return fmt.Errorf("page %d contents: %w", index+1, err)
		}
		switch o := existing.(type) {
		case types.Array:
			contents = append(contents, o...)
		case types.StreamDict:
			contents = append(contents, obj)
		case nil:
		default:
			return fmt.Errorf("page %d: unexpected contents %T", index+1, existing)
		}
	}
	contents = append(contents, *closing)
	dict.Update("Contents", contents)
	return nil
}

// Painted traces the page's content and returns every filled rectangle in
// user space. Used to check a saved document.
func (d *Document) Painted(index int) ([]contentstream.OpBBox, error) {
	p, err := d.page(index)
	if err != nil {
		return nil, err
	}
	obj, found := p.dict.Find("Contents")
	if !found || obj == nil {
		return nil, nil
	}
	var refs types.Array
	existing, err := d.ctx.Dereference(obj)
	if err != nil {
		return nil, err
	}
	switch o := existing.(type) {
	case types.Array:
		refs = o
	default:
		refs = types.Array{obj}
	}

	var stream bytes.Buffer
	for _, ref := range refs {
		sd, _, err := d.ctx.DereferenceStreamDict(ref)
		if err != nil {
			return nil, err
		}
		if sd == nil {
			continue
		}
		if err := sd.Decode(); err != nil {
			return nil, fmt.Errorf("page %d: decode content: %w", index+1, err)
		}
		stream.Write(sd.Content)
		stream.WriteByte('\n')
	}
	return contentstream.NewTracer().TraceStream(stream.Bytes())
}

func (d *Document) Save(w io.Writer) error {
	if err := api.WriteContext(d.ctx, w); err != nil {
		return fmt.Errorf("pdfcpu write: %w", err)
	}
	return nil
}
