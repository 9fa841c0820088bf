// Package preview flattens a frame into a single image of the viewer area:
// the page bitmap scaled down to display size, the selection overlay and the
// live draw rectangle, all shifted by the pan offset.
package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"

	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/render"
)

var ErrEmptyContainer = errors.New("container has no area")

type Options struct {
	Background color.Color
	Selection  color.Color
	Border     color.Color
	Preview    color.Color
	// Scaler resamples the bitmap. Defaults to CatmullRom.
	Scaler draw.Scaler
}

func DefaultOptions() Options {
	return Options{
		Background: color.RGBA{0x52, 0x56, 0x59, 0xff},
		Selection:  color.NRGBA{0xff, 0x00, 0x00, 0x4d},
		Border:     color.NRGBA{0xff, 0x00, 0x00, 0xff},
		Preview:    color.NRGBA{0x00, 0x7b, 0xff, 0x40},
		Scaler:     draw.CatmullRom,
	}
}

// Compose paints f into a new image the size of the container.
func Compose(f *render.Frame, opts Options) (*image.RGBA, error) {
	w, h := int(math.Round(f.Container.Width)), int(math.Round(f.Container.Height))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %gx%g", ErrEmptyContainer, f.Container.Width, f.Container.Height)
	}
	if opts.Scaler == nil {
		opts.Scaler = draw.CatmullRom
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{opts.Background}, image.Point{}, draw.Src)

	t := f.SurfaceTransform()
	toDst := func(r coords.Rect) image.Rectangle {
		lo, hi := t.Transform(r.Min()), t.Transform(r.Max())
		return image.Rect(
			int(math.Round(lo.X)), int(math.Round(lo.Y)),
			int(math.Round(hi.X)), int(math.Round(hi.Y)),
		)
	}

	page := toDst(coords.Rect{Width: f.Layout.Display.Width, Height: f.Layout.Display.Height})
	if f.Bitmap != nil && !page.Empty() {
		opts.Scaler.Scale(dst, page, f.Bitmap, f.Bitmap.Bounds(), draw.Over, nil)
	}

	for _, o := range f.Overlays {
		r := toDst(o.Rect)
		draw.Draw(dst, r, &image.Uniform{opts.Selection}, image.Point{}, draw.Over)
		outline(dst, r, opts.Border)
	}
	if f.Preview != nil {
		r := toDst(*f.Preview)
		draw.Draw(dst, r, &image.Uniform{opts.Preview}, image.Point{}, draw.Over)
		outline(dst, r, opts.Border)
	}
	return dst, nil
}

// Encode composes f and writes it as PNG.
func Encode(w io.Writer, f *render.Frame, opts Options) error {
	img, err := Compose(f, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode page %d: %w", f.Page, err)
	}
	return nil
}

func outline(dst draw.Image, r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	u := &image.Uniform{c}
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e, u, image.Point{}, draw.Src)
	}
}
