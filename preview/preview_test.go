package preview

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/draw"

	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/render"
	"github.com/wudi/redactkit/viewport"
)

// 100x100 container, 40x40 page element at (30,30), bitmap at 3x.
func frame() *render.Frame {
	bmp := image.NewRGBA(image.Rect(0, 0, 120, 120))
	draw.Draw(bmp, bmp.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	return &render.Frame{
		Page:      1,
		PageCount: 1,
		Container: coords.Size{Width: 100, Height: 100},
		Layout: viewport.Layout{
			Canvas:  coords.Size{Width: 120, Height: 120},
			Display: coords.Size{Width: 40, Height: 40},
			Origin:  coords.Point{X: 30, Y: 30},
		},
		Bitmap:   bmp,
		Overlays: []render.Overlay{{ID: "a", Rect: coords.Rect{X: 10, Y: 10, Width: 10, Height: 10}}},
	}
}

func rgba(img *image.RGBA, x, y int) color.RGBA { return img.RGBAAt(x, y) }

func exact() Options {
	opts := DefaultOptions()
	opts.Scaler = draw.NearestNeighbor
	return opts
}

func TestComposePlacesLayers(t *testing.T) {
	opts := exact()
	img, err := Compose(frame(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 100, 100) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := rgba(img, 5, 5); got != opts.Background {
		t.Fatalf("background = %v", got)
	}
	if got := rgba(img, 35, 35); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("page = %v", got)
	}
	if got := rgba(img, 40, 40); got != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("border = %v", got)
	}
	fill := rgba(img, 45, 45)
	if fill.R != 255 || fill.G == 255 || fill.G == 0 {
		t.Fatalf("overlay fill = %v", fill)
	}
	if got := rgba(img, 75, 75); got != opts.Background {
		t.Fatalf("outside page = %v", got)
	}
}

func TestComposeAppliesPanToEveryLayer(t *testing.T) {
	f := frame()
	f.Pan = coords.Point{X: 20, Y: 0}
	img, err := Compose(f, exact())
	if err != nil {
		t.Fatal(err)
	}
	if got := rgba(img, 40, 40); got == (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("overlay did not move")
	}
	if got := rgba(img, 60, 40); got != (color.RGBA{255, 0, 0, 255}) {
		t.Fatalf("panned border = %v", got)
	}
	if got := rgba(img, 85, 35); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("panned page = %v", got)
	}
}

func TestComposeDefaultScalerSmoothsBitmap(t *testing.T) {
	img, err := Compose(frame(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got := rgba(img, 35, 35); got.R < 250 || got.G < 250 || got.B < 250 {
		t.Fatalf("page = %v", got)
	}
}

func TestComposePreview(t *testing.T) {
	f := frame()
	f.Overlays = nil
	f.Preview = &coords.Rect{X: 0, Y: 20, Width: 20, Height: 10}
	img, err := Compose(f, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	got := rgba(img, 35, 55)
	if got.B != 255 || got.R == 255 {
		t.Fatalf("preview fill = %v", got)
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, frame(), DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil || img.Bounds().Dx() != 100 {
		t.Fatalf("decoded = %v %v", img, err)
	}

	f := frame()
	f.Container = coords.Size{}
	if err := Encode(&buf, f, DefaultOptions()); !errors.Is(err, ErrEmptyContainer) {
		t.Fatalf("empty container = %v", err)
	}
}
