package render

import (
	"fmt"
	"image"

	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/viewport"
)

// Cursor is a CSS cursor keyword.
type Cursor string

const (
	CursorDefault   Cursor = "default"
	CursorGrab      Cursor = "grab"
	CursorGrabbing  Cursor = "grabbing"
	CursorCrosshair Cursor = "crosshair"
)

// Overlay is a committed selection in display space, relative to the page
// element's top-left corner.
type Overlay struct {
	ID   string
	Rect coords.Rect
}

// Frame is the view-model of one rendered page. Presentation layers apply it
// to a concrete surface; nothing in it refers to a UI toolkit.
//
// The bitmap, the overlay and the drawing surface share Layout.Display as
// their size and are all translated by Origin + Pan.
type Frame struct {
	Page      int
	PageCount int
	// Container is the size of the viewer area the page is centred in.
	Container   coords.Size
	ZoomPercent int
	Layout      viewport.Layout
	// Bitmap is rendered at Layout.RenderScale, so its pixel size is
	// Layout.Canvas, not Layout.Display.
	Bitmap   image.Image
	Overlays []Overlay
	// Preview is the live rectangle of a draw gesture, if any.
	Preview *coords.Rect
	Pan     coords.Point

	BitmapCursor       Cursor
	SurfaceCursor      Cursor
	SurfaceInteractive bool
}

func (f *Frame) PageIndicator() string { return fmt.Sprintf("%d / %d", f.Page, f.PageCount) }
func (f *Frame) ZoomIndicator() string { return fmt.Sprintf("%d%%", f.ZoomPercent) }

// SurfaceTransform maps page-element coordinates to container coordinates.
func (f *Frame) SurfaceTransform() coords.Matrix {
	return coords.Translate(f.Layout.Origin.X+f.Pan.X, f.Layout.Origin.Y+f.Pan.Y)
}

// ToSurface converts a container point into drawing-surface coordinates.
func (f *Frame) ToSurface(p coords.Point) coords.Point {
	inv, err := f.SurfaceTransform().Inverse()
	if err != nil {
		// A pure translation is always invertible.
		return p
	}
	return inv.Transform(p)
}

// OnSurface reports whether a surface-local point lies on the page element.
func (f *Frame) OnSurface(p coords.Point) bool {
	return coords.Rect{Width: f.Layout.Display.Width, Height: f.Layout.Display.Height}.Contains(p)
}

// Target receives every frame the coordinator produces.
type Target interface {
	Present(f *Frame) error
}

// TargetFunc adapts a function to Target.
type TargetFunc func(f *Frame) error

func (fn TargetFunc) Present(f *Frame) error { return fn(f) }
