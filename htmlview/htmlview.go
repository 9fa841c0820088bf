// Package htmlview renders a frame as the layered page element a browser
// host shows: the page bitmap, the selection overlay and the drawing
// surface, stacked at the same display size and moved together by the pan
// offset.
package htmlview

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/render"
)

// Class names of the generated elements.
const (
	ClassViewer    = "pdf-viewer"
	ClassPage      = "page-container"
	ClassBitmap    = "pdf-canvas"
	ClassOverlay   = "selection-overlay"
	ClassSelection = "selection-rect"
	ClassSurface   = "drawing-canvas"
	ClassPreview   = "selection-preview"
	ClassPageInfo  = "page-indicator"
	ClassZoomInfo  = "zoom-level"
)

// BitmapSource produces the src attribute of the bitmap element.
type BitmapSource func(f *render.Frame) (string, error)

type Options struct {
	// Bitmap defaults to an inline PNG data URI.
	Bitmap BitmapSource
}

// DataURI encodes the frame bitmap as a PNG data URI.
func DataURI(f *render.Frame) (string, error) {
	if f.Bitmap == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, f.Bitmap); err != nil {
		return "", fmt.Errorf("encode page %d: %w", f.Page, err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Build returns the viewer element for f.
func Build(f *render.Frame, opts Options) (*html.Node, error) {
	if opts.Bitmap == nil {
		opts.Bitmap = DataURI
	}
	src, err := opts.Bitmap(f)
	if err != nil {
		return nil, err
	}
	display := f.Layout.Display

	viewer := element(atom.Div, ClassViewer, style{
		"position": "relative",
		"overflow": "hidden",
		"width":    px(f.Container.Width),
		"height":   px(f.Container.Height),
	})

	t := f.SurfaceTransform()
	page := element(atom.Div, ClassPage, style{
		"position":  "absolute",
		"left":      "0",
		"top":       "0",
		"width":     px(display.Width),
		"height":    px(display.Height),
		"transform": fmt.Sprintf("translate(%s, %s)", px(t[4]), px(t[5])),
	})
	page.Attr = append(page.Attr, html.Attribute{Key: "data-page", Val: strconv.Itoa(f.Page)})
	viewer.AppendChild(page)

	img := element(atom.Img, ClassBitmap, layer(display, style{"cursor": string(f.BitmapCursor)}))
	img.Attr = append(img.Attr,
		html.Attribute{Key: "src", Val: src},
		html.Attribute{Key: "width", Val: strconv.Itoa(int(f.Layout.Canvas.Width))},
		html.Attribute{Key: "height", Val: strconv.Itoa(int(f.Layout.Canvas.Height))},
		html.Attribute{Key: "alt", Val: "Page " + strconv.Itoa(f.Page)},
	)
	page.AppendChild(img)

	overlay := element(atom.Div, ClassOverlay, layer(display, style{"pointer-events": "none"}))
	for _, o := range f.Overlays {
		sel := element(atom.Div, ClassSelection, box(o.Rect, style{"pointer-events": "auto"}))
		sel.Attr = append(sel.Attr, html.Attribute{Key: "data-id", Val: o.ID})
		overlay.AppendChild(sel)
	}
	page.AppendChild(overlay)

	events := "none"
	if f.SurfaceInteractive {
		events = "auto"
	}
	surface := element(atom.Div, ClassSurface, layer(display, style{
		"cursor":         string(f.SurfaceCursor),
		"pointer-events": events,
	}))
	if f.Preview != nil {
		surface.AppendChild(element(atom.Div, ClassPreview, box(*f.Preview, nil)))
	}
	page.AppendChild(surface)

	info := element(atom.Span, ClassPageInfo, nil)
	info.AppendChild(&html.Node{Type: html.TextNode, Data: f.PageIndicator()})
	viewer.AppendChild(info)
	zoom := element(atom.Span, ClassZoomInfo, nil)
	zoom.AppendChild(&html.Node{Type: html.TextNode, Data: f.ZoomIndicator()})
	viewer.AppendChild(zoom)

	return viewer, nil
}

// Render writes the viewer element for f to w.
func Render(w io.Writer, f *render.Frame, opts Options) error {
	n, err := Build(f, opts)
	if err != nil {
		return err
	}
	return html.Render(w, n)
}

// Target presents every frame by writing it to a fresh writer.
type Target struct {
	Open    func() (io.WriteCloser, error)
	Options Options
}

func (t Target) Present(f *render.Frame) error {
	w, err := t.Open()
	if err != nil {
		return err
	}
	if err := Render(w, f, t.Options); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

type style map[string]string

// Stable property order keeps output diffable.
var styleOrder = []string{
	"position", "overflow", "left", "top", "width", "height",
	"transform", "cursor", "pointer-events",
}

func (s style) String() string {
	var b strings.Builder
	for _, k := range styleOrder {
		v, ok := s[k]
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteByte(';')
	}
	return b.String()
}

func element(a atom.Atom, class string, s style) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     []html.Attribute{{Key: "class", Val: class}},
	}
	if len(s) > 0 {
		n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: s.String()})
	}
	return n
}

// layer is a full-size absolutely positioned child of the page element.
func layer(display coords.Size, extra style) style {
	return box(coords.Rect{Width: display.Width, Height: display.Height}, extra)
}

func box(r coords.Rect, extra style) style {
	s := style{
		"position": "absolute",
		"left":     px(r.X),
		"top":      px(r.Y),
		"width":    px(r.Width),
		"height":   px(r.Height),
	}
	for k, v := range extra {
		s[k] = v
	}
	return s
}

func px(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64) + "px"
}
