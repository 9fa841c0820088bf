// Package viewport resolves the fit-to-container base scale, the user zoom
// and the pan offset into the scales used for rasterising and for display.
package viewport

import (
	"fmt"
	"math"

	"github.com/wudi/redactkit/coords"
)

type Config struct {
	MinZoom  float64
	MaxZoom  float64
	ZoomStep float64
	// RenderMultiplier only raises bitmap resolution. It never affects the
	// display size or persisted coordinates.
	RenderMultiplier float64
	// Padding is subtracted from each container dimension before fitting.
	Padding float64
}

func DefaultConfig() Config {
	return Config{
		MinZoom:          0.5,
		MaxZoom:          3.0,
		ZoomStep:         0.25,
		RenderMultiplier: 3.0,
		Padding:          80,
	}
}

func (c Config) Validate() error {
	switch {
	case c.MinZoom <= 0:
		return fmt.Errorf("min zoom must be positive, got %g", c.MinZoom)
	case c.MaxZoom < c.MinZoom:
		return fmt.Errorf("max zoom %g below min zoom %g", c.MaxZoom, c.MinZoom)
	case c.MinZoom > 1 || c.MaxZoom < 1:
		return fmt.Errorf("zoom range [%g, %g] must include 1", c.MinZoom, c.MaxZoom)
	case c.ZoomStep <= 0:
		return fmt.Errorf("zoom step must be positive, got %g", c.ZoomStep)
	case c.RenderMultiplier <= 0:
		return fmt.Errorf("render multiplier must be positive, got %g", c.RenderMultiplier)
	case c.Padding < 0:
		return fmt.Errorf("padding must not be negative, got %g", c.Padding)
	}
	return nil
}

// State is a snapshot of the viewport.
type State struct {
	BaseScale        float64
	Zoom             float64
	RenderMultiplier float64
	PanX, PanY       float64
}

// Layout is everything a render pass needs for one page in one container.
type Layout struct {
	RenderScale  float64
	DisplayScale float64
	// Canvas is the bitmap size at render scale, in device pixels.
	Canvas coords.Size
	// Display is the on-screen size of the page element; it is Canvas divided
	// by the render multiplier and is what coordinate mapping uses.
	Display coords.Size
	// Origin is the top-left of the page element when centred in the
	// container, before pan.
	Origin coords.Point
}

type Viewport struct {
	cfg   Config
	state State
}

func New(cfg Config) *Viewport {
	return &Viewport{
		cfg: cfg,
		state: State{
			BaseScale:        1,
			Zoom:             1,
			RenderMultiplier: cfg.RenderMultiplier,
		},
	}
}

func (v *Viewport) Config() Config { return v.cfg }
func (v *Viewport) State() State   { return v.state }
func (v *Viewport) Zoom() float64  { return v.state.Zoom }

// Restore puts back a snapshot taken with State.
func (v *Viewport) Restore(st State) { v.state = st }

// Fit recomputes the base scale so page fits inside container minus padding,
// never enlarging beyond 1.0. An unusable container keeps the previous scale.
func (v *Viewport) Fit(container, page coords.Size) float64 {
	avail := coords.Size{Width: container.Width - v.cfg.Padding, Height: container.Height - v.cfg.Padding}
	if !avail.Valid() || !page.Valid() {
		return v.state.BaseScale
	}
	v.state.BaseScale = math.Min(math.Min(avail.Width/page.Width, avail.Height/page.Height), 1.0)
	return v.state.BaseScale
}

// RenderScale is baseScale × zoom × render multiplier.
func (v *Viewport) RenderScale() float64 {
	return v.state.BaseScale * v.state.Zoom * v.state.RenderMultiplier
}

// DisplayScale is baseScale × zoom.
func (v *Viewport) DisplayScale() float64 {
	return v.state.BaseScale * v.state.Zoom
}

// Layout fits page into container and derives bitmap and display sizes.
func (v *Viewport) Layout(container, page coords.Size) Layout {
	v.Fit(container, page)
	canvas := page.Scale(v.RenderScale())
	// Same as canvas / RenderMultiplier, without the round trip through it.
	display := page.Scale(v.DisplayScale())
	return Layout{
		RenderScale:  v.RenderScale(),
		DisplayScale: v.DisplayScale(),
		Canvas:       canvas,
		Display:      display,
		Origin: coords.Point{
			X: (container.Width - display.Width) / 2,
			Y: (container.Height - display.Height) / 2,
		},
	}
}

// ZoomIn raises zoom by one step up to MaxZoom and reports whether it changed.
func (v *Viewport) ZoomIn() bool {
	if v.state.Zoom >= v.cfg.MaxZoom {
		return false
	}
	v.state.Zoom = math.Min(v.state.Zoom+v.cfg.ZoomStep, v.cfg.MaxZoom)
	return true
}

// ZoomOut lowers zoom by one step down to MinZoom and reports whether it
// changed. Once the page fits again (zoom <= 1) the pan offset is cleared.
func (v *Viewport) ZoomOut() bool {
	if v.state.Zoom <= v.cfg.MinZoom {
		return false
	}
	v.state.Zoom = math.Max(v.state.Zoom-v.cfg.ZoomStep, v.cfg.MinZoom)
	if v.state.Zoom <= 1 {
		v.ResetPan()
	}
	return true
}

// SetZoom clamps z into [MinZoom, MaxZoom] and returns the applied value.
func (v *Viewport) SetZoom(z float64) float64 {
	v.state.Zoom = math.Max(v.cfg.MinZoom, math.Min(z, v.cfg.MaxZoom))
	if v.state.Zoom <= 1 {
		v.ResetPan()
	}
	return v.state.Zoom
}

// ResetZoom sets zoom back to 1.0 and clears the pan offset.
func (v *Viewport) ResetZoom() {
	v.state.Zoom = 1
	v.ResetPan()
}

// Pan shifts the offset by a raw pixel delta.
func (v *Viewport) Pan(dx, dy float64) {
	v.state.PanX += dx
	v.state.PanY += dy
}

func (v *Viewport) ResetPan() {
	v.state.PanX, v.state.PanY = 0, 0
}

func (v *Viewport) PanOffset() coords.Point {
	return coords.Point{X: v.state.PanX, Y: v.state.PanY}
}

// ZoomPercent is the zoom indicator value, e.g. 125 for 1.25.
func (v *Viewport) ZoomPercent() int {
	return int(math.Round(v.state.Zoom * 100))
}
