// Package gesture turns pointer events on the page into draw and pan
// gestures. Drawing and panning share one state so they can never overlap.
package gesture

import (
	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/observability"
)

// Mode is the gesture currently in progress.
type Mode int

const (
	Idle Mode = iota
	Drawing
	Panning
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Panning:
		return "panning"
	default:
		return "unknown"
	}
}

// Button identifies the pointer button of a pointer-down event.
type Button int

const (
	Primary Button = iota
	Middle
	Secondary
)

type Config struct {
	// MinSize is the display-pixel threshold both sides of a drawn rectangle
	// must exceed for it to be kept.
	MinSize float64
}

func DefaultConfig() Config { return Config{MinSize: 10} }

// Controller is the draw/pan state machine. Points are display pixels local
// to the drawing surface.
type Controller struct {
	cfg     Config
	log     observability.Logger
	mode    Mode
	panTool bool

	start   coords.Point
	current coords.Point
	last    coords.Point
}

func New(cfg Config, log observability.Logger) *Controller {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Controller{cfg: cfg, log: log}
}

func (c *Controller) Mode() Mode     { return c.mode }
func (c *Controller) PanTool() bool  { return c.panTool }
func (c *Controller) Config() Config { return c.cfg }
func (c *Controller) Drawing() bool  { return c.mode == Drawing }
func (c *Controller) Panning() bool  { return c.mode == Panning }

// TogglePanTool flips pan mode, abandoning any gesture in progress, and
// returns the new setting.
func (c *Controller) TogglePanTool() bool {
	c.Reset()
	c.panTool = !c.panTool
	return c.panTool
}

// SetPanTool forces pan mode on or off.
func (c *Controller) SetPanTool(on bool) {
	if c.panTool != on {
		c.TogglePanTool()
	}
}

// PanEnabled reports whether pointer input pans instead of draws at zoom.
// At zoom <= 1 the page fits and the drawing surface stays interactive.
func (c *Controller) PanEnabled(zoom float64) bool {
	return c.panTool && zoom > 1
}

// BeginDraw starts a draw gesture at p. It refuses when another gesture is
// active, when the button is not primary or when panning is enabled.
func (c *Controller) BeginDraw(p coords.Point, b Button, zoom float64) bool {
	if c.mode != Idle || b != Primary || c.PanEnabled(zoom) {
		return false
	}
	c.mode = Drawing
	c.start, c.current = p, p
	return true
}

// MoveDraw updates the live end point of a draw gesture.
func (c *Controller) MoveDraw(p coords.Point) bool {
	if c.mode != Drawing {
		return false
	}
	c.current = p
	return true
}

// Preview is the normalized rectangle of the draw gesture in progress.
func (c *Controller) Preview() (coords.Rect, bool) {
	if c.mode != Drawing {
		return coords.Rect{}, false
	}
	return coords.NormalizeRect(c.start, c.current), true
}

// EndDraw finishes a draw gesture at p. The rectangle is returned only when
// both sides exceed MinSize; smaller gestures are dropped without error.
func (c *Controller) EndDraw(p coords.Point) (coords.Rect, bool) {
	if c.mode != Drawing {
		return coords.Rect{}, false
	}
	c.current = p
	r := coords.NormalizeRect(c.start, c.current)
	c.mode = Idle
	if r.Width <= c.cfg.MinSize || r.Height <= c.cfg.MinSize {
		c.log.Debug("gesture discarded",
			observability.Float64("width", r.Width),
			observability.Float64("height", r.Height),
		)
		return coords.Rect{}, false
	}
	return r, true
}

// Leave handles the pointer leaving the drawing surface. A draw gesture is
// cancelled; a pan keeps tracking until the pointer is released.
func (c *Controller) Leave() bool {
	if c.mode != Drawing {
		return false
	}
	c.mode = Idle
	c.log.Debug("gesture cancelled")
	return true
}

// BeginPan starts tracking a pan at p. Only allowed while idle with pan
// enabled.
func (c *Controller) BeginPan(p coords.Point, b Button, zoom float64) bool {
	if c.mode != Idle || b != Primary || !c.PanEnabled(zoom) {
		return false
	}
	c.mode = Panning
	c.last = p
	return true
}

// MovePan returns the raw delta since the previous pan event.
func (c *Controller) MovePan(p coords.Point) (dx, dy float64, ok bool) {
	if c.mode != Panning {
		return 0, 0, false
	}
	dx, dy = p.X-c.last.X, p.Y-c.last.Y
	c.last = p
	return dx, dy, true
}

func (c *Controller) EndPan() bool {
	if c.mode != Panning {
		return false
	}
	c.mode = Idle
	return true
}

// Reset drops any gesture in progress. Pan mode itself is left as is.
func (c *Controller) Reset() {
	c.mode = Idle
	c.start, c.current, c.last = coords.Point{}, coords.Point{}, coords.Point{}
}

