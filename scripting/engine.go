package scripting

import (
	"context"

	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/fileio"
	"github.com/wudi/redactkit/gesture"
	"github.com/wudi/redactkit/render"
	"github.com/wudi/redactkit/selection"
)

// Engine runs automation scripts against a redaction session.
type Engine interface {
	// Execute runs script and returns its completion value.
	Execute(ctx context.Context, script string) (interface{}, error)

	// Bind exposes s to scripts as global functions.
	Bind(s Session) error
}

// Session is what scripts can drive. Pointer positions are in container
// coordinates, the same space a mouse event reports.
type Session interface {
	LoadFile(ctx context.Context, path string) error

	PointerDown(p coords.Point, b gesture.Button) error
	PointerMove(p coords.Point)
	PointerUp(p coords.Point) (selection.Selection, bool, error)
	PointerLeave()

	ZoomIn(ctx context.Context) (bool, error)
	ZoomOut(ctx context.Context) (bool, error)
	ResetZoom(ctx context.Context) (bool, error)
	SetZoom(ctx context.Context, z float64) (bool, error)
	GoToPage(ctx context.Context, n int) (bool, error)
	TogglePan() bool

	Selections() []selection.Selection
	DeleteSelection(id string) bool
	ClearSelections(c selection.Confirmer) (int, error)
	FocusSelection(ctx context.Context, id string) error
	Save(ctx context.Context) (fileio.SaveResult, error)

	Page() int
	PageCount() int
	ZoomPercent() int
	PanOffset() coords.Point
	PanTool() bool
	Mode() gesture.Mode
	Frame() *render.Frame
}
