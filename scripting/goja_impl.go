package scripting

import (
	"context"
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/gesture"
	"github.com/wudi/redactkit/observability"
	"github.com/wudi/redactkit/selection"
)

type GojaEngine struct {
	vm  *goja.Runtime
	log observability.Logger
	// ctx is the context of the Execute call in progress.
	ctx context.Context
}

func NewEngine(log observability.Logger) *GojaEngine {
	if log == nil {
		log = observability.NopLogger{}
	}
	e := &GojaEngine{vm: goja.New(), log: log, ctx: context.Background()}
	e.bindConsole()
	return e
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.ctx = ctx
	defer func() { e.ctx = context.Background() }()

	done := make(chan struct{})
	watcher := make(chan struct{})
	// The watcher must be gone before the interrupt is cleared, or a late
	// cancellation would leak into the next Execute.
	defer func() {
		close(done)
		<-watcher
		e.vm.ClearInterrupt()
	}()

	go func() {
		defer close(watcher)
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	if val == nil {
		return nil, nil
	}
	return val.Export(), nil
}

func (e *GojaEngine) bindConsole() {
	console := e.vm.NewObject()
	console.Set("log", func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, a := range call.Arguments {
			parts[i] = a.String()
		}
		e.log.Info("script", observability.String("message", strings.Join(parts, " ")))
		return goja.Undefined()
	})
	e.vm.Set("console", console)
}

// throw raises err as a JS exception.
func (e *GojaEngine) throw(err error) {
	panic(e.vm.NewGoError(err))
}

func (e *GojaEngine) point(call goja.FunctionCall, at int) coords.Point {
	if len(call.Arguments) < at+2 {
		e.throw(fmt.Errorf("expected x and y arguments"))
	}
	return coords.Point{X: call.Argument(at).ToFloat(), Y: call.Argument(at + 1).ToFloat()}
}

func (e *GojaEngine) selectionValue(s selection.Selection) goja.Value {
	return e.vm.ToValue(map[string]interface{}{
		"id":     s.ID,
		"page":   s.Page,
		"x":      s.X,
		"y":      s.Y,
		"width":  s.Width,
		"height": s.Height,
	})
}

func (e *GojaEngine) changed(ok bool, err error) goja.Value {
	if err != nil {
		e.throw(err)
	}
	return e.vm.ToValue(ok)
}

func buttonOf(v goja.Value) gesture.Button {
	if v == nil || goja.IsUndefined(v) {
		return gesture.Primary
	}
	switch v.ToInteger() {
	case 1:
		return gesture.Middle
	case 2:
		return gesture.Secondary
	default:
		return gesture.Primary
	}
}

// Bind registers the session API. Mouse buttons use DOM numbering:
// 0 primary, 1 middle, 2 secondary.
func (e *GojaEngine) Bind(s Session) error {
	vm := e.vm
	fns := map[string]func(goja.FunctionCall) goja.Value{
		"load": func(call goja.FunctionCall) goja.Value {
			if err := s.LoadFile(e.ctx, call.Argument(0).String()); err != nil {
				e.throw(err)
			}
			return vm.ToValue(s.PageCount())
		},
		"pointerDown": func(call goja.FunctionCall) goja.Value {
			if err := s.PointerDown(e.point(call, 0), buttonOf(call.Argument(2))); err != nil {
				e.throw(err)
			}
			return vm.ToValue(s.Mode().String())
		},
		"pointerMove": func(call goja.FunctionCall) goja.Value {
			s.PointerMove(e.point(call, 0))
			return goja.Undefined()
		},
		"pointerUp": func(call goja.FunctionCall) goja.Value {
			sel, ok, err := s.PointerUp(e.point(call, 0))
			if err != nil {
				e.throw(err)
			}
			if !ok {
				return goja.Null()
			}
			return e.selectionValue(sel)
		},
		"pointerLeave": func(goja.FunctionCall) goja.Value {
			s.PointerLeave()
			return goja.Undefined()
		},
		"drag": func(call goja.FunctionCall) goja.Value {
			from, to := e.point(call, 0), e.point(call, 2)
			if err := s.PointerDown(from, gesture.Primary); err != nil {
				e.throw(err)
			}
			s.PointerMove(to)
			sel, ok, err := s.PointerUp(to)
			if err != nil {
				e.throw(err)
			}
			if !ok {
				return goja.Null()
			}
			return e.selectionValue(sel)
		},
		"zoomIn":    func(goja.FunctionCall) goja.Value { return e.changed(s.ZoomIn(e.ctx)) },
		"zoomOut":   func(goja.FunctionCall) goja.Value { return e.changed(s.ZoomOut(e.ctx)) },
		"resetZoom": func(goja.FunctionCall) goja.Value { return e.changed(s.ResetZoom(e.ctx)) },
		"setZoom": func(call goja.FunctionCall) goja.Value {
			return e.changed(s.SetZoom(e.ctx, call.Argument(0).ToFloat()))
		},
		"goToPage": func(call goja.FunctionCall) goja.Value {
			return e.changed(s.GoToPage(e.ctx, int(call.Argument(0).ToInteger())))
		},
		"togglePan": func(goja.FunctionCall) goja.Value { return vm.ToValue(s.TogglePan()) },
		"selections": func(goja.FunctionCall) goja.Value {
			sels := s.Selections()
			out := make([]interface{}, len(sels))
			for i, sel := range sels {
				out[i] = e.selectionValue(sel)
			}
			return vm.NewArray(out...)
		},
		"deleteSelection": func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(s.DeleteSelection(call.Argument(0).String()))
		},
		"clearSelections": func(goja.FunctionCall) goja.Value {
			n, err := s.ClearSelections(selection.ConfirmFunc(func(string) (bool, error) { return true, nil }))
			if err != nil {
				e.throw(err)
			}
			return vm.ToValue(n)
		},
		"focusSelection": func(call goja.FunctionCall) goja.Value {
			if err := s.FocusSelection(e.ctx, call.Argument(0).String()); err != nil {
				e.throw(err)
			}
			return vm.ToValue(s.Page())
		},
		"save": func(goja.FunctionCall) goja.Value {
			res, err := s.Save(e.ctx)
			if err != nil {
				e.throw(err)
			}
			return vm.ToValue(map[string]interface{}{
				"success": res.Success,
				"path":    res.Path,
				"message": res.Message,
			})
		},
		"state": func(goja.FunctionCall) goja.Value {
			pan := s.PanOffset()
			st := map[string]interface{}{
				"page":      s.Page(),
				"pageCount": s.PageCount(),
				"zoom":      s.ZoomPercent(),
				"panX":      pan.X,
				"panY":      pan.Y,
				"panTool":   s.PanTool(),
				"mode":      s.Mode().String(),
			}
			if f := s.Frame(); f != nil {
				st["originX"] = f.Layout.Origin.X
				st["originY"] = f.Layout.Origin.Y
				st["displayWidth"] = f.Layout.Display.Width
				st["displayHeight"] = f.Layout.Display.Height
			}
			return vm.ToValue(st)
		},
	}
	for name, fn := range fns {
		if err := vm.Set(name, fn); err != nil {
			return fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return nil
}
