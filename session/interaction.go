package session

import (
	"context"
	"fmt"

	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/export"
	"github.com/wudi/redactkit/fileio"
	"github.com/wudi/redactkit/gesture"
	"github.com/wudi/redactkit/observability"
	"github.com/wudi/redactkit/selection"
)

// GoToPage shows page n. Out-of-range requests and the current page are
// ignored and report false. The pan offset is reset on every page change.
// If the new page cannot be rendered the previous page stays current.
func (s *Session) GoToPage(ctx context.Context, n int) (bool, error) {
	if s.doc == nil || n < 1 || n > s.doc.pages.Len() || n == s.page {
		return false, nil
	}
	prev, pan := s.page, s.viewport.PanOffset()
	s.gestures.Reset()
	s.page = n
	s.viewport.ResetPan()
	if err := s.render(ctx); err != nil {
		s.page = prev
		s.viewport.Pan(pan.X, pan.Y)
		return false, err
	}
	return true, nil
}

func (s *Session) NextPage(ctx context.Context) (bool, error) { return s.GoToPage(ctx, s.page+1) }
func (s *Session) PrevPage(ctx context.Context) (bool, error) { return s.GoToPage(ctx, s.page-1) }

// ZoomIn raises zoom by one step and re-renders at the new resolution.
func (s *Session) ZoomIn(ctx context.Context) (bool, error) {
	return s.zoom(ctx, s.viewport.ZoomIn)
}

func (s *Session) ZoomOut(ctx context.Context) (bool, error) {
	return s.zoom(ctx, s.viewport.ZoomOut)
}

func (s *Session) ResetZoom(ctx context.Context) (bool, error) {
	return s.zoom(ctx, func() bool {
		before := s.viewport.State()
		s.viewport.ResetZoom()
		return before != s.viewport.State()
	})
}

// SetZoom clamps z to the configured range.
func (s *Session) SetZoom(ctx context.Context, z float64) (bool, error) {
	return s.zoom(ctx, func() bool {
		before := s.viewport.State()
		s.viewport.SetZoom(z)
		return before != s.viewport.State()
	})
}

// zoom applies a zoom change and re-renders. If the page cannot be rendered
// at the new zoom, zoom and pan go back to what the visible frame shows.
func (s *Session) zoom(ctx context.Context, apply func() bool) (bool, error) {
	prev := s.viewport.State()
	if !apply() {
		return false, nil
	}
	s.log.Debug("zoom changed", observability.Int("percent", s.viewport.ZoomPercent()))
	if s.doc == nil {
		return true, nil
	}
	if s.gestures.Panning() {
		s.gestures.Reset()
	}
	if err := s.render(ctx); err != nil {
		s.viewport.Restore(prev)
		return false, err
	}
	return true, nil
}

// TogglePan flips the pan tool and returns the new state. The pan offset is
// cleared either way.
func (s *Session) TogglePan() bool {
	on := s.gestures.TogglePanTool()
	s.viewport.ResetPan()
	s.redraw()
	return on
}

// PointerDown handles a press at p, given in container coordinates.
//
// With panning enabled the press starts a pan. Otherwise a primary press on
// an existing selection deletes it, and anywhere else on the page starts a
// draw gesture.
func (s *Session) PointerDown(p coords.Point, b gesture.Button) error {
	f := s.Frame()
	if f == nil || f.Page != s.page {
		return nil
	}
	zoom := s.viewport.Zoom()
	if s.gestures.PanEnabled(zoom) {
		if s.gestures.BeginPan(p, b, zoom) {
			s.redraw()
		}
		return nil
	}

	sp := f.ToSurface(p)
	if !f.OnSurface(sp) || b != gesture.Primary || s.gestures.Mode() != gesture.Idle {
		return nil
	}
	mapper := coords.NewMapper(s.doc.pages)
	if hit, ok := s.store.HitTest(s.page, mapper.ToPDF(sp, s.page, f.Layout.Display)); ok {
		s.store.Remove(hit.ID)
		s.log.Info("selection deleted", observability.String("id", hit.ID), observability.Int("page", hit.Page))
		s.redraw()
		return nil
	}
	if s.gestures.BeginDraw(sp, b, zoom) {
		s.redraw()
	}
	return nil
}

// PointerMove handles pointer motion at p in container coordinates. Leaving
// the page element cancels a draw gesture.
func (s *Session) PointerMove(p coords.Point) {
	f := s.Frame()
	if f == nil {
		return
	}
	switch s.gestures.Mode() {
	case gesture.Panning:
		if dx, dy, ok := s.gestures.MovePan(p); ok {
			s.viewport.Pan(dx, dy)
			s.redraw()
		}
	case gesture.Drawing:
		sp := f.ToSurface(p)
		if !f.OnSurface(sp) {
			s.PointerLeave()
			return
		}
		if s.gestures.MoveDraw(sp) {
			s.redraw()
		}
	}
}

// PointerUp finishes the active gesture. A draw gesture large enough to
// keep is converted to PDF space and stored; the new selection is returned.
// A release off the page element cancels the draw.
func (s *Session) PointerUp(p coords.Point) (selection.Selection, bool, error) {
	f := s.Frame()
	if f == nil {
		return selection.Selection{}, false, nil
	}
	switch s.gestures.Mode() {
	case gesture.Panning:
		s.gestures.EndPan()
		s.redraw()
		return selection.Selection{}, false, nil
	case gesture.Drawing:
	default:
		return selection.Selection{}, false, nil
	}

	sp := f.ToSurface(p)
	if !f.OnSurface(sp) {
		s.PointerLeave()
		return selection.Selection{}, false, nil
	}
	r, ok := s.gestures.EndDraw(sp)
	if !ok {
		s.redraw()
		return selection.Selection{}, false, nil
	}
	mapper := coords.NewMapper(s.doc.pages)
	pdf := mapper.RectToPDF(r, s.page, f.Layout.Display)
	sel, err := s.store.Add(selection.FromRect(s.page, pdf))
	s.redraw()
	if err != nil {
		s.log.Warn("selection rejected", observability.Error("error", err))
		return selection.Selection{}, false, err
	}
	s.log.Info("selection added",
		observability.String("id", sel.ID),
		observability.Int("page", sel.Page),
		observability.Float64("width", sel.Width),
		observability.Float64("height", sel.Height),
	)
	return sel, true, nil
}

// PointerLeave cancels a draw gesture. A pan keeps tracking.
func (s *Session) PointerLeave() {
	if s.gestures.Leave() {
		s.redraw()
	}
}

// Selections returns every selection in insertion order.
func (s *Session) Selections() []selection.Selection { return s.store.ListAll() }

func (s *Session) SelectionsForPage(page int) []selection.Selection {
	return s.store.ListForPage(page)
}

// DeleteSelection removes a selection by id.
func (s *Session) DeleteSelection(id string) bool {
	if !s.store.Remove(id) {
		return false
	}
	s.log.Info("selection deleted", observability.String("id", id))
	s.redraw()
	return true
}

// ClearSelections removes every selection once c confirms.
func (s *Session) ClearSelections(c selection.Confirmer) (int, error) {
	n, err := s.store.Clear(c)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("selections cleared", observability.Int("count", n))
		s.redraw()
	}
	return n, nil
}

// FocusSelection navigates to the page holding selection id.
func (s *Session) FocusSelection(ctx context.Context, id string) error {
	sel, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", selection.ErrNotFound, id)
	}
	_, err := s.GoToPage(ctx, sel.Page)
	return err
}

// Save exports the redacted document and hands it to the host. The
// selections are left untouched whatever the outcome.
func (s *Session) Save(ctx context.Context) (fileio.SaveResult, error) {
	if !s.enter() {
		return fileio.SaveResult{}, ErrBusy
	}
	defer s.leave()

	if s.doc == nil {
		return fileio.SaveResult{}, ErrNoDocument
	}
	sels := s.store.ListAll()
	if len(sels) == 0 {
		return fileio.SaveResult{}, export.ErrNothingToRedact
	}
	res, err := s.assembler.Assemble(ctx, s.doc.source, s.doc.name, sels)
	if err != nil {
		return fileio.SaveResult{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	out, err := s.deps.Host.SavePDFFile(ctx, fileio.NewSaveRequest(res.Name, res.Data))
	switch {
	case err != nil:
		s.log.Error("save failed", observability.String("name", res.Name), observability.Error("error", err))
		return out, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	case out.Canceled:
		s.log.Info("save cancelled", observability.String("name", res.Name))
		return out, ErrSaveCancelled
	case !out.Success:
		s.log.Error("save failed", observability.String("name", res.Name), observability.String("message", out.Message))
		return out, fmt.Errorf("%w: %s", ErrSaveFailed, out.Message)
	}
	s.log.Info("document saved",
		observability.String("path", out.Path),
		observability.Int("pages", res.Pages),
		observability.Int("rects", res.Rects),
	)
	return out, nil
}
