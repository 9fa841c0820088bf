// Package session owns everything that belongs to one open document: page
// geometry, viewport, gestures, selections and the render coordinator.
//
// A Session is driven from a single goroutine. The only exception is the
// processing gate: a Load or Save that overlaps another one fails fast with
// ErrBusy instead of queueing.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/export"
	"github.com/wudi/redactkit/fileio"
	"github.com/wudi/redactkit/geometry"
	"github.com/wudi/redactkit/gesture"
	"github.com/wudi/redactkit/observability"
	"github.com/wudi/redactkit/render"
	"github.com/wudi/redactkit/selection"
	"github.com/wudi/redactkit/viewport"
)

var (
	ErrBusy          = errors.New("another load or save is in progress")
	ErrNoDocument    = errors.New("no document loaded")
	ErrSaveCancelled = errors.New("save cancelled")
	ErrSaveFailed    = errors.New("save failed")
)

type Options struct {
	Viewport  viewport.Config
	Gesture   gesture.Config
	Export    export.Options
	Container coords.Size
	Logger    observability.Logger
	Tracer    observability.Tracer
	// NewID overrides selection id generation.
	NewID func() string
}

func DefaultOptions() Options {
	return Options{
		Viewport:  viewport.DefaultConfig(),
		Gesture:   gesture.DefaultConfig(),
		Export:    export.DefaultOptions(),
		Container: coords.Size{Width: 1200, Height: 820},
	}
}

// Deps are the external collaborators of a session.
type Deps struct {
	Loader render.Loader
	Opener export.Opener
	Host   fileio.Host
	Target render.Target
}

type document struct {
	name   string
	source []byte
	raster render.Document
	pages  *geometry.Table
}

type Session struct {
	deps   Deps
	opts   Options
	log    observability.Logger
	tracer observability.Tracer

	processing atomic.Bool

	doc       *document
	page      int
	container coords.Size
	viewport  *viewport.Viewport
	gestures  *gesture.Controller
	store     *selection.Store
	coord     *render.Coordinator
	assembler *export.Assembler
}

func New(deps Deps, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger{}
	}
	if opts.Tracer == nil {
		opts.Tracer = observability.NopTracer()
	}
	if opts.Export.Logger == nil {
		opts.Export.Logger = opts.Logger
	}
	if opts.Export.Tracer == nil {
		opts.Export.Tracer = opts.Tracer
	}
	s := &Session{
		deps:      deps,
		opts:      opts,
		log:       opts.Logger,
		tracer:    opts.Tracer,
		container: opts.Container,
		viewport:  viewport.New(opts.Viewport),
		gestures:  gesture.New(opts.Gesture, opts.Logger),
		store:     newStore(opts),
		assembler: export.NewAssembler(deps.Opener, opts.Export),
	}
	return s
}

func newStore(opts Options) *selection.Store {
	if opts.NewID != nil {
		return selection.NewStore(selection.WithIDGenerator(opts.NewID))
	}
	return selection.NewStore()
}

func (s *Session) enter() bool { return s.processing.CompareAndSwap(false, true) }
func (s *Session) leave()      { s.processing.Store(false) }

// Processing reports whether a load or save is in flight.
func (s *Session) Processing() bool { return s.processing.Load() }

// LoadFile reads and loads a PDF from disk.
func (s *Session) LoadFile(ctx context.Context, path string) error {
	data, err := fileio.ReadFile(path)
	if err != nil {
		return err
	}
	return s.Load(ctx, filepath.Base(path), data)
}

// Load replaces the current document. Nothing changes unless the document
// opens and every page size is known.
func (s *Session) Load(ctx context.Context, name string, data []byte) error {
	if !s.enter() {
		return ErrBusy
	}
	defer s.leave()

	ctx, span := s.tracer.StartSpan(ctx, observability.SpanLoad)
	defer span.Finish()

	if err := fileio.ValidatePDF(name, data); err != nil {
		span.SetError(err)
		return err
	}
	raster, err := s.deps.Loader.Load(ctx, data)
	if err != nil {
		err = fmt.Errorf("load %s: %w", name, err)
		span.SetError(err)
		s.log.Error("load failed", observability.String("name", name), observability.Error("error", err))
		return err
	}
	pages, err := geometry.Build(ctx, raster)
	if err != nil {
		raster.Close()
		err = fmt.Errorf("load %s: %w", name, err)
		span.SetError(err)
		s.log.Error("load failed", observability.String("name", name), observability.Error("error", err))
		return err
	}

	s.teardown()
	s.doc = &document{name: name, source: data, raster: raster, pages: pages}
	s.page = 1
	s.coord = render.NewCoordinator(raster, pages, s.viewport, s.store, s.deps.Target, render.Options{
		Logger: s.log,
		Tracer: s.tracer,
	})
	span.SetTag("pages", pages.Len())
	s.log.Info("document loaded", observability.String("name", name), observability.Int("pages", pages.Len()))

	// A page that fails to paint is logged by the coordinator; the document
	// stays loaded.
	_ = s.render(ctx)
	return nil
}

// Reset closes the document and clears every piece of session state.
func (s *Session) Reset() error {
	if !s.enter() {
		return ErrBusy
	}
	defer s.leave()
	s.teardown()
	return nil
}

func (s *Session) teardown() {
	if s.doc != nil {
		if err := s.doc.raster.Close(); err != nil {
			s.log.Warn("close document", observability.Error("error", err))
		}
	}
	if s.coord != nil {
		s.coord.Reset()
	}
	s.doc = nil
	s.coord = nil
	s.page = 0
	s.store.Reset()
	s.viewport = viewport.New(s.opts.Viewport)
	s.gestures = gesture.New(s.opts.Gesture, s.log)
}

func (s *Session) Loaded() bool { return s.doc != nil }

func (s *Session) Name() string {
	if s.doc == nil {
		return ""
	}
	return s.doc.name
}

func (s *Session) Page() int { return s.page }

func (s *Session) PageCount() int {
	if s.doc == nil {
		return 0
	}
	return s.doc.pages.Len()
}

// PageSize is the intrinsic size of a 1-based page.
func (s *Session) PageSize(page int) (coords.Size, bool) {
	if s.doc == nil {
		return coords.Size{}, false
	}
	return s.doc.pages.PageSize(page)
}

func (s *Session) Zoom() float64           { return s.viewport.Zoom() }
func (s *Session) ZoomPercent() int        { return s.viewport.ZoomPercent() }
func (s *Session) PanOffset() coords.Point { return s.viewport.PanOffset() }
func (s *Session) PanTool() bool           { return s.gestures.PanTool() }
func (s *Session) Mode() gesture.Mode      { return s.gestures.Mode() }
func (s *Session) Container() coords.Size  { return s.container }

// Frame is the last frame presented, or nil.
func (s *Session) Frame() *render.Frame {
	if s.coord == nil {
		return nil
	}
	return s.coord.Last()
}

func (s *Session) input() render.Input {
	in := render.Input{
		Page:       s.page,
		Container:  s.container,
		PanEnabled: s.gestures.PanEnabled(s.viewport.Zoom()),
		Panning:    s.gestures.Panning(),
	}
	if r, ok := s.gestures.Preview(); ok {
		in.Preview = &r
	}
	return in
}

// render runs a full render. The surface is rebuilt, so any draw gesture
// in progress is abandoned first.
func (s *Session) render(ctx context.Context) error {
	if s.coord == nil {
		return ErrNoDocument
	}
	if s.gestures.Drawing() {
		s.gestures.Reset()
	}
	_, err := s.coord.Render(ctx, s.input())
	return err
}

func (s *Session) redraw() {
	if s.coord == nil {
		return
	}
	if _, err := s.coord.Redraw(s.input()); err != nil && !errors.Is(err, render.ErrNoFrame) {
		s.log.Warn("redraw failed", observability.Error("error", err))
	}
}

// Resize changes the container size and re-renders.
func (s *Session) Resize(ctx context.Context, container coords.Size) error {
	s.container = container
	if s.doc == nil {
		return nil
	}
	return s.render(ctx)
}

// Render repaints the current page.
func (s *Session) Render(ctx context.Context) error { return s.render(ctx) }
