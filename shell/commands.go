package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/fileio"
	"github.com/wudi/redactkit/gesture"
	"github.com/wudi/redactkit/htmlview"
	"github.com/wudi/redactkit/listing"
	"github.com/wudi/redactkit/pdfdoc"
	"github.com/wudi/redactkit/preview"
	"github.com/wudi/redactkit/render"
	"github.com/wudi/redactkit/scripting"
	"github.com/wudi/redactkit/selection"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("quit")

// Session is what the shell drives.
type Session interface {
	scripting.Session
	Name() string
	Reset() error
}

// Runner executes shell command lines against a session. It has no
// terminal of its own, so the same commands work interactively and in
// batch mode.
type Runner struct {
	session  Session
	out      io.Writer
	prompter selection.Confirmer
	scripts  scripting.Engine
	labels   listing.Labels
	preview  preview.Options
}

type RunnerOption func(*Runner)

func WithLabels(l listing.Labels) RunnerOption { return func(r *Runner) { r.labels = l } }

func WithScripts(e scripting.Engine) RunnerOption { return func(r *Runner) { r.scripts = e } }

func WithPreview(o preview.Options) RunnerOption { return func(r *Runner) { r.preview = o } }

func NewRunner(s Session, out io.Writer, prompter selection.Confirmer, opts ...RunnerOption) *Runner {
	r := &Runner{
		session:  s,
		out:      out,
		prompter: prompter,
		labels:   listing.English(),
		preview:  preview.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// commands is the list used for help output and completion.
var commands = []struct{ name, usage string }{
	{"open", "open <file.pdf>            load a document"},
	{"status", "status                      document, page, zoom and gesture state"},
	{"page", "page <n>                    go to page n"},
	{"next", "next                        next page"},
	{"prev", "prev                        previous page"},
	{"zoom", "zoom in|out|reset|<percent> change zoom"},
	{"pan", "pan                         toggle the pan tool"},
	{"down", "down <x> <y> [button]       pointer press (container pixels)"},
	{"move", "move <x> <y>                pointer motion"},
	{"up", "up <x> <y>                  pointer release"},
	{"leave", "leave                       pointer leaves the page"},
	{"draw", "draw <x1> <y1> <x2> <y2>    press, move and release in one step"},
	{"list", "list                        show selections"},
	{"delete", "delete <id>                 remove a selection"},
	{"focus", "focus <id>                  go to the page of a selection"},
	{"clear", "clear                       remove all selections"},
	{"save", "save                        write the redacted copy"},
	{"snapshot", "snapshot <file.png>         write the current view as PNG"},
	{"html", "html <file.html>            write the current view and list as HTML"},
	{"inspect", "inspect <file.pdf> [page]   list filled rectangles in a PDF"},
	{"run", "run <script.js>             run an automation script"},
	{"reset", "reset                       close the document"},
	{"help", "help                        this text"},
	{"quit", "quit                        leave the shell"},
}

// Exec runs one command line.
func (r *Runner) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "/"))
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]
	s := r.session

	switch cmd {
	case "quit", "exit", "q":
		return ErrQuit

	case "help", "h", "?":
		for _, c := range commands {
			fmt.Fprintln(r.out, "  "+c.usage)
		}

	case "open":
		if len(args) != 1 {
			return usage(cmd)
		}
		if err := s.LoadFile(ctx, args[0]); err != nil {
			return err
		}
		r.status()

	case "status":
		r.status()

	case "page":
		n, err := intArg(args, 0)
		if err != nil {
			return err
		}
		return r.navigate(s.GoToPage(ctx, n))

	case "next":
		return r.navigate(s.GoToPage(ctx, s.Page()+1))

	case "prev":
		return r.navigate(s.GoToPage(ctx, s.Page()-1))

	case "zoom":
		if len(args) != 1 {
			return usage(cmd)
		}
		var err error
		switch args[0] {
		case "in", "+":
			_, err = s.ZoomIn(ctx)
		case "out", "-":
			_, err = s.ZoomOut(ctx)
		case "reset", "fit":
			_, err = s.ResetZoom(ctx)
		default:
			pct, perr := strconv.ParseFloat(strings.TrimSuffix(args[0], "%"), 64)
			if perr != nil {
				return usage(cmd)
			}
			_, err = s.SetZoom(ctx, pct/100)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "zoom %d%%\n", s.ZoomPercent())

	case "pan":
		if s.TogglePan() {
			fmt.Fprintln(r.out, "pan tool on")
		} else {
			fmt.Fprintln(r.out, "pan tool off")
		}

	case "down":
		p, err := pointArg(args, 0)
		if err != nil {
			return err
		}
		b := gesture.Primary
		if len(args) > 2 {
			n, err := intArg(args, 2)
			if err != nil {
				return err
			}
			b = gesture.Button(n)
		}
		if err := s.PointerDown(p, b); err != nil {
			return err
		}
		fmt.Fprintln(r.out, s.Mode())

	case "move":
		p, err := pointArg(args, 0)
		if err != nil {
			return err
		}
		s.PointerMove(p)

	case "up":
		p, err := pointArg(args, 0)
		if err != nil {
			return err
		}
		sel, ok, err := s.PointerUp(p)
		if err != nil {
			return err
		}
		r.committed(sel, ok)

	case "leave":
		s.PointerLeave()

	case "draw":
		from, err := pointArg(args, 0)
		if err != nil {
			return err
		}
		to, err := pointArg(args, 2)
		if err != nil {
			return err
		}
		if err := s.PointerDown(from, gesture.Primary); err != nil {
			return err
		}
		s.PointerMove(to)
		sel, ok, err := s.PointerUp(to)
		if err != nil {
			return err
		}
		r.committed(sel, ok)

	case "list", "ls":
		return listing.Markdown(r.out, s.Selections(), r.labels)

	case "delete", "rm":
		if len(args) != 1 {
			return usage(cmd)
		}
		if !s.DeleteSelection(args[0]) {
			return fmt.Errorf("%w: %s", selection.ErrNotFound, args[0])
		}

	case "focus":
		if len(args) != 1 {
			return usage(cmd)
		}
		if err := s.FocusSelection(ctx, args[0]); err != nil {
			return err
		}
		r.status()

	case "clear":
		n, err := s.ClearSelections(r.prompter)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "cleared %d\n", n)

	case "save":
		res, err := s.Save(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "saved %s\n", res.Path)

	case "snapshot":
		if len(args) != 1 {
			return usage(cmd)
		}
		f := s.Frame()
		if f == nil {
			return render.ErrNoFrame
		}
		return writeFile(args[0], func(w io.Writer) error { return preview.Encode(w, f, r.preview) })

	case "html":
		if len(args) != 1 {
			return usage(cmd)
		}
		f := s.Frame()
		if f == nil {
			return render.ErrNoFrame
		}
		return writeFile(args[0], func(w io.Writer) error { return r.writeHTML(w, f) })

	case "inspect":
		return r.inspect(ctx, args)

	case "run":
		if len(args) != 1 {
			return usage(cmd)
		}
		if r.scripts == nil {
			return errors.New("scripting is not enabled")
		}
		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		val, err := r.scripts.Execute(ctx, string(src))
		if err != nil {
			return err
		}
		if val != nil {
			fmt.Fprintln(r.out, val)
		}

	case "reset":
		return s.Reset()

	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
	return nil
}

func (r *Runner) status() {
	s := r.session
	if s.PageCount() == 0 {
		fmt.Fprintln(r.out, "no document")
		return
	}
	pan := "off"
	if s.PanTool() {
		pan = "on"
	}
	fmt.Fprintf(r.out, "%s  page %d / %d  zoom %d%%  pan %s  selections %d  %s\n",
		s.Name(), s.Page(), s.PageCount(), s.ZoomPercent(), pan, len(s.Selections()), s.Mode())
}

func (r *Runner) navigate(ok bool, err error) error {
	if err != nil {
		return err
	}
	if ok {
		r.status()
	}
	return nil
}

func (r *Runner) committed(sel selection.Selection, ok bool) {
	if !ok {
		fmt.Fprintln(r.out, "no selection")
		return
	}
	fmt.Fprintf(r.out, "%s  page %d  %.1f %.1f %.1f×%.1f\n", sel.ID, sel.Page, sel.X, sel.Y, sel.Width, sel.Height)
}

func (r *Runner) writeHTML(w io.Writer, f *render.Frame) error {
	if _, err := io.WriteString(w, "<!DOCTYPE html>\n<html><body>\n"); err != nil {
		return err
	}
	if err := htmlview.Render(w, f, htmlview.Options{}); err != nil {
		return err
	}
	if err := listing.HTML(w, r.session.Selections(), r.labels); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</body></html>\n")
	return err
}

func (r *Runner) inspect(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("inspect")
	}
	data, err := fileio.ReadFile(args[0])
	if err != nil {
		return err
	}
	doc, err := pdfdoc.Open(ctx, data)
	if err != nil {
		return err
	}
	first, last := 1, doc.PageCount()
	if len(args) == 2 {
		n, err := intArg(args, 1)
		if err != nil {
			return err
		}
		first, last = n, n
	}
	var buf bytes.Buffer
	for page := first; page <= last; page++ {
		boxes, err := doc.Painted(page - 1)
		if err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		fmt.Fprintf(&buf, "page %d: %d filled\n", page, len(boxes))
		for _, b := range boxes {
			fmt.Fprintf(&buf, "  %g %g %g×%g %s\n", b.Rect.X, b.Rect.Y, b.Rect.Width, b.Rect.Height, b.Fill.Hex())
		}
	}
	_, err = r.out.Write(buf.Bytes())
	return err
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func usage(cmd string) error {
	for _, c := range commands {
		if c.name == cmd {
			return fmt.Errorf("usage: %s", strings.Join(strings.Fields(c.usage), " "))
		}
	}
	return fmt.Errorf("usage: %s", cmd)
}

func intArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, errors.New("missing number")
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("not a number: %s", args[i])
	}
	return n, nil
}

func pointArg(args []string, i int) (coords.Point, error) {
	if len(args) < i+2 {
		return coords.Point{}, errors.New("missing coordinates")
	}
	x, err := strconv.ParseFloat(args[i], 64)
	if err != nil {
		return coords.Point{}, fmt.Errorf("not a number: %s", args[i])
	}
	y, err := strconv.ParseFloat(args[i+1], 64)
	if err != nil {
		return coords.Point{}, fmt.Errorf("not a number: %s", args[i+1])
	}
	return coords.Point{X: x, Y: y}, nil
}
