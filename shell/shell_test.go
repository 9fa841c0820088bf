package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wudi/redactkit/contentstream"
	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/export"
	"github.com/wudi/redactkit/fileio"
	"github.com/wudi/redactkit/render"
	"github.com/wudi/redactkit/scripting"
	"github.com/wudi/redactkit/selection"
	"github.com/wudi/redactkit/session"
)

func TestInteractivePrompter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"lowercase y", "y\n", true},
		{"yes with whitespace", "  YES \n", true},
		{"no", "n\n", false},
		{"empty line", "\n", false},
		{"eof", "", false},
		{"anything else", "sure\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewInteractivePrompterWithIO(strings.NewReader(tt.input), &out)
			got, err := p.Confirm("Clear all selections?")
			if err != nil {
				t.Fatalf("confirm: %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if out.String() != "Clear all selections? [y/N]: " {
				t.Errorf("prompt = %q", out.String())
			}
		})
	}
}

type rasterDoc struct{ sizes []coords.Size }

func (d *rasterDoc) PageCount() int { return len(d.sizes) }
func (d *rasterDoc) PageSize(_ context.Context, page int) (coords.Size, error) {
	return d.sizes[page-1], nil
}
func (d *rasterDoc) Render(_ context.Context, page int, scale float64) (image.Image, error) {
	s := d.sizes[page-1].Scale(scale)
	return image.NewRGBA(image.Rect(0, 0, int(s.Width), int(s.Height))), nil
}
func (d *rasterDoc) Close() error { return nil }

type pdfDoc struct{ sizes []coords.Size }

func (d *pdfDoc) PageCount() int                          { return len(d.sizes) }
func (d *pdfDoc) PageSize(index int) (coords.Size, error) { return d.sizes[index], nil }
func (d *pdfDoc) FillRects(int, []coords.Rect, contentstream.Color) error {
	return nil
}
func (d *pdfDoc) Save(w io.Writer) error {
	_, err := io.WriteString(w, "%PDF-1.7 redacted")
	return err
}

type saveHost struct{ dir string }

func (h saveHost) SavePDFFile(ctx context.Context, req fileio.SaveRequest) (fileio.SaveResult, error) {
	return fileio.DiskHost{Dir: h.dir}.SavePDFFile(ctx, req)
}

type fixture struct {
	runner *Runner
	out    *bytes.Buffer
	dir    string
	pdf    string
}

func newFixture(t *testing.T, confirm selection.Confirmer) *fixture {
	t.Helper()
	dir := t.TempDir()
	pdf := filepath.Join(dir, "contract.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF-1.7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sizes := []coords.Size{{Width: 600, Height: 800}, {Width: 600, Height: 800}}
	n := 0
	opts := session.DefaultOptions()
	opts.Container = coords.Size{Width: 380, Height: 480}
	opts.NewID = func() string { n++; return fmt.Sprintf("sel-%d", n) }
	s := session.New(session.Deps{
		Loader: render.LoaderFunc(func(context.Context, []byte) (render.Document, error) {
			return &rasterDoc{sizes: sizes}, nil
		}),
		Opener: export.OpenerFunc(func(context.Context, []byte) (export.Document, error) {
			return &pdfDoc{sizes: sizes}, nil
		}),
		Host: saveHost{dir: dir},
	}, opts)

	out := &bytes.Buffer{}
	engine := scripting.NewEngine(nil)
	if err := engine.Bind(s); err != nil {
		t.Fatal(err)
	}
	return &fixture{
		runner: NewRunner(s, out, confirm, WithScripts(engine)),
		out:    out,
		dir:    dir,
		pdf:    pdf,
	}
}

func (fx *fixture) exec(t *testing.T, line string) string {
	t.Helper()
	fx.out.Reset()
	if err := fx.runner.Exec(context.Background(), line); err != nil {
		t.Fatalf("%s: %v", line, err)
	}
	return fx.out.String()
}

func TestRunnerDrawListSave(t *testing.T) {
	fx := newFixture(t, AutoConfirm(true))
	if got := fx.exec(t, "open "+fx.pdf); !strings.Contains(got, "contract.pdf  page 1 / 2  zoom 100%") {
		t.Fatalf("open = %q", got)
	}
	if got := fx.exec(t, "draw 140 140 190 200"); !strings.HasPrefix(got, "sel-1  page 1  200.0 200.0 100.0×120.0") {
		t.Fatalf("draw = %q", got)
	}
	if got := fx.exec(t, "draw 60 60 62 300"); got != "no selection\n" {
		t.Fatalf("tiny draw = %q", got)
	}
	if got := fx.exec(t, "list"); !strings.Contains(got, "- **Page 1** · Area 1: 100×120 `sel-1`") {
		t.Fatalf("list = %q", got)
	}
	got := fx.exec(t, "save")
	want := filepath.Join(fx.dir, "redacted_contract.pdf")
	if got != "saved "+want+"\n" {
		t.Fatalf("save = %q", got)
	}
	if data, err := os.ReadFile(want); err != nil || string(data) != "%PDF-1.7 redacted" {
		t.Fatalf("saved file = %q %v", data, err)
	}
}

func TestRunnerNavigationAndZoom(t *testing.T) {
	fx := newFixture(t, AutoConfirm(true))
	fx.exec(t, "open "+fx.pdf)
	fx.exec(t, "draw 140 140 190 200")
	if got := fx.exec(t, "next"); !strings.Contains(got, "page 2 / 2") {
		t.Fatalf("next = %q", got)
	}
	if got := fx.exec(t, "next"); got != "" {
		t.Fatalf("next past end = %q", got)
	}
	if got := fx.exec(t, "focus sel-1"); !strings.Contains(got, "page 1 / 2") {
		t.Fatalf("focus = %q", got)
	}
	if got := fx.exec(t, "zoom in"); got != "zoom 125%\n" {
		t.Fatalf("zoom in = %q", got)
	}
	if got := fx.exec(t, "zoom 200%"); got != "zoom 200%\n" {
		t.Fatalf("zoom 200 = %q", got)
	}
	if got := fx.exec(t, "pan"); got != "pan tool on\n" {
		t.Fatalf("pan = %q", got)
	}
	if got := fx.exec(t, "down 10 10"); got != "panning\n" {
		t.Fatalf("down = %q", got)
	}
	fx.exec(t, "move 30 10")
	fx.exec(t, "up 30 10")
	if got := fx.exec(t, "status"); !strings.Contains(got, "zoom 200%  pan on  selections 1  idle") {
		t.Fatalf("status = %q", got)
	}
	if got := fx.exec(t, "zoom reset"); got != "zoom 100%\n" {
		t.Fatalf("reset = %q", got)
	}
}

func TestRunnerClearHonoursPrompter(t *testing.T) {
	fx := newFixture(t, AutoConfirm(false))
	fx.exec(t, "open "+fx.pdf)
	fx.exec(t, "draw 140 140 190 200")
	if got := fx.exec(t, "clear"); got != "cleared 0\n" {
		t.Fatalf("declined clear = %q", got)
	}
	fx.runner.prompter = AutoConfirm(true)
	if got := fx.exec(t, "clear"); got != "cleared 1\n" {
		t.Fatalf("clear = %q", got)
	}
}

func TestRunnerWritesSnapshotAndHTML(t *testing.T) {
	fx := newFixture(t, AutoConfirm(true))
	png := filepath.Join(fx.dir, "view.png")
	if err := fx.runner.Exec(context.Background(), "snapshot "+png); !errors.Is(err, render.ErrNoFrame) {
		t.Fatalf("snapshot without document = %v", err)
	}
	fx.exec(t, "open "+fx.pdf)
	fx.exec(t, "draw 140 140 190 200")
	fx.exec(t, "snapshot "+png)
	if data, err := os.ReadFile(png); err != nil || !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatalf("png = %v", err)
	}
	page := filepath.Join(fx.dir, "view.html")
	fx.exec(t, "html "+page)
	data, err := os.ReadFile(page)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`class="selection-rect"`, `data-id="sel-1"`, "<h2>Selection List</h2>"} {
		if !bytes.Contains(data, []byte(want)) {
			t.Errorf("html missing %s", want)
		}
	}
}

func TestRunnerRunsScripts(t *testing.T) {
	fx := newFixture(t, AutoConfirm(true))
	script := filepath.Join(fx.dir, "redact.js")
	src := fmt.Sprintf(`load(%q); drag(140, 140, 190, 200); selections().length`, fx.pdf)
	os.WriteFile(script, []byte(src), 0o644)
	if got := fx.exec(t, "run "+script); got != "1\n" {
		t.Fatalf("run = %q", got)
	}
}

func TestRunnerErrors(t *testing.T) {
	fx := newFixture(t, AutoConfirm(true))
	ctx := context.Background()
	cases := map[string]error{
		"save":             session.ErrNoDocument,
		"delete nope":      selection.ErrNotFound,
		"open notes.txt":   fileio.ErrNotPDF,
		"inspect notes.md": fileio.ErrNotPDF,
	}
	for line, want := range cases {
		if err := fx.runner.Exec(ctx, line); !errors.Is(err, want) {
			t.Errorf("%s: err = %v, want %v", line, err, want)
		}
	}
	for _, line := range []string{"frobnicate", "page x", "draw 1 2 3", "zoom", "zoom sideways"} {
		if err := fx.runner.Exec(ctx, line); err == nil {
			t.Errorf("%s: expected error", line)
		}
	}
	if err := fx.runner.Exec(ctx, "/quit"); !errors.Is(err, ErrQuit) {
		t.Fatalf("quit = %v", err)
	}
	if err := fx.runner.Exec(ctx, "   "); err != nil {
		t.Fatalf("blank = %v", err)
	}
}

func TestRunBatch(t *testing.T) {
	fx := newFixture(t, AutoConfirm(true))
	input := fmt.Sprintf("# redact the signature\nopen %s\n\ndraw 140 140 190 200\nsave\nquit\nsave\n", fx.pdf)
	if err := RunBatch(context.Background(), fx.runner, strings.NewReader(input)); err != nil {
		t.Fatalf("batch: %v", err)
	}
	if _, err := os.Stat(filepath.Join(fx.dir, "redacted_contract.pdf")); err != nil {
		t.Fatalf("batch did not save: %v", err)
	}

	err := RunBatch(context.Background(), fx.runner, strings.NewReader("status\nbogus\nstatus\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2: bogus") {
		t.Fatalf("batch error = %v", err)
	}
}

func TestCompleterListsCommands(t *testing.T) {
	c := completer()
	got, _ := c.Do([]rune("sna"), 3)
	if len(got) != 1 || string(got[0]) != "pshot " {
		t.Fatalf("completion = %q", got)
	}
}
