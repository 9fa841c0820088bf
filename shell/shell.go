package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/wudi/redactkit/observability"
)

const prompt = "\033[32mredact>\033[0m "

// Shell is the interactive command-line interface.
type Shell struct {
	rl     *readline.Instance
	lines  *linePrompter
	runner *Runner
	log    observability.Logger
}

// Config holds shell configuration.
type Config struct {
	HistoryFile string
	Logger      observability.Logger
}

// New creates an interactive shell over s. Confirmations are read through
// the same line editor.
func New(s Session, cfg Config, opts ...RunnerOption) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = observability.NopLogger{}
	}
	lines := &linePrompter{rl: rl, prompt: prompt}
	runner := NewRunner(s, rl.Stdout(), lines, opts...)
	return &Shell{rl: rl, lines: lines, runner: runner, log: log}, nil
}

// ChooseSavePath is a fileio.Chooser that asks through the shell's line
// editor.
func (sh *Shell) ChooseSavePath(defaultPath string) (string, bool, error) {
	return sh.lines.ChooseSavePath(defaultPath)
}

// Run starts the interactive loop.
func (sh *Shell) Run(ctx context.Context) error {
	defer sh.rl.Close()

	out := sh.rl.Stdout()
	fmt.Fprintln(out, "Draw rectangles over the page, then save. Type help for commands.")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := sh.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if err := sh.runner.Exec(ctx, line); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			sh.log.Debug("command failed", observability.String("line", line), observability.Error("error", err))
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

// RunBatch executes one command per line from r until EOF or quit. The
// first failing command stops the batch.
func RunBatch(ctx context.Context, runner *Runner, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := runner.Exec(ctx, line); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			return fmt.Errorf("line %d: %s: %w", lineNo, line, err)
		}
	}
	return scanner.Err()
}

func completer() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, c := range commands {
		switch c.name {
		case "open", "inspect":
			items = append(items, readline.PcItem(c.name, readline.PcItemDynamic(filesWithExt(".pdf"))))
		case "run":
			items = append(items, readline.PcItem(c.name, readline.PcItemDynamic(filesWithExt(".js"))))
		case "zoom":
			items = append(items, readline.PcItem(c.name,
				readline.PcItem("in"), readline.PcItem("out"), readline.PcItem("reset")))
		default:
			items = append(items, readline.PcItem(c.name))
		}
	}
	return readline.NewPrefixCompleter(items...)
}

// filesWithExt completes file names in the current directory.
func filesWithExt(ext string) func(string) []string {
	return func(string) []string {
		entries, err := os.ReadDir(".")
		if err != nil {
			return nil
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() || strings.EqualFold(filepath.Ext(e.Name()), ext) {
				names = append(names, e.Name())
			}
		}
		return names
	}
}
