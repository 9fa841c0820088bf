// Package shell provides the interactive REPL for redactkit.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/wudi/redactkit/selection"
)

// InteractivePrompter asks for confirmation on a plain reader/writer pair.
type InteractivePrompter struct {
	reader io.Reader
	writer io.Writer
}

func NewInteractivePrompterWithIO(reader io.Reader, writer io.Writer) *InteractivePrompter {
	return &InteractivePrompter{reader: reader, writer: writer}
}

// Confirm prints message with a [y/N] suffix. Only "y" or "yes" confirms.
func (p *InteractivePrompter) Confirm(message string) (bool, error) {
	fmt.Fprintf(p.writer, "%s [y/N]: ", message)

	scanner := bufio.NewScanner(p.reader)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return false, fmt.Errorf("failed to read confirmation: %w", err)
		}
		return false, nil
	}
	return isYes(scanner.Text()), nil
}

var _ selection.Confirmer = (*InteractivePrompter)(nil)

// AutoConfirm answers every prompt with a fixed value.
type AutoConfirm bool

func (a AutoConfirm) Confirm(string) (bool, error) { return bool(a), nil }

// linePrompter reads the answer through the shell's readline instance so
// history and terminal state stay consistent.
type linePrompter struct {
	rl     *readline.Instance
	prompt string
}

func (p *linePrompter) Confirm(message string) (bool, error) {
	p.rl.SetPrompt(message + " [y/N]: ")
	defer p.rl.SetPrompt(p.prompt)

	line, err := p.rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	return isYes(line), nil
}

func isYes(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "y" || s == "yes"
}

// ChooseSavePath asks where to write a file. An empty answer keeps
// defaultPath; "-" or ^C cancels.
func (p *linePrompter) ChooseSavePath(defaultPath string) (string, bool, error) {
	p.rl.SetPrompt(fmt.Sprintf("Save as [%s]: ", defaultPath))
	defer p.rl.SetPrompt(p.prompt)

	line, err := p.rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read file name: %w", err)
	}
	switch line = strings.TrimSpace(line); line {
	case "":
		return defaultPath, true, nil
	case "-":
		return "", false, nil
	}
	return line, true, nil
}
