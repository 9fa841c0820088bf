// Package contentstream builds, parses and inspects PDF page content streams.
// It is the only place that knows operator syntax; the redaction paint is
// expressed here and written into pages by the pdfdoc adapter.
package contentstream

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/wudi/redactkit/coords"
)

type GraphicsState struct {
	CTM       coords.Matrix
	FillColor Color
	stack     []*GraphicsState
}

func NewGraphicsState() *GraphicsState {
	return &GraphicsState{CTM: coords.Identity()}
}

func (gs *GraphicsState) Save() { clone := *gs; gs.stack = append(gs.stack, &clone) }
func (gs *GraphicsState) Restore() error {
	n := len(gs.stack)
	if n == 0 {
		return errors.New("state stack empty")
	}
	*gs = *gs.stack[n-1]
	gs.stack = gs.stack[:n-1]
	return nil
}

// Parse splits a content stream into operations. Inline images and
// dictionaries are skipped; they carry nothing the redaction tooling reads.
func Parse(stream []byte) ([]Operation, error) {
	tokens, err := tokenize(stream)
	if err != nil {
		return nil, err
	}
	var (
		ops     []Operation
		opStack []Operand
		arrays  [][]Operand
	)
	push := func(o Operand) {
		if n := len(arrays); n > 0 {
			arrays[n-1] = append(arrays[n-1], o)
			return
		}
		opStack = append(opStack, o)
	}
	for _, tok := range tokens {
		switch tok.kind {
		case tokNumber:
			num, err := strconv.ParseFloat(tok.text, 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q: %w", tok.text, err)
			}
			push(NumberOperand{Value: num})
		case tokName:
			push(NameOperand{Value: tok.text})
		case tokString:
			push(StringOperand{Value: []byte(tok.text)})
		case tokArrayStart:
			arrays = append(arrays, []Operand{})
		case tokArrayEnd:
			n := len(arrays)
			if n == 0 {
				return nil, errors.New("unbalanced ]")
			}
			arr := ArrayOperand{Values: arrays[n-1]}
			arrays = arrays[:n-1]
			push(arr)
		case tokOperator:
			if len(arrays) > 0 {
				return nil, fmt.Errorf("operator %s inside array", tok.text)
			}
			ops = append(ops, Operation{Operator: tok.text, Operands: opStack})
			opStack = nil
		}
	}
	if len(arrays) > 0 {
		return nil, errors.New("unterminated array")
	}
	if len(opStack) > 0 {
		return nil, fmt.Errorf("dangling operands: %d", len(opStack))
	}
	return ops, nil
}
