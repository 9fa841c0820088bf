package contentstream

import (
	"math"

	"github.com/wudi/redactkit/coords"
)

// OpBBox is the user-space bounding box of a filled rectangle. Rect uses the
// PDF bottom-left origin: X,Y is the lower-left corner after the CTM.
type OpBBox struct {
	OpIndex int
	Rect    coords.Rect
	Fill    Color
}

// Tracer finds the rectangles a content stream fills.
type Tracer struct{}

func NewTracer() *Tracer {
	return &Tracer{}
}

// TraceStream parses stream and traces it.
func (t *Tracer) TraceStream(stream []byte) ([]OpBBox, error) {
	ops, err := Parse(stream)
	if err != nil {
		return nil, err
	}
	return t.Trace(ops)
}

// Trace executes the operations virtually and returns one box per
// rectangle that reached a fill operator. OpIndex is the index of the
// re operator.
func (t *Tracer) Trace(ops []Operation) ([]OpBBox, error) {
	var (
		bboxes  []OpBBox
		pending []OpBBox
	)
	gs := NewGraphicsState()

	for i, op := range ops {
		switch op.Operator {
		case "q":
			gs.Save()
		case "Q":
			if err := gs.Restore(); err != nil {
				return nil, err
			}
		case "cm":
			if len(op.Operands) == 6 {
				m := operandToMatrix(op.Operands)
				gs.CTM = m.Multiply(gs.CTM)
			}
		case "rg":
			if len(op.Operands) == 3 {
				gs.FillColor = Color{
					R: operandToFloat(op.Operands[0]),
					G: operandToFloat(op.Operands[1]),
					B: operandToFloat(op.Operands[2]),
				}
			}
		case "g":
			if len(op.Operands) == 1 {
				v := operandToFloat(op.Operands[0])
				gs.FillColor = Color{R: v, G: v, B: v}
			}
		case "re":
			if len(op.Operands) == 4 {
				x := operandToFloat(op.Operands[0])
				y := operandToFloat(op.Operands[1])
				w := operandToFloat(op.Operands[2])
				h := operandToFloat(op.Operands[3])

				p1 := gs.CTM.Transform(coords.Point{X: x, Y: y})
				p2 := gs.CTM.Transform(coords.Point{X: x + w, Y: y})
				p3 := gs.CTM.Transform(coords.Point{X: x, Y: y + h})
				p4 := gs.CTM.Transform(coords.Point{X: x + w, Y: y + h})
				pending = append(pending, OpBBox{OpIndex: i, Rect: pointsToRect(p1, p2, p3, p4)})
			}
		case "f", "F", "f*", "B", "B*", "b", "b*":
			for _, p := range pending {
				p.Fill = gs.FillColor
				bboxes = append(bboxes, p)
			}
			pending = pending[:0]
		case "n", "S", "s":
			pending = pending[:0]
		}
	}

	return bboxes, nil
}

func operandToMatrix(ops []Operand) coords.Matrix {
	return coords.Matrix{
		operandToFloat(ops[0]),
		operandToFloat(ops[1]),
		operandToFloat(ops[2]),
		operandToFloat(ops[3]),
		operandToFloat(ops[4]),
		operandToFloat(ops[5]),
	}
}

func operandToFloat(op Operand) float64 {
	if n, ok := op.(NumberOperand); ok {
		return n.Value
	}
	return 0
}

func pointsToRect(points ...coords.Point) coords.Rect {
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64

	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	return coords.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
