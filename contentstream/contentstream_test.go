package contentstream

import (
	"bytes"
	"testing"

	"github.com/wudi/redactkit/coords"
)

func TestParseOperandTypes(t *testing.T) {
	ops, err := Parse([]byte("BT /F1 12 Tf (He\\(llo\\)) Tj [(a) -120 (b)] TJ ET % trailing comment\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"BT", "Tf", "Tj", "TJ", "ET"}
	if len(ops) != len(want) {
		t.Fatalf("got %d ops: %+v", len(ops), ops)
	}
	for i, op := range ops {
		if op.Operator != want[i] {
			t.Fatalf("op %d = %s, want %s", i, op.Operator, want[i])
		}
	}
	if ops[1].Operands[0].Type() != "name" || ops[1].Operands[1].Type() != "number" {
		t.Fatalf("Tf operands: %+v", ops[1].Operands)
	}
	if s, ok := ops[2].Operands[0].(StringOperand); !ok || string(s.Value) != "He(llo)" {
		t.Fatalf("Tj operand: %+v", ops[2].Operands)
	}
	arr, ok := ops[3].Operands[0].(ArrayOperand)
	if !ok || len(arr.Values) != 3 {
		t.Fatalf("TJ operand: %+v", ops[3].Operands)
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"1 2", "[1 2 re", "(open", "1 ] f"} {
		if _, err := Parse([]byte(src)); err == nil {
			t.Errorf("%q: expected error", src)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	ops := []Operation{
		Op("q"),
		Op("cm", 1, 0, 0, 1, 10.5, -3),
		{Operator: "Tj", Operands: []Operand{StringOperand{Value: []byte("a(b)\n")}}},
		{Operator: "Do", Operands: []Operand{NameOperand{Value: "Im1"}}},
		Op("Q"),
	}
	enc := Encode(ops)
	if !bytes.Contains(enc, []byte("1 0 0 1 10.5 -3 cm\n")) {
		t.Fatalf("encoded:\n%s", enc)
	}
	back, err := Parse(enc)
	if err != nil {
		t.Fatalf("parse encoded: %v", err)
	}
	if len(back) != len(ops) {
		t.Fatalf("round trip lost operations: %d", len(back))
	}
	if s := back[2].Operands[0].(StringOperand); string(s.Value) != "a(b)\n" {
		t.Fatalf("string = %q", s.Value)
	}
}

func TestFormatNumberHasNoExponent(t *testing.T) {
	cases := map[float64]string{
		0:        "0",
		-0.00001: "0",
		1e7:      "10000000",
		0.123456: "0.1235",
		480:      "480",
		-12.5:    "-12.5",
	}
	for in, want := range cases {
		if got := formatNumber(in); got != want {
			t.Errorf("formatNumber(%g) = %q, want %q", in, got, want)
		}
	}
}

func TestFillRectsTracesBack(t *testing.T) {
	rects := []coords.Rect{
		{X: 200, Y: 480, Width: 100, Height: 120},
		{X: 0, Y: 0, Width: 50, Height: 25},
	}
	red, _ := ParseColor("#ff0000")
	boxes, err := NewTracer().TraceStream(Encode(FillRects(rects, red)))
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if len(boxes) != 2 {
		t.Fatalf("boxes = %+v", boxes)
	}
	for i, b := range boxes {
		if b.Rect != rects[i] {
			t.Errorf("box %d = %v, want %v", i, b.Rect, rects[i])
		}
		if b.Fill != red {
			t.Errorf("box %d fill = %v", i, b.Fill)
		}
	}
	if FillRects(nil, Black) != nil {
		t.Fatalf("no rects should produce no operations")
	}
}

func TestTracerAppliesCTMAndIgnoresUnfilled(t *testing.T) {
	src := []byte(`
q 2 0 0 2 10 20 cm
0 0 5 5 re f
Q
1 1 3 3 re S
0.5 g 0 0 1 1 re n
0 0 4 4 re f*
`)
	boxes, err := NewTracer().TraceStream(src)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if len(boxes) != 2 {
		t.Fatalf("boxes = %+v", boxes)
	}
	if boxes[0].Rect != (coords.Rect{X: 10, Y: 20, Width: 10, Height: 10}) {
		t.Fatalf("scaled box = %v", boxes[0].Rect)
	}
	if boxes[1].Rect != (coords.Rect{X: 0, Y: 0, Width: 4, Height: 4}) || boxes[1].Fill != (Color{R: 0.5, G: 0.5, B: 0.5}) {
		t.Fatalf("restored box = %+v", boxes[1])
	}
	if _, err := NewTracer().TraceStream([]byte("Q")); err == nil {
		t.Fatalf("expected error for unbalanced Q")
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#000")
	if err != nil || c != Black {
		t.Fatalf("#000 = %v %v", c, err)
	}
	c, err = ParseColor("#3366CC")
	if err != nil || c.Hex() != "#3366cc" {
		t.Fatalf("#3366CC = %v %v", c, err)
	}
	for _, bad := range []string{"", "#12", "#zzzzzz", "#1234567"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}
