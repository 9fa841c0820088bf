package contentstream

// Operation is one content stream operator with its operands.
type Operation struct {
	Operator string
	Operands []Operand
}

// Operand is a type-safe operand value.
type Operand interface {
	operand()
	Type() string
}

type NumberOperand struct{ Value float64 }

func (NumberOperand) operand()     {}
func (NumberOperand) Type() string { return "number" }

type NameOperand struct{ Value string }

func (NameOperand) operand()     {}
func (NameOperand) Type() string { return "name" }

type StringOperand struct{ Value []byte }

func (StringOperand) operand()     {}
func (StringOperand) Type() string { return "string" }

type ArrayOperand struct{ Values []Operand }

func (ArrayOperand) operand()     {}
func (ArrayOperand) Type() string { return "array" }

// Num is shorthand for a number operand.
func Num(v float64) NumberOperand { return NumberOperand{Value: v} }

// Op builds an operation from numeric operands.
func Op(operator string, values ...float64) Operation {
	ops := make([]Operand, len(values))
	for i, v := range values {
		ops[i] = Num(v)
	}
	return Operation{Operator: operator, Operands: ops}
}
