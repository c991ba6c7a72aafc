package formula

import (
	"fmt"
	"strings"
)

// Kind is the declared kind of a formula input. The engine does not enforce
// it; the normaliser uses it to turn raw field values into numbers.
type Kind string

const (
	KindNumber     Kind = "number"
	KindCurrency   Kind = "currency"
	KindPercentage Kind = "percentage"
	KindText       Kind = "text"
)

// ParseKind maps a declared type name onto a Kind. Loose spellings accepted
// by the original payloads ("float", "int", "string") are folded in.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number", "float", "int", "integer", "decimal":
		return KindNumber, nil
	case "currency", "money":
		return KindCurrency, nil
	case "percentage", "percent":
		return KindPercentage, nil
	case "text", "string":
		return KindText, nil
	default:
		return "", fmt.Errorf("unsupported input type %q: must be one of number, currency, percentage, text", s)
	}
}

// Input is one declared input variable of a formula.
type Input struct {
	Name string
	Kind Kind
}

// Formula is an immutable arithmetic transformation with declared inputs and
// exactly one output variable.
type Formula struct {
	Expression string
	Inputs     []Input
	OutputVar  string
}

// InputNames returns the declared input names in declaration order.
func (f *Formula) InputNames() []string {
	names := make([]string, len(f.Inputs))
	for i, in := range f.Inputs {
		names[i] = in.Name
	}
	return names
}

// String renders the formula as "output = expression" for logs.
func (f *Formula) String() string {
	return f.OutputVar + " = " + f.Expression
}
